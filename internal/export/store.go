package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/worker"
)

// FileName turns a country or disaster type into the base name of its JSON
// document: lower case, "/" replaced by "_" and ":" by a space.
func FileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, ":", " ")
	return strings.ToLower(name) + ".json"
}

// EnsureDir creates dir if it does not exist yet.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("could not create directory", "path", dir, "error", err)
		return fmt.Errorf("%w: %s: %v", models.ErrOutputDirectoryUnavailable, dir, err)
	}
	return nil
}

// Document is a named JSON document within a JSONStore.
type Document struct {
	Name  string
	Value any
}

// JSONStore reads and writes JSON documents in a single folder.
type JSONStore struct {
	dir     string
	workers int
}

func NewJSONStore(dir string, workers int) *JSONStore {
	return &JSONStore{dir: dir, workers: workers}
}

func (s *JSONStore) Dir() string {
	return s.dir
}

func (s *JSONStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *JSONStore) Write(name string, v any) error {
	if err := EnsureDir(s.dir); err != nil {
		return err
	}
	return writeJSON(s.Path(name), v)
}

func (s *JSONStore) Read(name string, v any) error {
	return ReadJSON(s.Path(name), v)
}

// WriteAll writes docs concurrently. Every document is attempted; the
// returned error joins all failures.
func (s *JSONStore) WriteAll(ctx context.Context, docs []Document) error {
	if err := EnsureDir(s.dir); err != nil {
		return err
	}

	err := worker.Run(ctx, s.workers, docs, func(ctx context.Context, doc Document) error {
		return writeJSON(s.Path(doc.Name), doc.Value)
	})
	if err != nil {
		return err
	}

	slog.Debug("documents written", "dir", s.dir, "count", len(docs))
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrFileNotOpenable, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}
