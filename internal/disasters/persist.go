package disasters

import (
	"context"
	"fmt"

	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

const (
	AllDisastersFile = "all_disasters.json"
	CountriesFile    = "countries.json"
	TypesFile        = "disasters.json"
)

// Persist writes the full index, the country and type registers and one
// document per disaster type.
func (n *Normalizer) Persist(ctx context.Context, store *export.JSONStore) error {
	if err := store.Write(AllDisastersFile, n.index); err != nil {
		return err
	}

	types := n.Types()
	docs := []export.Document{
		{Name: CountriesFile, Value: nonNil(n.countries)},
		{Name: TypesFile, Value: nonNil(types)},
	}
	for _, t := range types {
		h, _ := n.index.History(t)
		docs = append(docs, export.Document{Name: export.FileName(t), Value: h})
	}

	if err := store.WriteAll(ctx, docs); err != nil {
		return fmt.Errorf("error persisting disasters: %w", err)
	}
	return nil
}

// LoadTypes reads the disaster type register.
func LoadTypes(store *export.JSONStore) ([]string, error) {
	var types []string
	if err := store.Read(TypesFile, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// LoadHistory reads the document of a single disaster type.
func LoadHistory(store *export.JSONStore, disasterType string) (*models.TypeHistory, error) {
	h := models.NewTypeHistory()
	if err := store.Read(export.FileName(disasterType), h); err != nil {
		return nil, err
	}
	return h, nil
}

func LoadIndex(store *export.JSONStore) (*models.DisasterIndex, error) {
	x := models.NewDisasterIndex()
	if err := store.Read(AllDisastersFile, x); err != nil {
		return nil, err
	}
	return x, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// StoreSource loads type histories from persisted documents.
type StoreSource struct {
	Store *export.JSONStore
}

func (s StoreSource) History(disasterType string) (*models.TypeHistory, error) {
	return LoadHistory(s.Store, disasterType)
}

// IndexSource serves type histories from an in-memory index.
type IndexSource struct {
	Index *models.DisasterIndex
}

func (s IndexSource) History(disasterType string) (*models.TypeHistory, error) {
	h, ok := s.Index.History(disasterType)
	if !ok {
		return nil, fmt.Errorf("no records of type %q", disasterType)
	}
	return h, nil
}
