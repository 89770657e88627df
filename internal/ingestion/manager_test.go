package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/goleak"

	"github.com/mr1hm/disaster-adpy/internal/config"
	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/population"
	"github.com/mr1hm/disaster-adpy/internal/report"
	"github.com/mr1hm/disaster-adpy/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func emdatLine(id, year, dtype, country, deaths string) string {
	fields := make([]string, 43)
	fields[0] = id
	fields[1] = year
	fields[3] = "Natural"
	fields[4] = "Hydrological"
	fields[5] = dtype
	fields[9] = "Kill"
	fields[10] = country
	fields[11] = "TCD"
	fields[13] = "Africa"
	fields[34] = deaths
	return strings.Join(fields, ";")
}

func writeFixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	disasters := []string{
		"Dis No;Year;Seq;Disaster Group;Disaster Subgroup;Disaster Type;...",
		emdatLine("2000-0001-TCD", "2000", "Flood", "Chad", "30"),
		emdatLine("2000-0002-TCD", "2000", "Flood", "Chad", "30"),
		emdatLine("1990-0001-TCD", "1990", "Drought", "Chad", ""),
		emdatLine("1995-0001-ATL", "1995", "Drought", "Atlantis", "10"),
	}

	population := []string{"LocID,Location,VarID,Variant,Time,MidPeriod,PopMale,PopFemale,PopTotal,PopDensity"}
	for y := 1950; y <= 2025; y++ {
		population = append(population, fmt.Sprintf("148,Chad,2,Medium,%d,%d.5,,,1000.000,10", y, y))
	}

	disastersCSV := filepath.Join(dir, "emdat.csv")
	populationCSV := filepath.Join(dir, "wpp.csv")
	if err := os.WriteFile(disastersCSV, []byte(strings.Join(disasters, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(populationCSV, []byte(strings.Join(population, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	return &config.Config{
		Paths: config.PathsConfig{
			PopulationCSV: populationCSV,
			DisastersCSV:  disastersCSV,
			PopulationDir: filepath.Join(dir, "population"),
			DisastersDir:  filepath.Join(dir, "disasters"),
			EvaluationDir: filepath.Join(dir, "evaluation"),
		},
		Input: config.InputConfig{
			DisastersDelimiter:  ';',
			PopulationDelimiter: ',',
			SkipHeader:          true,
		},
		Worker:  config.WorkerConfig{Count: 2, BufferSize: 8},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func TestManager_Run(t *testing.T) {
	cfg := writeFixtures(t)

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	res, err := NewManager(cfg, db).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := strings.Join(res.Types, ","); got != "Flood,Drought" {
		t.Errorf("types = %q, want Flood,Drought", got)
	}

	idx, _ := models.YearIndex(2000)
	flood := res.ByType["Flood"]
	if flood.ADPY[idx] != 3e-05 {
		t.Errorf("flood ADPY[2000] = %v, want 3e-05", flood.ADPY[idx])
	}
	if flood.Events[idx] != 2 || flood.Deaths[idx] != 60 {
		t.Errorf("flood 2000: events=%v deaths=%v, want 2 and 60", flood.Events[idx], flood.Deaths[idx])
	}

	if len(res.Skipped) != 1 || res.Skipped[0].Country != "Atlantis" {
		t.Errorf("expected Atlantis to be skipped, got %s", spew.Sdump(res.Skipped))
	}

	for _, name := range []string{"all_disasters.json", "countries.json", "disasters.json", "flood.json", "drought.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.DisastersDir, name)); err != nil {
			t.Errorf("disaster document %s missing: %v", name, err)
		}
	}
	for _, name := range []string{"countries.json", "chad.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.PopulationDir, name)); err != nil {
			t.Errorf("population document %s missing: %v", name, err)
		}
	}
	for _, name := range []string{report.RawTableFile, report.NormalizedTableFile, report.WorkbookFile} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.EvaluationDir, name)); err != nil {
			t.Errorf("evaluation file %s missing: %v", name, err)
		}
	}

	stored, err := db.GetTypeMetrics(ctx, "Flood")
	if err != nil || stored == nil {
		t.Fatalf("stored flood metrics missing: %v", err)
	}
	if stored.Events[idx] != 2 {
		t.Errorf("stored events = %v, want 2", stored.Events[idx])
	}
}

func TestManager_NormalizeDisastersMissingFile(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Paths.DisastersCSV = filepath.Join(t.TempDir(), "missing.csv")

	err := NewManager(cfg, nil).NormalizeDisasters(context.Background())
	if !errors.Is(err, models.ErrFileNotOpenable) {
		t.Fatalf("expected ErrFileNotOpenable, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DisastersDir); !os.IsNotExist(err) {
		t.Error("no disaster documents should have been written")
	}
}

func TestManager_NormalizeDisastersMalformed(t *testing.T) {
	cfg := writeFixtures(t)
	content := emdatLine("2000-0001-TCD", "2000", "Flood", "Chad", "many") + "\n"
	if err := os.WriteFile(cfg.Paths.DisastersCSV, []byte("header\n"+content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewManager(cfg, nil).NormalizeDisasters(context.Background())
	if !errors.Is(err, models.ErrMalformedNumber) {
		t.Fatalf("expected ErrMalformedNumber, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DisastersDir); !os.IsNotExist(err) {
		t.Error("nothing should be persisted after a malformed row")
	}
}

func TestManager_NormalizeEmptyFileSkips(t *testing.T) {
	cfg := writeFixtures(t)
	if err := os.WriteFile(cfg.Paths.PopulationCSV, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewManager(cfg, nil).NormalizePopulation(context.Background()); err != nil {
		t.Fatalf("empty input should be skipped, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.PopulationDir); !os.IsNotExist(err) {
		t.Error("nothing should be written for an empty file")
	}
}

func TestManager_EvaluateWithoutPopulation(t *testing.T) {
	cfg := writeFixtures(t)
	m := NewManager(cfg, nil)
	if err := m.NormalizeDisasters(context.Background()); err != nil {
		t.Fatalf("NormalizeDisasters failed: %v", err)
	}

	if _, err := m.Evaluate(context.Background()); !errors.Is(err, models.ErrFileNotOpenable) {
		t.Fatalf("expected ErrFileNotOpenable for the missing population register, got %v", err)
	}
}

func TestManager_ExportDirectoryUnavailable(t *testing.T) {
	cfg := writeFixtures(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Paths.EvaluationDir = filepath.Join(blocker, "evaluation")

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m := NewManager(cfg, db)
	if err := m.NormalizeDisasters(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.NormalizePopulation(ctx); err != nil {
		t.Fatal(err)
	}
	res, err := m.Evaluate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Export(ctx, res); !errors.Is(err, models.ErrOutputDirectoryUnavailable) {
		t.Fatalf("expected ErrOutputDirectoryUnavailable, got %v", err)
	}

	types, err := db.ListTypes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 {
		t.Errorf("repository should still hold the result, got %s", spew.Sdump(types))
	}
}

func TestManager_EvaluateFromStoredDocuments(t *testing.T) {
	cfg := writeFixtures(t)
	ctx := context.Background()

	m := NewManager(cfg, nil)
	if err := m.NormalizeDisasters(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.NormalizePopulation(ctx); err != nil {
		t.Fatal(err)
	}
	inMemory, err := m.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate with normalized data failed: %v", err)
	}

	stored, err := NewManager(cfg, nil).Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate from documents failed: %v", err)
	}

	if !reflect.DeepEqual(inMemory.Types, stored.Types) {
		t.Fatalf("types differ: %v vs %v", inMemory.Types, stored.Types)
	}
	for _, typ := range inMemory.Types {
		a, b := inMemory.ByType[typ], stored.ByType[typ]
		if !reflect.DeepEqual(a.ADPY, b.ADPY) || !reflect.DeepEqual(a.Normalized, b.Normalized) {
			t.Errorf("%s: results differ between in-memory and stored sources", typ)
		}
	}
	if len(inMemory.Skipped) != len(stored.Skipped) {
		t.Errorf("skipped differ: %s vs %s", spew.Sdump(inMemory.Skipped), spew.Sdump(stored.Skipped))
	}
}

type recordingPlotter struct {
	adpy       []evaluation.Chart
	population []population.Chart
	err        error
}

func (p *recordingPlotter) Plot(c evaluation.Chart) error {
	p.adpy = append(p.adpy, c)
	return p.err
}

func (p *recordingPlotter) PlotPopulation(c population.Chart) error {
	p.population = append(p.population, c)
	return p.err
}

func TestManager_Plotters(t *testing.T) {
	cfg := writeFixtures(t)
	p := &recordingPlotter{}

	res, err := NewManager(cfg, nil, WithADPYPlotter(p), WithPopulationPlotter(p)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(p.population) != 1 {
		t.Fatalf("expected one population chart, got %d", len(p.population))
	}
	chad := p.population[0]
	if chad.Title != "Chad" {
		t.Errorf("population chart title = %q, want Chad", chad.Title)
	}
	if len(chad.Years) != models.SeriesLen || len(chad.Values) != models.SeriesLen {
		t.Errorf("population chart has %d years and %d values, want %d", len(chad.Years), len(chad.Values), models.SeriesLen)
	}

	if len(p.adpy) != len(res.Types)+1 {
		t.Fatalf("expected %d adpy charts, got %d", len(res.Types)+1, len(p.adpy))
	}
	if last := p.adpy[len(p.adpy)-1]; last.Title != evaluation.SummaryTitle {
		t.Errorf("last chart = %q, want the summary", last.Title)
	}
}

func TestManager_PopulationPlotterError(t *testing.T) {
	cfg := writeFixtures(t)
	boom := errors.New("no canvas")
	p := &recordingPlotter{err: boom}

	err := NewManager(cfg, nil, WithPopulationPlotter(p)).NormalizePopulation(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected plotter error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.PopulationDir, "chad.json")); err != nil {
		t.Errorf("population should be persisted before plotting: %v", err)
	}
}
