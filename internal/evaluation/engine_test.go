package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/mr1hm/disaster-adpy/internal/disasters"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/population"
	"github.com/mr1hm/disaster-adpy/internal/resolver"
)

func constantSeries(country string, count int64) *models.CountrySeries {
	cs := &models.CountrySeries{Country: country}
	for i := range cs.Years {
		cs.Years[i] = models.YearFigure{Count: count, Density: 1}
		cs.Development = append(cs.Development, count)
	}
	return cs
}

func record(id, dtype, country string, year, deaths int) models.DisasterRecord {
	return models.DisasterRecord{ID: id, Type: dtype, Country: country, Year: year, Deaths: deaths}
}

func newEngine(index *models.DisasterIndex, pop population.MemorySource) *Engine {
	registry := make([]string, 0, len(pop))
	for _, c := range []string{"Chad", "Peru"} {
		if _, ok := pop[c]; ok {
			registry = append(registry, c)
		}
	}
	return NewEngine(index.Types(), disasters.IndexSource{Index: index}, pop, resolver.NewSubstringResolver(registry, map[string]string{}))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestEngine_FloodScenario(t *testing.T) {
	index := models.NewDisasterIndex()
	index.Insert(record("1", "Flood", "Chad", 2000, 10))
	index.Insert(record("2", "Flood", "Chad", 2000, 20))
	index.Insert(record("3", "Flood", "Peru", 2000, 30))

	pop := population.MemorySource{
		"Chad": constantSeries("Chad", 1000000),
		"Peru": constantSeries("Peru", 500000),
	}

	res, err := newEngine(index, pop).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	flood := res.ByType["Flood"]
	i, _ := models.YearIndex(2000)

	want := (10.0/1e6)/3 + (20.0/1e6)/3 + (30.0/5e5)/3
	if !almostEqual(flood.ADPY[i], want) || !almostEqual(flood.ADPY[i], 0.00003) {
		t.Errorf("ADPY(2000) = %v, want %v", flood.ADPY[i], want)
	}
	if flood.Events[i] != 3 {
		t.Errorf("events = %v, want 3", flood.Events[i])
	}
	if flood.Deaths[i] != 60 {
		t.Errorf("deaths = %v, want 60", flood.Deaths[i])
	}
	if flood.Normalized[i] != 1 {
		t.Errorf("normalized peak = %v, want 1", flood.Normalized[i])
	}
	if len(res.Skipped) != 0 {
		t.Errorf("expected no skipped records:\n%s", spew.Sdump(res.Skipped))
	}
}

func TestEngine_EmptyYearsAreZero(t *testing.T) {
	index := models.NewDisasterIndex()
	index.Insert(record("1", "Storm", "Chad", 1990, 5))

	res, err := newEngine(index, population.MemorySource{"Chad": constantSeries("Chad", 100)}).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	storm := res.ByType["Storm"]
	for year := models.FirstYear; year <= models.LastYear; year++ {
		if year == 1990 {
			continue
		}
		i, _ := models.YearIndex(year)
		if storm.ADPY[i] != 0 || storm.Events[i] != 0 || storm.Deaths[i] != 0 {
			t.Fatalf("year %d: expected zeros, got adpy=%v events=%v deaths=%v", year, storm.ADPY[i], storm.Events[i], storm.Deaths[i])
		}
	}
}

func TestEngine_SkipsFailedLookups(t *testing.T) {
	index := models.NewDisasterIndex()
	index.Insert(record("1", "Flood", "Chad", 2000, 10))
	index.Insert(record("2", "Flood", "Atlantis", 2000, 99))

	res, err := newEngine(index, population.MemorySource{"Chad": constantSeries("Chad", 1000)}).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	i, _ := models.YearIndex(2000)
	flood := res.ByType["Flood"]
	// the unresolved record still counts as an event and its deaths are kept
	if want := 10.0 / 1000 / 2; !almostEqual(flood.ADPY[i], want) {
		t.Errorf("ADPY = %v, want %v", flood.ADPY[i], want)
	}
	if flood.Events[i] != 2 || flood.Deaths[i] != 109 {
		t.Errorf("events=%v deaths=%v, want 2 and 109", flood.Events[i], flood.Deaths[i])
	}

	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skipped record, got %d", len(res.Skipped))
	}
	s := res.Skipped[0]
	if s.ID != "2" || !errors.Is(s.Err, models.ErrPopulationLookupFailed) || !errors.Is(s.Err, models.ErrUnresolvedCountry) {
		t.Errorf("unexpected skip:\n%s", spew.Sdump(s))
	}
	if got := res.Unresolved(); len(got) != 1 || got[0] != "Atlantis" {
		t.Errorf("unexpected unresolved list: %v", got)
	}
}

func TestEngine_Summary(t *testing.T) {
	index := models.NewDisasterIndex()
	index.Insert(record("1", "Flood", "Chad", 1950, 10))
	index.Insert(record("2", "Storm", "Chad", 1950, 30))
	index.Insert(record("3", "Storm", "Chad", 1960, 20))

	res, err := newEngine(index, population.MemorySource{"Chad": constantSeries("Chad", 1000)}).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	i50, _ := models.YearIndex(1950)
	i60, _ := models.YearIndex(1960)
	if res.SummaryADPY[i50] != 1 {
		t.Errorf("summary peak = %v, want 1", res.SummaryADPY[i50])
	}
	if want := 0.02 / 0.04; !almostEqual(res.SummaryADPY[i60], want) {
		t.Errorf("summary 1960 = %v, want %v", res.SummaryADPY[i60], want)
	}
	if res.SummaryEvents[i50] != 2 || res.SummaryEvents[i60] != 1 {
		t.Errorf("unexpected summary events: %v / %v", res.SummaryEvents[i50], res.SummaryEvents[i60])
	}
	if res.SummaryADPY.Max() != 1 {
		t.Errorf("expected normalized summary max 1, got %v", res.SummaryADPY.Max())
	}
}

func TestEngine_MissingTypeAborts(t *testing.T) {
	index := models.NewDisasterIndex()
	e := NewEngine([]string{"Fog"}, disasters.IndexSource{Index: index}, population.MemorySource{}, resolver.NewSubstringResolver(nil, nil))
	if _, err := e.Run(); err == nil {
		t.Error("expected error for a type without records")
	}
}

type recordingPlotter struct {
	titles []string
}

func (p *recordingPlotter) Plot(c Chart) error {
	if len(c.Years) != models.SeriesLen || len(c.Normalized) != models.SeriesLen || len(c.Events) != models.SeriesLen {
		return errors.New("chart series must cover every year")
	}
	p.titles = append(p.titles, c.Title)
	return nil
}

func TestResult_PlotAll(t *testing.T) {
	index := models.NewDisasterIndex()
	index.Insert(record("1", "Flood", "Chad", 1950, 10))
	index.Insert(record("2", "Drought", "Chad", 1951, 1))

	res, err := newEngine(index, population.MemorySource{"Chad": constantSeries("Chad", 1000)}).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	p := &recordingPlotter{}
	if err := res.PlotAll(p); err != nil {
		t.Fatalf("PlotAll failed: %v", err)
	}
	want := []string{"Flood", "Drought", SummaryTitle}
	if len(p.titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, p.titles)
	}
	for i := range want {
		if p.titles[i] != want[i] {
			t.Errorf("chart %d: expected %q, got %q", i, want[i], p.titles[i])
		}
	}
}
