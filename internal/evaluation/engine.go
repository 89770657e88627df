// Package evaluation computes the affected-deaths-per-year (ADPY) metric of
// every disaster type by joining disaster deaths with population counts.
package evaluation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mr1hm/disaster-adpy/internal/metrics"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/resolver"
)

type DisasterSource interface {
	History(disasterType string) (*models.TypeHistory, error)
}

type PopulationSource interface {
	Population(country string, year int) (float64, error)
}

type TypeMetrics struct {
	Type       string
	ADPY       models.Series
	Normalized models.Series
	Events     models.Series
	Deaths     models.Series
}

// Skipped is a disaster record whose population could not be looked up and
// which therefore adds nothing to ADPY.
type Skipped struct {
	Type    string
	ID      string
	Country string
	Year    int
	Err     error
}

type Result struct {
	Types  []string
	ByType map[string]*TypeMetrics

	SummaryADPY   models.Series // normalized sum of all raw ADPY series
	SummaryEvents models.Series

	Skipped []Skipped
}

type Engine struct {
	types      []string
	disasters  DisasterSource
	population PopulationSource
	resolver   resolver.Resolver
}

func NewEngine(types []string, disasters DisasterSource, population PopulationSource, r resolver.Resolver) *Engine {
	return &Engine{
		types:      types,
		disasters:  disasters,
		population: population,
		resolver:   r,
	}
}

// Run evaluates every type over [FirstYear, LastYear]. Failed population
// lookups are logged and skipped; failing to load a type aborts the run.
func (e *Engine) Run() (*Result, error) {
	res := &Result{
		Types:  append([]string(nil), e.types...),
		ByType: make(map[string]*TypeMetrics, len(e.types)),
	}

	var summed models.Series
	for _, t := range e.types {
		h, err := e.disasters.History(t)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", t, err)
		}

		tm, skipped := e.evaluateType(t, h)
		res.ByType[t] = tm
		res.Skipped = append(res.Skipped, skipped...)

		summed = summed.Add(tm.ADPY)
		res.SummaryEvents = res.SummaryEvents.Add(tm.Events)
	}
	res.SummaryADPY = summed.Normalized()

	slog.Info("evaluation complete", "types", len(res.Types), "skipped", len(res.Skipped))
	return res, nil
}

func (e *Engine) evaluateType(disasterType string, h *models.TypeHistory) (*TypeMetrics, []Skipped) {
	tm := &TypeMetrics{Type: disasterType}
	var skipped []Skipped

	for year := models.FirstYear; year <= models.LastYear; year++ {
		i, _ := models.YearIndex(year)
		records := h.Records(year)
		if len(records) == 0 {
			continue
		}

		n := float64(len(records))
		var adpy, deaths float64
		for _, r := range records {
			deaths += float64(r.Deaths)

			pop, err := e.lookup(r.Country, year)
			if err != nil {
				slog.Warn("contribution skipped", "type", disasterType, "id", r.ID, "country", r.Country, "year", year, "error", err)
				metrics.ContributionsSkippedTotal.WithLabelValues(disasterType).Inc()
				skipped = append(skipped, Skipped{Type: disasterType, ID: r.ID, Country: r.Country, Year: year, Err: err})
				continue
			}
			adpy += float64(r.Deaths) / pop / n
		}

		tm.ADPY[i] = adpy
		tm.Events[i] = n
		tm.Deaths[i] = deaths
	}

	tm.Normalized = tm.ADPY.Normalized()
	return tm, skipped
}

func (e *Engine) lookup(country string, year int) (float64, error) {
	resolved, err := e.resolver.Resolve(country)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrPopulationLookupFailed, err)
	}
	pop, err := e.population.Population(resolved, year)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", models.ErrPopulationLookupFailed, resolved, err)
	}
	if pop <= 0 {
		return 0, fmt.Errorf("%w: %s has no population in %d", models.ErrPopulationLookupFailed, resolved, year)
	}
	return pop, nil
}

// Unresolved returns the distinct countries that could not be matched to the
// population registry, in order of first failure.
func (r *Result) Unresolved() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.Skipped {
		if errors.Is(s.Err, models.ErrUnresolvedCountry) && !seen[s.Country] {
			seen[s.Country] = true
			out = append(out, s.Country)
		}
	}
	return out
}
