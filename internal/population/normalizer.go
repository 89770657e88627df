// Package population turns UN WPP rows into per-country series covering
// 1920-2020, estimating the years before 1950.
package population

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/metrics"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

// WPP column positions.
const (
	colCountry = 1
	colYear    = 4
	colCount   = 8
	colDensity = 9

	minColumns = colDensity + 1
)

const CountriesFile = "countries.json"

type Normalizer struct {
	countries []string
	series    map[string]*models.CountrySeries
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		series: make(map[string]*models.CountrySeries),
	}
}

// Normalize parses rows, backfills the years before 1950 and reindexes
// every country. Any error aborts the run and leaves the normalizer empty.
func (n *Normalizer) Normalize(rows [][]string) error {
	var countries []string
	figures := make(map[string]map[int]models.YearFigure)

	for i, row := range rows {
		if len(row) < minColumns {
			return fmt.Errorf("row %d: %w: %d columns, need %d", i+1, models.ErrMalformedRow, len(row), minColumns)
		}

		country := row[colCountry]
		count, err := ParseCount(row[colCount])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		density, err := parseDensity(row[colDensity])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		year, err := parseYear(row[colYear])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if year > models.LastYear {
			continue
		}

		years, ok := figures[country]
		if !ok {
			years = make(map[int]models.YearFigure)
			figures[country] = years
			countries = append(countries, country)
		}
		years[year] = models.YearFigure{Count: count, Density: density}
	}

	series := make(map[string]*models.CountrySeries, len(countries))
	for _, c := range countries {
		if err := Backfill(c, figures[c]); err != nil {
			return err
		}
		s, err := Reindex(c, figures[c])
		if err != nil {
			return err
		}
		series[c] = s
	}

	n.countries = countries
	n.series = series

	metrics.RecordsNormalizedTotal.WithLabelValues("population").Add(float64(len(countries)))
	slog.Info("population normalized", "rows", len(rows), "countries", len(countries))
	return nil
}

// Countries returns the country registry in order of first appearance.
func (n *Normalizer) Countries() []string {
	out := make([]string, len(n.countries))
	copy(out, n.countries)
	return out
}

func (n *Normalizer) Series(country string) (*models.CountrySeries, bool) {
	s, ok := n.series[country]
	return s, ok
}

// Persist writes the country register and one document per country.
func (n *Normalizer) Persist(ctx context.Context, store *export.JSONStore) error {
	countries := n.Countries()
	docs := make([]export.Document, 0, len(countries)+1)
	docs = append(docs, export.Document{Name: CountriesFile, Value: countries})
	for _, c := range countries {
		docs = append(docs, export.Document{Name: export.FileName(c), Value: n.series[c]})
	}

	if err := store.WriteAll(ctx, docs); err != nil {
		return fmt.Errorf("error persisting population: %w", err)
	}
	return nil
}
