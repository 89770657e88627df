// Package disasters turns EM-DAT rows into a DisasterIndex.
package disasters

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mr1hm/disaster-adpy/internal/metrics"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

// EM-DAT column positions.
const (
	colID            = 0
	colYear          = 1
	colGroup         = 3
	colSubgroup      = 4
	colType          = 5
	colSubtype       = 6
	colEntryCriteria = 9
	colCountry       = 10
	colISO           = 11
	colContinent     = 13
	colDeaths        = 34

	minColumns = colDeaths + 1
)

type Normalizer struct {
	index     *models.DisasterIndex
	countries []string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		index: models.NewDisasterIndex(),
	}
}

// Normalize parses every row into the index. Any malformed row aborts the
// run and leaves the normalizer empty.
func (n *Normalizer) Normalize(rows [][]string) error {
	index := models.NewDisasterIndex()
	var countries []string
	seen := make(map[string]bool)

	for i, row := range rows {
		r, err := ParseRecord(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}

		index.Insert(r)
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
	}

	n.index = index
	n.countries = countries

	metrics.RecordsNormalizedTotal.WithLabelValues("disasters").Add(float64(len(rows)))
	slog.Info("disasters normalized", "rows", len(rows), "types", len(index.Types()), "countries", len(countries))
	return nil
}

// ParseRecord reads a single EM-DAT row by column position.
func ParseRecord(row []string) (models.DisasterRecord, error) {
	if len(row) < minColumns {
		return models.DisasterRecord{}, fmt.Errorf("%w: %d columns, need %d", models.ErrMalformedRow, len(row), minColumns)
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[colYear]))
	if err != nil {
		return models.DisasterRecord{}, fmt.Errorf("%w: year %q", models.ErrMalformedNumber, row[colYear])
	}

	deaths, err := parseDeaths(row[colDeaths])
	if err != nil {
		return models.DisasterRecord{}, err
	}

	return models.DisasterRecord{
		ID:            row[colID],
		Year:          year,
		Continent:     row[colContinent],
		Country:       row[colCountry],
		ISO:           row[colISO],
		Group:         row[colGroup],
		Subgroup:      row[colSubgroup],
		Type:          row[colType],
		Subtype:       row[colSubtype],
		Deaths:        deaths,
		EntryCriteria: row[colEntryCriteria],
	}, nil
}

// parseDeaths treats an empty field as zero deaths.
func parseDeaths(field string) (int, error) {
	if field == "" {
		return 0, nil
	}
	deaths, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || deaths < 0 {
		return 0, fmt.Errorf("%w: deaths %q", models.ErrMalformedNumber, field)
	}
	return deaths, nil
}

func (n *Normalizer) Index() *models.DisasterIndex {
	return n.index
}

// Countries returns the distinct countries in order of first appearance.
func (n *Normalizer) Countries() []string {
	out := make([]string, len(n.countries))
	copy(out, n.countries)
	return out
}

// Types returns the disaster type registry.
func (n *Normalizer) Types() []string {
	return n.index.Types()
}
