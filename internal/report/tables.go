// Package report writes evaluation results as ADPY tables.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

const (
	RawTableFile        = "ADPY-Werte ohne Normierung.csv"
	NormalizedTableFile = "ADPY-Werte mit Normierung.csv"

	yearHeader = "Jahr"
)

// GermanTypeNames translates EM-DAT disaster types for table headers.
var GermanTypeNames = map[string]string{
	"Earthquake":          "Erdbeben",
	"Drought":             "Dürre",
	"Epidemic":            "Epidemie",
	"Flood":               "Überflutung",
	"Storm":               "Sturm",
	"Wildfire":            "Waldbrand",
	"Landslide":           "Erdrutsch",
	"Volcanic activity":   "Vulkanische Aktivität",
	"Extreme temperature": "Extremtemperatur",
	"Fog":                 "Nebel",
	"Mass movement (dry)": "Massenbewegung",
	"Insect infestation":  "Insektenbefall",
	"Impact":              "Extraterrestrischer Einschlag",
	"Animal accident":     "Animal accident",
}

// GermanTypeName falls back to the English type when no translation exists.
func GermanTypeName(disasterType string) string {
	if name, ok := GermanTypeNames[disasterType]; ok {
		return name
	}
	return disasterType
}

// WriteADPYTables writes the raw and the normalized ADPY table into dir as
// semicolon separated files with decimal commas.
func WriteADPYTables(dir string, res *evaluation.Result) error {
	if err := export.EnsureDir(dir); err != nil {
		return err
	}

	raw := func(tm *evaluation.TypeMetrics) models.Series { return tm.ADPY }
	normalized := func(tm *evaluation.TypeMetrics) models.Series { return tm.Normalized }

	if err := writeTable(filepath.Join(dir, RawTableFile), res, raw); err != nil {
		return err
	}
	return writeTable(filepath.Join(dir, NormalizedTableFile), res, normalized)
}

func writeTable(path string, res *evaluation.Result, pick func(*evaluation.TypeMetrics) models.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	w.UseCRLF = true

	for _, row := range tableRows(res, pick) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("error writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

func tableRows(res *evaluation.Result, pick func(*evaluation.TypeMetrics) models.Series) [][]string {
	rows := make([][]string, 0, models.SeriesLen+1)

	header := []string{yearHeader}
	for _, t := range res.Types {
		header = append(header, GermanTypeName(t))
	}
	rows = append(rows, header)

	for i := 0; i < models.SeriesLen; i++ {
		row := []string{strconv.Itoa(models.FirstYear + i)}
		for _, t := range res.Types {
			row = append(row, DecimalComma(pick(res.ByType[t])[i]))
		}
		rows = append(rows, row)
	}
	return rows
}

// DecimalComma renders v as the shortest representation that round-trips,
// always with a fractional part or an exponent, and a comma as decimal
// separator: 0 -> "0,0", 3e-05 -> "3e-05", 0.25 -> "0,25".
func DecimalComma(v float64) string {
	var s string
	switch {
	case math.IsInf(v, 1):
		s = "inf"
	case math.IsInf(v, -1):
		s = "-inf"
	case math.IsNaN(v):
		s = "nan"
	case v == 0:
		s = "0.0"
	default:
		s = strconv.FormatFloat(v, 'e', -1, 64)
		exp, _ := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
		if exp >= -4 && exp < 16 {
			s = strconv.FormatFloat(v, 'f', -1, 64)
			if !strings.Contains(s, ".") {
				s += ".0"
			}
		}
	}
	return strings.ReplaceAll(s, ".", ",")
}
