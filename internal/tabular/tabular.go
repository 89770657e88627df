// Package tabular reads delimited text files and spreadsheets into rows of
// string fields, in source order.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"

	"github.com/mr1hm/disaster-adpy/internal/metrics"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

// Load reads every row of the file at path. Delimited text is split on
// delimiter; .xlsx and .xls files are read from their first sheet and the
// delimiter is ignored. A header row, if any, is returned like any other row.
func Load(path string, delimiter rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("file not openable", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFileNotOpenable, path, err)
	}
	defer f.Close()

	var (
		rows   [][]string
		format string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		format = "xlsx"
		rows, err = readXLSX(f)
	case ".xls":
		format = "xls"
		rows, err = readXLS(f)
	default:
		format = "csv"
		rows, err = ReadDelimited(f, delimiter)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	metrics.RowsLoadedTotal.WithLabelValues(format).Add(float64(len(rows)))
	slog.Debug("rows loaded", "path", path, "format", format, "rows", len(rows))
	return rows, nil
}

// ReadDelimited reads all records from r. Rows may have differing field counts.
func ReadDelimited(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return wb.GetRows(sheets[0])
}

func readXLS(r io.ReadSeeker) ([][]string, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		// LastCol is one past the last cell when the row has a ROW record,
		// and the last cell itself when the row was only implied by cells.
		last := row.LastCol()
		if row.Col(last) != "" {
			last++
		}
		cols := make([]string, 0, last)
		for j := 0; j < last; j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return rows, nil
}
