package report

import (
	"fmt"
	"path/filepath"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

const (
	WorkbookFile = "ADPY-Werte.xlsx"

	rawSheet        = "ADPY"
	normalizedSheet = "ADPY normiert"
	eventsSheet     = "Häufigkeit"
	deathsSheet     = "Todesfälle"
)

// WriteWorkbook stores raw and normalized ADPY, event counts and deaths of
// every type as numeric cells, one sheet each.
func WriteWorkbook(dir string, res *evaluation.Result) error {
	if err := export.EnsureDir(dir); err != nil {
		return err
	}

	wb := excelize.NewFile()
	wb.SetSheetName("Sheet1", rawSheet)
	wb.NewSheet(normalizedSheet)
	wb.NewSheet(eventsSheet)
	wb.NewSheet(deathsSheet)

	sheets := []struct {
		name string
		pick func(*evaluation.TypeMetrics) models.Series
	}{
		{rawSheet, func(tm *evaluation.TypeMetrics) models.Series { return tm.ADPY }},
		{normalizedSheet, func(tm *evaluation.TypeMetrics) models.Series { return tm.Normalized }},
		{eventsSheet, func(tm *evaluation.TypeMetrics) models.Series { return tm.Events }},
		{deathsSheet, func(tm *evaluation.TypeMetrics) models.Series { return tm.Deaths }},
	}
	for _, s := range sheets {
		if err := fillSheet(wb, s.name, res, s.pick); err != nil {
			return err
		}
	}

	path := filepath.Join(dir, WorkbookFile)
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

func fillSheet(wb *excelize.File, sheet string, res *evaluation.Result, pick func(*evaluation.TypeMetrics) models.Series) error {
	set := func(col, row int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return wb.SetCellValue(sheet, cell, v)
	}

	if err := set(1, 1, yearHeader); err != nil {
		return err
	}
	for j, t := range res.Types {
		if err := set(j+2, 1, GermanTypeName(t)); err != nil {
			return err
		}
	}

	for i := 0; i < models.SeriesLen; i++ {
		row := i + 2
		if err := set(1, row, models.FirstYear+i); err != nil {
			return err
		}
		for j, t := range res.Types {
			if err := set(j+2, row, pick(res.ByType[t])[i]); err != nil {
				return fmt.Errorf("error filling %s: %w", sheet, err)
			}
		}
	}
	return nil
}
