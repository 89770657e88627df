package population

import (
	"fmt"
	"math"

	"github.com/mr1hm/disaster-adpy/internal/models"
)

const (
	baselineFirst = 1950
	baselineLast  = 1955
)

// Backfill estimates the years FirstYear..1949 from the 1950-1955 window.
//
// The growth factor is the mean of year-over-year count ratios across the
// window. Each earlier year divides the following year's count by that
// factor and the following year's density by the mean 1950-1954 density,
// both truncated to integers.
func Backfill(country string, years map[int]models.YearFigure) error {
	var window [baselineLast - baselineFirst + 1]models.YearFigure
	for i := range window {
		f, ok := years[baselineFirst+i]
		if !ok {
			return fmt.Errorf("%w: %s has no %d", models.ErrIncompleteBaselineWindow, country, baselineFirst+i)
		}
		window[i] = f
	}

	n := len(window) - 1
	var ratioSum, densitySum float64
	for i := 0; i < n; i++ {
		if window[i].Count == 0 {
			return fmt.Errorf("%w: %s has zero population in %d", models.ErrIncompleteBaselineWindow, country, baselineFirst+i)
		}
		ratioSum += float64(window[i+1].Count) / float64(window[i].Count)
		densitySum += window[i].Density
	}
	growth := ratioSum / float64(n)
	avgDensity := densitySum / float64(n)
	if growth == 0 || avgDensity == 0 {
		return fmt.Errorf("%w: %s has a degenerate baseline", models.ErrIncompleteBaselineWindow, country)
	}

	count := years[baselineFirst].Count
	density := years[baselineFirst].Density
	for y := baselineFirst - 1; y >= models.FirstYear; y-- {
		count = int64(float64(count) / growth)
		density = math.Trunc(density / avgDensity)
		years[y] = models.YearFigure{Count: count, Density: density}
	}
	return nil
}

// Reindex orders years ascending over [FirstYear, LastYear] and derives the
// development series.
func Reindex(country string, years map[int]models.YearFigure) (*models.CountrySeries, error) {
	s := &models.CountrySeries{
		Country:     country,
		Development: make([]int64, 0, models.SeriesLen),
	}
	for i := range s.Years {
		y := models.FirstYear + i
		f, ok := years[y]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %d", models.ErrMissingYear, country, y)
		}
		s.Years[i] = f
		s.Development = append(s.Development, f.Count)
	}
	return s, nil
}
