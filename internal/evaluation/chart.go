package evaluation

import "github.com/mr1hm/disaster-adpy/internal/models"

// SummaryTitle names the cross-type chart.
const SummaryTitle = "Alle Katastrophen"

// Chart is the input of an external plotter: one chart per disaster type
// plus the summary. Series are indexed by year - FirstYear.
type Chart struct {
	Title      string
	Years      []int
	ADPY       []float64 // nil for the summary
	Normalized []float64
	Events     []float64
	Deaths     []float64 // nil for the summary
}

// Plotter renders charts. Rendering is not part of this module.
type Plotter interface {
	Plot(c Chart) error
}

func chartYears() []int {
	years := make([]int, models.SeriesLen)
	for i := range years {
		years[i] = models.FirstYear + i
	}
	return years
}

// Charts returns the per-type charts in type order followed by the summary.
func (r *Result) Charts() []Chart {
	years := chartYears()
	charts := make([]Chart, 0, len(r.Types)+1)
	for _, t := range r.Types {
		tm := r.ByType[t]
		charts = append(charts, Chart{
			Title:      t,
			Years:      years,
			ADPY:       tm.ADPY.Slice(),
			Normalized: tm.Normalized.Slice(),
			Events:     tm.Events.Slice(),
			Deaths:     tm.Deaths.Slice(),
		})
	}
	charts = append(charts, Chart{
		Title:      SummaryTitle,
		Years:      years,
		Normalized: r.SummaryADPY.Slice(),
		Events:     r.SummaryEvents.Slice(),
	})
	return charts
}

// PlotAll hands every chart to p, stopping at the first error.
func (r *Result) PlotAll(p Plotter) error {
	for _, c := range r.Charts() {
		if err := p.Plot(c); err != nil {
			return err
		}
	}
	return nil
}
