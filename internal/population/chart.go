package population

import "github.com/mr1hm/disaster-adpy/internal/models"

// Chart is the development of one country, ready for an external plotter.
type Chart struct {
	Title  string
	Years  []int
	Values []int64
}

// Plotter renders population charts. Rendering is not part of this module.
type Plotter interface {
	PlotPopulation(c Chart) error
}

// Charts returns one chart per country in registry order.
func (n *Normalizer) Charts() []Chart {
	years := make([]int, models.SeriesLen)
	for i := range years {
		years[i] = models.FirstYear + i
	}

	charts := make([]Chart, 0, len(n.countries))
	for _, c := range n.countries {
		s := n.series[c]
		values := make([]int64, len(s.Development))
		copy(values, s.Development)
		charts = append(charts, Chart{Title: c, Years: years, Values: values})
	}
	return charts
}
