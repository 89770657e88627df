package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsLoadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adpy_rows_loaded_total",
		Help: "Rows read from tabular input files",
	}, []string{"format"})
	RecordsNormalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adpy_records_normalized_total",
		Help: "Records produced by a normalizer",
	}, []string{"dataset"})
	ContributionsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adpy_contributions_skipped_total",
		Help: "Disaster records left out of ADPY because the population lookup failed",
	}, []string{"type"})
	StepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adpy_steps_total",
		Help: "Pipeline steps by outcome",
	}, []string{"step", "outcome"})
	StepDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adpy_step_duration_seconds",
		Help:    "Pipeline step duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"step"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adpy_api_requests_total",
		Help: "Results API requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(RowsLoadedTotal)
	prometheus.MustRegister(RecordsNormalizedTotal)
	prometheus.MustRegister(ContributionsSkippedTotal)
	prometheus.MustRegister(StepsTotal)
	prometheus.MustRegister(StepDurationSeconds)
	prometheus.MustRegister(APIRequestsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
