package repository

import (
	"context"

	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

// TypeSummary is the overview of one disaster type across all years.
type TypeSummary struct {
	Type     string  `json:"type"`
	Events   int64   `json:"events"`
	Deaths   int64   `json:"deaths"`
	PeakYear int     `json:"peak_year"` // year of the highest ADPY, 0 when all zero
	PeakADPY float64 `json:"peak_adpy"`
}

type Summary struct {
	ADPY   models.Series // normalized
	Events models.Series
}

type ResultRepository interface {
	SaveResult(ctx context.Context, res *evaluation.Result) error
	ListTypes(ctx context.Context) ([]TypeSummary, error)
	GetTypeMetrics(ctx context.Context, disasterType string) (*evaluation.TypeMetrics, error)
	GetSummary(ctx context.Context) (*Summary, error)
	ListSkipped(ctx context.Context, limit int) ([]evaluation.Skipped, error)
}
