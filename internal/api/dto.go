package api

import (
	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/report"
	"github.com/mr1hm/disaster-adpy/internal/repository"
)

type TypePoint struct {
	Year       int     `json:"year"`
	ADPY       float64 `json:"adpy"`
	Normalized float64 `json:"normalized"`
	Events     int64   `json:"events"`
	Deaths     int64   `json:"deaths"`
}

type TypeResponse struct {
	Type       string      `json:"type"`
	GermanName string      `json:"german_name"`
	Points     []TypePoint `json:"points"`
}

type SummaryPoint struct {
	Year   int     `json:"year"`
	ADPY   float64 `json:"adpy"` // normalized
	Events int64   `json:"events"`
}

type SummaryResponse struct {
	Title  string         `json:"title"`
	Points []SummaryPoint `json:"points"`
}

type SkippedResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Country string `json:"country"`
	Year    int    `json:"year"`
	Reason  string `json:"reason"`
}

type PopulationPoint struct {
	Year    int     `json:"year"`
	Count   int64   `json:"count"`
	Density float64 `json:"density"`
}

type PopulationResponse struct {
	Country string            `json:"country"`
	Points  []PopulationPoint `json:"points"`
}

func toTypeResponse(m *evaluation.TypeMetrics) TypeResponse {
	points := make([]TypePoint, 0, models.SeriesLen)
	for i := 0; i < models.SeriesLen; i++ {
		points = append(points, TypePoint{
			Year:       models.FirstYear + i,
			ADPY:       m.ADPY[i],
			Normalized: m.Normalized[i],
			Events:     int64(m.Events[i]),
			Deaths:     int64(m.Deaths[i]),
		})
	}
	return TypeResponse{
		Type:       m.Type,
		GermanName: report.GermanTypeName(m.Type),
		Points:     points,
	}
}

func toSummaryResponse(s *repository.Summary) SummaryResponse {
	points := make([]SummaryPoint, 0, models.SeriesLen)
	for i := 0; i < models.SeriesLen; i++ {
		points = append(points, SummaryPoint{
			Year:   models.FirstYear + i,
			ADPY:   s.ADPY[i],
			Events: int64(s.Events[i]),
		})
	}
	return SummaryResponse{Title: evaluation.SummaryTitle, Points: points}
}

func toSkippedResponse(skipped []evaluation.Skipped) []SkippedResponse {
	out := make([]SkippedResponse, 0, len(skipped))
	for _, s := range skipped {
		r := SkippedResponse{Type: s.Type, ID: s.ID, Country: s.Country, Year: s.Year}
		if s.Err != nil {
			r.Reason = s.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

func toPopulationResponse(s *models.CountrySeries) PopulationResponse {
	points := make([]PopulationPoint, 0, models.SeriesLen)
	for i, f := range s.Years {
		points = append(points, PopulationPoint{
			Year:    models.FirstYear + i,
			Count:   f.Count,
			Density: f.Density,
		})
	}
	return PopulationResponse{Country: s.Country, Points: points}
}
