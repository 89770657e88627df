package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/disaster-adpy/internal/metrics"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/repository"
)

// PopulationReader serves the normalized series of one country.
type PopulationReader interface {
	Series(country string) (*models.CountrySeries, error)
}

type Handler struct {
	repo       repository.ResultRepository
	population PopulationReader
}

// NewHandler creates the read-only results API. population may be nil, which
// disables the population route.
func NewHandler(repo repository.ResultRepository, population PopulationReader) *Handler {
	return &Handler{
		repo:       repo,
		population: population,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(requestMetrics())

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/api/types", h.getTypes)
	r.GET("/api/adpy/:type", h.getTypeMetrics)
	r.GET("/api/summary", h.getSummary)
	r.GET("/api/skipped", h.getSkipped)
	if h.population != nil {
		r.GET("/api/population/:country", h.getPopulation)
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getTypes(c *gin.Context) {
	types, err := h.repo.ListTypes(c.Request.Context())
	if err != nil {
		slog.Error("failed to list types", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch types"})
		return
	}
	if types == nil {
		types = []repository.TypeSummary{}
	}
	c.JSON(http.StatusOK, types)
}

func (h *Handler) getTypeMetrics(c *gin.Context) {
	disasterType := c.Param("type")

	m, err := h.repo.GetTypeMetrics(c.Request.Context(), disasterType)
	if err != nil {
		slog.Error("failed to fetch type metrics", "type", disasterType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch adpy values"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown disaster type"})
		return
	}
	c.JSON(http.StatusOK, toTypeResponse(m))
}

func (h *Handler) getSummary(c *gin.Context) {
	sum, err := h.repo.GetSummary(c.Request.Context())
	if err != nil {
		slog.Error("failed to fetch summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary"})
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(sum))
}

func (h *Handler) getSkipped(c *gin.Context) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			limit = lim
		}
	}

	skipped, err := h.repo.ListSkipped(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to list skipped contributions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch skipped contributions"})
		return
	}
	c.JSON(http.StatusOK, toSkippedResponse(skipped))
}

func (h *Handler) getPopulation(c *gin.Context) {
	country := c.Param("country")

	s, err := h.population.Series(country)
	if errors.Is(err, models.ErrFileNotOpenable) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown country"})
		return
	}
	if err != nil {
		slog.Error("failed to read population series", "country", country, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch population"})
		return
	}
	c.JSON(http.StatusOK, toPopulationResponse(s))
}
