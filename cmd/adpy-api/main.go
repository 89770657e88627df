package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/disaster-adpy/internal/api"
	"github.com/mr1hm/disaster-adpy/internal/config"
	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/logging"
	"github.com/mr1hm/disaster-adpy/internal/population"
	"github.com/mr1hm/disaster-adpy/internal/repository"
)

// populationTTL bounds how long a country series is served after a new
// normalization run replaced it on disk.
const populationTTL = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	docs := export.NewJSONStore(cfg.Paths.PopulationDir, cfg.Worker.Count)
	router := newRouter(cfg, db, population.NewCachedStore(docs, populationTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := serve(ctx, &http.Server{Addr: addr, Handler: router}); err != nil {
		logging.Fatalf("server error: %v", err)
	}
	slog.Info("shutdown complete")
}

func newRouter(cfg *config.Config, repo repository.ResultRepository, pop api.PopulationReader) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	api.NewHandler(repo, pop).RegisterRoutes(router)
	return router
}

// serve runs srv until ctx is done, then drains open requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
