package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mr1hm/disaster-adpy/internal/config"
	"github.com/mr1hm/disaster-adpy/internal/ingestion"
	"github.com/mr1hm/disaster-adpy/internal/logging"
	"github.com/mr1hm/disaster-adpy/internal/repository"
)

const usage = "usage: adpy [normalize-disasters|normalize-population|evaluate|all]"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	command := "all"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, command); err != nil {
		logging.Fatalf("%s failed: %v", command, err)
	}
	slog.Info("done", "command", command)
}

func run(ctx context.Context, cfg *config.Config, command string) error {
	switch command {
	case "normalize-disasters":
		return ingestion.NewManager(cfg, nil).NormalizeDisasters(ctx)
	case "normalize-population":
		return ingestion.NewManager(cfg, nil).NormalizePopulation(ctx)
	case "evaluate", "all":
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	mgr := ingestion.NewManager(cfg, db)
	if command == "all" {
		res, err := mgr.Run(ctx)
		if res != nil {
			slog.Info("evaluation finished", "types", len(res.Types), "skipped", len(res.Skipped))
		}
		return err
	}

	res, err := mgr.Evaluate(ctx)
	if err != nil {
		return err
	}
	slog.Info("evaluation finished", "types", len(res.Types), "skipped", len(res.Skipped))
	return mgr.Export(ctx, res)
}
