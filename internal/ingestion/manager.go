// Package ingestion drives the batch: it loads both source files, normalizes
// and persists them, evaluates ADPY and exports the results.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mr1hm/disaster-adpy/internal/config"
	"github.com/mr1hm/disaster-adpy/internal/disasters"
	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/logging"
	"github.com/mr1hm/disaster-adpy/internal/models"
	"github.com/mr1hm/disaster-adpy/internal/population"
	"github.com/mr1hm/disaster-adpy/internal/report"
	"github.com/mr1hm/disaster-adpy/internal/repository"
	"github.com/mr1hm/disaster-adpy/internal/resolver"
	"github.com/mr1hm/disaster-adpy/internal/tabular"
)

const component = "ingestion"

type Manager struct {
	cfg             *config.Config
	repo            repository.ResultRepository
	disasterStore   *export.JSONStore
	populationStore *export.JSONStore

	adpyPlotter       evaluation.Plotter
	populationPlotter population.Plotter

	// Set by a successful normalization in this process; Evaluate falls
	// back to the persisted documents otherwise.
	index     *models.DisasterIndex
	countries []string
	series    population.MemorySource
}

type Option func(*Manager)

// WithADPYPlotter hands every ADPY chart to p after evaluation.
func WithADPYPlotter(p evaluation.Plotter) Option {
	return func(m *Manager) { m.adpyPlotter = p }
}

// WithPopulationPlotter hands every country's development to p after
// population normalization.
func WithPopulationPlotter(p population.Plotter) Option {
	return func(m *Manager) { m.populationPlotter = p }
}

// NewManager wires the stores from cfg. repo may be nil, in which case
// results are only written to files.
func NewManager(cfg *config.Config, repo repository.ResultRepository, opts ...Option) *Manager {
	m := &Manager{
		cfg:             cfg,
		repo:            repo,
		disasterStore:   export.NewJSONStore(cfg.Paths.DisastersDir, cfg.Worker.Count),
		populationStore: export.NewJSONStore(cfg.Paths.PopulationDir, cfg.Worker.Count),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) load(path string, delimiter rune) ([][]string, error) {
	rows, err := tabular.Load(path, delimiter)
	if err != nil {
		return nil, err
	}
	if m.cfg.Input.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

// NormalizeDisasters converts the disaster file and persists the index and
// registers. Nothing is written if any row is malformed.
func (m *Manager) NormalizeDisasters(ctx context.Context) error {
	var rows [][]string
	if _, err := logging.Step(component, "load disasters", func() (err error) {
		rows, err = m.load(m.cfg.Paths.DisastersCSV, m.cfg.Input.DisastersDelimiter)
		return err
	}); err != nil {
		return err
	}

	n := disasters.NewNormalizer()
	outcome, err := logging.Step(component, "convert disasters", func() error {
		return n.Normalize(rows)
	}, logging.Precondition{Name: "disaster rows", Met: len(rows) > 0})
	if err != nil || outcome == logging.OutcomeSkipped {
		return err
	}

	outcome, err = logging.Step(component, "write disasters", func() error {
		return n.Persist(ctx, m.disasterStore)
	}, logging.Precondition{Name: "disaster index", Met: n.Index().Len() > 0})
	if err != nil || outcome == logging.OutcomeSkipped {
		return err
	}
	m.index = n.Index()
	return nil
}

// NormalizePopulation converts the population file, backfills the years
// before 1950 and persists one series per country.
func (m *Manager) NormalizePopulation(ctx context.Context) error {
	var rows [][]string
	if _, err := logging.Step(component, "load population", func() (err error) {
		rows, err = m.load(m.cfg.Paths.PopulationCSV, m.cfg.Input.PopulationDelimiter)
		return err
	}); err != nil {
		return err
	}

	n := population.NewNormalizer()
	outcome, err := logging.Step(component, "convert population", func() error {
		return n.Normalize(rows)
	}, logging.Precondition{Name: "population rows", Met: len(rows) > 0})
	if err != nil || outcome == logging.OutcomeSkipped {
		return err
	}

	outcome, err = logging.Step(component, "write population", func() error {
		return n.Persist(ctx, m.populationStore)
	}, logging.Precondition{Name: "population series", Met: len(n.Countries()) > 0})
	if err != nil || outcome == logging.OutcomeSkipped {
		return err
	}

	m.countries = n.Countries()
	m.series = make(population.MemorySource, len(m.countries))
	for _, c := range m.countries {
		m.series[c], _ = n.Series(c)
	}

	if m.populationPlotter != nil {
		_, err = logging.Step(component, "plot population", func() error {
			for _, c := range n.Charts() {
				if err := m.populationPlotter.PlotPopulation(c); err != nil {
					return fmt.Errorf("plotting %s: %w", c.Title, err)
				}
			}
			return nil
		})
	}
	return err
}

// Evaluate computes ADPY. Data normalized by this manager is used directly;
// otherwise the persisted documents of both normalizers are read.
func (m *Manager) Evaluate(ctx context.Context) (*evaluation.Result, error) {
	var (
		types     []string
		countries []string
		ds        evaluation.DisasterSource
		ps        evaluation.PopulationSource
	)

	if _, err := logging.Step(component, "load registers", func() (err error) {
		if m.index != nil {
			types, ds = m.index.Types(), disasters.IndexSource{Index: m.index}
		} else {
			if types, err = disasters.LoadTypes(m.disasterStore); err != nil {
				return err
			}
			ds = disasters.StoreSource{Store: m.disasterStore}
		}

		if m.series != nil {
			countries, ps = m.countries, m.series
			return nil
		}
		store := population.NewStore(m.populationStore)
		countries, err = store.Countries()
		ps = store
		return err
	}); err != nil {
		return nil, err
	}

	var res *evaluation.Result
	_, err := logging.Step(component, "generate adpy values", func() (err error) {
		engine := evaluation.NewEngine(types, ds, ps, resolver.NewSubstringResolver(countries, nil))
		res, err = engine.Run()
		return err
	}, logging.Precondition{Name: "population countries", Met: len(countries) > 0})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("evaluation skipped: no population countries registered")
	}

	if unresolved := res.Unresolved(); len(unresolved) > 0 {
		slog.Warn("countries without population match", "count", len(unresolved), "countries", unresolved)
	}

	if m.adpyPlotter != nil {
		if _, err := logging.Step(component, "plot adpy", func() error {
			return res.PlotAll(m.adpyPlotter)
		}); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Export writes the ADPY tables and workbook and stores res in the
// repository. A missing output directory only fails the file export; the
// repository is still updated.
func (m *Manager) Export(ctx context.Context, res *evaluation.Result) error {
	dir := m.cfg.Paths.EvaluationDir

	_, fileErr := logging.Step(component, "write adpy tables", func() error {
		if err := report.WriteADPYTables(dir, res); err != nil {
			return err
		}
		return report.WriteWorkbook(dir, res)
	})
	if errors.Is(fileErr, models.ErrOutputDirectoryUnavailable) {
		slog.Warn("adpy tables not written, results kept in memory", "dir", dir)
	}

	if m.repo != nil {
		if _, err := logging.Step(component, "store result", func() error {
			return m.repo.SaveResult(ctx, res)
		}); err != nil {
			return errors.Join(fileErr, err)
		}
	}
	return fileErr
}

// Run executes the whole batch in order.
func (m *Manager) Run(ctx context.Context) (*evaluation.Result, error) {
	if err := m.NormalizeDisasters(ctx); err != nil {
		return nil, fmt.Errorf("normalize disasters: %w", err)
	}
	if err := m.NormalizePopulation(ctx); err != nil {
		return nil, fmt.Errorf("normalize population: %w", err)
	}
	res, err := m.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if err := m.Export(ctx, res); err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	return res, nil
}
