package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mr1hm/disaster-adpy/internal/metrics"
)

func Setup(level string) {
	SetupWriter(os.Stdout, level)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})

	slog.SetDefault(slog.New(handler))
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Precondition names a piece of state a step needs before it may run.
type Precondition struct {
	Name string
	Met  bool
}

// Step logs entry and exit of a named pipeline step. If any precondition is
// unmet the step is not run and OutcomeSkipped is returned.
func Step(component, name string, fn func() error, pre ...Precondition) (Outcome, error) {
	log := slog.With("component", component, "step", name)

	for _, p := range pre {
		if !p.Met {
			log.Warn("step skipped", "missing", p.Name)
			metrics.StepsTotal.WithLabelValues(name, OutcomeSkipped.String()).Inc()
			return OutcomeSkipped, nil
		}
	}

	log.Info("starting")
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.StepDurationSeconds.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		log.Error("step failed", "duration", elapsed, "error", err)
		metrics.StepsTotal.WithLabelValues(name, OutcomeFailed.String()).Inc()
		return OutcomeFailed, err
	}

	log.Info("finished", "duration", elapsed)
	metrics.StepsTotal.WithLabelValues(name, OutcomeDone.String()).Inc()
	return OutcomeDone, nil
}
