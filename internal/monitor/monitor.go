package monitor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alias1177/dexsentinel/internal/baseline"
	"github.com/Alias1177/dexsentinel/internal/model"
)

// Source supplies the current snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Record, error)
}

// Classifier diffs a snapshot against the baseline.
type Classifier interface {
	Classify(records []model.Record, b model.Baseline) ([]model.Anomaly, model.Baseline)
}

// Formatter renders anomalies.
type Formatter interface {
	Format(anomalies []model.Anomaly) string
}

// Notifier delivers the rendered report.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Describer looks up a description for an entity page.
type Describer interface {
	Describe(ctx context.Context, url string) (string, error)
}

// Runner performs one load, fetch, classify, save, format and notify cycle.
// Runs must not overlap; the scheduler is responsible for that.
type Runner struct {
	Store      baseline.Store
	Source     Source
	Classifier Classifier
	Formatter  Formatter
	Notifier   Notifier  // nil disables delivery
	Describer  Describer // nil disables description lookups

	NotifyOnEmpty bool
	Logger        zerolog.Logger
}

// Status summarizes a run.
type Status struct {
	Source           string
	Records          int
	Anomalies        int
	BaselineKeys     int
	BaselineDegraded error // why the prior baseline was replaced by an empty one
	DataUnavailable  error // fetch failure; baseline left untouched
	SaveErr          error // fatal
	Aborted          error // fatal, the run panicked
	Notified         bool
	NotifySkipped    bool
	NotifyErr        error
	Report           string
}

// Failed reports whether the run lost state.
func (s Status) Failed() bool {
	return s.SaveErr != nil || s.Aborted != nil
}

// ExitCode maps the status to a process exit code. Only a failed baseline
// write is fatal; every other failure is degraded and logged.
func (s Status) ExitCode() int {
	if s.Failed() {
		return 1
	}
	return 0
}

// Run executes a single cycle and never panics past its boundary.
func (r *Runner) Run(ctx context.Context) (st Status) {
	st.Source = r.Source.Name()
	logger := r.Logger.With().Str("source", st.Source).Logger()

	defer func() {
		if p := recover(); p != nil {
			st.Aborted = fmt.Errorf("run panicked: %v", p)
			logger.Error().Interface("panic", p).Msg("Run aborted")
		}
	}()

	prev, err := baseline.LoadOrEmpty(ctx, r.Store, logger)
	if err != nil {
		st.BaselineDegraded = err
	}

	records, err := r.Source.Fetch(ctx)
	if err != nil {
		// A failed fetch says nothing about delisting, so the persisted
		// baseline is kept as is.
		st.DataUnavailable = err
		st.BaselineKeys = len(prev)
		st.Report = r.Formatter.Format(nil)
		logger.Error().Err(err).Msg("Market data unavailable, baseline left untouched")
		return st
	}
	st.Records = len(records)

	anomalies, updated := r.Classifier.Classify(records, prev)
	st.Anomalies = len(anomalies)
	st.BaselineKeys = len(updated)

	if err := r.Store.Save(ctx, updated); err != nil {
		st.SaveErr = err
		logger.Error().Err(err).Msg("Failed to save baseline")
	}

	r.describe(ctx, anomalies, logger)

	st.Report = r.Formatter.Format(anomalies)
	logger.Info().
		Int("records", st.Records).
		Int("anomalies", st.Anomalies).
		Int("baseline_keys", st.BaselineKeys).
		Msg("Snapshot classified")

	if len(anomalies) == 0 && !r.NotifyOnEmpty {
		logger.Info().Msg(st.Report)
		return st
	}
	if r.Notifier == nil {
		st.NotifySkipped = true
		logger.Warn().Msg("No notification sink configured")
		return st
	}

	if err := r.Notifier.Notify(ctx, st.Report); err != nil {
		st.NotifyErr = err
		logger.Error().Err(err).Msg("Failed to deliver report")
		return st
	}
	st.Notified = true
	logger.Info().Msg("Report delivered")
	return st
}

func (r *Runner) describe(ctx context.Context, anomalies []model.Anomaly, logger zerolog.Logger) {
	if r.Describer == nil {
		return
	}
	for i := range anomalies {
		a := &anomalies[i]
		if a.Description != "" || a.URL == "" {
			continue
		}
		desc, err := r.Describer.Describe(ctx, a.URL)
		if err != nil {
			logger.Warn().Err(err).Str("key", a.Key).Msg("Description lookup failed")
			continue
		}
		a.Description = desc
	}
}
