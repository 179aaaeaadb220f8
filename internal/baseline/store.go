package baseline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// Store persists the baseline between runs.
//
// Load returns an empty, non-nil baseline and a nil error when nothing has
// been saved yet. Save fully replaces the persisted state.
type Store interface {
	Load(ctx context.Context) (model.Baseline, error)
	Save(ctx context.Context, b model.Baseline) error
}

// LoadOrEmpty loads the baseline and downgrades read and parse failures to
// an empty baseline, which the classifier treats as a first run. The
// returned error only explains the downgrade; the map is always usable.
func LoadOrEmpty(ctx context.Context, s Store, logger zerolog.Logger) (model.Baseline, error) {
	b, err := s.Load(ctx)
	if err != nil {
		ev := logger.Warn().Err(err)
		if errors.Is(err, model.ErrBaselineCorrupt) {
			ev.Msg("Baseline corrupt, starting from an empty baseline")
		} else {
			ev.Msg("Baseline unavailable, starting from an empty baseline")
		}
		return model.Baseline{}, err
	}
	if b == nil {
		b = model.Baseline{}
	}
	logger.Debug().Int("keys", len(b)).Msg("Baseline loaded")
	return b, nil
}

// sanitize drops entries that would collide with the zero sentinel.
func sanitize(b model.Baseline) model.Baseline {
	out := make(model.Baseline, len(b))
	for k, v := range b {
		if k == "" || !(v > 0) {
			continue
		}
		out[k] = v
	}
	return out
}
