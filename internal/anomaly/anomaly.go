package anomaly

import (
	"fmt"
	"time"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// Magnitude selects the secondary signal compared against Thresholds.Percent.
type Magnitude string

const (
	// MagnitudeIncrease uses the percent increase of the metric itself.
	MagnitudeIncrease Magnitude = "increase"
	// MagnitudePriceChange uses the price change reported by the source.
	MagnitudePriceChange Magnitude = "price_change"
)

// Thresholds is the alert predicate. All comparisons are inclusive.
type Thresholds struct {
	Ratio     float64       // current / last, e.g. 5 for a 5x spike
	Percent   float64       // in percent units, e.g. 50 for +50%
	Magnitude Magnitude     // which signal Percent applies to
	MinAge    time.Duration // 0 disables the age gate
}

// DefaultThresholds returns the 5x / +50% rule without an age gate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Ratio:     5,
		Percent:   50,
		Magnitude: MagnitudeIncrease,
	}
}

// Validate checks that the thresholds can produce a meaningful predicate.
func (t Thresholds) Validate() error {
	if t.Ratio <= 0 {
		return fmt.Errorf("ratio threshold must be positive, got %v", t.Ratio)
	}
	if t.Percent < 0 {
		return fmt.Errorf("percent threshold must not be negative, got %v", t.Percent)
	}
	if t.Magnitude != MagnitudeIncrease && t.Magnitude != MagnitudePriceChange {
		return fmt.Errorf("unknown magnitude %q", t.Magnitude)
	}
	if t.MinAge < 0 {
		return fmt.Errorf("min age must not be negative, got %v", t.MinAge)
	}
	return nil
}

// Classifier diffs a snapshot against the previous baseline.
type Classifier struct {
	Thresholds Thresholds
	Now        func() time.Time
}

// NewClassifier creates a classifier using the wall clock for the age gate.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{Thresholds: t, Now: time.Now}
}

// Classify returns the anomalies in snapshot order and the baseline to
// persist for the next run.
//
// A key with no prior value is recorded but never evaluated. Every evaluated
// key rolls forward to its current value whether or not it alerted, and keys
// absent from the snapshot are dropped. An empty snapshot returns a copy of
// the baseline unchanged.
func (c *Classifier) Classify(records []model.Record, baseline model.Baseline) ([]model.Anomaly, model.Baseline) {
	if len(records) == 0 {
		return nil, baseline.Clone()
	}

	now := c.now()
	var anomalies []model.Anomaly
	updated := make(model.Baseline, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		if r.Key == "" || r.Metric <= 0 {
			continue
		}
		if _, dup := seen[r.Key]; dup {
			updated[r.Key] = r.Metric
			continue
		}
		seen[r.Key] = struct{}{}

		last := baseline[r.Key]
		if last <= 0 {
			// first sight
			updated[r.Key] = r.Metric
			continue
		}

		ratio := r.Metric / last
		increase := (r.Metric - last) / last

		if c.matches(r, ratio, increase, now) {
			anomalies = append(anomalies, model.Anomaly{
				Key:           r.Key,
				Name:          r.Name,
				Symbol:        r.Symbol,
				URL:           r.URL,
				Old:           last,
				New:           r.Metric,
				Ratio:         ratio,
				PercentChange: increase,
				PriceChange:   r.PriceChange,
				Age:           r.Age(now),
				Description:   r.Description,
			})
		}
		updated[r.Key] = r.Metric
	}

	return anomalies, updated
}

func (c *Classifier) matches(r model.Record, ratio, increase float64, now time.Time) bool {
	t := c.Thresholds
	if ratio < t.Ratio {
		return false
	}

	var magnitude float64
	switch t.Magnitude {
	case MagnitudePriceChange:
		if r.PriceChange == nil {
			return false
		}
		magnitude = *r.PriceChange
	default:
		magnitude = increase * 100
	}
	if magnitude < t.Percent {
		return false
	}

	if t.MinAge > 0 {
		if r.CreatedAt.IsZero() || r.Age(now) < t.MinAge {
			return false
		}
	}
	return true
}

func (c *Classifier) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
