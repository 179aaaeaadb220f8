package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is one normalized row of the current snapshot.
type Record struct {
	Key         string
	Metric      float64
	Name        string
	Symbol      string
	URL         string
	CreatedAt   time.Time // zero when the source does not report it
	PriceChange *float64  // percent, nil when the source does not report it
	Description string
}

// RecordOption sets an optional descriptive field on a Record.
type RecordOption func(*Record)

func WithName(name string) RecordOption {
	return func(r *Record) { r.Name = strings.TrimSpace(name) }
}

func WithSymbol(symbol string) RecordOption {
	return func(r *Record) { r.Symbol = strings.TrimSpace(symbol) }
}

func WithURL(url string) RecordOption {
	return func(r *Record) { r.URL = url }
}

func WithDescription(desc string) RecordOption {
	return func(r *Record) { r.Description = strings.TrimSpace(desc) }
}

// WithCreatedAt sets the listing time. Zero is ignored.
func WithCreatedAt(t time.Time) RecordOption {
	return func(r *Record) {
		if !t.IsZero() {
			r.CreatedAt = t.UTC()
		}
	}
}

// WithPriceChange sets the percent price change. Nil and non-finite values are ignored.
func WithPriceChange(pct *float64) RecordOption {
	return func(r *Record) {
		if pct == nil || math.IsNaN(*pct) || math.IsInf(*pct, 0) {
			return
		}
		v := *pct
		r.PriceChange = &v
	}
}

// NewRecord validates the required fields of a raw row. A nil metric means
// the source did not report one; a zero metric is treated the same way so it
// can never be confused with the "no baseline" sentinel.
func NewRecord(key string, metric *float64, opts ...RecordOption) (Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, ErrMissingKey
	}
	if metric == nil {
		return Record{}, fmt.Errorf("%s: %w", key, ErrMissingMetric)
	}
	v := *metric
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Record{}, fmt.Errorf("%s: %w (%v)", key, ErrInvalidMetric, v)
	}

	r := Record{Key: key, Metric: v}
	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

// Age returns how long ago the entity was listed, or zero when unknown.
func (r Record) Age(now time.Time) time.Duration {
	if r.CreatedAt.IsZero() {
		return 0
	}
	if d := now.Sub(r.CreatedAt); d > 0 {
		return d
	}
	return 0
}
