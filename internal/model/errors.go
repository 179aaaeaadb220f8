package model

import "errors"

var (
	// ErrMissingKey is returned when a raw record has no entity key.
	ErrMissingKey = errors.New("record has no key")

	// ErrMissingMetric is returned when a raw record carries no metric sample.
	ErrMissingMetric = errors.New("record has no metric")

	// ErrInvalidMetric is returned for zero, negative or non-finite samples.
	// Zero is the baseline sentinel and must never be stored as a value.
	ErrInvalidMetric = errors.New("record metric is not a positive number")

	// ErrDataUnavailable is returned when the upstream fetch failed or
	// returned an unparsable payload.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrBaselineUnavailable is returned when persisted state cannot be read.
	ErrBaselineUnavailable = errors.New("baseline unavailable")

	// ErrBaselineCorrupt is returned when persisted state cannot be parsed.
	ErrBaselineCorrupt = errors.New("baseline corrupt")

	// ErrBaselineWriteFailed is returned when the new baseline cannot be persisted.
	ErrBaselineWriteFailed = errors.New("baseline write failed")

	// ErrNotifyFailed is returned when a notification sink rejected the report.
	ErrNotifyFailed = errors.New("notification failed")
)
