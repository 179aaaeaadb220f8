package model

// Baseline maps an entity key to the last observed metric sample.
// A missing key reads as 0, which is reserved as the "never observed" sentinel.
type Baseline map[string]float64

// Clone returns an independent copy. A nil Baseline clones to an empty one.
func (b Baseline) Clone() Baseline {
	out := make(Baseline, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// MetricKind names the sampled metric.
type MetricKind string

const (
	MetricVolume    MetricKind = "volume"
	MetricMarketCap MetricKind = "market_cap"
)

// Label returns the human readable name used in reports.
func (m MetricKind) Label() string {
	switch m {
	case MetricMarketCap:
		return "Market cap"
	default:
		return "Volume"
	}
}

// Valid reports whether m is a known metric kind.
func (m MetricKind) Valid() bool {
	return m == MetricVolume || m == MetricMarketCap
}
