package model

import "time"

// Anomaly is an entity whose metric change between the baseline and the
// current snapshot satisfied the alert predicate.
type Anomaly struct {
	Key           string        `json:"key"`
	Name          string        `json:"name,omitempty"`
	Symbol        string        `json:"symbol,omitempty"`
	URL           string        `json:"url,omitempty"`
	Old           float64       `json:"old"`
	New           float64       `json:"new"`
	Ratio         float64       `json:"ratio"`
	PercentChange float64       `json:"percent_change"` // (new-old)/old
	PriceChange   *float64      `json:"price_change_pct,omitempty"`
	Age           time.Duration `json:"age,omitempty"` // zero when the listing time is unknown
	Description   string        `json:"description,omitempty"`
}
