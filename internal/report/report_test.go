package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/dexsentinel/internal/model"
)

func TestFormatEmpty(t *testing.T) {
	f := NewFormatter("Volume watch", model.MetricVolume)

	assert.Equal(t, "Volume watch: no anomalies detected", f.Format(nil))
	assert.Equal(t, "Volume watch: no anomalies detected", f.Format([]model.Anomaly{}))
}

func TestFormatDefaultTitle(t *testing.T) {
	f := NewFormatter("", model.MetricVolume)
	assert.Equal(t, "DexScreener volume monitor: no anomalies detected", f.Format(nil))
}

func TestFormatSingle(t *testing.T) {
	f := NewFormatter("Volume watch", model.MetricVolume)
	out := f.Format([]model.Anomaly{{
		Key:    "P1",
		Symbol: "BONK",
		Name:   "Bonk",
		URL:    "https://dexscreener.com/solana/p1",
		Old:    100.9,
		New:    600.4,
		Ratio:  6,
	}})

	want := "Volume watch: 1 volume spike detected\n" +
		"\n" +
		"🚨 BONK (Bonk)\n" +
		"Volume 100 → 600, x6.00\n" +
		"Link: https://dexscreener.com/solana/p1"
	assert.Equal(t, want, out)
}

func TestFormatOmitsEmptyLink(t *testing.T) {
	f := NewFormatter("Volume watch", model.MetricVolume)
	out := f.Format([]model.Anomaly{{Key: "P1", Symbol: "BONK", Old: 100, New: 600, Ratio: 6}})

	want := "Volume watch: 1 volume spike detected\n" +
		"\n" +
		"🚨 BONK (unknown)\n" +
		"Volume 100 → 600, x6.00"
	assert.Equal(t, want, out)
	assert.NotContains(t, out, "Link:")
}

func TestFormatOptionalLines(t *testing.T) {
	pct := 61.234
	f := NewFormatter("Pump watch", model.MetricMarketCap)
	out := f.Format([]model.Anomaly{{
		Key:         "M1",
		URL:         "https://pump.fun/coin/M1",
		Old:         5000,
		New:         31250.99,
		Ratio:       6.25019,
		PriceChange: &pct,
		Age:         12*24*time.Hour + 5*time.Hour,
		Description: "  the   best\ncoin ",
	}})

	want := "Pump watch: 1 market cap spike detected\n" +
		"\n" +
		"🚨 unknown (unknown)\n" +
		"Market cap 5000 → 31250, x6.25\n" +
		"Price change: +61.23%\n" +
		"Age: 12d\n" +
		"the best coin\n" +
		"Link: https://pump.fun/coin/M1"
	assert.Equal(t, want, out)
}

func TestFormatKeepsInputOrder(t *testing.T) {
	f := NewFormatter("Volume watch", model.MetricVolume)
	out := f.Format([]model.Anomaly{
		{Symbol: "ZZZ", Old: 1, New: 5, Ratio: 5},
		{Symbol: "AAA", Old: 1, New: 50, Ratio: 50},
	})

	assert.True(t, strings.HasPrefix(out, "Volume watch: 2 volume spikes detected\n"))
	assert.Less(t, strings.Index(out, "ZZZ"), strings.Index(out, "AAA"))
	assert.Contains(t, out, "\n\n🚨 AAA")
}

func TestFormatIsDeterministic(t *testing.T) {
	pct := -3.5
	anomalies := []model.Anomaly{
		{Symbol: "A", Name: "a", Old: 10, New: 100, Ratio: 10, PriceChange: &pct},
		{Symbol: "B", Name: "b", Old: 3, New: 30, Ratio: 10, Description: "x"},
	}
	f := NewFormatter("t", model.MetricVolume)

	first := f.Format(anomalies)
	second := f.Format(anomalies)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Price change: -3.50%")
}

func TestFormatTruncatesLongDescription(t *testing.T) {
	f := NewFormatter("t", model.MetricVolume)
	out := f.Format([]model.Anomaly{{Symbol: "A", Description: strings.Repeat("é", 250)}})

	assert.Contains(t, out, strings.Repeat("é", maxDescriptionRunes)+"…\n")
	assert.NotContains(t, out, strings.Repeat("é", maxDescriptionRunes+1))
}

func TestAmountAndRatio(t *testing.T) {
	tests := []struct {
		in        float64
		amount    string
		ratioText string
	}{
		{in: 0, amount: "0", ratioText: "0.00"},
		{in: 5, amount: "5", ratioText: "5.00"},
		{in: 99.999, amount: "99", ratioText: "100.00"},
		{in: 1234567.89, amount: "1234567", ratioText: "1234567.89"},
		{in: 6.004, amount: "6", ratioText: "6.00"},
		{in: 6.125, amount: "6", ratioText: "6.13"},
		{in: 5.005, amount: "5", ratioText: "5.01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.amount, Amount(tt.in))
		assert.Equal(t, tt.ratioText, Ratio(tt.in))
	}
}
