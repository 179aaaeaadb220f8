package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/dexsentinel/internal/model"
)

const maxDescriptionRunes = 200

// Formatter renders anomalies as a plain text chat message.
type Formatter struct {
	Title  string
	Metric model.MetricKind
}

// NewFormatter creates a formatter. An empty title falls back to a generic one.
func NewFormatter(title string, metric model.MetricKind) *Formatter {
	if title == "" {
		title = "DexScreener volume monitor"
	}
	return &Formatter{Title: title, Metric: metric}
}

// Format renders the anomalies in the given order. The output depends only
// on the input, and an empty input still yields a single status line.
func (f *Formatter) Format(anomalies []model.Anomaly) string {
	if len(anomalies) == 0 {
		return f.Title + ": no anomalies detected"
	}

	var sb strings.Builder
	noun := "spike"
	if len(anomalies) > 1 {
		noun = "spikes"
	}
	fmt.Fprintf(&sb, "%s: %d %s %s detected\n", f.Title, len(anomalies), strings.ToLower(f.Metric.Label()), noun)

	for _, a := range anomalies {
		sb.WriteString("\n")
		f.writeAnomaly(&sb, a)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) writeAnomaly(sb *strings.Builder, a model.Anomaly) {
	fmt.Fprintf(sb, "🚨 %s (%s)\n", orUnknown(a.Symbol), orUnknown(a.Name))
	fmt.Fprintf(sb, "%s %s → %s, x%s\n",
		f.Metric.Label(), Amount(a.Old), Amount(a.New), Ratio(a.Ratio))

	if a.PriceChange != nil {
		fmt.Fprintf(sb, "Price change: %s%%\n", signed(*a.PriceChange))
	}
	if a.Age > 0 {
		fmt.Fprintf(sb, "Age: %dd\n", int(a.Age/(24*time.Hour)))
	}
	if d := oneLine(a.Description); d != "" {
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	if a.URL != "" {
		fmt.Fprintf(sb, "Link: %s\n", a.URL)
	}
}

// Amount renders a currency or volume magnitude as a truncated integer.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).Truncate(0).String()
}

// Ratio renders a magnification ratio with two decimals, rounding half away
// from zero on the shortest decimal form of v (6.125 renders as 6.13).
func Ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func signed(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxDescriptionRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxDescriptionRunes]) + "…"
}
