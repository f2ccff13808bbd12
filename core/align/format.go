package align

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/statdash/schema"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown wherever a value is missing.
const NotAvailable = "N/A"

type magnitudeSuffix struct {
	threshold decimal.Decimal
	suffix    string
}

// Largest first.
var magnitudeSuffixes = []magnitudeSuffix{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// FormatMagnitude renders a value for display.
//
// Percent and index units print as fixed-decimal numbers. Everything else is
// multiplied by 10^unitScale and abbreviated with a T/B/M/K suffix, or grouped
// with commas below one thousand. Currency units get a "$" prefix and the sign
// always goes in front of it.
func FormatMagnitude(value *float64, unit string, unitScale *int) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return NotAvailable
	}

	d := decimal.NewFromFloat(*value)

	switch strings.ToLower(strings.TrimSpace(unit)) {
	case schema.PercentUnit:
		return d.StringFixed(1) + "%"
	case schema.IndexUnit:
		return d.StringFixed(2)
	}

	if unitScale != nil && *unitScale != 0 {
		d = d.Shift(int32(*unitScale))
	}

	sign := ""
	if d.IsNegative() {
		d = d.Abs()
		if !d.Round(2).IsZero() {
			sign = "-"
		}
	}

	prefix := ""
	if IsCurrencyUnit(unit) {
		prefix = "$"
	}

	return sign + prefix + abbreviate(d)
}

// FormatPercent renders a percentage change with an explicit sign.
func FormatPercent(pct *float64) string {
	if pct == nil {
		return NotAvailable
	}
	d := decimal.NewFromFloat(*pct)
	if d.IsPositive() {
		return "+" + d.StringFixed(1) + "%"
	}
	return d.StringFixed(1) + "%"
}

// IsCurrencyUnit reports whether values of this unit are dollar amounts.
// An empty unit is treated as currency.
func IsCurrencyUnit(unit string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	return u == "" || u == "usd" || u == "$" || strings.Contains(u, "dollar")
}

// abbreviate formats a non-negative decimal with a magnitude suffix.
func abbreviate(d decimal.Decimal) string {
	// Compare the rounded value so 999.999 prints as 1.00K, not 1,000.
	rounded := d.Round(2)
	for i, m := range magnitudeSuffixes {
		if rounded.LessThan(m.threshold) {
			continue
		}
		scaled := d.Div(m.threshold).Round(2)
		// 999.999K rounds to 1000.00K; promote it to 1.00M.
		if i > 0 && scaled.GreaterThanOrEqual(decimal.New(1, 3)) {
			m = magnitudeSuffixes[i-1]
			scaled = d.Div(m.threshold).Round(2)
		}
		return scaled.StringFixed(2) + m.suffix
	}
	return humanize.CommafWithDigits(rounded.InexactFloat64(), 2)
}
