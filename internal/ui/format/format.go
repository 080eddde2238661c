// Package format renders dashboard figures the same way on cards and charts.
package format

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Money renders an amount with thousands separators, truncated to whole
// units, followed by the currency sign: 1234567.8 -> "1,234,567$".
func Money(v float64) string {
	return humanize.Comma(int64(v)) + "$"
}

// Ratio renders a percentage with one decimal place.
func Ratio(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
