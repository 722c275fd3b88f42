package insights

import (
	"fmt"
	"strings"
)

// Money renders an amount the way the reports show it: rupee symbol,
// thousand separators, two decimals.
func Money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	whole := fmt.Sprintf("%.2f", v)
	intPart, fracPart, _ := strings.Cut(whole, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("₹ %s%s.%s", sign, b.String(), fracPart)
}

// MoneyCompact renders large amounts in millions for status displays.
func MoneyCompact(v float64) string {
	return fmt.Sprintf("₹ %.1fM", v/1_000_000)
}

// Pct renders a percentage with one decimal.
func Pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
