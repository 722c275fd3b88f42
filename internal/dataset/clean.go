package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyPattern = regexp.MustCompile(`[₹$,\s]`)

// ParseCurrency converts a currency display string to a number. Currency
// symbols, thousand separators and whitespace are stripped; anything that
// still fails to parse counts as zero.
func ParseCurrency(s string) float64 {
	cleaned := currencyPattern.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// The boards carry dates in several formats depending on who filled the
// column in.
var dateFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"02/01/2006",
}

// ParseDate tries each known format. Unparseable values yield a zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizeStatus trims and title-cases a status label so "won", "WON"
// and " Won " all compare equal.
func NormalizeStatus(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ProbabilityScore maps a closure probability label to a weight.
func ProbabilityScore(label string) float64 {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return 0.8
	case "medium":
		return 0.5
	case "low":
		return 0.2
	default:
		return 0.5
	}
}
