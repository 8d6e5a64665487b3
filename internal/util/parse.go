package util

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegex matches amounts like "130 лв" or "45,50лв". The site mixes
// decimal commas and dots, and pads prices with non-breaking spaces.
var priceRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*лв`)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// PickPrice extracts the first currency amount from text. The second
// return is false when no amount is present; it never fails on malformed
// input.
func PickPrice(text string) (float64, bool) {
	cleaned := strings.ReplaceAll(text, " ", " ")
	m := priceRegex.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// UniqBy filters items down to the first occurrence of each key,
// preserving input order.
func UniqBy[T any, K comparable](items []T, keyFn func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFn(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// CollapseSpace trims the string and squeezes internal whitespace runs
// into single spaces.
func CollapseSpace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Truncate caps s at n runes. Byte slicing would split Cyrillic text
// mid-character.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
