package record

import (
	"fmt"
	"strconv"
	"strings"
)

// unitFactors maps unit tokens to a factor relative to their dimension's base
// unit (grams, meters, seconds). Units convert only within one dimension.
var unitFactors = map[string]struct {
	dimension string
	factor    float64
}{
	"ug": {"mass", 1e-6}, "mcg": {"mass", 1e-6},
	"mg": {"mass", 1e-3},
	"g":  {"mass", 1}, "gram": {"mass", 1},
	"kg": {"mass", 1e3},

	"mm": {"length", 1e-3},
	"cm": {"length", 1e-2},
	"m":  {"length", 1}, "meter": {"length", 1}, "metre": {"length", 1},
	"km": {"length", 1e3},

	"ms": {"time", 1e-3},
	"s":  {"time", 1}, "sec": {"time", 1}, "second": {"time", 1},
	"min": {"time", 60}, "minute": {"time", 60},
	"h": {"time", 3600}, "hr": {"time", 3600}, "hour": {"time", 3600},
}

// countMultipliers expands magnitude words on count values ("3.5 million"
// -> 3500000). Single-letter "m" stays out: it reads as meters elsewhere.
var countMultipliers = map[string]float64{
	"thousand": 1e3, "k": 1e3,
	"million": 1e6,
	"billion": 1e9, "bn": 1e9,
}

// ConvertUnit parses a unit-bearing value string and converts it to the
// expected unit. "count" strips separators, expands magnitude words, and
// ignores trailing nouns ("1,000 participants" -> 1000); "percent" accepts %
// suffixes; dimensioned units (mass, length, time) convert within their
// dimension.
func ConvertUnit(raw, expected string) (float64, error) {
	number, remainder, err := splitNumber(raw)
	if err != nil {
		return 0, err
	}

	expected = strings.ToLower(strings.TrimSpace(expected))
	unit := unitToken(remainder)

	switch expected {
	case "count":
		if mult, ok := countMultipliers[unit]; ok {
			return number * mult, nil
		}
		// Any other trailing noun is acceptable; the number stands alone.
		return number, nil
	case "percent", "%":
		if unit == "" || unit == "%" || unit == "percent" || unit == "pct" {
			return number, nil
		}
		return 0, fmt.Errorf("cannot normalize unit %q to percent", unit)
	}

	target, ok := unitFactors[expected]
	if !ok {
		return 0, fmt.Errorf("unknown expected unit %q", expected)
	}
	if unit == "" {
		// No unit on the value: assume it is already in the expected unit.
		return number, nil
	}
	source, ok := unitFactors[unit]
	if !ok || source.dimension != target.dimension {
		return 0, fmt.Errorf("cannot normalize unit %q to %q", unit, expected)
	}
	return number * source.factor / target.factor, nil
}

// splitNumber extracts the leading numeric token (thousands separators
// allowed) and returns it with the rest of the string.
func splitNumber(raw string) (float64, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, "", fmt.Errorf("empty value")
	}

	end := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' || c == ',' || c == '.' || (end == 0 && (c == '+' || c == '-')) {
			end++
			continue
		}
		break
	}
	numeric := strings.ReplaceAll(s[:end], ",", "")
	n, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, "", fmt.Errorf("no numeric value in %q", raw)
	}
	return n, strings.TrimSpace(s[end:]), nil
}

// unitToken isolates the unit portion of the remainder: the first token,
// lowercased, with trailing punctuation and plural s stripped.
func unitToken(remainder string) string {
	if remainder == "" {
		return ""
	}
	token := strings.Fields(remainder)[0]
	token = strings.ToLower(strings.TrimRight(token, ".,;)"))
	if token == "%" || token == "s" {
		return token
	}
	if len(token) > 2 && strings.HasSuffix(token, "s") {
		if _, ok := unitFactors[strings.TrimSuffix(token, "s")]; ok {
			return strings.TrimSuffix(token, "s")
		}
	}
	return token
}

// formatNumber renders a converted value the way it appears in audit
// comments and CSV cells.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
