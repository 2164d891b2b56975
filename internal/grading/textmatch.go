package grading

import "strings"

// normalize trims, casefolds and collapses internal whitespace runs to a
// single space. Applied independently to every expected and submitted blank.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// terms splits a normalized value into scoring terms: whitespace-separated
// tokens longer than two runes. Short tokens (articles, "of", "a") carry no
// weight in the overlap heuristic.
func terms(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// termOverlap returns the fraction of expected terms present anywhere in the
// submitted terms.
func termOverlap(expected, submitted []string) float64 {
	if len(expected) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(submitted))
	for _, t := range submitted {
		have[t] = struct{}{}
	}
	found := 0
	for _, t := range expected {
		if _, ok := have[t]; ok {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}
