// Package coursename normalizes free-text course labels so records typed by students
// can be matched against catalog course names.
package coursename

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison key for a course label: NFKC (so full-width
// characters equal their ASCII forms), case folded, whitespace collapsed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Equal reports whether two labels name the same course
func Equal(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}

// Match returns the index of the candidate that label refers to, or -1.
// An exact normalized match wins; otherwise the longest candidate that contains
// the label, or is contained in it, is chosen.
func Match(label string, candidates []string) int {
	key := Normalize(label)
	if key == "" {
		return -1
	}

	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = Normalize(c)
		if keys[i] == key {
			return i
		}
	}

	best, bestLen := -1, 0
	for i, k := range keys {
		if k == "" {
			continue
		}
		if strings.Contains(k, key) || strings.Contains(key, k) {
			if len(k) > bestLen {
				best, bestLen = i, len(k)
			}
		}
	}
	return best
}
