package extract

import "strings"

// Normalize collapses all runs of whitespace to single spaces and trims
// the ends. NUL bytes, which some extractors leak and Postgres rejects,
// act as word separators.
func Normalize(s string) string {
	return strings.Join(strings.Fields(scrubNUL(s)), " ")
}

func scrubNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return ' '
		}
		return r
	}, s)
}
