package tender

import (
	"regexp"
	"strings"
)

// The site's query facility does not reliably support boolean OR server-side,
// so compound keywords are decomposed client-side and the union is rebuilt by
// the orchestrator's dedup pass. The separator must be a standalone token:
// "ORACLE" or "電腦OR軟體" are single terms.
var orSeparator = regexp.MustCompile(`(?i)\s+OR\s+`)

// SplitKeyword decomposes a compound keyword on the case-insensitive token
// "OR" surrounded by whitespace. Terms are trimmed and empty terms dropped,
// preserving left-to-right order. Zero remaining terms is ErrInvalidQuery.
func SplitKeyword(raw string) ([]string, error) {
	terms := make([]string, 0, 2)
	for _, part := range orSeparator.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		terms = append(terms, part)
	}
	if len(terms) == 0 {
		return nil, ErrInvalidQuery
	}
	return terms, nil
}
