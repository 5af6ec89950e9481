// Package keyword extracts ranked search terms from a free-text prompt,
// used to drive the Context Pack file search (spec §4.2).
package keyword

import "strings"

// Stopwords filtered out of extracted keywords.
var Stopwords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "with": {}, "from": {}, "into": {},
	"about": {}, "would": {}, "could": {}, "should": {}, "there": {},
	"their": {}, "your": {}, "need": {}, "have": {}, "please": {},
	"just": {}, "when": {}, "what": {}, "where": {}, "which": {},
	"while": {}, "after": {}, "before": {}, "code": {}, "repo": {},
	"project": {},
}

const (
	minLength = 4
	maxKeywords = 6
)

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '/' || r == '-':
		return true
	}
	return false
}

// Extract tokenizes prompt and returns up to 6 deduplicated keywords in
// first-seen order: lowercase, split on any rune outside [a-z0-9_./-],
// dropped if shorter than 4 chars or in Stopwords.
func Extract(prompt string) []string {
	lowered := strings.ToLower(prompt)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !isAllowed(r)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, maxKeywords)
	for _, f := range fields {
		if len(out) >= maxKeywords {
			break
		}
		if len(f) < minLength {
			continue
		}
		if _, stop := Stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
