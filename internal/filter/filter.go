// Package filter rejects user-supplied text containing banned substrings.
package filter

import "strings"

// Filter performs case-insensitive substring matching against a fixed
// denylist. Substring containment means a term buried inside an unrelated
// word still matches; that trade-off is inherited behavior, not a bug.
type Filter struct {
	terms []string
}

func New(terms []string) *Filter {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &Filter{terms: lowered}
}

// ContainsBannedTerm reports whether text contains any denylisted term.
// Empty text never matches.
func (f *Filter) ContainsBannedTerm(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// AnyBanned checks several fields at once.
func (f *Filter) AnyBanned(texts ...string) bool {
	for _, t := range texts {
		if f.ContainsBannedTerm(t) {
			return true
		}
	}
	return false
}
