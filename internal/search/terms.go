// file: internal/search/terms.go
// version: 1.1.0
// guid: c4e8b2a7-1d9f-4b63-8e5a-0f3d7c6b2a91

package search

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Term is one (field, value) pair supplied by a search request.
type Term struct {
	Field Field
	Value string
}

// CollectTerms turns raw query parameters into the ordered term list for one
// request. Every key must be a search field. Empty values are dropped rather
// than matching everything, and values are normalized to NFC so composed and
// decomposed input compare equal.
func CollectTerms(params map[string]string) ([]Term, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	byField := make(map[Field]string, len(params))
	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		byField[f] = params[name]
	}
	return NewTerms(byField), nil
}

// NewTerms builds terms in canonical field order from already parsed pairs.
func NewTerms(pairs map[Field]string) []Term {
	var terms []Term
	for _, f := range Fields {
		value, ok := pairs[f]
		if !ok || value == "" {
			continue
		}
		terms = append(terms, Term{Field: f, Value: norm.NFC.String(value)})
	}
	return terms
}
