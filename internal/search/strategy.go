// file: internal/search/strategy.go
// version: 1.1.0
// guid: 5b1f7d3c-9e2a-4c80-b6d4-8a0e3f5c1d72

package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdfalk/voter-search/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// DefaultFuzzyThreshold is the edit distance allowed for most fuzzy fields
	DefaultFuzzyThreshold = 2
	// ZipFuzzyThreshold is tighter because zips are short and numeric
	ZipFuzzyThreshold = 1
	// shortNameLength is the name length below which prefix matching is used
	shortNameLength = 3
)

// PredicateKind is the comparison a store applies to one column.
type PredicateKind int

const (
	KindExact PredicateKind = iota
	KindPrefix
	KindSuffix
	KindFuzzy
)

func (k PredicateKind) String() string {
	switch k {
	case KindExact:
		return "EXACT"
	case KindPrefix:
		return "PREFIX"
	case KindSuffix:
		return "SUFFIX"
	case KindFuzzy:
		return "FUZZY"
	}
	return fmt.Sprintf("PredicateKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k PredicateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Predicate is the filter contribution of one term. Stores translate it into
// their own query form; Matches gives the reference semantics.
type Predicate struct {
	Field     Field         `json:"-"`
	Column    string        `json:"targetColumn"`
	Kind      PredicateKind `json:"predicateKind"`
	Value     string        `json:"value"`
	Threshold int           `json:"fuzzyThreshold,omitempty"`
}

// Resolve picks the matching strategy for a term.
func Resolve(t Term) (Predicate, error) {
	column, err := t.Field.Column()
	if err != nil {
		return Predicate{}, err
	}
	p := Predicate{Field: t.Field, Column: column, Value: t.Value}

	switch t.Field {
	case FieldFirstName, FieldLastName:
		if len([]rune(t.Value)) < shortNameLength {
			p.Kind = KindPrefix
		} else {
			p.Kind, p.Threshold = KindFuzzy, DefaultFuzzyThreshold
		}
	case FieldAddress1:
		if IsNumericToken(t.Value) {
			p.Kind = KindPrefix
		} else {
			p.Kind, p.Threshold = KindFuzzy, DefaultFuzzyThreshold
		}
	case FieldAddress2:
		// a bare unit number is usually the tail of "Apt. 062"
		if IsNumericToken(t.Value) {
			p.Kind = KindSuffix
		} else {
			p.Kind, p.Threshold = KindFuzzy, DefaultFuzzyThreshold
		}
	case FieldCity:
		p.Kind, p.Threshold = KindFuzzy, DefaultFuzzyThreshold
	case FieldZip:
		p.Kind, p.Threshold = KindFuzzy, ZipFuzzyThreshold
	case FieldState:
		p.Kind = KindExact
	default:
		return Predicate{}, &UnknownFieldError{Name: t.Field.String()}
	}
	return p, nil
}

// BuildPredicates resolves every term, failing on the first unknown field.
func BuildPredicates(terms []Term) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		p, err := Resolve(t)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

var (
	decimalLiteral  = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)
	radixLiteral    = regexp.MustCompile(`^0(?:[xX][0-9a-fA-F]+|[bB][01]+|[oO][0-7]+)$`)
	infinityLiteral = regexp.MustCompile(`^[+-]?Infinity$`)
)

// IsNumericToken reports whether value is a single space-delimited token that
// reads as a number: a signed decimal with optional exponent (overflow
// included), an unsigned 0x/0b/0o integer, or a signed "Infinity".
// Spellings like "inf", "nan" or "1_000" are not numbers.
func IsNumericToken(value string) bool {
	if len(strings.Split(value, " ")) != 1 {
		return false
	}
	token := strings.TrimSpace(value)
	if token == "" {
		return false
	}
	return decimalLiteral.MatchString(token) ||
		radixLiteral.MatchString(token) ||
		infinityLiteral.MatchString(token)
}

// Matches reports whether a column value satisfies the predicate. Exact and
// edit-distance comparisons are case-sensitive; prefix and suffix are not.
func (p Predicate) Matches(value string) bool {
	switch p.Kind {
	case KindExact:
		return value == p.Value
	case KindPrefix:
		return HasPrefixFold(value, p.Value)
	case KindSuffix:
		return HasSuffixFold(value, p.Value)
	case KindFuzzy:
		return HasPrefixFold(value, p.Value) || fuzzy.LevenshteinDistance(p.Value, value) <= p.Threshold
	}
	return false
}

// EditDistanceKey returns the edit distance of the voter to each fuzzy
// predicate, in predicate order. Comparing keys lexicographically reproduces
// the secondary ordering hint a SQL store applies.
func EditDistanceKey(preds []Predicate, v *models.Voter) []int {
	var key []int
	for _, p := range preds {
		if p.Kind != KindFuzzy {
			continue
		}
		value, err := ValueOf(v, p.Field)
		if err != nil {
			continue
		}
		key = append(key, fuzzy.LevenshteinDistance(p.Value, value))
	}
	return key
}

// MatchesVoter reports whether the voter satisfies every predicate.
func MatchesVoter(preds []Predicate, v *models.Voter) bool {
	for _, p := range preds {
		value, err := ValueOf(v, p.Field)
		if err != nil || !p.Matches(value) {
			return false
		}
	}
	return true
}

// HasPrefixFold reports whether s starts with prefix under Unicode lower-casing.
// Stores use it so every backend folds case the same way.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// HasSuffixFold is the suffix counterpart of HasPrefixFold.
func HasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
}

// ContainsFold reports whether substr occurs in s under Unicode lower-casing.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
