// file: internal/search/scorer.go
// version: 1.0.0
// guid: e91a6c3f-2b7d-4d08-9f5e-4c1b8a7d3e26

package search

import (
	"errors"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/jdfalk/voter-search/internal/models"
)

// ErrDegenerateScore is returned when there is nothing to normalize against:
// no terms, or every term and its column value are empty. The accompanying
// confidence is always 0.
var ErrDegenerateScore = errors.New("confidence undefined: no term has a non-zero length")

// WordConfidence returns the length of the longest common subsequence of a
// and b, comparing runes case-insensitively.
func WordConfidence(a, b string) int {
	ra, rb := foldRunes(a), foldRunes(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Two-row LCS table; prev holds row i-1, curr row i.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		curr[0] = 0
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Confidence scores how well a voter matches the full term list. Per-term LCS
// lengths and per-term max lengths are summed before dividing, and the ratio is
// rounded half-up to two decimals.
func Confidence(v *models.Voter, terms []Term) (float64, error) {
	var matched, possible int
	for _, t := range terms {
		value, err := ValueOf(v, t.Field)
		if err != nil {
			return 0, err
		}
		matched += WordConfidence(t.Value, value)
		possible += max(utf8.RuneCountInString(t.Value), utf8.RuneCountInString(value))
	}
	if possible == 0 {
		return 0, ErrDegenerateScore
	}
	return roundConfidence(float64(matched) / float64(possible)), nil
}

func roundConfidence(ratio float64) float64 {
	return math.Floor(ratio*100+0.5) / 100
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
