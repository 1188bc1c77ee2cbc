// file: internal/search/scorer_test.go
// version: 1.0.0
// guid: 5f1b9d3a-6e2c-4a8b-b7d4-0c9e3f1a5b28

package search

import (
	"errors"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/jdfalk/voter-search/internal/models"
	"pgregory.net/rapid"
)

// recursiveConfidence walks both words, advancing both on a case-folded match
// and otherwise taking the better of skipping one rune from either side.
func recursiveConfidence(a, b []rune, i, j, matches int) int {
	if i >= len(a) || j >= len(b) {
		return matches
	}
	if unicode.ToLower(a[i]) != unicode.ToLower(b[j]) {
		return max(
			recursiveConfidence(a, b, i, j+1, matches),
			recursiveConfidence(a, b, i+1, j, matches),
		)
	}
	return recursiveConfidence(a, b, i+1, j+1, matches+1)
}

func TestWordConfidence(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "Smith", 0},
		{"smith", "", 0},
		{"desmo", "Desmond", 5},
		{"B", "Brown", 1},
		{"SMITH", "smith", 5},
		{"abc", "xyz", 0},
		{"abcbdab", "bdcaba", 4},
		{"M\u00fcller", "M\u00dcLLER", 6},
		{"62701", "62710", 4},
		{"Apt 4B", "4B", 2},
	}

	for _, tt := range tests {
		if got := WordConfidence(tt.a, tt.b); got != tt.want {
			t.Errorf("WordConfidence(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestWordConfidence_AgreesWithRecursiveWalk(t *testing.T) {
	pairs := [][2]string{
		{"desmo", "Desmond"},
		{"jonathan", "Johnathon"},
		{"Baker St", "221 Baker Street"},
		{"springfeild", "Springfield"},
		{"aaaa", "aa"},
		{"abab", "baba"},
		{"Zo\u00eb", "zoe"},
		{"62701", "26701"},
	}
	for _, p := range pairs {
		want := recursiveConfidence([]rune(p[0]), []rune(p[1]), 0, 0, 0)
		if got := WordConfidence(p[0], p[1]); got != want {
			t.Errorf("WordConfidence(%q, %q) = %d, recursive walk = %d", p[0], p[1], got, want)
		}
	}
}

func TestWordConfidence_Properties(t *testing.T) {
	word := rapid.StringOfN(rapid.RuneFrom([]rune("abcABCxyz 1\u00e9")), 0, 8, -1)

	rapid.Check(t, func(t *rapid.T) {
		a := word.Draw(t, "a")
		b := word.Draw(t, "b")

		got := WordConfidence(a, b)
		if got != WordConfidence(b, a) {
			t.Fatalf("not symmetric for %q, %q", a, b)
		}
		if got > min(utf8.RuneCountInString(a), utf8.RuneCountInString(b)) {
			t.Fatalf("LCS %d longer than shorter input for %q, %q", got, a, b)
		}
		if self := WordConfidence(a, a); self != utf8.RuneCountInString(a) {
			t.Fatalf("self match of %q = %d", a, self)
		}
		if want := recursiveConfidence([]rune(a), []rune(b), 0, 0, 0); got != want {
			t.Fatalf("WordConfidence(%q, %q) = %d, recursive walk = %d", a, b, got, want)
		}
	})
}

func TestConfidence(t *testing.T) {
	voter := &models.Voter{FirstName: "Desmond", LastName: "Brown", Zip: "62701"}

	tests := []struct {
		name  string
		terms []Term
		want  float64
	}{
		{"single term", []Term{{FieldFirstName, "desmo"}}, 0.71},
		{"sums before dividing", []Term{{FieldFirstName, "desmo"}, {FieldLastName, "B"}}, 0.5},
		{"exact match", []Term{{FieldLastName, "brown"}}, 1},
		{"no overlap", []Term{{FieldZip, "99999"}}, 0},
		{"empty column", []Term{{FieldCity, "Reno"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Confidence(voter, tt.terms)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidence_Degenerate(t *testing.T) {
	voter := &models.Voter{FirstName: "Desmond"}

	for _, terms := range [][]Term{nil, {{FieldCity, ""}}} {
		got, err := Confidence(voter, terms)
		if !errors.Is(err, ErrDegenerateScore) {
			t.Errorf("expected ErrDegenerateScore for %v, got %v", terms, err)
		}
		if got != 0 {
			t.Errorf("expected 0 sentinel, got %v", got)
		}
	}
}

func TestConfidence_UnknownField(t *testing.T) {
	_, err := Confidence(&models.Voter{}, []Term{{Field(99), "x"}})
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
}

func TestConfidence_Range(t *testing.T) {
	value := rapid.StringOfN(rapid.RuneFrom([]rune("abAB 12")), 0, 6, -1)

	rapid.Check(t, func(t *rapid.T) {
		voter := &models.Voter{
			FirstName: value.Draw(t, "first"),
			City:      value.Draw(t, "city"),
		}
		terms := []Term{
			{FieldFirstName, value.Draw(t, "qfirst")},
			{FieldCity, value.Draw(t, "qcity")},
		}
		got, err := Confidence(voter, terms)
		if errors.Is(err, ErrDegenerateScore) {
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < 0 || got > 1 {
			t.Fatalf("confidence %v out of range", got)
		}
		if got != roundConfidence(got) {
			t.Fatalf("confidence %v not rounded to two decimals", got)
		}
	})
}

func TestRoundConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5.0 / 7.0, 0.71},
		{0.125, 0.13},
		{0.5, 0.5},
		{2.0 / 3.0, 0.67},
		{1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundConfidence(tt.in); got != tt.want {
			t.Errorf("roundConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
