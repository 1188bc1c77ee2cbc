// file: internal/search/fields_test.go
// version: 1.0.0
// guid: 8b4d0f6a-2e7c-4b91-9a3f-5d1c8e6b0f72

package search

import (
	"errors"
	"testing"

	"github.com/jdfalk/voter-search/internal/models"
)

func TestFieldRoundTrip(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(f.String())
		if err != nil {
			t.Fatalf("ParseField(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("ParseField(%q) = %v, want %v", f.String(), got, f)
		}
		if _, err := f.Column(); err != nil {
			t.Errorf("%v has no column: %v", f, err)
		}
	}
}

func TestParseField_CaseSensitive(t *testing.T) {
	for _, name := range []string{"FirstName", "first_name", "limit", ""} {
		if IsSearchField(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestValueOf(t *testing.T) {
	v := &models.Voter{
		FirstName: "Ann", LastName: "Lee", Address1: "1 Main", Address2: "Apt 2",
		City: "Reno", State: "NV", Zip: "89501",
	}
	want := []string{"Ann", "Lee", "1 Main", "Apt 2", "Reno", "NV", "89501"}
	for i, f := range Fields {
		got, err := ValueOf(v, f)
		if err != nil {
			t.Fatalf("ValueOf(%v): %v", f, err)
		}
		if got != want[i] {
			t.Errorf("ValueOf(%v) = %q, want %q", f, got, want[i])
		}
	}

	_, err := ValueOf(v, Field(len(Fields)))
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownFieldError, got %v", err)
	}
}
