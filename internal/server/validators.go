// file: internal/server/validators.go
// version: 2.0.0
// guid: 9b0c1d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4e

package server

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/search"
)

const (
	limitParam       = "limit"
	minTagNameLength = 3
)

// ValidationError represents a validation error with code
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return e.Message
}

// reasons flattens validation errors into the messages returned to clients.
func reasons(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

// ValidateID checks that a path id is a well-formed UUID
func ValidateID(field, id string) error {
	if id == "" || !database.IsValidID(id) {
		return ValidationError{
			Field:   field,
			Message: field + " must be a valid uuid",
			Code:    "INVALID_ID",
		}
	}
	return nil
}

// ValidateMinLength checks that value has at least minLength characters
func ValidateMinLength(field, value string, minLength int) error {
	if utf8.RuneCountInString(value) < minLength {
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be %d or more characters", field, minLength),
			Code:    "TOO_SHORT",
		}
	}
	return nil
}

// UpdateVoterRequest is the body of PUT /api/v1/voters/:id
type UpdateVoterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// Validate reports every field that fails its length rule.
func (r UpdateVoterRequest) Validate() []error {
	var errs []error
	if err := ValidateMinLength("firstName", r.FirstName, 1); err != nil {
		errs = append(errs, err)
	}
	for _, f := range []struct{ name, value string }{
		{"lastName", r.LastName},
		{"address1", r.Address1},
		{"address2", r.Address2},
		{"city", r.City},
		{"state", r.State},
		{"zip", r.Zip},
	} {
		if err := ValidateMinLength(f.name, f.value, 2); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// AddTagRequest is the body of POST /api/v1/voters/:id/tags
type AddTagRequest struct {
	Name string `json:"name"`
}

func (r AddTagRequest) Validate() []error {
	if err := ValidateMinLength("name", r.Name, minTagNameLength); err != nil {
		return []error{err}
	}
	return nil
}

// SearchParams is a validated search query.
type SearchParams struct {
	Terms []search.Term
	Limit int // 0 when not supplied
}

// ParseSearchParams validates the query string of GET /api/v1/search.
// Every parameter must be a search field or "limit", and none may repeat.
func ParseSearchParams(query url.Values) (SearchParams, []error) {
	var (
		params SearchParams
		errs   []error
	)

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(query))
	for _, key := range keys {
		values := query[key]
		if len(values) > 1 {
			errs = append(errs, ValidationError{
				Field:   key,
				Message: key + " must be supplied at most once",
				Code:    "DUPLICATE_PARAM",
			})
			continue
		}
		if key == limitParam {
			n, err := strconv.Atoi(values[0])
			if err != nil || n < 1 {
				errs = append(errs, ValidationError{
					Field:   key,
					Message: "limit must be a positive integer",
					Code:    "INVALID_LIMIT",
				})
				continue
			}
			params.Limit = n
			continue
		}
		if !search.IsSearchField(key) {
			errs = append(errs, &search.UnknownFieldError{Name: key})
			continue
		}
		fields[key] = values[0]
	}
	if len(errs) > 0 {
		return SearchParams{}, errs
	}

	terms, err := search.CollectTerms(fields)
	if err != nil {
		var unknown *search.UnknownFieldError
		if errors.As(err, &unknown) {
			return SearchParams{}, []error{unknown}
		}
		return SearchParams{}, []error{err}
	}
	if len(terms) == 0 {
		return SearchParams{}, []error{ValidationError{
			Field:   "query",
			Message: "at least one search field is required",
			Code:    "NO_SEARCH_TERMS",
		}}
	}
	params.Terms = terms
	return params, nil
}
