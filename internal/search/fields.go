// file: internal/search/fields.go
// version: 1.0.0
// guid: 7a2d9e41-5c3b-4f86-a1e0-6b8c2d4f7e13

package search

import (
	"fmt"

	"github.com/jdfalk/voter-search/internal/models"
)

// Field is one of the logical search fields a caller may query by.
type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldAddress1
	FieldAddress2
	FieldCity
	FieldState
	FieldZip
)

// Fields lists every search field in canonical order.
var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldAddress1,
	FieldAddress2,
	FieldCity,
	FieldState,
	FieldZip,
}

// UnknownFieldError reports a field name or value outside the search vocabulary.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown search field: %q", e.Name)
}

// String returns the query parameter name of the field.
func (f Field) String() string {
	switch f {
	case FieldFirstName:
		return "firstName"
	case FieldLastName:
		return "lastName"
	case FieldAddress1:
		return "address1"
	case FieldAddress2:
		return "address2"
	case FieldCity:
		return "city"
	case FieldState:
		return "state"
	case FieldZip:
		return "zip"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Column returns the voter table column backing the field.
func (f Field) Column() (string, error) {
	switch f {
	case FieldFirstName:
		return "first_name", nil
	case FieldLastName:
		return "last_name", nil
	case FieldAddress1:
		return "address1", nil
	case FieldAddress2:
		return "address2", nil
	case FieldCity:
		return "city", nil
	case FieldState:
		return "state", nil
	case FieldZip:
		return "zip", nil
	}
	return "", &UnknownFieldError{Name: f.String()}
}

// ParseField maps a query parameter name to its field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, &UnknownFieldError{Name: name}
}

// IsSearchField reports whether name is a recognized search parameter.
func IsSearchField(name string) bool {
	_, err := ParseField(name)
	return err == nil
}

// ValueOf returns the voter's value for the given field.
func ValueOf(v *models.Voter, f Field) (string, error) {
	switch f {
	case FieldFirstName:
		return v.FirstName, nil
	case FieldLastName:
		return v.LastName, nil
	case FieldAddress1:
		return v.Address1, nil
	case FieldAddress2:
		return v.Address2, nil
	case FieldCity:
		return v.City, nil
	case FieldState:
		return v.State, nil
	case FieldZip:
		return v.Zip, nil
	}
	return "", &UnknownFieldError{Name: f.String()}
}
