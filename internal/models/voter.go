// file: internal/models/voter.go
// version: 1.0.0
// guid: 3f6b1c2e-8d4a-4e57-9b0f-2a7c5d1e9f84

package models

// Voter is a single person record in the voter file
type Voter struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Address1  string `json:"address1" db:"address1"`
	Address2  string `json:"address2" db:"address2"` // empty when the voter has no second line
	City      string `json:"city" db:"city"`
	State     string `json:"state" db:"state"`
	Zip       string `json:"zip" db:"zip"`
}

// Tag is a named label that can be attached to any number of voters
type Tag struct {
	ID   string `json:"tagId" db:"id"`
	Name string `json:"name" db:"name"`
}

// VoterTag is the attachment of a tag to one voter.
// ID identifies the attachment itself, not the tag.
type VoterTag struct {
	ID      string `json:"voterTagId" db:"id"`
	VoterID string `json:"-" db:"voter_id"`
	TagID   string `json:"-" db:"tag_id"`
	Name    string `json:"name"`
}
