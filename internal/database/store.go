// file: internal/database/store.go
// version: 3.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
)

// ErrNotFound is wrapped by mutations that target a missing record.
// Getters return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for voter file persistence.
// SQLite (default) pushes candidate filtering into SQL; PebbleDB evaluates
// predicates in Go over a key scan.
type Store interface {
	// Lifecycle
	Close() error

	// Voters
	CreateVoter(voter *models.Voter) (*models.Voter, error) // Generates a UUID if ID is empty
	GetVoterByID(id string) (*models.Voter, error)
	UpdateVoter(id string, voter *models.Voter) (*models.Voter, error)
	DeleteVoter(id string) error // Also detaches the voter's tags
	CountVoters() (int, error)

	// FindCandidates returns voters satisfying every predicate, ordered by
	// edit distance to the fuzzy predicates and then by insertion order.
	// limit <= 0 means no limit.
	FindCandidates(ctx context.Context, preds []search.Predicate, limit int) ([]models.Voter, error)

	// Tags
	GetAllTags() ([]models.Tag, error)
	SearchTags(text string) ([]models.Tag, error) // Case-insensitive substring match on name
	GetTagByName(name string) (*models.Tag, error)
	CreateTag(name string) (*models.Tag, error) // Returns the existing tag when the name is taken
	DeleteTag(id string) error                  // Also detaches it from every voter
	CountTags() (int, error)

	// Voter tags
	AddVoterTag(voterID, tagName string) (*models.VoterTag, error) // Idempotent per (voter, tag)
	GetVoterTags(voterID string) ([]models.VoterTag, error)
	RemoveVoterTag(voterTagID string) error
}

// Global store instance
var GlobalStore Store

// InitializeStore initializes the database store based on configuration
func InitializeStore(dbType, path string) error {
	var err error

	switch dbType {
	case "sqlite", "sqlite3", "":
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble":
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database type: %s (supported: sqlite, pebble)", dbType)
	}
	return nil
}

// CloseStore closes the global store
func CloseStore() error {
	if GlobalStore != nil {
		err := GlobalStore.Close()
		GlobalStore = nil
		return err
	}
	return nil
}

// newID returns a time-ordered UUID so key order follows insertion order.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsValidID reports whether id is a well-formed UUID.
func IsValidID(id string) bool {
	return uuid.Validate(id) == nil
}
