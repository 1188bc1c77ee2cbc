// file: internal/database/sqlite_store.go
// version: 2.1.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
	"github.com/lithammer/fuzzysearch/fuzzy"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// sqliteDriverName is go-sqlite3 with the Go matching functions registered on
// every connection. LIKE folds ASCII only, so prefix, suffix and substring
// tests go through the same Unicode folding the Pebble store uses.
const sqliteDriverName = "sqlite3_voters"

var sqliteFuncs = []struct {
	name string
	impl any
}{
	{"levenshtein", fuzzy.LevenshteinDistance},
	{"has_prefix_fold", search.HasPrefixFold},
	{"has_suffix_fold", search.HasSuffixFold},
	{"contains_fold", search.ContainsFold},
}

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, fn := range sqliteFuncs {
				if err := conn.RegisterFunc(fn.name, fn.impl, true); err != nil {
					return fmt.Errorf("failed to register %s: %w", fn.name, err)
				}
			}
			return nil
		},
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const voterSelectColumns = `id, first_name, last_name, address1, address2, city, state, zip`

func scanVoter(scanner rowScanner, voter *models.Voter) error {
	return scanner.Scan(
		&voter.ID, &voter.FirstName, &voter.LastName, &voter.Address1,
		&voter.Address2, &voter.City, &voter.State, &voter.Zip,
	)
}

// SQLiteStore implements the Store interface using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriverName, path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates all required tables
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS voters (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		address1 TEXT NOT NULL,
		address2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		zip TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_voters_first_name ON voters(first_name);
	CREATE INDEX IF NOT EXISTS idx_voters_last_name ON voters(last_name);
	CREATE INDEX IF NOT EXISTS idx_voters_state ON voters(state);
	CREATE INDEX IF NOT EXISTS idx_voters_zip ON voters(zip);

	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS voter_tags (
		id TEXT PRIMARY KEY,
		voter_id TEXT NOT NULL,
		tag_id TEXT NOT NULL,
		FOREIGN KEY (voter_id) REFERENCES voters(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE(voter_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_voter_tags_voter ON voter_tags(voter_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Voter operations

func (s *SQLiteStore) CreateVoter(voter *models.Voter) (*models.Voter, error) {
	created := *voter
	if created.ID == "" {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		created.ID = id
	}

	_, err := s.db.Exec(`
		INSERT INTO voters (id, first_name, last_name, address1, address2, city, state, zip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.FirstName, created.LastName, created.Address1,
		created.Address2, created.City, created.State, created.Zip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert voter: %w", err)
	}
	return &created, nil
}

func (s *SQLiteStore) GetVoterByID(id string) (*models.Voter, error) {
	var voter models.Voter
	query := fmt.Sprintf(`SELECT %s FROM voters WHERE id = ?`, voterSelectColumns)
	err := scanVoter(s.db.QueryRow(query, id), &voter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &voter, nil
}

func (s *SQLiteStore) UpdateVoter(id string, voter *models.Voter) (*models.Voter, error) {
	result, err := s.db.Exec(`
		UPDATE voters
		SET first_name = ?, last_name = ?, address1 = ?, address2 = ?,
		    city = ?, state = ?, zip = ?
		WHERE id = ?`,
		voter.FirstName, voter.LastName, voter.Address1, voter.Address2,
		voter.City, voter.State, voter.Zip, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update voter: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("voter %s: %w", id, ErrNotFound)
	}

	updated := *voter
	updated.ID = id
	return &updated, nil
}

func (s *SQLiteStore) DeleteVoter(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM voter_tags WHERE voter_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach voter tags: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM voters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voter: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("voter %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountVoters() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM voters").Scan(&count)
	return count, err
}

func (s *SQLiteStore) FindCandidates(ctx context.Context, preds []search.Predicate, limit int) ([]models.Voter, error) {
	query, args := candidateQuery(preds, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	defer rows.Close()

	var voters []models.Voter
	for rows.Next() {
		var voter models.Voter
		if err := scanVoter(rows, &voter); err != nil {
			return nil, err
		}
		voters = append(voters, voter)
	}
	return voters, rows.Err()
}

// candidateQuery translates predicates into a SELECT over voters. Column names
// come from the closed search field set and are safe to interpolate.
func candidateQuery(preds []search.Predicate, limit int) (string, []any) {
	var where, order []string
	var whereArgs, orderArgs []any

	for _, p := range preds {
		switch p.Kind {
		case search.KindExact:
			where = append(where, p.Column+" = ?")
			whereArgs = append(whereArgs, p.Value)
		case search.KindPrefix:
			where = append(where, fmt.Sprintf("has_prefix_fold(%s, ?)", p.Column))
			whereArgs = append(whereArgs, p.Value)
		case search.KindSuffix:
			where = append(where, fmt.Sprintf("has_suffix_fold(%s, ?)", p.Column))
			whereArgs = append(whereArgs, p.Value)
		case search.KindFuzzy:
			where = append(where, fmt.Sprintf("(has_prefix_fold(%s, ?) OR levenshtein(?, %s) <= ?)", p.Column, p.Column))
			whereArgs = append(whereArgs, p.Value, p.Value, p.Threshold)
			order = append(order, fmt.Sprintf("levenshtein(?, %s)", p.Column))
			orderArgs = append(orderArgs, p.Value)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM voters", voterSelectColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + strings.Join(append(order, "rowid"), ", "))

	args := append(whereArgs, orderArgs...)
	if limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	return b.String(), args
}

// Tag operations

func (s *SQLiteStore) queryTags(query string, args ...any) ([]models.Tag, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) GetAllTags() ([]models.Tag, error) {
	return s.queryTags(`SELECT id, name FROM tags ORDER BY name`)
}

func (s *SQLiteStore) SearchTags(text string) ([]models.Tag, error) {
	return s.queryTags(`SELECT id, name FROM tags WHERE contains_fold(name, ?) ORDER BY name`, text)
}

func (s *SQLiteStore) GetTagByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.QueryRow(`SELECT id, name FROM tags WHERE name = ?`, name).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *SQLiteStore) CreateTag(name string) (*models.Tag, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, id, name); err != nil {
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return s.GetTagByName(name)
}

func (s *SQLiteStore) DeleteTag(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM voter_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountTags() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&count)
	return count, err
}

// Voter tag operations

func (s *SQLiteStore) AddVoterTag(voterID, tagName string) (*models.VoterTag, error) {
	tag, err := s.CreateTag(tagName)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`
		INSERT INTO voter_tags (id, voter_id, tag_id) VALUES (?, ?, ?)
		ON CONFLICT(voter_id, tag_id) DO NOTHING`, id, voterID, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach tag: %w", err)
	}

	vt := models.VoterTag{VoterID: voterID, TagID: tag.ID, Name: tag.Name}
	err = s.db.QueryRow(`SELECT id FROM voter_tags WHERE voter_id = ? AND tag_id = ?`, voterID, tag.ID).Scan(&vt.ID)
	if err != nil {
		return nil, err
	}
	return &vt, nil
}

func (s *SQLiteStore) GetVoterTags(voterID string) ([]models.VoterTag, error) {
	rows, err := s.db.Query(`
		SELECT voter_tags.id, voter_tags.voter_id, voter_tags.tag_id, tags.name
		FROM voter_tags
		JOIN tags ON tags.id = voter_tags.tag_id
		WHERE voter_tags.voter_id = ?
		ORDER BY voter_tags.id`, voterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.VoterTag
	for rows.Next() {
		var vt models.VoterTag
		if err := rows.Scan(&vt.ID, &vt.VoterID, &vt.TagID, &vt.Name); err != nil {
			return nil, err
		}
		tags = append(tags, vt)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) RemoveVoterTag(voterTagID string) error {
	_, err := s.db.Exec(`DELETE FROM voter_tags WHERE id = ?`, voterTagID)
	return err
}
