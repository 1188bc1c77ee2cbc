// file: internal/importer/importer.go
// version: 1.0.0
// guid: 5c2e8a41-7b3d-4f9e-a6c1-0d8e2f4b7a93

// Package importer loads voter records from seed files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdfalk/voter-search/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported seed file format")

// record is the on-disk shape of a voter in seed files.
type record struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Address1  string `yaml:"address1"`
	Address2  string `yaml:"address2"`
	City      string `yaml:"city"`
	State     string `yaml:"state"`
	Zip       string `yaml:"zip"`
}

func (r record) voter() models.Voter {
	return models.Voter{
		ID:        strings.TrimSpace(r.ID),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Address1:  strings.TrimSpace(r.Address1),
		Address2:  strings.TrimSpace(r.Address2),
		City:      strings.TrimSpace(r.City),
		State:     strings.TrimSpace(r.State),
		Zip:       strings.TrimSpace(r.Zip),
	}
}

// LoadFile reads voters from path, choosing the decoder by file extension.
func LoadFile(path string) ([]models.Voter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadYAML decodes either a top-level list of voters or a document with a
// "voters" list.
func LoadYAML(r io.Reader) ([]models.Voter, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Voter{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var records []record
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode voters: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Voters []record `yaml:"voters"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode voters: %w", err)
		}
		records = wrapped.Voters
	default:
		return nil, fmt.Errorf("failed to decode voters: expected a list or a voters key")
	}

	voters := make([]models.Voter, 0, len(records))
	for _, rec := range records {
		voters = append(voters, rec.voter())
	}
	return voters, nil
}

// csvColumns maps normalized header names to record setters.
var csvColumns = map[string]func(*record, string){
	"id":        func(r *record, v string) { r.ID = v },
	"firstname": func(r *record, v string) { r.FirstName = v },
	"lastname":  func(r *record, v string) { r.LastName = v },
	"address1":  func(r *record, v string) { r.Address1 = v },
	"address2":  func(r *record, v string) { r.Address2 = v },
	"city":      func(r *record, v string) { r.City = v },
	"state":     func(r *record, v string) { r.State = v },
	"zip":       func(r *record, v string) { r.Zip = v },
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(h)
}

// LoadCSV decodes voters from CSV with a header row. Header names are matched
// ignoring case and separators, so "first_name" and "firstName" both work.
// Unknown columns are rejected.
func LoadCSV(r io.Reader) ([]models.Voter, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.Voter{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	setters := make([]func(*record, string), len(header))
	for i, h := range header {
		set, ok := csvColumns[normalizeHeader(h)]
		if !ok {
			return nil, fmt.Errorf("unknown CSV column %q", h)
		}
		setters[i] = set
	}

	voters := []models.Voter{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		var rec record
		for i, value := range row {
			setters[i](&rec, value)
		}
		voters = append(voters, rec.voter())
	}
	return voters, nil
}
