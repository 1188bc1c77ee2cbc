// file: internal/database/pebble_store.go
// version: 2.1.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble/v2"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - voter:<id>                    -> Voter JSON plus insertion seq
// - meta:voterseq                 -> last voter seq (uint64, big endian)
// - tag:<id>                      -> Tag JSON
// - tagname:<name>                -> tag_id (for lookups)
// - votertag:<id>                 -> VoterTag JSON
// - votertagidx:<voter_id>:<id>   -> tag_id (for voter queries)
//
// Supplied IDs need not be time ordered, so insertion order comes from seq,
// not from key order.
type PebbleStore struct {
	db  *pebble.DB
	mu  sync.Mutex // serializes read-modify-write sequences
	seq uint64     // last voter seq handed out; guarded by mu
}

// NewPebbleStore creates a new PebbleDB store
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	store := &PebbleStore{db: db}
	if err := store.loadVoterSeq(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load voter sequence: %w", err)
	}
	return store, nil
}

var voterSeqKey = []byte("meta:voterseq")

func (p *PebbleStore) loadVoterSeq() error {
	value, closer, err := p.db.Get(voterSeqKey)
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	if len(value) != 8 {
		return fmt.Errorf("corrupt voter sequence (%d bytes)", len(value))
	}
	p.seq = binary.BigEndian.Uint64(value)
	return nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// Helper functions

func voterKey(id string) []byte     { return []byte("voter:" + id) }
func tagKey(id string) []byte       { return []byte("tag:" + id) }
func tagNameKey(name string) []byte { return []byte("tagname:" + name) }
func voterTagKey(id string) []byte  { return []byte("votertag:" + id) }

func voterTagIndexPrefix(voterID string) []byte {
	return []byte("votertagidx:" + voterID + ":")
}

// voterTagRecord is the stored form of a voter tag; the API model hides the
// foreign keys from JSON.
type voterTagRecord struct {
	ID      string `json:"id"`
	VoterID string `json:"voter_id"`
	TagID   string `json:"tag_id"`
}

// voterRecord is the stored form of a voter. Seq records insertion order.
type voterRecord struct {
	models.Voter
	Seq uint64 `json:"seq"`
}

// prefixBounds returns iterator bounds covering every key starting with prefix.
func prefixBounds(prefix []byte) *pebble.IterOptions {
	upper := slices.Clone(prefix)
	upper[len(upper)-1]++
	return &pebble.IterOptions{LowerBound: prefix, UpperBound: upper}
}

// getJSON loads key into v, reporting false when the key is absent.
func (p *PebbleStore) getJSON(key []byte, v any) (bool, error) {
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()
	if err := json.Unmarshal(value, v); err != nil {
		return false, err
	}
	return true, nil
}

func (p *PebbleStore) getString(key []byte) (string, bool, error) {
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer closer.Close()
	return string(value), true, nil
}

// scan calls fn with the value of every key under prefix, stopping when fn
// returns false.
func (p *PebbleStore) scan(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	iter, err := p.db.NewIter(prefixBounds(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		more, err := fn(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return iter.Error()
}

// Voter operations

func (p *PebbleStore) CreateVoter(voter *models.Voter) (*models.Voter, error) {
	created := *voter
	if created.ID == "" {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		created.ID = id
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seq := p.seq + 1
	data, err := json.Marshal(&voterRecord{Voter: created, Seq: seq})
	if err != nil {
		return nil, err
	}
	var seqValue [8]byte
	binary.BigEndian.PutUint64(seqValue[:], seq)

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(voterKey(created.ID), data, nil); err != nil {
		return nil, err
	}
	if err := batch.Set(voterSeqKey, seqValue[:], nil); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store voter: %w", err)
	}
	p.seq = seq
	return &created, nil
}

func (p *PebbleStore) GetVoterByID(id string) (*models.Voter, error) {
	var voter models.Voter
	found, err := p.getJSON(voterKey(id), &voter)
	if err != nil || !found {
		return nil, err
	}
	return &voter, nil
}

func (p *PebbleStore) UpdateVoter(id string, voter *models.Voter) (*models.Voter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var existing voterRecord
	found, err := p.getJSON(voterKey(id), &existing)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("voter %s: %w", id, ErrNotFound)
	}

	updated := *voter
	updated.ID = id
	data, err := json.Marshal(&voterRecord{Voter: updated, Seq: existing.Seq})
	if err != nil {
		return nil, err
	}
	if err := p.db.Set(voterKey(id), data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to update voter: %w", err)
	}
	return &updated, nil
}

func (p *PebbleStore) DeleteVoter(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.GetVoterByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("voter %s: %w", id, ErrNotFound)
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	err = p.scan(voterTagIndexPrefix(id), func(key, _ []byte) (bool, error) {
		vtID := strings.TrimPrefix(string(key), string(voterTagIndexPrefix(id)))
		if err := batch.Delete(voterTagKey(vtID), nil); err != nil {
			return false, err
		}
		return true, batch.Delete(slices.Clone(key), nil)
	})
	if err != nil {
		return fmt.Errorf("failed to detach voter tags: %w", err)
	}
	if err := batch.Delete(voterKey(id), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleStore) CountVoters() (int, error) {
	count := 0
	err := p.scan([]byte("voter:"), func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

func (p *PebbleStore) FindCandidates(ctx context.Context, preds []search.Predicate, limit int) ([]models.Voter, error) {
	type candidate struct {
		voter models.Voter
		key   []int
		seq   uint64
	}
	var candidates []candidate

	err := p.scan([]byte("voter:"), func(_, value []byte) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var rec voterRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return false, err
		}
		if search.MatchesVoter(preds, &rec.Voter) {
			candidates = append(candidates, candidate{
				voter: rec.Voter,
				key:   search.EditDistanceKey(preds, &rec.Voter),
				seq:   rec.Seq,
			})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if c := slices.Compare(candidates[i].key, candidates[j].key); c != 0 {
			return c < 0
		}
		return candidates[i].seq < candidates[j].seq
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	voters := make([]models.Voter, len(candidates))
	for i, c := range candidates {
		voters[i] = c.voter
	}
	return voters, nil
}

// Tag operations

func (p *PebbleStore) GetAllTags() ([]models.Tag, error) {
	return p.filterTags(func(models.Tag) bool { return true })
}

func (p *PebbleStore) SearchTags(text string) ([]models.Tag, error) {
	return p.filterTags(func(t models.Tag) bool {
		return search.ContainsFold(t.Name, text)
	})
}

func (p *PebbleStore) filterTags(keep func(models.Tag) bool) ([]models.Tag, error) {
	var tags []models.Tag
	err := p.scan([]byte("tag:"), func(_, value []byte) (bool, error) {
		var tag models.Tag
		if err := json.Unmarshal(value, &tag); err != nil {
			return false, err
		}
		if keep(tag) {
			tags = append(tags, tag)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (p *PebbleStore) GetTagByName(name string) (*models.Tag, error) {
	id, found, err := p.getString(tagNameKey(name))
	if err != nil || !found {
		return nil, err
	}
	var tag models.Tag
	found, err = p.getJSON(tagKey(id), &tag)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

func (p *PebbleStore) CreateTag(name string) (*models.Tag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createTagLocked(name)
}

func (p *PebbleStore) createTagLocked(name string) (*models.Tag, error) {
	existing, err := p.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{ID: id, Name: name}
	data, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(tagKey(id), data, nil); err != nil {
		return nil, err
	}
	if err := batch.Set(tagNameKey(name), []byte(id), nil); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, err
	}
	return tag, nil
}

func (p *PebbleStore) DeleteTag(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var tag models.Tag
	found, err := p.getJSON(tagKey(id), &tag)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	err = p.scan([]byte("votertag:"), func(key, value []byte) (bool, error) {
		var vt voterTagRecord
		if err := json.Unmarshal(value, &vt); err != nil {
			return false, err
		}
		if vt.TagID != id {
			return true, nil
		}
		if err := batch.Delete(slices.Clone(key), nil); err != nil {
			return false, err
		}
		return true, batch.Delete(append(voterTagIndexPrefix(vt.VoterID), vt.ID...), nil)
	})
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	if err := batch.Delete(tagKey(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(tagNameKey(tag.Name), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleStore) CountTags() (int, error) {
	count := 0
	err := p.scan([]byte("tag:"), func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

// Voter tag operations

func (p *PebbleStore) AddVoterTag(voterID, tagName string) (*models.VoterTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tag, err := p.createTagLocked(tagName)
	if err != nil {
		return nil, err
	}

	existing, err := p.GetVoterTags(voterID)
	if err != nil {
		return nil, err
	}
	for _, vt := range existing {
		if vt.TagID == tag.ID {
			return &vt, nil
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	vt := &models.VoterTag{ID: id, VoterID: voterID, TagID: tag.ID, Name: tag.Name}
	data, err := json.Marshal(voterTagRecord{ID: id, VoterID: voterID, TagID: tag.ID})
	if err != nil {
		return nil, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(voterTagKey(id), data, nil); err != nil {
		return nil, err
	}
	if err := batch.Set(append(voterTagIndexPrefix(voterID), id...), []byte(tag.ID), nil); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, err
	}
	return vt, nil
}

func (p *PebbleStore) GetVoterTags(voterID string) ([]models.VoterTag, error) {
	var tags []models.VoterTag
	prefix := voterTagIndexPrefix(voterID)
	err := p.scan(prefix, func(key, value []byte) (bool, error) {
		var tag models.Tag
		found, err := p.getJSON(tagKey(string(value)), &tag)
		if err != nil || !found {
			return err == nil, err
		}
		tags = append(tags, models.VoterTag{
			ID:      strings.TrimPrefix(string(key), string(prefix)),
			VoterID: voterID,
			TagID:   tag.ID,
			Name:    tag.Name,
		})
		return true, nil
	})
	return tags, err
}

func (p *PebbleStore) RemoveVoterTag(voterTagID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var vt voterTagRecord
	found, err := p.getJSON(voterTagKey(voterTagID), &vt)
	if err != nil || !found {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(voterTagKey(voterTagID), nil); err != nil {
		return err
	}
	if err := batch.Delete(append(voterTagIndexPrefix(vt.VoterID), voterTagID...), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}
