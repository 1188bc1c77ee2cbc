// file: internal/server/voter_service.go
// version: 1.1.0
// guid: 8c1d3e5f-7a9b-4c2d-9e4f-1a3b5c7d9e2f

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdfalk/voter-search/internal/cache"
	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/server/middleware"
)

var (
	ErrVoterNotFound    = errors.New("voter not found")
	ErrVoterTagNotFound = errors.New("voter tag not found")
)

const allTagsKey = "all"

// VoterService handles voter and voter tag business logic
type VoterService struct {
	store database.Store
	tags  *cache.Cache[[]models.Tag]
}

// NewVoterService creates a new VoterService instance. Tag mutations
// invalidate tagCache.
func NewVoterService(store database.Store, tagCache *cache.Cache[[]models.Tag]) *VoterService {
	return &VoterService{store: store, tags: tagCache}
}

// VoterDetail is the body returned by GET /api/v1/voters/:id
type VoterDetail struct {
	Voter *models.Voter     `json:"voter"`
	Tags  []models.VoterTag `json:"tags"`
}

func (vs *VoterService) logger(ctx context.Context) *ServiceLogger {
	return NewServiceLogger("VoterService", middleware.RequestIDFromContext(ctx))
}

func (vs *VoterService) requireVoter(sl *ServiceLogger, id string) (*models.Voter, error) {
	voter, err := vs.store.GetVoterByID(id)
	if err != nil {
		sl.LogError("GetVoterByID", err)
		return nil, fmt.Errorf("failed to load voter: %w", err)
	}
	if voter == nil {
		return nil, ErrVoterNotFound
	}
	return voter, nil
}

// GetVoter returns a voter with its tags
func (vs *VoterService) GetVoter(ctx context.Context, id string) (*VoterDetail, error) {
	sl := vs.logger(ctx)
	voter, err := vs.requireVoter(sl, id)
	if err != nil {
		return nil, err
	}
	tags, err := vs.store.GetVoterTags(id)
	if err != nil {
		sl.LogError("GetVoterTags", err)
		return nil, fmt.Errorf("failed to load voter tags: %w", err)
	}
	if tags == nil {
		tags = []models.VoterTag{}
	}
	return &VoterDetail{Voter: voter, Tags: tags}, nil
}

// UpdateVoter replaces the editable fields of a voter
func (vs *VoterService) UpdateVoter(ctx context.Context, id string, req UpdateVoterRequest) (*models.Voter, error) {
	sl := vs.logger(ctx)
	if _, err := vs.requireVoter(sl, id); err != nil {
		return nil, err
	}
	updated, err := vs.store.UpdateVoter(id, &models.Voter{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address1:  req.Address1,
		Address2:  req.Address2,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
	})
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrVoterNotFound
	}
	if err != nil {
		sl.LogError("UpdateVoter", err)
		return nil, fmt.Errorf("failed to update voter: %w", err)
	}
	sl.LogOperation("UpdateVoter", map[string]any{"id": id})
	return updated, nil
}

// DeleteVoter removes a voter along with its tags
func (vs *VoterService) DeleteVoter(ctx context.Context, id string) error {
	sl := vs.logger(ctx)
	if _, err := vs.requireVoter(sl, id); err != nil {
		return err
	}
	err := vs.store.DeleteVoter(id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrVoterNotFound
	}
	if err != nil {
		sl.LogError("DeleteVoter", err)
		return fmt.Errorf("failed to delete voter: %w", err)
	}
	sl.LogOperation("DeleteVoter", map[string]any{"id": id})
	return nil
}

// AddTag attaches a tag by name, creating the tag on first use.
// Attaching a tag the voter already carries returns the existing link.
func (vs *VoterService) AddTag(ctx context.Context, voterID, name string) (*models.VoterTag, error) {
	sl := vs.logger(ctx)
	if _, err := vs.requireVoter(sl, voterID); err != nil {
		return nil, err
	}
	vt, err := vs.store.AddVoterTag(voterID, name)
	if err != nil {
		sl.LogError("AddVoterTag", err)
		return nil, fmt.Errorf("failed to add voter tag: %w", err)
	}
	vs.tags.Invalidate(allTagsKey)
	sl.LogOperation("AddTag", map[string]any{"voter": voterID, "tag": name, "tagCache": "invalidated"})
	return vt, nil
}

// RemoveTag detaches a voter tag. The voter tag must belong to voterID.
func (vs *VoterService) RemoveTag(ctx context.Context, voterID, voterTagID string) error {
	sl := vs.logger(ctx)
	if _, err := vs.requireVoter(sl, voterID); err != nil {
		return err
	}
	tags, err := vs.store.GetVoterTags(voterID)
	if err != nil {
		sl.LogError("GetVoterTags", err)
		return fmt.Errorf("failed to load voter tags: %w", err)
	}
	found := false
	for _, vt := range tags {
		if vt.ID == voterTagID {
			found = true
			break
		}
	}
	if !found {
		return ErrVoterTagNotFound
	}
	if err := vs.store.RemoveVoterTag(voterTagID); err != nil {
		sl.LogError("RemoveVoterTag", err)
		return fmt.Errorf("failed to remove voter tag: %w", err)
	}
	sl.LogOperation("RemoveTag", map[string]any{"voter": voterID, "voterTag": voterTagID})
	return nil
}

// ListTags returns every tag, served from the cache when fresh
func (vs *VoterService) ListTags(ctx context.Context) ([]models.Tag, error) {
	sl := vs.logger(ctx)
	tags, err := vs.tags.GetOrLoad(allTagsKey, func() ([]models.Tag, error) {
		sl.LogOperation("ListTags", map[string]any{"tagCache": "miss"})
		return vs.store.GetAllTags()
	})
	if err != nil {
		sl.LogError("GetAllTags", err)
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

// SearchTags returns tags whose name contains text
func (vs *VoterService) SearchTags(ctx context.Context, text string) ([]models.Tag, error) {
	tags, err := vs.store.SearchTags(text)
	if err != nil {
		vs.logger(ctx).LogError("SearchTags", err)
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
