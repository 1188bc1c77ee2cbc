// file: internal/database/mock_store.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package database

import (
	"context"

	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
)

// MockStore is a simple mock implementation for testing services.
// Unset funcs return zero values.
type MockStore struct {
	CloseFunc func() error

	// Voter methods
	CreateVoterFunc    func(voter *models.Voter) (*models.Voter, error)
	GetVoterByIDFunc   func(id string) (*models.Voter, error)
	UpdateVoterFunc    func(id string, voter *models.Voter) (*models.Voter, error)
	DeleteVoterFunc    func(id string) error
	CountVotersFunc    func() (int, error)
	FindCandidatesFunc func(ctx context.Context, preds []search.Predicate, limit int) ([]models.Voter, error)

	// Tag methods
	GetAllTagsFunc   func() ([]models.Tag, error)
	SearchTagsFunc   func(text string) ([]models.Tag, error)
	GetTagByNameFunc func(name string) (*models.Tag, error)
	CreateTagFunc    func(name string) (*models.Tag, error)
	DeleteTagFunc    func(id string) error
	CountTagsFunc    func() (int, error)

	// Voter tag methods
	AddVoterTagFunc    func(voterID, tagName string) (*models.VoterTag, error)
	GetVoterTagsFunc   func(voterID string) ([]models.VoterTag, error)
	RemoveVoterTagFunc func(voterTagID string) error
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockStore) CreateVoter(voter *models.Voter) (*models.Voter, error) {
	if m.CreateVoterFunc != nil {
		return m.CreateVoterFunc(voter)
	}
	return voter, nil
}

func (m *MockStore) GetVoterByID(id string) (*models.Voter, error) {
	if m.GetVoterByIDFunc != nil {
		return m.GetVoterByIDFunc(id)
	}
	return nil, nil
}

func (m *MockStore) UpdateVoter(id string, voter *models.Voter) (*models.Voter, error) {
	if m.UpdateVoterFunc != nil {
		return m.UpdateVoterFunc(id, voter)
	}
	return voter, nil
}

func (m *MockStore) DeleteVoter(id string) error {
	if m.DeleteVoterFunc != nil {
		return m.DeleteVoterFunc(id)
	}
	return nil
}

func (m *MockStore) CountVoters() (int, error) {
	if m.CountVotersFunc != nil {
		return m.CountVotersFunc()
	}
	return 0, nil
}

func (m *MockStore) FindCandidates(ctx context.Context, preds []search.Predicate, limit int) ([]models.Voter, error) {
	if m.FindCandidatesFunc != nil {
		return m.FindCandidatesFunc(ctx, preds, limit)
	}
	return nil, nil
}

func (m *MockStore) GetAllTags() ([]models.Tag, error) {
	if m.GetAllTagsFunc != nil {
		return m.GetAllTagsFunc()
	}
	return nil, nil
}

func (m *MockStore) SearchTags(text string) ([]models.Tag, error) {
	if m.SearchTagsFunc != nil {
		return m.SearchTagsFunc(text)
	}
	return nil, nil
}

func (m *MockStore) GetTagByName(name string) (*models.Tag, error) {
	if m.GetTagByNameFunc != nil {
		return m.GetTagByNameFunc(name)
	}
	return nil, nil
}

func (m *MockStore) CreateTag(name string) (*models.Tag, error) {
	if m.CreateTagFunc != nil {
		return m.CreateTagFunc(name)
	}
	return &models.Tag{Name: name}, nil
}

func (m *MockStore) DeleteTag(id string) error {
	if m.DeleteTagFunc != nil {
		return m.DeleteTagFunc(id)
	}
	return nil
}

func (m *MockStore) CountTags() (int, error) {
	if m.CountTagsFunc != nil {
		return m.CountTagsFunc()
	}
	return 0, nil
}

func (m *MockStore) AddVoterTag(voterID, tagName string) (*models.VoterTag, error) {
	if m.AddVoterTagFunc != nil {
		return m.AddVoterTagFunc(voterID, tagName)
	}
	return &models.VoterTag{VoterID: voterID, Name: tagName}, nil
}

func (m *MockStore) GetVoterTags(voterID string) ([]models.VoterTag, error) {
	if m.GetVoterTagsFunc != nil {
		return m.GetVoterTagsFunc(voterID)
	}
	return nil, nil
}

func (m *MockStore) RemoveVoterTag(voterTagID string) error {
	if m.RemoveVoterTagFunc != nil {
		return m.RemoveVoterTagFunc(voterTagID)
	}
	return nil
}
