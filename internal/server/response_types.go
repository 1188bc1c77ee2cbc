// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"time"

	"github.com/jdfalk/voter-search/internal/models"
)

// HealthCounts holds store record counts reported by the health check
type HealthCounts struct {
	Voters int `json:"voters"`
	Tags   int `json:"tags"`
}

// HealthResponse is the body of the health endpoints
type HealthResponse struct {
	Status       string       `json:"status"`
	Timestamp    int64        `json:"timestamp"`
	DatabaseType string       `json:"database_type"`
	Metrics      HealthCounts `json:"metrics"`
	PartialError string       `json:"partial_error,omitempty"`
}

// DeleteVoterResponse echoes the id of a deleted voter
type DeleteVoterResponse struct {
	ID string `json:"id"`
}

// RemoveVoterTagResponse echoes the id of a detached voter tag
type RemoveVoterTagResponse struct {
	VoterTagID string `json:"voterTagId"`
}

// TagListResponse wraps tag listings
type TagListResponse struct {
	Tags []models.Tag `json:"tags"`
}

// NewHealthResponse builds an "ok" health response. A non-nil err is reported
// as a partial error; the counts that were read are still returned.
func NewHealthResponse(dbType string, counts HealthCounts, err error) HealthResponse {
	resp := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().Unix(),
		DatabaseType: dbType,
		Metrics:      counts,
	}
	if err != nil {
		resp.PartialError = err.Error()
	}
	return resp
}

// NewTagListResponse never encodes a null list
func NewTagListResponse(tags []models.Tag) TagListResponse {
	if tags == nil {
		tags = []models.Tag{}
	}
	return TagListResponse{Tags: tags}
}
