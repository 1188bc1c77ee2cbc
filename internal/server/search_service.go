// file: internal/server/search_service.go
// version: 1.1.0
// guid: 4b7e2c9d-1a3f-4e6b-8d2c-7f9a0b1e3c5d

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/metrics"
	"github.com/jdfalk/voter-search/internal/search"
	"github.com/jdfalk/voter-search/internal/server/middleware"
)

// ErrNoSearchTerms is returned when a search carries no usable terms.
var ErrNoSearchTerms = errors.New("at least one search field is required")

// SearchService runs a term list through predicate resolution, candidate
// retrieval and ranking.
type SearchService struct {
	store      database.Store
	maxResults int
	workers    int
}

// NewSearchService creates a SearchService. maxResults caps how many
// candidates are fetched per search; workers bounds concurrent scoring.
func NewSearchService(store database.Store, maxResults, workers int) *SearchService {
	if maxResults < 1 {
		maxResults = 100
	}
	return &SearchService{store: store, maxResults: maxResults, workers: workers}
}

// SearchResponse is the body returned by GET /api/v1/search
type SearchResponse struct {
	Matches []search.MatchResult `json:"matches"`
	Count   int                  `json:"count"`
}

// Search returns the ranked matches for terms. limit, when positive and
// below the configured maximum, lowers the candidate cap.
func (s *SearchService) Search(ctx context.Context, terms []search.Term, limit int) (*SearchResponse, error) {
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}

	preds, err := search.BuildPredicates(terms)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		metrics.IncSearchTerm(p.Field.String(), p.Kind.String())
	}

	capacity := s.maxResults
	if limit > 0 && limit < capacity {
		capacity = limit
	}

	sl := NewServiceLogger("SearchService", middleware.RequestIDFromContext(ctx))

	start := time.Now()
	voters, err := s.store.FindCandidates(ctx, preds, capacity)
	metrics.ObservePhase("fetch", time.Since(start))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			sl.LogError("FindCandidates", err)
		}
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	metrics.ObserveCandidates(len(voters))

	start = time.Now()
	matches, err := search.Rank(voters, terms, s.workers)
	metrics.ObservePhase("rank", time.Since(start))
	if err != nil {
		sl.LogError("Rank", err)
		return nil, fmt.Errorf("failed to rank candidates: %w", err)
	}
	if len(matches) > 0 {
		metrics.ObserveTopConfidence(matches[0].Confidence)
	}
	sl.LogOperation("Search", map[string]any{
		"terms":      len(terms),
		"candidates": len(voters),
		"matches":    len(matches),
	})

	return &SearchResponse{Matches: matches, Count: len(matches)}, nil
}
