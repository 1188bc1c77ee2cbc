// file: internal/server/server_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8901-bcde-234567890abc

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jdfalk/voter-search/internal/config"
	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		DatabaseType:       "sqlite",
		MaxResults:         100,
		ScoreWorkers:       1,
		RateLimitPerMinute: 6000,
		RateLimitBurst:     1000,
		MaxBodyBytes:       1 << 20,
		TagCacheTTL:        time.Minute,
	}
}

// setupTestServer creates a test server backed by a temporary SQLite store
func setupTestServer(t *testing.T) (*Server, database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = testConfig()
	config.AppConfig.DatabasePath = filepath.Join(t.TempDir(), "test.db")

	store, err := database.NewSQLiteStore(config.AppConfig.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewServer(store), store
}

// setupTestServerWithStore creates a test server with a provided store
func setupTestServerWithStore(t *testing.T, store database.Store) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = testConfig()
	return NewServer(store)
}

func seedVoter(t *testing.T, store database.Store, first, last string) *models.Voter {
	t.Helper()
	v, err := store.CreateVoter(&models.Voter{
		FirstName: first,
		LastName:  last,
		Address1:  "221 Baker St",
		Address2:  "4B",
		City:      "Springfield",
		State:     "IL",
		Zip:       "62701",
	})
	require.NoError(t, err)
	return v
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s, store := setupTestServer(t)
	seedVoter(t, store, "Ada", "Lovelace")

	w := doRequest(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sqlite", body["database_type"])
	counts := body["metrics"].(map[string]any)
	assert.EqualValues(t, 1, counts["voters"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := setupTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSearch_RanksByConfidence(t *testing.T) {
	s, store := setupTestServer(t)
	seedVoter(t, store, "Desmond", "Browning")
	seedVoter(t, store, "Desmond", "Brown")
	seedVoter(t, store, "Alice", "Brown")

	w := doRequest(t, s, http.MethodGet, "/api/v1/search?firstName=desmo&lastName=B", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[SearchResponse](t, w)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "Brown", resp.Matches[0].Voter.LastName)
	assert.Equal(t, 0.5, resp.Matches[0].Confidence)
	assert.Equal(t, "Browning", resp.Matches[1].Voter.LastName)
	assert.Equal(t, 0.4, resp.Matches[1].Confidence)
}

func TestSearch_NoMatches(t *testing.T) {
	s, store := setupTestServer(t)
	seedVoter(t, store, "Desmond", "Brown")

	w := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Zzyzx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.EqualValues(t, 0, resp["count"])
	assert.Equal(t, []any{}, resp["matches"])
}

func TestSearch_LimitCapsCandidates(t *testing.T) {
	s, store := setupTestServer(t)
	for i := 0; i < 5; i++ {
		seedVoter(t, store, "John", "Smith")
	}

	w := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Smith&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	assert.Equal(t, 2, resp.Count)
}

func TestSearch_MaxResultsCapsCandidates(t *testing.T) {
	s, store := setupTestServer(t)
	for i := 0; i < 5; i++ {
		seedVoter(t, store, "John", "Smith")
	}
	s.searchService.maxResults = 3

	w := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Smith&limit=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	assert.Equal(t, 3, resp.Count)
}

func TestSearch_InvalidParams(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name   string
		query  string
		reason string
	}{
		{"unknown field", "?middleName=Q", `unknown search field: "middleName"`},
		{"duplicate field", "?lastName=a&lastName=b", "lastName must be supplied at most once"},
		{"no fields", "", "at least one search field is required"},
		{"only empty values", "?firstName=&zip=", "at least one search field is required"},
		{"bad limit", "?lastName=Smith&limit=zero", "limit must be a positive integer"},
		{"negative limit", "?lastName=Smith&limit=-1", "limit must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, "/api/v1/search"+tt.query, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, CodeInvalidParams, resp.Code)
			assert.Contains(t, resp.ValidationFailureReasons, tt.reason)
		})
	}
}

func TestSearch_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.AppConfig = testConfig()
	config.AppConfig.RateLimitPerMinute = 1
	config.AppConfig.RateLimitBurst = 1
	s := NewServer(&database.MockStore{})

	first := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Smith", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	second := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Smith", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Voter routes are not rate limited.
	other := doRequest(t, s, http.MethodGet, "/api/v1/tags", nil)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestSearch_StoreFailure(t *testing.T) {
	store := &database.MockStore{}
	store.FindCandidatesFunc = func(_ context.Context, _ []search.Predicate, _ int) ([]models.Voter, error) {
		return nil, errors.New("disk on fire")
	}
	s := setupTestServerWithStore(t, store)

	w := doRequest(t, s, http.MethodGet, "/api/v1/search?lastName=Smith", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, CodeInternalError, resp.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestGetVoter(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	w := doRequest(t, s, http.MethodGet, "/api/v1/voters/"+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	voter := body["voter"].(map[string]any)
	assert.Equal(t, v.ID, voter["id"])
	assert.Equal(t, "Ada", voter["firstName"])
	assert.Equal(t, []any{}, body["tags"])
}

func TestGetVoter_InvalidID(t *testing.T) {
	s, _ := setupTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/v1/voters/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, []string{"id must be a valid uuid"}, resp.ValidationFailureReasons)
}

func TestGetVoter_NotFound(t *testing.T) {
	s, _ := setupTestServer(t)
	id := uuid.NewString()
	w := doRequest(t, s, http.MethodGet, "/api/v1/voters/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, CodeVoterNotFound, resp.Code)
	assert.Equal(t, id, resp.VoterID)
}

func TestUpdateVoter(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	req := UpdateVoterRequest{
		FirstName: "A",
		LastName:  "King",
		Address1:  "12 St James Sq",
		Address2:  "Flat 2",
		City:      "London",
		State:     "LN",
		Zip:       "SW1Y",
	}
	w := doRequest(t, s, http.MethodPut, "/api/v1/voters/"+v.ID, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated, err := store.GetVoterByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, "London", updated.City)
}

func TestUpdateVoter_Validation(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	w := doRequest(t, s, http.MethodPut, "/api/v1/voters/"+v.ID, UpdateVoterRequest{
		LastName: "K",
		Address1: "12 St James Sq",
		City:     "London",
		State:    "LN",
		Zip:      "SW1Y",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.ElementsMatch(t, []string{
		"firstName must be 1 or more characters",
		"lastName must be 2 or more characters",
		"address2 must be 2 or more characters",
	}, resp.ValidationFailureReasons)
}

func TestUpdateVoter_NotFound(t *testing.T) {
	s, _ := setupTestServer(t)
	w := doRequest(t, s, http.MethodPut, "/api/v1/voters/"+uuid.NewString(), UpdateVoterRequest{
		FirstName: "A", LastName: "Bb", Address1: "Cc", Address2: "Dd", City: "Ee", State: "Ff", Zip: "Gg",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateVoter_MalformedBody(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/voters/"+v.ID, bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteVoter(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")
	_, err := store.AddVoterTag(v.ID, "volunteer")
	require.NoError(t, err)

	w := doRequest(t, s, http.MethodDelete, "/api/v1/voters/"+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, v.ID, decode[map[string]string](t, w)["id"])

	w = doRequest(t, s, http.MethodGet, "/api/v1/voters/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	tags, err := store.GetVoterTags(v.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestVoterTags(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	// Add
	w := doRequest(t, s, http.MethodPost, "/api/v1/voters/"+v.ID+"/tags", AddTagRequest{Name: "volunteer"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[map[string]string](t, w)
	assert.Equal(t, "volunteer", first["name"])
	require.NotEmpty(t, first["voterTagId"])

	// Adding again is idempotent
	w = doRequest(t, s, http.MethodPost, "/api/v1/voters/"+v.ID+"/tags", AddTagRequest{Name: "volunteer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["voterTagId"], decode[map[string]string](t, w)["voterTagId"])

	// Visible on the voter
	w = doRequest(t, s, http.MethodGet, "/api/v1/voters/"+v.ID, nil)
	detail := decode[map[string]any](t, w)
	require.Len(t, detail["tags"], 1)

	// Listed and searchable
	w = doRequest(t, s, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "volunteer")
	w = doRequest(t, s, http.MethodGet, "/api/v1/tags/search?text=UNTE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "volunteer")
	w = doRequest(t, s, http.MethodGet, "/api/v1/tags/search?text=donor", nil)
	assert.JSONEq(t, `{"tags":[]}`, w.Body.String())

	// Remove
	w = doRequest(t, s, http.MethodDelete, "/api/v1/voters/"+v.ID+"/tags/"+first["voterTagId"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["voterTagId"], decode[map[string]string](t, w)["voterTagId"])

	// Removing twice is a 404
	w = doRequest(t, s, http.MethodDelete, "/api/v1/voters/"+v.ID+"/tags/"+first["voterTagId"], nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeVoterTagNotFound, decode[ErrorResponse](t, w).Code)
}

func TestAddVoterTag_Validation(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	w := doRequest(t, s, http.MethodPost, "/api/v1/voters/"+v.ID+"/tags", AddTagRequest{Name: "ab"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"name must be 3 or more characters"}, decode[ErrorResponse](t, w).ValidationFailureReasons)

	w = doRequest(t, s, http.MethodPost, "/api/v1/voters/"+uuid.NewString()+"/tags", AddTagRequest{Name: "volunteer"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveVoterTag_InvalidID(t *testing.T) {
	s, store := setupTestServer(t)
	v := seedVoter(t, store, "Ada", "Lovelace")

	w := doRequest(t, s, http.MethodDelete, "/api/v1/voters/"+v.ID+"/tags/nope", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"voterTagId must be a valid uuid"}, decode[ErrorResponse](t, w).ValidationFailureReasons)
}

func TestListTags_Cached(t *testing.T) {
	calls := 0
	voterID := uuid.NewString()
	store := &database.MockStore{
		GetAllTagsFunc: func() ([]models.Tag, error) {
			calls++
			return []models.Tag{{ID: "t1", Name: "volunteer"}}, nil
		},
		GetVoterByIDFunc: func(id string) (*models.Voter, error) {
			return &models.Voter{ID: id}, nil
		},
	}
	s := setupTestServerWithStore(t, store)

	for i := 0; i < 3; i++ {
		w := doRequest(t, s, http.MethodGet, "/api/v1/tags", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, calls)

	// Tag mutations invalidate the cached list.
	w := doRequest(t, s, http.MethodPost, "/api/v1/voters/"+voterID+"/tags", AddTagRequest{Name: "donor"})
	require.Equal(t, http.StatusOK, w.Code)
	doRequest(t, s, http.MethodGet, "/api/v1/tags", nil)
	assert.Equal(t, 2, calls)
}

func TestGetVoter_StoreFailure(t *testing.T) {
	store := &database.MockStore{
		GetVoterByIDFunc: func(string) (*models.Voter, error) {
			return nil, errors.New("connection reset")
		},
	}
	s := setupTestServerWithStore(t, store)

	w := doRequest(t, s, http.MethodGet, "/api/v1/voters/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := setupTestServer(t)
	w := doRequest(t, s, http.MethodOptions, "/api/v1/search", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
