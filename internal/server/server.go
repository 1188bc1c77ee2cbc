// file: internal/server/server.go
// version: 2.1.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/voter-search/internal/cache"
	"github.com/jdfalk/voter-search/internal/config"
	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/metrics"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	router        *gin.Engine
	store         database.Store
	searchService *SearchService
	voterService  *VoterService
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new server instance backed by store, tuned from
// config.AppConfig.
func NewServer(store database.Store) *Server {
	router := gin.New()

	// Set up middleware
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Register metrics (idempotent)
	metrics.Register()

	cfg := config.AppConfig
	tagCache := cache.New[[]models.Tag](cfg.TagCacheTTL)

	server := &Server{
		router:        router,
		store:         store,
		searchService: NewSearchService(store, cfg.MaxResults, cfg.ScoreWorkers),
		voterService:  NewVoterService(store, tagCache),
	}

	server.setupRoutes(cfg)

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(cfg ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx, cfg)
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context, cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[INFO] Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[INFO] Server exited")
	return nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes(cfg config.Config) {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint (both paths for compatibility)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	api := s.router.Group("/api/v1")
	api.Use(middleware.MaxRequestBodySize(cfg.MaxBodyBytes))
	{
		limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		api.GET("/search", limiter.Middleware(), s.searchVoters)

		voters := api.Group("/voters")
		voters.GET("/:id", s.getVoter)
		voters.PUT("/:id", s.updateVoter)
		voters.DELETE("/:id", s.deleteVoter)
		voters.POST("/:id/tags", s.addVoterTag)
		voters.DELETE("/:id/tags/:voterTagId", s.removeVoterTag)

		api.GET("/tags", s.listTags)
		api.GET("/tags/search", s.searchTags)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	// Gather basic counts; tolerate errors (don't fail health entirely)
	var voterCount, tagCount int
	var dbErr error
	if s.store != nil {
		if n, err := s.store.CountVoters(); err == nil {
			voterCount = n
			metrics.SetVoters(n)
		} else {
			dbErr = err
		}
		if n, err := s.store.CountTags(); err == nil {
			tagCount = n
		} else if dbErr == nil {
			dbErr = err
		}
	}
	resp := NewHealthResponse(config.AppConfig.DatabaseType, HealthCounts{Voters: voterCount, Tags: tagCount}, dbErr)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) searchVoters(c *gin.Context) {
	op := operationLogger("searchVoters", c)
	op.LogStart()

	params, errs := ParseSearchParams(c.Request.URL.Query())
	if len(errs) > 0 {
		metrics.IncSearch("invalid")
		RespondWithInvalidParams(c, reasons(errs))
		return
	}
	op.AddDetail("terms", len(params.Terms))
	if params.Limit > 0 {
		op.LogDebug(fmt.Sprintf("limit %d requested", params.Limit))
	}

	resp, err := s.searchService.Search(c.Request.Context(), params.Terms, params.Limit)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.IncSearch("canceled")
			op.LogWarning("client went away")
			return
		}
		metrics.IncSearch("error")
		op.LogError(http.StatusInternalServerError, err)
		RespondWithInternalError(c, err)
		return
	}

	metrics.IncSearch("ok")
	op.AddDetail("matches", resp.Count)
	op.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, resp)
}

// voterIDParam validates :id and responds on failure
func voterIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := ValidateID("id", id); err != nil {
		RespondWithInvalidParams(c, []string{err.Error()})
		return "", false
	}
	return id, true
}

// respondVoterError maps service errors onto HTTP responses
func respondVoterError(c *gin.Context, op *OperationLogger, voterID string, err error) {
	switch {
	case errors.Is(err, ErrVoterNotFound):
		RespondWithVoterNotFound(c, voterID)
	case errors.Is(err, ErrVoterTagNotFound):
		RespondWithNotFound(c, "voter tag", c.Param("voterTagId"), CodeVoterTagNotFound)
	default:
		op.LogError(http.StatusInternalServerError, err)
		RespondWithInternalError(c, err)
	}
}

func (s *Server) getVoter(c *gin.Context) {
	id, ok := voterIDParam(c)
	if !ok {
		return
	}
	op := operationLogger("getVoter", c)
	op.SetResourceID(id)
	op.LogStart()

	detail, err := s.voterService.GetVoter(c.Request.Context(), id)
	if err != nil {
		respondVoterError(c, op, id, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) updateVoter(c *gin.Context) {
	id, ok := voterIDParam(c)
	if !ok {
		return
	}
	op := operationLogger("updateVoter", c)
	op.SetResourceID(id)
	op.LogStart()

	var req UpdateVoterRequest
	if err := c.ShouldBindJSON(&req); HandleBindError(c, err) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondWithInvalidParams(c, reasons(errs))
		return
	}

	updated, err := s.voterService.UpdateVoter(c.Request.Context(), id, req)
	if err != nil {
		respondVoterError(c, op, id, err)
		return
	}
	op.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteVoter(c *gin.Context) {
	id, ok := voterIDParam(c)
	if !ok {
		return
	}
	op := operationLogger("deleteVoter", c)
	op.SetResourceID(id)
	op.LogStart()

	if err := s.voterService.DeleteVoter(c.Request.Context(), id); err != nil {
		respondVoterError(c, op, id, err)
		return
	}
	op.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, DeleteVoterResponse{ID: id})
}

func (s *Server) addVoterTag(c *gin.Context) {
	id, ok := voterIDParam(c)
	if !ok {
		return
	}
	op := operationLogger("addVoterTag", c)
	op.SetResourceID(id)
	op.LogStart()

	var req AddTagRequest
	if err := c.ShouldBindJSON(&req); HandleBindError(c, err) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondWithInvalidParams(c, reasons(errs))
		return
	}

	vt, err := s.voterService.AddTag(c.Request.Context(), id, req.Name)
	if err != nil {
		respondVoterError(c, op, id, err)
		return
	}
	op.AddDetail("tag", vt.Name)
	op.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, vt)
}

func (s *Server) removeVoterTag(c *gin.Context) {
	id, ok := voterIDParam(c)
	if !ok {
		return
	}
	voterTagID := c.Param("voterTagId")
	if err := ValidateID("voterTagId", voterTagID); err != nil {
		RespondWithInvalidParams(c, []string{err.Error()})
		return
	}
	op := operationLogger("removeVoterTag", c)
	op.SetResourceID(id)
	op.LogStart()

	if err := s.voterService.RemoveTag(c.Request.Context(), id, voterTagID); err != nil {
		respondVoterError(c, op, id, err)
		return
	}
	op.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, RemoveVoterTagResponse{VoterTagID: voterTagID})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.voterService.ListTags(c.Request.Context())
	if err != nil {
		RespondWithInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTagListResponse(tags))
}

func (s *Server) searchTags(c *gin.Context) {
	tags, err := s.voterService.SearchTags(c.Request.Context(), c.Query("text"))
	if err != nil {
		RespondWithInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTagListResponse(tags))
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         "9099",
		Host:         "localhost",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
