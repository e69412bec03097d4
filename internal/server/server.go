// Package server exposes the retrieval engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speaksense/faqd/internal/engine"
	"github.com/speaksense/faqd/internal/store"
)

// Version is the service version reported by health checks.
const Version = "1.0.0"

// Server wires the engine and the query log into a gin router.
type Server struct {
	deps   Deps
	router *gin.Engine
}

// Deps groups the server's collaborators. Logs may be nil when query
// logging is not wanted (one-shot CLI searches).
type Deps struct {
	Retrieval *engine.Engine
	Logs      store.AdminStore
	Logger    *slog.Logger
}

// searchRequest is the body of the search and best_answer endpoints.
type searchRequest struct {
	Query    string `json:"query" binding:"required"`
	TopK     int    `json:"top_k"`
	Language string `json:"language"`
	Method   string `json:"method"`
}

// New builds the HTTP server around a retrieval engine.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{deps: deps, router: router}

	router.GET("/", s.handleHealth)
	router.GET("/health", s.handleHealth)

	retrieval := router.Group("/retrieval")
	retrieval.POST("/search", s.handleSearch)
	retrieval.POST("/best_answer", s.handleBestAnswer)
	retrieval.POST("/rebuild_indices", s.handleRebuild)
	retrieval.GET("/stats", s.handleStats)

	return s
}

// Handler returns the router for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.deps.Logger.Info("server_started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "faqd",
		"version": Version,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 1
	}

	start := time.Now()
	results, err := s.deps.Retrieval.Search(c.Request.Context(), req.Query, req.TopK, req.Language, engine.Method(req.Method))
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed: " + err.Error()})
		return
	}

	s.logQuery(c.Request.Context(), req.Query, results, elapsed)

	if results == nil {
		results = []*engine.Result{}
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleBestAnswer(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := s.deps.Retrieval.GetBestAnswer(c.Request.Context(), req.Query, req.Language)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed: " + err.Error()})
		return
	}
	if result == nil {
		s.logQuery(c.Request.Context(), req.Query, nil, elapsed)
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching result found"})
		return
	}

	s.logQuery(c.Request.Context(), req.Query, []*engine.Result{result}, elapsed)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRebuild(c *gin.Context) {
	if err := s.deps.Retrieval.RebuildIndexes(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index rebuild failed: " + err.Error()})
		return
	}
	stats := s.deps.Retrieval.IndexStats()
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"message":         "search indices rebuilt successfully",
		"indexed_phrases": stats.IndexedPhrases,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	indexStats := s.deps.Retrieval.IndexStats()
	response := gin.H{
		"initialized":     indexStats.Initialized,
		"indexed_phrases": indexStats.IndexedPhrases,
	}

	if s.deps.Logs != nil {
		queryStats, err := s.deps.Logs.Stats(c.Request.Context())
		if err != nil {
			s.deps.Logger.Warn("query_stats_failed", "error", err)
		} else {
			response["today_queries"] = queryStats.TodayQueries
			response["total_queries"] = queryStats.TotalQueries
			response["avg_response_time_ms"] = queryStats.AvgResponseTime
		}
	}

	c.JSON(http.StatusOK, response)
}

// logQuery records the request in the query log; the top result's identity
// and confidence are kept, misses are recorded with type "none". Logging
// failures never affect the response.
func (s *Server) logQuery(ctx context.Context, query string, results []*engine.Result, elapsedMS float64) {
	if s.deps.Logs == nil {
		return
	}

	entry := &store.QueryLog{
		QueryText:      query,
		MatchedType:    "none",
		ResponseTimeMS: elapsedMS,
	}
	if len(results) > 0 {
		top := results[0]
		entry.MatchedType = top.Type
		entry.MatchedID = top.ID
		entry.Confidence = top.Confidence
		if top.Type == "intent" {
			entry.MatchedQuestion = top.IntentName
		} else {
			entry.MatchedQuestion = top.Question
		}
	}

	if err := s.deps.Logs.CreateQueryLog(ctx, entry); err != nil {
		s.deps.Logger.Warn("query_log_failed", "error", err)
	}
}
