// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultListen is the default bind address.
	DefaultListen = "localhost:8787"

	// DefaultResponseDelay simulates assistant thinking time.
	DefaultResponseDelay = 800 * time.Millisecond

	// MaxContentLength bounds a single message body.
	MaxContentLength = 100000

	// MaxRequestBodySize caps request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the service version.
	Version = "0.3.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks service usage counters.
type Stats struct {
	TotalRequests        int64     `json:"total_requests"`
	MessagesReceived     int64     `json:"messages_received"`
	ConversationsCreated int64     `json:"conversations_created"`
	StartTime            time.Time `json:"start_time"`
}

type statsCounters struct {
	totalRequests        atomic.Int64
	messagesReceived     atomic.Int64
	conversationsCreated atomic.Int64
	startTime            time.Time
}

func (s *statsCounters) snapshot() Stats {
	return Stats{
		TotalRequests:        s.totalRequests.Load(),
		MessagesReceived:     s.messagesReceived.Load(),
		ConversationsCreated: s.conversationsCreated.Load(),
		StartTime:            s.startTime,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the development message service.
type Server struct {
	listen string
	router *http.ServeMux
	server *http.Server

	db        *DB
	responder *Responder
	stats     *statsCounters
	auth      *AuthConfig

	mu sync.RWMutex
}

// NewServer creates a service over the given database. An empty listen
// address falls back to DefaultListen.
func NewServer(db *DB, listen string) *Server {
	if listen == "" {
		listen = DefaultListen
	}

	s := &Server{
		listen:    listen,
		router:    http.NewServeMux(),
		db:        db,
		responder: NewResponder(db, DefaultResponseDelay),
		stats:     &statsCounters{startTime: time.Now()},
		auth:      DefaultAuthConfig(),
	}
	s.setupRoutes()
	return s
}

// WithResponder sets a custom assistant responder.
func (s *Server) WithResponder(r *Responder) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
	return s
}

// WithAuth sets the authentication configuration.
func (s *Server) WithAuth(config *AuthConfig) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = config
	return s
}

// Listen returns the configured bind address.
func (s *Server) Listen() string {
	return s.listen
}

// Handler returns the fully assembled HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	handler := Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(DefaultRateLimiter()),
	)(s.router)

	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth != nil && auth.Enabled {
		handler = AuthMiddleware(auth)(handler)
	}
	return handler
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /conversations", s.handleListConversations)
	s.router.HandleFunc("POST /conversations", s.handleCreateConversation)
	s.router.HandleFunc("GET /conversations/{id}/messages", s.handleMessages)
	s.router.HandleFunc("POST /conversations/{id}/messages", s.handleSendMessage)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// REQUEST/RESPONSE TYPES
// ============================================================================

// createConversationRequest is the POST /conversations payload.
type createConversationRequest struct {
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
}

// sendMessageRequest is the POST /conversations/{id}/messages payload.
type sendMessageRequest struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// ============================================================================
// CONVERSATION HANDLERS
// ============================================================================

// handleListConversations handles GET /conversations.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	s.stats.totalRequests.Add(1)

	metas, err := s.db.ListConversations()
	if err != nil {
		log.Printf("LIST_ERROR | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}
	s.writeJSON(w, http.StatusOK, metas)
}

// handleCreateConversation handles POST /conversations.
func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	s.stats.totalRequests.Add(1)
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	conv, err := s.db.CreateConversation(req.Title, req.IsActive)
	if err != nil {
		log.Printf("CREATE_ERROR | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	s.stats.conversationsCreated.Add(1)
	s.writeJSON(w, http.StatusCreated, conv)
}

// ============================================================================
// MESSAGE HANDLERS
// ============================================================================

// handleMessages handles GET /conversations/{id}/messages.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.stats.totalRequests.Add(1)

	id := r.PathValue("id")
	exists, err := s.db.ConversationExists(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	if !exists {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	msgs, err := s.db.Messages(id)
	if err != nil {
		log.Printf("MESSAGES_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

// handleSendMessage handles POST /conversations/{id}/messages.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	s.stats.totalRequests.Add(1)
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	id := r.PathValue("id")
	exists, err := s.db.ConversationExists(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	if !exists {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "Message content must not be empty")
		return
	}
	if len(req.Content) > MaxContentLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message exceeds maximum length of %d", MaxContentLength))
		return
	}
	// Clients only ever submit user messages; the assistant side is owned
	// by the responder.
	if req.Role != "" && req.Role != string(model.RoleUser) {
		s.writeError(w, http.StatusBadRequest, "Only user messages may be submitted")
		return
	}

	msg, err := s.db.AppendMessage(id, model.RoleUser, req.Content, nil)
	if err != nil {
		log.Printf("SEND_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to store message")
		return
	}

	s.stats.messagesReceived.Add(1)

	s.mu.RLock()
	responder := s.responder
	s.mu.RUnlock()
	if responder != nil {
		responder.Respond(id, req.Content)
	}

	s.writeJSON(w, http.StatusCreated, msg)
}

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// StatsResponse is the GET /stats payload.
type StatsResponse struct {
	Stats
	UptimeSeconds int64 `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.snapshot()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Stats:         snap,
		UptimeSeconds: int64(time.Since(snap.StartTime).Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", s.listen, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the shape clients decode.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}
