// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the assistant backend.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the base URL for a locally running backend.
	DefaultBaseURL = "http://localhost:8787"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts for read requests.
	DefaultMaxRetries = 3

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared transport used by every backend Client instance; each Client
// wraps it in its own http.Client so per-client timeouts stay independent.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoConversation indicates a request was attempted without a conversation id.
var ErrNoConversation = errors.New("no conversation id")

// TransportError represents a non-success HTTP result from the backend.
// Every non-2xx status maps to one of these; the pipeline surfaces them as
// dismissible notifications rather than fatal errors.
type TransportError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Is implements errors.Is support so callers can match any transport failure
// with errors.Is(err, &TransportError{}).
func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the assistant backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	authToken  string
}

// NewClient creates a backend client for the given base URL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		maxRetries: DefaultMaxRetries,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the maximum number of attempts for read requests.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithAuthToken sets a bearer token sent on every request. An empty token
// leaves requests unauthenticated.
func (c *Client) WithAuthToken(token string) *Client {
	c.authToken = token
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// Messages fetches the ordered message sequence for a conversation.
//
// The result is never nil: an empty conversation, a null JSON body, or an
// entirely absent body all come back as an empty slice. Order is preserved
// exactly as the backend returned it (creation order).
func (c *Client) Messages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	endpoint := c.baseURL + "/conversations/" + url.PathEscape(conversationID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.transportError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return decodeMessages(body)
}

// decodeMessages normalizes the wire payload into a non-nil message slice.
// The backend is supposed to return a JSON array, but the client tolerates
// null, empty, and non-array payloads by treating them as empty.
func decodeMessages(body []byte) ([]*model.Message, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []*model.Message{}, nil
	}
	if trimmed[0] != '[' {
		// Object or scalar where an array belongs: treat as empty rather
		// than erroring, the view must stay usable.
		log.Printf("API Warning: non-array messages payload (%d bytes), treating as empty", len(trimmed))
		return []*model.Message{}, nil
	}

	var msgs []*model.Message
	if err := json.Unmarshal(trimmed, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return msgs, nil
}

// sendMessageRequest is the wire body for persisting a user message.
type sendMessageRequest struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// SendMessage persists a user-authored message to a conversation and returns
// the created message. The call is intentionally NOT retried: a duplicate
// POST would persist a duplicate message.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*model.Message, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	payload, err := json.Marshal(sendMessageRequest{Content: content, Role: model.RoleUser.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := c.baseURL + "/conversations/" + url.PathEscape(conversationID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, &TransportError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.transportError(resp)
	}

	var msg model.Message
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode created message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// createConversationRequest is the wire body for creating a conversation.
type createConversationRequest struct {
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
}

// CreateConversation creates a new conversation on the backend. The returned
// conversation's id is immediately usable for message operations.
func (c *Client) CreateConversation(ctx context.Context, title string, isActive bool) (*model.Conversation, error) {
	payload, err := json.Marshal(createConversationRequest{Title: title, IsActive: isActive})
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/conversations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, &TransportError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.transportError(resp)
	}

	var conv model.Conversation
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&conv); err != nil {
		return nil, fmt.Errorf("failed to decode created conversation: %w", err)
	}
	if conv.ID == "" {
		return nil, &TransportError{Status: resp.StatusCode, Message: "created conversation has no id"}
	}
	return &conv, nil
}

// Conversations lists conversations, most recently updated first.
func (c *Client) Conversations(ctx context.Context) ([]model.ConversationMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.transportError(resp)
	}

	var metas []model.ConversationMeta
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&metas); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	if metas == nil {
		metas = []model.ConversationMeta{}
	}
	return metas, nil
}

// Health describes the service's /health response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CheckHealth probes the service health endpoint. Never retried; callers use
// it to answer "is the service up right now".
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, &TransportError{Message: "health check failed: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.transportError(resp)
	}

	var health Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs a single request attempt with request/response logging.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.logRequest(req)
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logResponse(resp, time.Since(startTime))
	return resp, nil
}

// doWithRetry performs a read request with retry logic and exponential backoff.
// Retries on connection errors and 5xx responses with delays of 1s, 2s, 4s.
// PERFORMANCE: Uses the shared HTTP client with connection pooling.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		reqCopy := req.Clone(ctx)

		resp, err := c.do(reqCopy)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			lastErr = &TransportError{Status: resp.StatusCode}
			resp.Body.Close()
		}

		// Exponential backoff: 1s, 2s, 4s
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// transportError drains an error response into a TransportError.
func (c *Client) transportError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Message string `json:"message"`
	}
	message := ""
	if json.Unmarshal(body, &apiErr) == nil {
		message = apiErr.Message
	}
	return &TransportError{Status: resp.StatusCode, Message: message}
}

// setHeaders sets the required headers for backend requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "cardwise/0.3.0")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// logRequest logs an API request without exposing sensitive data.
// Secure logging: no headers (may contain auth) and no body (user content).
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration.
// Only status code and duration, never the response body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
