// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwise/cardwise-tui/internal/model"
)

func newTestServer(t *testing.T, delay time.Duration) (*Server, *httptest.Server) {
	t.Helper()

	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := NewServer(db, "").WithResponder(NewResponder(db, delay))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createConversation(t *testing.T, baseURL string) model.Conversation {
	t.Helper()
	resp := postJSON(t, baseURL+"/conversations", map[string]any{
		"title":    "New Chat",
		"isActive": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeJSON[model.Conversation](t, resp)
}

func TestCreateConversation(t *testing.T) {
	_, ts := newTestServer(t, 0)

	conv := createConversation(t, ts.URL)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "New Chat", conv.Title)
	assert.True(t, conv.IsActive)
	assert.NotNil(t, conv.Messages)
}

func TestCreateConversationDefaultTitle(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp := postJSON(t, ts.URL+"/conversations", map[string]any{"isActive": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	conv := decodeJSON[model.Conversation](t, resp)
	assert.Equal(t, model.DefaultTitle, conv.Title)
}

func TestMessagesEmptyConversation(t *testing.T) {
	_, ts := newTestServer(t, 0)
	conv := createConversation(t, ts.URL)

	resp, err := http.Get(ts.URL + "/conversations/" + conv.ID + "/messages")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msgs := decodeJSON[[]*model.Message](t, resp)
	// Empty sequence, never null.
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestMessagesUnknownConversation(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/conversations/nope/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendMessagePersists(t *testing.T) {
	_, ts := newTestServer(t, time.Hour) // responder effectively disabled
	conv := createConversation(t, ts.URL)

	resp := postJSON(t, ts.URL+"/conversations/"+conv.ID+"/messages", map[string]any{
		"content": "What are my processing rates?",
		"role":    "user",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decodeJSON[*model.Message](t, resp)
	assert.Equal(t, model.RoleUser, msg.Role)
	assert.NotEmpty(t, msg.ID)

	// The persisted sequence includes the message on the next read.
	getResp, err := http.Get(ts.URL + "/conversations/" + conv.ID + "/messages")
	require.NoError(t, err)
	msgs := decodeJSON[[]*model.Message](t, getResp)
	require.Len(t, msgs, 1)
	assert.Equal(t, "What are my processing rates?", msgs[0].Content)
}

func TestSendMessageValidation(t *testing.T) {
	_, ts := newTestServer(t, 0)
	conv := createConversation(t, ts.URL)

	tests := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"empty content", map[string]any{"content": ""}, http.StatusBadRequest},
		{"assistant role rejected", map[string]any{"content": "hi", "role": "assistant"}, http.StatusBadRequest},
		{"valid", map[string]any{"content": "hi", "role": "user"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/conversations/"+conv.ID+"/messages", tt.payload)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSendToUnknownConversation(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp := postJSON(t, ts.URL+"/conversations/missing/messages", map[string]any{"content": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResponderAppendsAssistantReply(t *testing.T) {
	_, ts := newTestServer(t, 10*time.Millisecond)
	conv := createConversation(t, ts.URL)

	resp := postJSON(t, ts.URL+"/conversations/"+conv.ID+"/messages", map[string]any{
		"content": "I need help calculating processing rates and finding competitive pricing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The reply appears only after the delay, via a later poll.
	require.Eventually(t, func() bool {
		getResp, err := http.Get(ts.URL + "/conversations/" + conv.ID + "/messages")
		if err != nil {
			return false
		}
		msgs := decodeJSON[[]*model.Message](t, getResp)
		return len(msgs) == 2 && msgs[1].Role == model.RoleAssistant
	}, 2*time.Second, 20*time.Millisecond)

	getResp, err := http.Get(ts.URL + "/conversations/" + conv.ID + "/messages")
	require.NoError(t, err)
	msgs := decodeJSON[[]*model.Message](t, getResp)
	require.Len(t, msgs, 2)
	// The rates template carries document and search actions.
	assert.NotEmpty(t, msgs[1].Actions)
}

func TestListConversationsOrdering(t *testing.T) {
	_, ts := newTestServer(t, time.Hour)

	first := createConversation(t, ts.URL)
	time.Sleep(5 * time.Millisecond)
	second := createConversation(t, ts.URL)

	// A message bumps the first conversation back to the top.
	time.Sleep(5 * time.Millisecond)
	resp := postJSON(t, ts.URL+"/conversations/"+first.ID+"/messages", map[string]any{"content": "bump"})
	resp.Body.Close()

	listResp, err := http.Get(ts.URL + "/conversations")
	require.NoError(t, err)
	metas := decodeJSON[[]model.ConversationMeta](t, listResp)
	require.Len(t, metas, 2)
	assert.Equal(t, first.ID, metas[0].ID)
	assert.Equal(t, second.ID, metas[1].ID)
	assert.Equal(t, 1, metas[0].MessageCount)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeJSON[HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, Version, health.Version)
}

func TestAuthMiddleware(t *testing.T) {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := NewServer(db, "").WithAuth(&AuthConfig{
		Enabled:     true,
		BearerToken: "dev-token",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	// No token: rejected.
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong token: rejected.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct token: allowed.
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("Authorization", "Bearer dev-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidateBearerToken(t *testing.T) {
	assert.True(t, ValidateBearerToken("abc", "abc"))
	assert.False(t, ValidateBearerToken("abc", "abd"))
	assert.False(t, ValidateBearerToken("", "abc"))
	assert.False(t, ValidateBearerToken("abc", ""))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.1.1.1"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("10.1.1.1"), "request over limit should be rejected")
	// Other IPs are unaffected.
	assert.True(t, rl.Allow("10.1.1.2"))
	assert.Equal(t, 0, rl.GetRemaining("10.1.1.1"))
}

func TestComposeReplyTemplates(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantActions bool
	}{
		{"rates", "help calculating processing rates", true},
		{"tracerpay", "Show me how TracerPay beats my current processor", true},
		{"proposal", "create a merchant proposal", true},
		{"marketing", "Create Marketing Strategy & Content", false},
		{"fallback", "hello there", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, actions := composeReply(tt.content)
			assert.NotEmpty(t, reply)
			if tt.wantActions {
				assert.NotEmpty(t, actions)
			} else {
				assert.Empty(t, actions)
			}
		})
	}
}
