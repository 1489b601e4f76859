// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// fakeFetcher serves canned message sequences per conversation id.
type fakeFetcher struct {
	mu    sync.Mutex
	msgs  map[string][]*model.Message
	err   error
	calls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{msgs: make(map[string][]*model.Message)}
}

func (f *fakeFetcher) set(id string, msgs ...*model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[id] = msgs
}

func (f *fakeFetcher) Messages(_ context.Context, id string) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Message, len(f.msgs[id]))
	copy(out, f.msgs[id])
	return out, nil
}

func userMsg(id, content string) *model.Message {
	return &model.Message{ID: id, Role: model.RoleUser, Content: content, CreatedAt: time.Now()}
}

func assistantMsg(id, content string) *model.Message {
	return &model.Message{ID: id, Role: model.RoleAssistant, Content: content, CreatedAt: time.Now()}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_EmptyConversation(t *testing.T) {
	fetcher := newFakeFetcher()
	s := New(fetcher)
	s.SetActive("conv_1")

	msgs, err := s.Load(context.Background(), "conv_1")
	require.NoError(t, err)
	require.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.True(t, s.HasLoaded("conv_1"), "a completed fetch marks the conversation loaded")
}

func TestLoad_NoConversationID(t *testing.T) {
	s := New(newFakeFetcher())
	msgs, err := s.Load(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestLoad_FetchError(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err = errors.New("connection refused")
	s := New(fetcher)
	s.SetActive("conv_1")

	_, err := s.Load(context.Background(), "conv_1")
	require.Error(t, err)
	assert.False(t, s.HasLoaded("conv_1"))
}

func TestLoad_NilResultNormalized(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.msgs["conv_1"] = nil
	s := New(fetcher)
	s.SetActive("conv_1")

	msgs, err := s.Load(context.Background(), "conv_1")
	require.NoError(t, err)
	require.NotNil(t, msgs)
}

// =============================================================================
// APPLY GUARD TESTS
// =============================================================================

func TestApply_RegressionDiscarded(t *testing.T) {
	s := New(newFakeFetcher())
	s.SetActive("conv_1")
	epoch := s.Epoch()

	require.True(t, s.Apply("conv_1", []*model.Message{userMsg("m1", "a"), userMsg("m2", "b")}, epoch))

	// A poll that raced our send observes only one message; it must not
	// shrink the rendered view.
	assert.False(t, s.Apply("conv_1", []*model.Message{userMsg("m1", "a")}, epoch))
	assert.Len(t, s.Snapshot("conv_1"), 2)

	// Equal-length and longer results apply normally.
	assert.True(t, s.Apply("conv_1", []*model.Message{userMsg("m1", "a"), assistantMsg("m3", "c")}, epoch))
	assert.True(t, s.Apply("conv_1", []*model.Message{userMsg("m1", "a"), assistantMsg("m3", "c"), assistantMsg("m4", "d")}, epoch))
	assert.Len(t, s.Snapshot("conv_1"), 3)
}

func TestApply_StaleEpochDiscarded(t *testing.T) {
	s := New(newFakeFetcher())
	s.SetActive("conv_a")
	staleEpoch := s.Epoch()

	// User navigates away before the in-flight result lands.
	s.SetActive("conv_b")

	assert.False(t, s.Apply("conv_a", []*model.Message{userMsg("m1", "from A")}, staleEpoch))
	assert.Empty(t, s.Snapshot("conv_a"))
	assert.Empty(t, s.ActiveSnapshot())
}

func TestSwitchingConversations_NoLeak(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("conv_a", userMsg("a1", "message in A"))
	fetcher.set("conv_b", userMsg("b1", "message in B"), assistantMsg("b2", "reply in B"))

	s := New(fetcher)

	s.SetActive("conv_a")
	_, err := s.Load(context.Background(), "conv_a")
	require.NoError(t, err)

	s.SetActive("conv_b")
	_, err = s.Load(context.Background(), "conv_b")
	require.NoError(t, err)

	active := s.ActiveSnapshot()
	require.Len(t, active, 2)
	for _, m := range active {
		assert.NotEqual(t, "a1", m.ID, "conversation A's messages must never render under B")
	}

	// A's cache survives under its own key.
	assert.Len(t, s.Snapshot("conv_a"), 1)
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	s := New(newFakeFetcher())
	s.SetActive("conv_1")
	require.True(t, s.Apply("conv_1", []*model.Message{userMsg("m1", "a")}, s.Epoch()))

	snap := s.Snapshot("conv_1")
	snap[0] = userMsg("mX", "mutated")
	assert.Equal(t, "m1", s.Snapshot("conv_1")[0].ID)
}

// =============================================================================
// FRESHNESS TESTS
// =============================================================================

func TestInvalidate_BypassesCoalescing(t *testing.T) {
	s := New(newFakeFetcher())
	s.SetActive("conv_1")

	// Drain the token bucket.
	for s.AllowRefresh("conv_1") {
	}

	assert.False(t, s.AllowRefresh("conv_1"), "bucket drained")

	s.Invalidate("conv_1")
	assert.True(t, s.AllowRefresh("conv_1"), "invalidation must force the next refresh")
	assert.False(t, s.AllowRefresh("conv_1"), "force flag is consumed once")
}

func TestSetPollInterval(t *testing.T) {
	s := New(newFakeFetcher())
	assert.Equal(t, DefaultPollInterval, s.PollInterval())

	s.SetPollInterval(5 * time.Second)
	assert.Equal(t, 5*time.Second, s.PollInterval())

	s.SetPollInterval(0)
	assert.Equal(t, 5*time.Second, s.PollInterval(), "non-positive values are ignored")
}

// =============================================================================
// SEND-THEN-POLL SCENARIO
// =============================================================================

func TestScenario_SendThenPollShowsAssistantReply(t *testing.T) {
	fetcher := newFakeFetcher()
	s := New(fetcher)
	s.SetActive("conv_1")

	// Empty conversation.
	msgs, err := s.Load(context.Background(), "conv_1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// User sends "Hello"; the post-send refresh observes it.
	fetcher.set("conv_1", userMsg("m1", "Hello"))
	s.Invalidate("conv_1")
	require.True(t, s.AllowRefresh("conv_1"))
	msgs, err = s.Load(context.Background(), "conv_1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)

	// The backend appends an assistant reply out-of-band; the next poll
	// cycle delivers it in creation order.
	fetcher.set("conv_1", userMsg("m1", "Hello"), assistantMsg("m2", "Hi! How can I help with your rates?"))
	msgs, err = s.Load(context.Background(), "conv_1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

// TestStore_ConcurrentLoadAndNavigate exercises load/apply/navigate races.
//
// Run with: go test -race -run TestStore_ConcurrentLoadAndNavigate
func TestStore_ConcurrentLoadAndNavigate(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("conv_a", userMsg("a1", "x"))
	fetcher.set("conv_b", userMsg("b1", "y"))

	s := New(fetcher)
	s.SetActive("conv_a")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := "conv_a"
			if i%2 == 0 {
				id = "conv_b"
			}
			s.SetActive(id)
		}(i)
		go func(i int) {
			defer wg.Done()
			id := "conv_a"
			if i%2 == 0 {
				id = "conv_b"
			}
			_, _ = s.Load(context.Background(), id)
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, keys never cross-contaminate.
	for _, m := range s.Snapshot("conv_a") {
		assert.Equal(t, "a1", m.ID)
	}
	for _, m := range s.Snapshot("conv_b") {
		assert.Equal(t, "b1", m.ID)
	}
}
