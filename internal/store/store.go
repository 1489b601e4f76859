// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the client-side message store.
package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// Default refresh tuning. Both are configurable; these mirror the backend's
// expected assistant turnaround.
const (
	// DefaultPollInterval is how often the open conversation is re-fetched.
	DefaultPollInterval = 2 * time.Second

	// minRefreshGap is the floor between coalesced refresh requests.
	minRefreshGap = 250 * time.Millisecond
)

// Fetcher retrieves the ordered message sequence for a conversation.
// *api.Client satisfies this; tests substitute fakes.
type Fetcher interface {
	Messages(ctx context.Context, conversationID string) ([]*model.Message, error)
}

// =============================================================================
// STORE
// =============================================================================

// Store caches message sequences per conversation and applies fetch results
// under navigation and regression guards.
type Store struct {
	mu sync.Mutex

	fetcher Fetcher

	// activeID is the conversation currently open in the view.
	activeID string

	// epoch increments on every navigation; fetch results tagged with an
	// older epoch are discarded on application.
	epoch uint64

	// cache holds the last applied view per conversation id.
	cache map[string][]*model.Message

	// loaded marks conversations that have completed at least one fetch,
	// distinguishing "loading" from "genuinely empty".
	loaded map[string]bool

	// inFlight counts fetches currently running per conversation.
	inFlight map[string]int

	// forced marks conversations whose next refresh must bypass coalescing.
	forced map[string]bool

	// limiter coalesces refresh triggers across polling and invalidation.
	limiter *rate.Limiter

	pollInterval time.Duration
}

// New creates a message store backed by the given fetcher.
func New(fetcher Fetcher) *Store {
	return &Store{
		fetcher:      fetcher,
		cache:        make(map[string][]*model.Message),
		loaded:       make(map[string]bool),
		inFlight:     make(map[string]int),
		forced:       make(map[string]bool),
		limiter:      rate.NewLimiter(rate.Every(minRefreshGap), 1),
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval overrides the polling cadence. Non-positive values keep the
// default.
func (s *Store) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollInterval = d
}

// PollInterval returns the polling cadence for the open conversation.
func (s *Store) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// =============================================================================
// NAVIGATION
// =============================================================================

// SetActive switches the open conversation. Any fetch results issued for the
// previous epoch will be discarded when they land; the previous conversation's
// cache stays intact under its own key but never leaks into the new view.
func (s *Store) SetActive(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == conversationID {
		return
	}
	s.activeID = conversationID
	s.epoch++
}

// ActiveID returns the id of the open conversation, or "" when none is open.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Epoch returns the current navigation epoch. Fetches capture it before the
// request goes out and hand it back to Apply with the result.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// =============================================================================
// FETCH / APPLY
// =============================================================================

// Load fetches the message sequence for a conversation and applies it.
// The returned slice is the post-apply view for that conversation, which may
// be the previous view when the result was discarded by a guard. An empty
// conversation loads as an empty slice, never nil and never an error.
func (s *Store) Load(ctx context.Context, conversationID string) ([]*model.Message, error) {
	if conversationID == "" {
		return []*model.Message{}, nil
	}

	epoch := s.beginFetch(conversationID)
	msgs, err := s.fetcher.Messages(ctx, conversationID)
	s.endFetch(conversationID)

	if err != nil {
		return nil, err
	}

	s.Apply(conversationID, msgs, epoch)
	return s.Snapshot(conversationID), nil
}

// beginFetch records an in-flight fetch and captures the navigation epoch.
func (s *Store) beginFetch(conversationID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[conversationID]++
	return s.epoch
}

// endFetch retires an in-flight fetch.
func (s *Store) endFetch(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[conversationID] > 1 {
		s.inFlight[conversationID]--
	} else {
		delete(s.inFlight, conversationID)
	}
}

// Apply installs a fetch result for a conversation. Returns true when the
// result was accepted.
//
// A result is discarded when:
//   - it was fetched under an older navigation epoch (stale result), or
//   - it carries fewer messages than the current view for the same
//     conversation (a poll racing an in-flight send must not shrink the view).
func (s *Store) Apply(conversationID string, msgs []*model.Message, epoch uint64) bool {
	if conversationID == "" {
		return false
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	if current, ok := s.cache[conversationID]; ok && len(msgs) < len(current) {
		// Regression guard. The sequence is append-only server-side, so a
		// shorter result can only mean we observed a point before our own
		// send landed.
		return false
	}

	s.cache[conversationID] = msgs
	s.loaded[conversationID] = true
	return true
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Snapshot returns a copy of the cached view for a conversation.
// Always non-nil.
func (s *Store) Snapshot(conversationID string) []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := s.cache[conversationID]
	out := make([]*model.Message, len(cached))
	copy(out, cached)
	return out
}

// ActiveSnapshot returns a copy of the open conversation's view.
func (s *Store) ActiveSnapshot() []*model.Message {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()
	return s.Snapshot(active)
}

// HasLoaded reports whether a conversation has completed at least one fetch.
func (s *Store) HasLoaded(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[conversationID]
}

// IsFetching reports whether a fetch is currently in flight for a conversation.
func (s *Store) IsFetching(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[conversationID] > 0
}

// =============================================================================
// FRESHNESS
// =============================================================================

// Invalidate marks a conversation stale so the next refresh bypasses
// coalescing. Called after a successful send; the cached view itself is kept
// (never show less than we already have) but must be reconciled immediately.
func (s *Store) Invalidate(conversationID string) {
	if conversationID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[conversationID] = true
}

// AllowRefresh reports whether a refresh for the conversation should be
// issued now. Invalidated conversations always pass; otherwise the shared
// token bucket coalesces triggers from polling and focus events.
func (s *Store) AllowRefresh(conversationID string) bool {
	s.mu.Lock()
	if s.forced[conversationID] {
		delete(s.forced, conversationID)
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	return s.limiter.Allow()
}
