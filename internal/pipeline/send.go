// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline turns composed input into persisted messages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// DefaultFollowupDelay is how long after a send the second refresh fires.
// Best-effort heuristic for catching a quick assistant reply ahead of the
// next poll cycle; it is a latency optimization, not a delivery guarantee -
// polling remains the mechanism of record.
const DefaultFollowupDelay = 1500 * time.Millisecond

// followupTimeout bounds the background refresh that runs after the caller's
// context is long gone.
const followupTimeout = 10 * time.Second

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoActiveConversation indicates a send was attempted with no
	// conversation context. Recoverable: the user must create or select a
	// conversation first.
	ErrNoActiveConversation = errors.New("no active conversation")

	// ErrSendInFlight indicates a send is already pending for this
	// conversation. Duplicate submissions from rapid Enter presses are
	// rejected rather than queued.
	ErrSendInFlight = errors.New("send already in flight")

	// ErrEmptyMessage indicates a blank message was submitted.
	ErrEmptyMessage = errors.New("empty message")
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Sender persists a user message. *api.Client satisfies this.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, content string) (*model.Message, error)
}

// Refresher is the slice of the message store the pipeline drives.
// *store.Store satisfies this.
type Refresher interface {
	Invalidate(conversationID string)
	Load(ctx context.Context, conversationID string) ([]*model.Message, error)
}

// =============================================================================
// SEND PIPELINE
// =============================================================================

// Pipeline guarantees at-most-one in-flight send per conversation and drives
// the post-send refresh sequence.
type Pipeline struct {
	mu      sync.Mutex
	pending map[string]bool

	sender Sender
	store  Refresher

	followupDelay time.Duration

	// onConversationUpdated notifies the sidebar collaborator after a
	// successful send. Registered explicitly at construction time; there
	// are no ambient global hooks.
	onConversationUpdated func()
}

// New creates a send pipeline over the given sender and store.
func New(sender Sender, store Refresher) *Pipeline {
	return &Pipeline{
		pending:       make(map[string]bool),
		sender:        sender,
		store:         store,
		followupDelay: DefaultFollowupDelay,
	}
}

// SetFollowupDelay tunes the delayed second refresh. Non-positive disables it.
func (p *Pipeline) SetFollowupDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.followupDelay = d
}

// OnConversationUpdated registers the callback fired after each successful
// send (consumed by the conversation list outside this core).
func (p *Pipeline) OnConversationUpdated(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConversationUpdated = fn
}

// Pending reports whether a send is in flight for the conversation. The UI
// disables submit affordances while this is true.
func (p *Pipeline) Pending(conversationID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[conversationID]
}

// Send persists content as a user message in the given conversation.
//
// Ordering: the persist call completes before any refresh this send triggers,
// so the refreshed sequence is guaranteed to include the new message. On
// success the store is invalidated, refreshed immediately, and refreshed a
// second time after followupDelay to catch a fast assistant reply.
func (p *Pipeline) Send(ctx context.Context, conversationID, content string) error {
	if conversationID == "" {
		return ErrNoActiveConversation
	}
	if content == "" {
		return ErrEmptyMessage
	}

	if !p.acquire(conversationID) {
		return ErrSendInFlight
	}
	defer p.release(conversationID)

	if _, err := p.sender.SendMessage(ctx, conversationID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	// Persisted. Reconcile the view with the authoritative sequence.
	p.store.Invalidate(conversationID)
	if _, err := p.store.Load(ctx, conversationID); err != nil {
		// The message is durable; a failed refresh only delays visibility
		// until the next poll cycle. Not a send failure.
		p.notifyUpdated()
		p.scheduleFollowup(conversationID)
		return nil
	}

	p.notifyUpdated()
	p.scheduleFollowup(conversationID)
	return nil
}

// acquire marks a conversation's send state pending. Returns false when a
// send is already in flight.
func (p *Pipeline) acquire(conversationID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending[conversationID] {
		return false
	}
	p.pending[conversationID] = true
	return true
}

// release clears the pending send state.
func (p *Pipeline) release(conversationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, conversationID)
}

// scheduleFollowup arms the delayed second refresh. The store's epoch guard
// makes this safe even when the user has navigated away by the time it fires.
func (p *Pipeline) scheduleFollowup(conversationID string) {
	p.mu.Lock()
	delay := p.followupDelay
	p.mu.Unlock()
	if delay <= 0 {
		return
	}

	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), followupTimeout)
		defer cancel()
		p.store.Invalidate(conversationID)
		_, _ = p.store.Load(ctx, conversationID)
	})
}

// notifyUpdated fires the conversation-updated callback if registered.
func (p *Pipeline) notifyUpdated() {
	p.mu.Lock()
	fn := p.onConversationUpdated
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
