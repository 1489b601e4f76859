// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// fakeSender records sends and can block or fail on demand.
type fakeSender struct {
	mu    sync.Mutex
	sends []string
	err   error

	// block, when non-nil, is closed by the test to release an in-flight send.
	block chan struct{}
	// started is signaled once a send has entered the sender.
	started chan struct{}
}

func (f *fakeSender) SendMessage(ctx context.Context, conversationID, content string) (*model.Message, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sends = append(f.sends, conversationID+":"+content)
	return &model.Message{ID: "msg_test", Role: model.RoleUser, Content: content}, nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}

// fakeRefresher counts invalidations and loads per conversation.
type fakeRefresher struct {
	invalidates atomic.Int64
	loads       atomic.Int64
	loadErr     error

	mu  sync.Mutex
	ids []string
}

func (f *fakeRefresher) Invalidate(conversationID string) {
	f.invalidates.Add(1)
}

func (f *fakeRefresher) Load(ctx context.Context, conversationID string) ([]*model.Message, error) {
	f.loads.Add(1)
	f.mu.Lock()
	f.ids = append(f.ids, conversationID)
	f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return []*model.Message{}, nil
}

func TestSendRequiresConversation(t *testing.T) {
	p := New(&fakeSender{}, &fakeRefresher{})

	err := p.Send(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrNoActiveConversation)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, &fakeRefresher{})

	err := p.Send(context.Background(), "conv_1", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, sender.sent())
}

func TestSendPersistsThenRefreshes(t *testing.T) {
	sender := &fakeSender{}
	ref := &fakeRefresher{}
	p := New(sender, ref)
	p.SetFollowupDelay(0) // immediate path only

	err := p.Send(context.Background(), "conv_1", "what are the rates?")
	require.NoError(t, err)

	assert.Equal(t, []string{"conv_1:what are the rates?"}, sender.sent())
	assert.Equal(t, int64(1), ref.invalidates.Load())
	assert.Equal(t, int64(1), ref.loads.Load())
}

func TestSendFailureSkipsRefresh(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	ref := &fakeRefresher{}
	p := New(sender, ref)

	err := p.Send(context.Background(), "conv_1", "hello")
	require.Error(t, err)

	assert.Equal(t, int64(0), ref.invalidates.Load())
	assert.Equal(t, int64(0), ref.loads.Load())
}

func TestSendRefreshFailureIsNotSendFailure(t *testing.T) {
	sender := &fakeSender{}
	ref := &fakeRefresher{loadErr: errors.New("network flake")}
	p := New(sender, ref)
	p.SetFollowupDelay(0)

	// The message is durable even when the post-send refresh fails.
	err := p.Send(context.Background(), "conv_1", "hello")
	assert.NoError(t, err)
	assert.Len(t, sender.sent(), 1)
}

func TestSendInFlightRejected(t *testing.T) {
	sender := &fakeSender{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	ref := &fakeRefresher{}
	p := New(sender, ref)
	p.SetFollowupDelay(0)

	done := make(chan error, 1)
	go func() {
		done <- p.Send(context.Background(), "conv_1", "first")
	}()

	<-sender.started
	assert.True(t, p.Pending("conv_1"))

	// Second submission while the first is in flight is rejected, not queued.
	err := p.Send(context.Background(), "conv_1", "second")
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(sender.block)
	require.NoError(t, <-done)

	assert.False(t, p.Pending("conv_1"))
	assert.Equal(t, []string{"conv_1:first"}, sender.sent())

	// The guard releases after completion; a fresh send goes through.
	sender.block = nil
	sender.started = nil
	require.NoError(t, p.Send(context.Background(), "conv_1", "third"))
	assert.Len(t, sender.sent(), 2)
}

func TestSendGuardIsPerConversation(t *testing.T) {
	sender := &fakeSender{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	ref := &fakeRefresher{}
	p := New(sender, ref)
	p.SetFollowupDelay(0)

	done := make(chan error, 1)
	go func() {
		done <- p.Send(context.Background(), "conv_1", "first")
	}()
	<-sender.started

	// A different conversation is not blocked by conv_1's in-flight send.
	assert.True(t, p.Pending("conv_1"))
	assert.False(t, p.Pending("conv_2"))

	close(sender.block)
	require.NoError(t, <-done)
}

func TestSendFollowupRefresh(t *testing.T) {
	sender := &fakeSender{}
	ref := &fakeRefresher{}
	p := New(sender, ref)
	p.SetFollowupDelay(20 * time.Millisecond)

	require.NoError(t, p.Send(context.Background(), "conv_1", "hello"))
	assert.Equal(t, int64(1), ref.loads.Load())

	// The delayed second refresh fires without further calls.
	assert.Eventually(t, func() bool {
		return ref.loads.Load() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), ref.invalidates.Load())
}

func TestSendNotifiesConversationUpdated(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, &fakeRefresher{})
	p.SetFollowupDelay(0)

	var notified atomic.Int64
	p.OnConversationUpdated(func() { notified.Add(1) })

	require.NoError(t, p.Send(context.Background(), "conv_1", "hello"))
	assert.Equal(t, int64(1), notified.Load())

	// Failed sends never notify.
	sender.err = errors.New("boom")
	_ = p.Send(context.Background(), "conv_1", "again")
	assert.Equal(t, int64(1), notified.Load())
}
