// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecognizer scripts permission and recognition outcomes.
type fakeRecognizer struct {
	permissionErr error
	transcript    string
	recognizeErr  error

	permissionCalls atomic.Int64
	recognizeCalls  atomic.Int64

	// block, when non-nil, holds Recognize until closed or ctx is done.
	block chan struct{}

	// permissionBlock, when non-nil, holds RequestPermission until closed
	// or ctx is done.
	permissionBlock chan struct{}
}

func (f *fakeRecognizer) RequestPermission(ctx context.Context) error {
	f.permissionCalls.Add(1)
	if f.permissionBlock != nil {
		select {
		case <-f.permissionBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.permissionErr
}

func (f *fakeRecognizer) Recognize(ctx context.Context) (string, error) {
	f.recognizeCalls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.recognizeErr != nil {
		return "", f.recognizeErr
	}
	return f.transcript, nil
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for capture result")
		return Result{}
	}
}

func TestControllerCapturesTranscript(t *testing.T) {
	rec := &fakeRecognizer{transcript: "calculate my processing rates"}
	c := NewController(rec)

	ch, err := c.Start(context.Background())
	require.NoError(t, err)

	r := waitResult(t, ch)
	require.NoError(t, r.Err)
	assert.Equal(t, "calculate my processing rates", r.Transcript)
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerPermissionBeforeCapture(t *testing.T) {
	rec := &fakeRecognizer{permissionErr: ErrPermissionDenied}
	c := NewController(rec)

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	// Recognition never ran: permission is acquired before any capture.
	assert.Equal(t, int64(0), rec.recognizeCalls.Load())
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerIdleWhilePermissionPending(t *testing.T) {
	rec := &fakeRecognizer{
		permissionBlock: make(chan struct{}),
		transcript:      "hello",
	}
	c := NewController(rec)

	type startOutcome struct {
		ch  <-chan Result
		err error
	}
	done := make(chan startOutcome, 1)
	go func() {
		ch, err := c.Start(context.Background())
		done <- startOutcome{ch, err}
	}()

	// The permission request is outstanding: no recording yet, but a
	// second Start is still rejected.
	for rec.permissionCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Recording())
	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRecording)

	close(rec.permissionBlock)
	outcome := <-done
	require.NoError(t, outcome.err)
	require.NoError(t, waitResult(t, outcome.ch).Err)
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerPermissionDenialLeavesIdle(t *testing.T) {
	rec := &fakeRecognizer{permissionErr: ErrPermissionDenied}
	c := NewController(rec)

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateIdle, c.State())

	// The controller is usable again immediately after a denial.
	rec.permissionErr = nil
	rec.transcript = "try again"
	ch, err := c.Start(context.Background())
	require.NoError(t, err)
	r := waitResult(t, ch)
	require.NoError(t, r.Err)
	assert.Equal(t, "try again", r.Transcript)
}

func TestControllerPermissionRequestedOnce(t *testing.T) {
	rec := &fakeRecognizer{transcript: "hello"}
	c := NewController(rec)

	for i := 0; i < 3; i++ {
		ch, err := c.Start(context.Background())
		require.NoError(t, err)
		require.NoError(t, waitResult(t, ch).Err)
	}

	assert.Equal(t, int64(1), rec.permissionCalls.Load())
	assert.Equal(t, int64(3), rec.recognizeCalls.Load())
}

func TestControllerRejectsConcurrentCapture(t *testing.T) {
	rec := &fakeRecognizer{block: make(chan struct{}), transcript: "hello"}
	c := NewController(rec)

	ch, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Recording())

	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRecording)

	close(rec.block)
	require.NoError(t, waitResult(t, ch).Err)
	assert.False(t, c.Recording())
}

func TestControllerStopCancelsCapture(t *testing.T) {
	rec := &fakeRecognizer{block: make(chan struct{})}
	c := NewController(rec)

	ch, err := c.Start(context.Background())
	require.NoError(t, err)

	c.Stop()
	r := waitResult(t, ch)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerWithoutRecognizer(t *testing.T) {
	c := NewController(nil)
	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestControllerErrorCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no speech", ErrNoSpeech, ErrNoSpeech},
		{"network", ErrNetwork, ErrNetwork},
		{"generic", ErrRecognition, ErrRecognition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeRecognizer{recognizeErr: tt.err})
			ch, err := c.Start(context.Background())
			require.NoError(t, err)
			assert.ErrorIs(t, waitResult(t, ch).Err, tt.want)
			// Capture is single-utterance: back to idle after any outcome.
			assert.Equal(t, StateIdle, c.State())
		})
	}
}

func TestUserMessageCategories(t *testing.T) {
	assert.Contains(t, UserMessage(ErrPermissionDenied), "Microphone access")
	assert.Contains(t, UserMessage(ErrNoSpeech), "No speech")
	assert.Contains(t, UserMessage(ErrNetwork), "network")
	assert.Contains(t, UserMessage(ErrRecognition), "Try again")
	assert.Contains(t, UserMessage(ErrUnsupported), "not supported")
}
