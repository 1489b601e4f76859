// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"sync"
)

// State is the controller's capture state.
type State int

const (
	// StateIdle means no capture is running.
	StateIdle State = iota
	// StateRecording means an utterance capture is in progress.
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Result carries the outcome of one capture back to the UI.
type Result struct {
	// Transcript is the recognized text, empty on failure.
	Transcript string
	// Err is the classified failure, nil on success.
	Err error
}

// =============================================================================
// CAPTURE CONTROLLER
// =============================================================================

// Controller drives single-utterance capture over a Recognizer.
//
// Start blocks until microphone permission resolves, then runs the capture
// on a background goroutine and delivers exactly one Result to the channel
// it returns. The state is recording only while audio is actually being
// captured; a pending or denied permission request reports idle. The
// controller is back at idle by the time the Result arrives.
type Controller struct {
	mu         sync.Mutex
	state      State
	busy       bool // a Start is in progress, including its permission phase
	permission bool
	recognizer Recognizer
	cancel     context.CancelFunc
}

// NewController creates a capture controller. recognizer may come from
// Detect or be injected directly.
func NewController(recognizer Recognizer) *Controller {
	return &Controller{recognizer: recognizer}
}

// State returns the current capture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Recording reports whether a capture is in progress.
func (c *Controller) Recording() bool {
	return c.State() == StateRecording
}

// Start begins a single-utterance capture and returns a channel that
// receives exactly one Result. Microphone permission is acquired first and
// a denial is returned directly: the state never leaves idle, no recording
// starts, and no Result channel is produced. Only once permission is
// granted does the controller transition to recording and begin capture.
//
// Returns ErrAlreadyRecording when a capture is already in progress and
// ErrUnsupported when the controller has no recognizer.
func (c *Controller) Start(ctx context.Context) (<-chan Result, error) {
	c.mu.Lock()
	if c.recognizer == nil {
		c.mu.Unlock()
		return nil, ErrUnsupported
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrAlreadyRecording
	}

	captureCtx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.cancel = cancel
	needPermission := !c.permission
	c.mu.Unlock()

	if needPermission {
		if err := c.recognizer.RequestPermission(captureCtx); err != nil {
			cancel()
			c.mu.Lock()
			c.busy = false
			c.cancel = nil
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Lock()
		c.permission = true
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.state = StateRecording
	c.mu.Unlock()

	results := make(chan Result, 1)
	go func() {
		defer cancel()
		results <- c.capture(captureCtx)
	}()
	return results, nil
}

// Stop cancels an in-progress capture. The pending Result reports the
// cancellation; Stop is a no-op when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// capture runs one recognition and restores idle state.
func (c *Controller) capture(ctx context.Context) Result {
	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.busy = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	transcript, err := c.recognizer.Recognize(ctx)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Transcript: transcript}
}
