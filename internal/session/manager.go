// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/util"
)

// =============================================================================
// SESSION TRACKER
// =============================================================================

// Tracker tracks session activity and decides the polling cadence.
type Tracker struct {
	mu sync.Mutex

	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	// Idle gating
	idleAfter    time.Duration // gap without input before polling slows
	idleNotified bool

	// Auto-archive
	archiveEnabled  bool
	archiveInterval time.Duration
	lastArchive     time.Time
	isDirty         bool

	onIdle    func()
	onResume  func()
	onArchive func() error
}

// Config holds configuration for the session tracker.
type Config struct {
	// IdleAfter is the input gap before polling slows (default: 5 minutes).
	IdleAfter time.Duration

	// ArchiveEnabled enables periodic transcript archiving.
	ArchiveEnabled bool

	// ArchiveInterval is how often dirty transcripts are archived
	// (default: 30 seconds).
	ArchiveInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		IdleAfter:       5 * time.Minute,
		ArchiveEnabled:  true,
		ArchiveInterval: 30 * time.Second,
	}
}

// NewTracker creates a session tracker.
func NewTracker(cfg Config) *Tracker {
	now := time.Now()
	return &Tracker{
		sessionID:       generateSessionID(),
		startTime:       now,
		lastActivity:    now,
		idleAfter:       cfg.IdleAfter,
		archiveEnabled:  cfg.ArchiveEnabled,
		archiveInterval: cfg.ArchiveInterval,
		lastArchive:     now,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// StartTime returns when the session started.
func (t *Tracker) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

// Duration returns how long the session has been running.
func (t *Tracker) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.startTime)
}

// IdleTime returns how long since the last user input.
func (t *Tracker) IdleTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastActivity)
}

// IsIdle reports whether the idle threshold has passed.
func (t *Tracker) IsIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastActivity) >= t.idleAfter
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp. Called on every
// keypress routed through the chat model.
func (t *Tracker) RecordActivity() {
	t.mu.Lock()
	wasIdle := t.idleNotified
	t.lastActivity = time.Now()
	t.idleNotified = false
	onResume := t.onResume
	t.mu.Unlock()

	if wasIdle && onResume != nil {
		onResume()
	}
}

// MarkDirty indicates the transcript has unarchived changes.
func (t *Tracker) MarkDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isDirty = true
}

// MarkClean indicates the transcript has been archived.
func (t *Tracker) MarkClean() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isDirty = false
	t.lastArchive = time.Now()
}

// IsDirty returns whether the transcript has unarchived changes.
func (t *Tracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isDirty
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetIdleCallback sets the function called once when the session goes idle.
func (t *Tracker) SetIdleCallback(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onIdle = fn
}

// SetResumeCallback sets the function called when input arrives after idle.
func (t *Tracker) SetResumeCallback(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResume = fn
}

// SetArchiveCallback sets the function called for transcript archiving.
func (t *Tracker) SetArchiveCallback(fn func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onArchive = fn
}

// =============================================================================
// POLL GATING
// =============================================================================

// ShouldArchive returns true when a transcript archive write is due.
func (t *Tracker) ShouldArchive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.archiveEnabled || !t.isDirty {
		return false
	}
	return time.Since(t.lastArchive) >= t.archiveInterval
}

// Check evaluates session state and triggers due callbacks. Returns true
// when the session is active (full polling cadence).
func (t *Tracker) Check() bool {
	t.mu.Lock()
	idle := time.Since(t.lastActivity) >= t.idleAfter

	notifyIdle := idle && !t.idleNotified
	if notifyIdle {
		t.idleNotified = true
	}

	shouldArchive := t.archiveEnabled && t.isDirty &&
		time.Since(t.lastArchive) >= t.archiveInterval

	onIdle := t.onIdle
	onArchive := t.onArchive
	t.mu.Unlock()

	// Callbacks run outside the lock.
	if notifyIdle && onIdle != nil {
		onIdle()
	}

	if shouldArchive && onArchive != nil {
		if err := onArchive(); err == nil {
			t.MarkClean()
		}
	}

	return !idle
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent periodically to evaluate session state.
type TickMsg struct {
	Time time.Time
}

// IdleMsg indicates the session has gone idle and polling should slow.
type IdleMsg struct{}

// ResumeMsg indicates input arrived after idle and polling should resume.
type ResumeMsg struct{}

// ArchiveMsg indicates a transcript archive write is due.
type ArchiveMsg struct{}

// TickCmd returns a command that ticks once per second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(ts time.Time) tea.Msg {
		return TickMsg{Time: ts}
	})
}

// HandleTick processes a tick and emits due session messages.
func (t *Tracker) HandleTick() tea.Cmd {
	var cmds []tea.Cmd

	t.mu.Lock()
	idle := time.Since(t.lastActivity) >= t.idleAfter
	notifyIdle := idle && !t.idleNotified
	if notifyIdle {
		t.idleNotified = true
	}
	t.mu.Unlock()

	if notifyIdle {
		cmds = append(cmds, func() tea.Msg { return IdleMsg{} })
	}

	if t.ShouldArchive() {
		cmds = append(cmds, func() tea.Msg { return ArchiveMsg{} })
	}

	cmds = append(cmds, TickCmd())
	return tea.Batch(cmds...)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetIdleAfter updates the idle threshold.
func (t *Tracker) SetIdleAfter(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.idleAfter = d
}

// SetArchiveEnabled enables or disables transcript archiving.
func (t *Tracker) SetArchiveEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.archiveEnabled = enabled
}

// SetArchiveInterval updates the archive interval.
func (t *Tracker) SetArchiveInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.archiveInterval = d
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func generateSessionID() string {
	return "sess_" + time.Now().Format("20060102_150405")
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID string
	StartTime time.Time
	Duration  time.Duration
	IdleTime  time.Duration
	IsDirty   bool
	IsIdle    bool
}

// GetStatus returns the current session status.
func (t *Tracker) GetStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	idle := now.Sub(t.lastActivity)

	return Status{
		SessionID: t.sessionID,
		StartTime: t.startTime,
		Duration:  now.Sub(t.startTime),
		IdleTime:  idle,
		IsDirty:   t.isDirty,
		IsIdle:    idle >= t.idleAfter,
	}
}

// FormatDuration returns a human-readable duration string for the status bar.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
