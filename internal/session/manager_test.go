// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"
	"time"
)

func TestNewTrackerDefaults(t *testing.T) {
	tr := NewTracker(DefaultConfig())

	if tr.SessionID() == "" {
		t.Error("expected non-empty session ID")
	}
	if tr.IsIdle() {
		t.Error("fresh session should not be idle")
	}
	if tr.IsDirty() {
		t.Error("fresh session should not be dirty")
	}
}

func TestIdleDetection(t *testing.T) {
	tr := NewTracker(Config{IdleAfter: 10 * time.Millisecond})

	if tr.IsIdle() {
		t.Fatal("should not be idle immediately")
	}

	time.Sleep(20 * time.Millisecond)
	if !tr.IsIdle() {
		t.Fatal("should be idle after threshold")
	}

	tr.RecordActivity()
	if tr.IsIdle() {
		t.Error("activity should clear idle state")
	}
}

func TestCheckReturnsActiveState(t *testing.T) {
	tr := NewTracker(Config{IdleAfter: 10 * time.Millisecond})

	if !tr.Check() {
		t.Error("active session: Check should return true")
	}

	time.Sleep(20 * time.Millisecond)
	if tr.Check() {
		t.Error("idle session: Check should return false")
	}
}

func TestIdleCallbackFiresOnce(t *testing.T) {
	tr := NewTracker(Config{IdleAfter: 10 * time.Millisecond})

	idleCalls := 0
	tr.SetIdleCallback(func() { idleCalls++ })

	time.Sleep(20 * time.Millisecond)
	tr.Check()
	tr.Check()
	tr.Check()

	if idleCalls != 1 {
		t.Errorf("idle callback fired %d times, want 1", idleCalls)
	}
}

func TestResumeCallbackAfterIdle(t *testing.T) {
	tr := NewTracker(Config{IdleAfter: 10 * time.Millisecond})

	resumeCalls := 0
	tr.SetResumeCallback(func() { resumeCalls++ })

	// Activity while active does not fire resume.
	tr.RecordActivity()
	if resumeCalls != 0 {
		t.Fatal("resume should not fire while active")
	}

	time.Sleep(20 * time.Millisecond)
	tr.Check() // marks idle notified

	tr.RecordActivity()
	if resumeCalls != 1 {
		t.Errorf("resume fired %d times after idle, want 1", resumeCalls)
	}
}

func TestArchiveGating(t *testing.T) {
	tr := NewTracker(Config{
		IdleAfter:       time.Hour,
		ArchiveEnabled:  true,
		ArchiveInterval: 10 * time.Millisecond,
	})

	// Clean session never archives.
	time.Sleep(20 * time.Millisecond)
	if tr.ShouldArchive() {
		t.Fatal("clean session should not archive")
	}

	tr.MarkDirty()
	if !tr.ShouldArchive() {
		t.Fatal("dirty session past interval should archive")
	}

	tr.MarkClean()
	if tr.ShouldArchive() {
		t.Error("MarkClean should reset the archive clock")
	}
}

func TestArchiveDisabled(t *testing.T) {
	tr := NewTracker(Config{
		IdleAfter:       time.Hour,
		ArchiveEnabled:  false,
		ArchiveInterval: time.Millisecond,
	})
	tr.MarkDirty()
	time.Sleep(5 * time.Millisecond)

	if tr.ShouldArchive() {
		t.Error("disabled archiving should never trigger")
	}
}

func TestCheckRunsArchiveCallback(t *testing.T) {
	tr := NewTracker(Config{
		IdleAfter:       time.Hour,
		ArchiveEnabled:  true,
		ArchiveInterval: time.Millisecond,
	})
	tr.MarkDirty()
	time.Sleep(5 * time.Millisecond)

	archived := 0
	tr.SetArchiveCallback(func() error {
		archived++
		return nil
	})

	tr.Check()
	if archived != 1 {
		t.Fatalf("archive callback ran %d times, want 1", archived)
	}
	if tr.IsDirty() {
		t.Error("successful archive should mark session clean")
	}
}

func TestFailedArchiveStaysDirty(t *testing.T) {
	tr := NewTracker(Config{
		IdleAfter:       time.Hour,
		ArchiveEnabled:  true,
		ArchiveInterval: time.Millisecond,
	})
	tr.MarkDirty()
	time.Sleep(5 * time.Millisecond)

	tr.SetArchiveCallback(func() error {
		return errors.New("disk full")
	})

	tr.Check()
	if !tr.IsDirty() {
		t.Error("failed archive should leave session dirty for retry")
	}
}

func TestGetStatus(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.MarkDirty()

	st := tr.GetStatus()
	if st.SessionID != tr.SessionID() {
		t.Error("status session ID mismatch")
	}
	if !st.IsDirty {
		t.Error("status should reflect dirty state")
	}
	if st.IsIdle {
		t.Error("fresh session status should not be idle")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
