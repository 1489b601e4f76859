// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// newTestModel builds a chat model against a client that never gets called.
// Voice and archiving are disabled so construction touches nothing outside
// the process.
func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Voice.Enabled = false
	cfg.Archive.Enabled = false
	client := api.NewClient("http://localhost:8787")
	return New(styles.NewTheme(), client, cfg)
}

func TestNewModelDefaults(t *testing.T) {
	m := newTestModel(t)

	if m.State() != StateLoading {
		t.Errorf("initial state = %v, want StateLoading", m.State())
	}
	if m.ConversationID() != "" {
		t.Errorf("initial conversation ID = %q, want empty", m.ConversationID())
	}
	if m.Sending() || m.Recording() {
		t.Error("no activity should be in flight at construction")
	}
	if m.VoiceAvailable() {
		t.Error("voice should be unavailable when disabled in config")
	}
}

func TestNewModelPollIntervalFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Voice.Enabled = false
	cfg.Archive.Enabled = false
	cfg.Chat.PollIntervalMs = 500
	cfg.Chat.IdlePollIntervalMs = 9000

	m := New(styles.NewTheme(), api.NewClient("http://localhost:8787"), cfg)

	if m.pollInterval != 500*time.Millisecond {
		t.Errorf("pollInterval = %v, want 500ms", m.pollInterval)
	}
	if m.idlePoll != 9*time.Second {
		t.Errorf("idlePoll = %v, want 9s", m.idlePoll)
	}
}

func TestCurrentPollIntervalSlowsWhenIdle(t *testing.T) {
	m := newTestModel(t)

	if m.currentPollInterval() != m.pollInterval {
		t.Error("active cadence should be the fast interval")
	}
	m.idle = true
	if m.currentPollInterval() != m.idlePoll {
		t.Error("idle cadence should be the slow interval")
	}
}

func TestAwaitingReply(t *testing.T) {
	m := newTestModel(t)

	if m.awaitingReply() {
		t.Error("empty transcript should not await a reply")
	}

	m.messages = []*model.Message{model.NewUserMessage("what are my rates?")}
	if !m.awaitingReply() {
		t.Error("trailing user message should await a reply")
	}

	m.messages = append(m.messages, model.NewMessage(model.RoleAssistant, "here they are"))
	if m.awaitingReply() {
		t.Error("trailing assistant message should not await a reply")
	}
}

func TestHelpContext(t *testing.T) {
	m := newTestModel(t)

	m.state = StateLanding
	if m.helpContext() != ContextLanding {
		t.Errorf("landing helpContext = %v", m.helpContext())
	}

	m.state = StateChat
	if m.helpContext() != ContextChat {
		t.Errorf("chat helpContext = %v", m.helpContext())
	}

	m.recording = true
	if m.helpContext() != ContextRecording {
		t.Error("recording should win the help context")
	}
}

func TestSetSizePropagates(t *testing.T) {
	m := newTestModel(t)
	m.setSize(100, 40)

	if !m.ready {
		t.Error("setSize should mark the model ready")
	}
	if m.width != 100 || m.height != 40 {
		t.Errorf("dimensions = %dx%d, want 100x40", m.width, m.height)
	}
	if m.viewport.Height <= 0 {
		t.Error("viewport height should be positive after sizing")
	}
	if m.viewport.Height >= 40 {
		t.Error("viewport should leave room for chrome")
	}
}

func TestSetSizeTinyTerminal(t *testing.T) {
	m := newTestModel(t)
	m.setSize(30, 8)

	if m.viewport.Height < 3 {
		t.Errorf("viewport height = %d, want at least 3", m.viewport.Height)
	}
}
