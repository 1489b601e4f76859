// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file handles the composer: submission, the bootstrap-vs-send
// decision, and voice transcript insertion.
package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleSubmit normalizes the composer content and submits it.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := normalizeInput(m.input.Value())
	if isBlank(content) {
		return m, nil
	}
	m.input.Reset()
	return m.submitContent(content)
}

// submitContent routes content to the send pipeline, or through bootstrap
// when no conversation is open yet. The composer is already cleared; a
// failed submission restores the text via the result message.
func (m Model) submitContent(content string) (tea.Model, tea.Cmd) {
	if isBlank(content) {
		return m, nil
	}

	if m.conversationID == "" {
		m.sending = true
		var cmds []tea.Cmd
		cmds = append(cmds, bootstrapCmd(m.boot, content))
		if cmd := m.ensureThinking(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	// Reject a duplicate submission up front instead of bouncing it off the
	// pipeline's in-flight guard; the composer text is still in hand here.
	if m.pipe.Pending(m.conversationID) {
		m.input.SetValue(content)
		return m, m.showWarning("Still sending your last message")
	}

	m.sending = true
	m.tracker.MarkDirty()
	var cmds []tea.Cmd
	cmds = append(cmds, sendCmd(m.pipe, m.conversationID, content))
	if cmd := m.ensureThinking(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// insertTranscript appends a voice transcript to the composer, separating
// it from existing text with a space. The cursor lands at the end.
func (m *Model) insertTranscript(transcript string) {
	existing := m.input.Value()
	if existing == "" {
		m.input.SetValue(transcript)
		return
	}
	if !strings.HasSuffix(existing, " ") && !strings.HasSuffix(existing, "\n") {
		existing += " "
	}
	m.input.SetValue(existing + transcript)
}
