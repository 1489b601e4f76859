// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file contains the chat view's message dispatch. State transitions
// live here; the async work itself is in commands.go.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/session"
	"github.com/cardwise/cardwise-tui/internal/ui/components"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)

	case PollTickMsg:
		return m.handlePollTick(msg)

	case RefreshResultMsg:
		return m.handleRefreshResult(msg)

	case SendResultMsg:
		return m.handleSendResult(msg)

	case BootstrapResultMsg:
		return m.handleBootstrapResult(msg)

	case StarterChosenMsg:
		return m.submitContent(msg.Starter.Prompt)

	case AutoComposeMsg:
		return m.handleAutoCompose(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case VoiceSessionMsg:
		return m.handleVoiceSession(msg)

	case VoiceResultMsg:
		return m.handleVoiceResult(msg)

	case session.TickMsg:
		return m, m.tracker.HandleTick()

	case session.IdleMsg:
		// Polling slows until the next keypress.
		m.idle = true
		return m, nil

	case session.ArchiveMsg:
		return m.handleArchiveTick()

	case ArchiveSavedMsg:
		if msg.Err == nil && msg.ConversationID == m.conversationID {
			m.tracker.MarkClean()
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		return m, cmd
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Any keypress is activity; a keypress while idle also restores the
	// fast poll cadence and refreshes immediately.
	m.tracker.RecordActivity()
	if m.idle {
		m.idle = false
		if m.conversationID != "" && m.store.AllowRefresh(m.conversationID) {
			cmds = append(cmds, refreshCmd(m.store, m.conversationID))
		}
	}

	// An open sidebar captures navigation keys until it is dismissed.
	if m.showSidebar {
		if handled, mm, cmd := m.handleSidebarKey(msg, cmds); handled {
			return mm, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.recording && m.voiceCtl != nil {
			m.voiceCtl.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Voice):
		return m.toggleVoice(cmds)

	case key.Matches(msg, m.keys.NewChat):
		m.startNewConversation()
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Conversations):
		m.showSidebar = !m.showSidebar
		m.applyBodyLayout(m.viewport.Height)
		m.refreshTranscript(false)
		if m.showSidebar {
			// Re-fetch so the panel reflects the service's ordering.
			cmds = append(cmds, loadConversationsCmd(m.client))
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Timestamps):
		m.showTimestamps = !m.showTimestamps
		m.refreshTranscript(false)
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, tea.Batch(cmds...)
	}

	// Esc stops an active capture without quitting.
	if msg.String() == "esc" && m.recording && m.voiceCtl != nil {
		m.voiceCtl.Stop()
		return m, tea.Batch(cmds...)
	}

	// On the landing screen with an empty composer, the arrow keys walk the
	// starter grid and Enter picks a card.
	if m.state == StateLanding && isBlank(m.input.Value()) {
		switch msg.String() {
		case "tab", "right", "down":
			m.starters.MoveNext()
			return m, tea.Batch(cmds...)
		case "shift+tab", "left", "up":
			m.starters.MovePrev()
			return m, tea.Batch(cmds...)
		case "enter":
			starter := m.starters.Selected()
			cmds = append(cmds, func() tea.Msg { return StarterChosenMsg{Starter: starter} })
			return m, tea.Batch(cmds...)
		}
	}

	if key.Matches(msg, m.keys.Submit) && !msg.Alt {
		mm, cmd := m.handleSubmit()
		cmds = append(cmds, cmd)
		return mm, tea.Batch(cmds...)
	}

	// Alt+Enter inserts a newline instead of submitting.
	if msg.Alt && msg.Type == tea.KeyEnter {
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

func (m Model) handleConversationsLoaded(msg ConversationsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if m.state != StateLoading {
			// A listing refresh for the sidebar failed; the stale panel
			// content is still usable.
			return m, nil
		}
		m.state = StateLanding
		return m, m.showError("Could not reach the message service: " + msg.Err.Error())
	}

	m.sidebar.SetConversations(msg.Metas)

	// Past startup this is a listing refresh; the open conversation does
	// not change under the user.
	if m.state != StateLoading {
		return m, nil
	}

	// Prefer the most recent active conversation; the listing is ordered by
	// recency, so the first active hit is the one to resume.
	var picked *model.ConversationMeta
	for i := range msg.Metas {
		if msg.Metas[i].IsActive {
			picked = &msg.Metas[i]
			break
		}
	}
	if picked == nil && len(msg.Metas) > 0 {
		picked = &msg.Metas[0]
	}

	if picked == nil {
		m.state = StateLanding
		return m, nil
	}

	m.openConversation(picked.ID, picked.Title)
	return m, tea.Batch(
		refreshCmd(m.store, picked.ID),
		pollTickCmd(m.currentPollInterval(), picked.ID),
	)
}

// openConversation switches the view to conversationID. The composer and
// any running voice capture belong to the conversation being left; neither
// follows the user across.
func (m *Model) openConversation(id, title string) {
	m.stopCapture()
	if id != m.conversationID {
		m.input.Reset()
	}
	m.conversationID = id
	m.title = title
	m.messages = m.store.Snapshot(id)
	m.failStreak = 0
	m.syncState = components.SyncStale
	m.store.SetActive(id)
	m.header.SetConversationTitle(title)
	m.sidebar.SetCurrent(id)
	m.state = StateChat
	m.refreshTranscript(true)
}

// startNewConversation returns to the landing screen. The next submission
// creates the conversation on the service.
func (m *Model) startNewConversation() {
	m.stopCapture()
	m.conversationID = ""
	m.title = ""
	m.messages = nil
	m.failStreak = 0
	m.syncState = components.SyncStale
	m.store.SetActive("")
	m.header.SetConversationTitle("")
	m.sidebar.SetCurrent("")
	m.showSidebar = false
	m.input.Reset()
	m.state = StateLanding
	m.thinking.Stop()
}

func (m Model) handleBootstrapResult(msg BootstrapResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	if msg.Err != nil {
		// The composer stays empty: restoring the text would invite a
		// duplicate submission when the conversation was created but its
		// first send failed.
		return m, m.showError("Could not start the conversation: " + msg.Err.Error())
	}

	m.openConversation(msg.ConversationID, msg.Title)
	m.tracker.MarkDirty()
	m.syncState = components.SyncFresh
	m.lastRefresh = time.Now()

	var cmds []tea.Cmd
	cmds = append(cmds, pollTickCmd(m.currentPollInterval(), msg.ConversationID))
	cmds = append(cmds, loadConversationsCmd(m.client))
	if cmd := m.ensureThinking(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// REFRESH
// =============================================================================

func (m Model) handlePollTick(msg PollTickMsg) (tea.Model, tea.Cmd) {
	// Ticks for a conversation the user left die here; the open
	// conversation has its own tick loop.
	if msg.ConversationID != m.conversationID || m.state != StateChat {
		return m, nil
	}

	cmds := []tea.Cmd{pollTickCmd(m.currentPollInterval(), msg.ConversationID)}
	if m.store.AllowRefresh(msg.ConversationID) && !m.store.IsFetching(msg.ConversationID) {
		cmds = append(cmds, refreshCmd(m.store, msg.ConversationID))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleRefreshResult(msg RefreshResultMsg) (tea.Model, tea.Cmd) {
	if msg.ConversationID != m.conversationID {
		return m, nil
	}

	if msg.Err != nil {
		m.failStreak++
		if m.failStreak == failStreakThreshold {
			m.syncState = components.SyncFailed
			return m, m.showError("Lost sync with the message service")
		}
		if m.syncState != components.SyncFailed {
			m.syncState = components.SyncStale
		}
		return m, nil
	}

	recovered := m.syncState == components.SyncFailed
	m.failStreak = 0
	m.syncState = components.SyncFresh
	m.lastRefresh = time.Now()

	grew := len(msg.Messages) > len(m.messages)
	m.messages = msg.Messages
	m.refreshTranscript(grew)
	if grew {
		m.tracker.MarkDirty()
	}

	var cmds []tea.Cmd
	if recovered {
		cmds = append(cmds, m.showStatus("Back in sync"))
	}
	if cmd := m.ensureThinking(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// SEND
// =============================================================================

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	if msg.ConversationID != m.conversationID {
		return m, nil
	}

	if msg.Err != nil {
		// Failed content is not put back in the composer; the user re-keys
		// it deliberately instead of re-submitting a message the service
		// may already have accepted.
		switch {
		case errors.Is(msg.Err, pipeline.ErrSendInFlight):
			return m, m.showWarning("Still sending your last message")
		case errors.Is(msg.Err, pipeline.ErrEmptyMessage):
			return m, nil
		default:
			return m, m.showError("Message not sent: " + msg.Err.Error())
		}
	}

	// The pipeline already refetched through the store; pick up the
	// applied snapshot.
	m.messages = m.store.Snapshot(msg.ConversationID)
	m.syncState = components.SyncFresh
	m.lastRefresh = time.Now()
	m.tracker.MarkDirty()
	m.refreshTranscript(true)

	// The send bumped this conversation's recency; refresh the listing so
	// the sidebar ordering follows.
	cmds := []tea.Cmd{loadConversationsCmd(m.client)}
	if cmd := m.ensureThinking(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// SIDEBAR
// =============================================================================

// handleSidebarKey routes navigation keys to the open sidebar. Returns
// handled=false for keys the panel does not consume, which then fall
// through to the normal bindings.
func (m Model) handleSidebarKey(msg tea.KeyMsg, cmds []tea.Cmd) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "ctrl+p":
		m.sidebar.MovePrev()
		return true, m, tea.Batch(cmds...)

	case "down", "ctrl+j":
		m.sidebar.MoveNext()
		return true, m, tea.Batch(cmds...)

	case "enter":
		picked := m.sidebar.Selected()
		m.showSidebar = false
		m.applyBodyLayout(m.viewport.Height)
		if picked == nil || picked.ID == m.conversationID {
			m.refreshTranscript(false)
			return true, m, tea.Batch(cmds...)
		}
		m.openConversation(picked.ID, picked.Title)
		cmds = append(cmds,
			refreshCmd(m.store, picked.ID),
			pollTickCmd(m.currentPollInterval(), picked.ID),
		)
		return true, m, tea.Batch(cmds...)

	case "esc":
		m.showSidebar = false
		m.applyBodyLayout(m.viewport.Height)
		m.refreshTranscript(false)
		return true, m, tea.Batch(cmds...)
	}

	return false, m, nil
}

// =============================================================================
// COMPOSE
// =============================================================================

func (m Model) handleAutoCompose(msg AutoComposeMsg) (tea.Model, tea.Cmd) {
	if isBlank(msg.Text) {
		return m, nil
	}
	if msg.Submit {
		return m.submitContent(normalizeInput(msg.Text))
	}
	m.insertTranscript(msg.Text)
	return m, nil
}

// =============================================================================
// CONFIG
// =============================================================================

// handleConfigReloaded applies the live tunables from an edited config
// file. The new cadence takes effect on the next poll tick; an in-flight
// tick for the old interval fires once more and reschedules at the new one.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Cfg
	if cfg == nil {
		return m, nil
	}
	m.cfg = cfg

	if cfg.Chat.PollIntervalMs > 0 {
		m.pollInterval = time.Duration(cfg.Chat.PollIntervalMs) * time.Millisecond
		m.store.SetPollInterval(m.pollInterval)
	}
	if cfg.Chat.IdlePollIntervalMs > 0 {
		m.idlePoll = time.Duration(cfg.Chat.IdlePollIntervalMs) * time.Millisecond
	}
	if cfg.Chat.FollowupRefreshMs >= 0 {
		m.pipe.SetFollowupDelay(time.Duration(cfg.Chat.FollowupRefreshMs) * time.Millisecond)
	}
	m.showTimestamps = cfg.UI.ShowTimestamps
	m.refreshTranscript(false)
	return m, nil
}

// =============================================================================
// VOICE
// =============================================================================

func (m Model) toggleVoice(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	if m.voiceCtl == nil {
		cmds = append(cmds, m.showWarning("Voice input is not available on this system"))
		return m, tea.Batch(cmds...)
	}
	if m.recording {
		m.voiceCtl.Stop()
		return m, tea.Batch(cmds...)
	}
	cmds = append(cmds, startVoiceCmd(m.voiceCtl))
	return m, tea.Batch(cmds...)
}

func (m Model) handleVoiceSession(msg VoiceSessionMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, voice.ErrAlreadyRecording) {
			return m, nil
		}
		return m, m.showWarning(voice.UserMessage(msg.Err))
	}
	m.recording = true
	return m, awaitVoiceCmd(msg.Results)
}

func (m Model) handleVoiceResult(msg VoiceResultMsg) (tea.Model, tea.Cmd) {
	m.recording = false
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		return m, m.showWarning(voice.UserMessage(msg.Err))
	}
	if msg.Transcript != "" {
		m.insertTranscript(msg.Transcript)
	}
	return m, nil
}

// =============================================================================
// ARCHIVE
// =============================================================================

func (m Model) handleArchiveTick() (tea.Model, tea.Cmd) {
	if m.archive == nil || m.conversationID == "" || len(m.messages) == 0 || !m.tracker.IsDirty() {
		return m, nil
	}
	conv := &model.Conversation{
		ID:        m.conversationID,
		Title:     m.title,
		IsActive:  true,
		UpdatedAt: time.Now(),
		Messages:  m.messages,
	}
	return m, archiveCmd(m.archive, conv)
}

// =============================================================================
// HELPERS
// =============================================================================

// stopCapture ends an active voice session when navigating; the cancelled
// capture's VoiceResultMsg clears the recording flag.
func (m *Model) stopCapture() {
	if m.recording && m.voiceCtl != nil {
		m.voiceCtl.Stop()
	}
}

// ensureThinking starts or stops the typing indicator based on whether an
// assistant reply is outstanding.
func (m *Model) ensureThinking() tea.Cmd {
	waiting := m.sending || m.awaitingReply()
	if waiting && !m.thinking.IsActive() {
		return m.thinking.Start()
	}
	if !waiting && m.thinking.IsActive() {
		m.thinking.Stop()
	}
	return nil
}

func (m *Model) showError(text string) tea.Cmd {
	m.toasts.AddError(text)
	return components.ToastTickCmd()
}

func (m *Model) showWarning(text string) tea.Cmd {
	m.toasts.AddWarning(text)
	return components.ToastTickCmd()
}

func (m *Model) showStatus(text string) tea.Cmd {
	m.toasts.AddStatus(text)
	return components.ToastTickCmd()
}
