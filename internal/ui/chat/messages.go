// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message vocabulary for the chat view.
// Messages are grouped by concern:
//
//   - Refresh:   PollTickMsg, RefreshResultMsg
//   - Send:      SendResultMsg
//   - Bootstrap: ConversationsLoadedMsg, BootstrapResultMsg
//   - Voice:     VoiceSessionMsg, VoiceResultMsg
//   - Archive:   ArchiveSavedMsg
//   - Compose:   AutoComposeMsg
//   - Config:    ConfigReloadedMsg
//
// Every message that carries asynchronous results is tagged with the
// conversation ID it was produced for. The update loop drops results whose
// tag no longer matches the active conversation, so a slow response from a
// conversation the user already left can never touch the visible transcript.
package chat

import (
	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// =============================================================================
// REFRESH MESSAGES
// =============================================================================

// PollTickMsg fires on the poll cadence for the tagged conversation.
type PollTickMsg struct {
	ConversationID string
}

// RefreshResultMsg carries the outcome of one background fetch.
// Messages is the full ordered transcript on success, nil on failure.
type RefreshResultMsg struct {
	ConversationID string
	Messages       []*model.Message
	Err            error
}

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendResultMsg carries the outcome of a send attempt. A failure surfaces
// as a toast only; the submitted text is not echoed back into the composer.
type SendResultMsg struct {
	ConversationID string
	Err            error
}

// =============================================================================
// BOOTSTRAP MESSAGES
// =============================================================================

// ConversationsLoadedMsg carries the startup conversation listing.
type ConversationsLoadedMsg struct {
	Metas []model.ConversationMeta
	Err   error
}

// BootstrapResultMsg carries the outcome of creating a conversation and
// sending its first message. Like SendResultMsg, a failure is toast-only.
type BootstrapResultMsg struct {
	ConversationID string
	Title          string
	Err            error
}

// StarterChosenMsg is emitted when the user selects a conversation starter
// on the landing screen.
type StarterChosenMsg struct {
	Starter pipeline.Starter
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// VoiceSessionMsg carries the result channel for a capture that just
// started, or the error that prevented it from starting.
type VoiceSessionMsg struct {
	Results <-chan voice.Result
	Err     error
}

// VoiceResultMsg carries the final transcript (or classified failure) of a
// single-utterance capture.
type VoiceResultMsg struct {
	Transcript string
	Err        error
}

// =============================================================================
// COMPOSE MESSAGES
// =============================================================================

// AutoComposeMsg inserts externally produced text into the composer, the
// same way a voice transcript lands. Collaborators outside the view (a
// statement analyzer, a proposal generator) push it through the running
// program with AutoComposeCmd; when Submit is set the text is sent
// immediately instead of waiting for the user.
type AutoComposeMsg struct {
	Text   string
	Submit bool
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a freshly reloaded configuration from the file
// watcher. Only the live tunables (poll cadence, followup refresh delay)
// are applied; collaborators built at startup keep their wiring.
type ConfigReloadedMsg struct {
	Cfg *config.Config
}

// =============================================================================
// ARCHIVE MESSAGES
// =============================================================================

// ArchiveSavedMsg reports a background transcript archive write.
type ArchiveSavedMsg struct {
	ConversationID string
	Err            error
}
