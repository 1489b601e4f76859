// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the asynchronous commands the chat view issues. Each
// command captures its collaborators before returning the closure; the
// closure runs off the update loop and must not touch the model.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/storage"
	"github.com/cardwise/cardwise-tui/internal/store"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// Per-command deadlines. Reads get a tighter budget than the send path,
// which includes the immediate post-send refetch.
const (
	refreshTimeout   = 8 * time.Second
	sendTimeout      = 15 * time.Second
	bootstrapTimeout = 15 * time.Second
)

// =============================================================================
// REFRESH COMMANDS
// =============================================================================

// pollTickCmd schedules the next poll tick for conversationID.
func pollTickCmd(interval time.Duration, conversationID string) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return PollTickMsg{ConversationID: conversationID}
	})
}

// refreshCmd fetches the transcript for conversationID through the store.
// The store applies the result itself; the returned message carries the
// fetched slice so the view can re-render without another snapshot.
func refreshCmd(st *store.Store, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		msgs, err := st.Load(ctx, conversationID)
		return RefreshResultMsg{
			ConversationID: conversationID,
			Messages:       msgs,
			Err:            err,
		}
	}
}

// =============================================================================
// SEND COMMANDS
// =============================================================================

// sendCmd submits content through the send pipeline. The pipeline owns the
// in-flight guard, the cache invalidation, and the post-send refetch.
func sendCmd(p *pipeline.Pipeline, conversationID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		err := p.Send(ctx, conversationID, content)
		return SendResultMsg{
			ConversationID: conversationID,
			Err:            err,
		}
	}
}

// =============================================================================
// BOOTSTRAP COMMANDS
// =============================================================================

// loadConversationsCmd fetches the conversation listing at startup.
func loadConversationsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		metas, err := client.Conversations(ctx)
		return ConversationsLoadedMsg{Metas: metas, Err: err}
	}
}

// bootstrapCmd creates a conversation and sends content as its first
// message. Used when the user submits with no conversation open.
func bootstrapCmd(b *pipeline.Bootstrap, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()

		id, err := b.StartWithMessage(ctx, content)
		return BootstrapResultMsg{
			ConversationID: id,
			Title:          model.DefaultTitle,
			Err:            err,
		}
	}
}

// =============================================================================
// COMPOSE COMMANDS
// =============================================================================

// AutoComposeCmd builds the command external collaborators use to place
// text into the composer of a running chat view.
func AutoComposeCmd(text string, submit bool) tea.Cmd {
	return func() tea.Msg {
		return AutoComposeMsg{Text: text, Submit: submit}
	}
}

// =============================================================================
// VOICE COMMANDS
// =============================================================================

// startVoiceCmd begins a single-utterance capture. On success the returned
// message carries the channel the capture result will arrive on.
func startVoiceCmd(c *voice.Controller) tea.Cmd {
	return func() tea.Msg {
		results, err := c.Start(context.Background())
		return VoiceSessionMsg{Results: results, Err: err}
	}
}

// awaitVoiceCmd blocks on the capture result channel. The controller
// guarantees exactly one result per capture, so this cannot leak.
func awaitVoiceCmd(results <-chan voice.Result) tea.Cmd {
	return func() tea.Msg {
		r := <-results
		return VoiceResultMsg{Transcript: r.Transcript, Err: r.Err}
	}
}

// =============================================================================
// ARCHIVE COMMANDS
// =============================================================================

// archiveCmd writes the conversation transcript to the local archive.
func archiveCmd(a *storage.Archive, conv *model.Conversation) tea.Cmd {
	return func() tea.Msg {
		err := a.Save(conv)
		return ArchiveSavedMsg{ConversationID: conv.ID, Err: err}
	}
}
