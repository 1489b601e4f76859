// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// Creator provisions a new conversation. *api.Client satisfies this.
type Creator interface {
	CreateConversation(ctx context.Context, title string, isActive bool) (*model.Conversation, error)
}

// BootstrapError reports a partial bootstrap failure: the conversation
// exists but the initial message did not reach it.
type BootstrapError struct {
	ConversationID string
	Err            error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("conversation %s created but initial message failed: %v", e.ConversationID, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// =============================================================================
// CONVERSATION BOOTSTRAP
// =============================================================================

// Bootstrap handles message submission when no conversation exists yet.
//
// A delegate, when present, owns conversation provisioning (the app shell
// creates the conversation and routes the message itself). Without one,
// Bootstrap falls back to creating a conversation directly and sending the
// message through the regular pipeline, then reports the new id so the
// caller can navigate to it.
type Bootstrap struct {
	creator  Creator
	pipeline *Pipeline

	// delegate, when non-nil, takes over the whole operation.
	delegate func(ctx context.Context, content string) (conversationID string, err error)
}

// NewBootstrap creates a bootstrap over the given creator and send pipeline.
func NewBootstrap(creator Creator, pipeline *Pipeline) *Bootstrap {
	return &Bootstrap{creator: creator, pipeline: pipeline}
}

// SetDelegate installs an external conversation provisioner. Pass nil to
// restore the built-in fallback.
func (b *Bootstrap) SetDelegate(fn func(ctx context.Context, content string) (string, error)) {
	b.delegate = fn
}

// StartWithMessage creates a conversation seeded with content and returns the
// new conversation's id for navigation.
//
// Starter selections go through this exact path: a starter is nothing more
// than pre-filled content, indistinguishable from typed input from here on.
func (b *Bootstrap) StartWithMessage(ctx context.Context, content string) (string, error) {
	if content == "" {
		return "", ErrEmptyMessage
	}

	if b.delegate != nil {
		id, err := b.delegate(ctx, content)
		if err != nil {
			return "", fmt.Errorf("failed to start conversation: %w", err)
		}
		return id, nil
	}

	conv, err := b.creator.CreateConversation(ctx, model.DefaultTitle, true)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	if err := b.pipeline.Send(ctx, conv.ID, content); err != nil {
		// The conversation exists; surface its id so the caller can still
		// navigate there and let the user retry the message.
		return conv.ID, &BootstrapError{ConversationID: conv.ID, Err: err}
	}

	return conv.ID, nil
}
