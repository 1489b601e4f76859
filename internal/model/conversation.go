// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DefaultTitle is the placeholder title used when a conversation is created
// before its first message arrives.
const DefaultTitle = "New Chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a named, ordered thread of messages.
//
// The authoritative message sequence lives on the backend; Messages here is
// the client-side view of it and is only ever replaced wholesale by a refresh,
// never edited in place.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Messages []*Message `json:"messages,omitempty"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Title:     DefaultTitle,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// SetMessages replaces the client-side view of the message sequence.
func (c *Conversation) SetMessages(msgs []*Message) {
	if msgs == nil {
		msgs = make([]*Message, 0)
	}
	c.Messages = msgs
	c.UpdatedAt = time.Now()
	c.updateTitle()
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastAssistantMessage returns the most recent assistant message.
func (c *Conversation) LastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// FirstUserMessage returns the oldest user message.
func (c *Conversation) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle derives a title from the first user message while the
// conversation still carries the placeholder title.
func (c *Conversation) updateTitle() {
	if c.Title != "" && c.Title != DefaultTitle {
		return
	}
	if first := c.FirstUserMessage(); first != nil {
		c.Title = first.Preview(50)
	}
}

// GetTitle returns the conversation title or the placeholder default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// Preview returns a short preview of the conversation for list displays.
func (c *Conversation) Preview() string {
	first := c.FirstUserMessage()
	if first == nil {
		return "Empty conversation"
	}
	return first.Preview(80)
}

// =============================================================================
// METADATA
// =============================================================================

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	IsActive     bool      `json:"isActive"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Preview      string    `json:"preview"`
}

// Meta returns metadata about the conversation.
func (c *Conversation) Meta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		Title:        c.GetTitle(),
		IsActive:     c.IsActive,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Preview:      c.Preview(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
