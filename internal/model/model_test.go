// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID should start with 'msg_', got %q", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if msg.HasActions() {
		t.Error("a fresh user message should have no actions")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		msg := NewUserMessage("x")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hi", 50, "hi"},
		{"truncated", strings.Repeat("a", 60), 50, strings.Repeat("a", 47) + "..."},
		{"newlines flattened", "line one\nline two", 50, "line one line two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewUserMessage(tt.content)
			if got := msg.Preview(tt.maxLen); got != tt.want {
				t.Errorf("Preview = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoleDisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser display = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("RoleAssistant display = %q", RoleAssistant.DisplayName())
	}
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("user and assistant roles must be valid")
	}
	if Role("system").Valid() {
		t.Error("unknown roles must not validate")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()

	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID should start with 'conv_', got %q", conv.ID)
	}
	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, DefaultTitle)
	}
	if !conv.IsActive {
		t.Error("new conversations start active")
	}
	if !conv.IsEmpty() {
		t.Error("new conversations start empty")
	}
	if conv.Messages == nil {
		t.Error("Messages must be non-nil even when empty")
	}
}

func TestConversationSetMessages(t *testing.T) {
	conv := NewConversation()

	msgs := []*Message{
		NewUserMessage("What are typical interchange rates?"),
		NewMessage(RoleAssistant, "Interchange varies by card type..."),
	}
	conv.SetMessages(msgs)

	if conv.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", conv.MessageCount())
	}
	if conv.LastMessage().Role != RoleAssistant {
		t.Error("LastMessage should be the assistant reply")
	}
	if conv.FirstUserMessage().Content != "What are typical interchange rates?" {
		t.Errorf("FirstUserMessage = %q", conv.FirstUserMessage().Content)
	}

	// Title derives from the first user message once one exists.
	if conv.Title == DefaultTitle {
		t.Error("title should derive from the first user message")
	}

	// A nil replacement normalizes to an empty, non-nil slice.
	conv.SetMessages(nil)
	if conv.Messages == nil {
		t.Error("SetMessages(nil) must leave a non-nil empty slice")
	}
	if !conv.IsEmpty() {
		t.Error("conversation should be empty after nil replacement")
	}
}

func TestConversationTitlePreserved(t *testing.T) {
	conv := NewConversation()
	conv.Title = "Renamed by user"

	conv.SetMessages([]*Message{NewUserMessage("hello")})
	if conv.Title != "Renamed by user" {
		t.Errorf("explicit titles must not be overwritten, got %q", conv.Title)
	}
}

func TestConversationLastAssistantMessage(t *testing.T) {
	conv := NewConversation()
	if conv.LastAssistantMessage() != nil {
		t.Error("empty conversation has no assistant message")
	}

	conv.SetMessages([]*Message{
		NewUserMessage("q1"),
		NewMessage(RoleAssistant, "a1"),
		NewUserMessage("q2"),
	})
	got := conv.LastAssistantMessage()
	if got == nil || got.Content != "a1" {
		t.Errorf("LastAssistantMessage = %v, want a1", got)
	}
}

func TestConversationMeta(t *testing.T) {
	conv := NewConversation()
	conv.SetMessages([]*Message{NewUserMessage("Compare TracerPay with my current processor")})

	meta := conv.Meta()
	if meta.ID != conv.ID {
		t.Errorf("meta ID = %q, want %q", meta.ID, conv.ID)
	}
	if meta.MessageCount != 1 {
		t.Errorf("meta MessageCount = %d, want 1", meta.MessageCount)
	}
	if meta.Preview == "" {
		t.Error("meta Preview should not be empty")
	}
}
