// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// These types mirror the assistant backend's wire format exactly: a
// Conversation owns an ordered, append-only sequence of Messages, each
// authored by either the user or the assistant. Assistant messages may carry
// Actions (document links, saved searches, exports) rendered as chips under
// the message bubble.
//
// Invariants enforced here:
//   - a message's role never changes after creation
//   - message IDs are unique within a conversation
//   - insertion order is display order
package model
