// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline turns composed input into persisted messages.
//
// Two entry points:
//
//   - Pipeline.Send persists a user message to an existing conversation,
//     then drives the store refreshes that will eventually surface the
//     assistant's reply. At most one send is in flight per conversation;
//     rapid double-submission is rejected, not queued.
//
//   - Bootstrap.StartWithMessage covers the "no conversation yet" path:
//     create a conversation, forward the first message into Send, then
//     navigate the view to the new conversation. Conversation starters
//     (fixed prompt shortcuts) go through exactly the same path as typed
//     input.
//
// The pipeline never inserts messages into the view optimistically. The
// persisted message only ever appears via a store refresh, so the rendered
// order always matches the backend's authoritative order.
package pipeline
