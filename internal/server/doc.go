// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local development message service.
//
// `cardwise serve` runs this service so the TUI has a working backend
// without the production assistant deployment. Conversations and messages
// persist in a sqlite database; each user message triggers a canned
// assistant reply after a configurable delay, which exercises the client's
// poll-refresh path the same way the real assistant does.
//
// Endpoints:
//   - GET  /conversations                    - list conversations
//   - POST /conversations                    - create a conversation
//   - GET  /conversations/{id}/messages      - ordered message sequence
//   - POST /conversations/{id}/messages      - append a user message
//   - GET  /health                           - health check
package server
