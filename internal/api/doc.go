// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the assistant backend.
//
// The backend contract is small and conversation-scoped:
//
//   - GET  /conversations                  - list conversations, newest first
//   - GET  /conversations/{id}/messages    - ordered message array (may be empty)
//   - POST /conversations/{id}/messages    - persist a user message
//   - POST /conversations                  - create a conversation
//
// The client is deliberately defensive about message payloads: a missing,
// null, or malformed-but-empty body is normalized to an empty slice so that
// callers never have to distinguish "no messages yet" from "no array at all".
//
// Reads are retried with exponential backoff on transient failures. Writes
// are never retried - a duplicate POST would persist a duplicate message,
// and the send pipeline's concurrency guard assumes at most one persist
// attempt per call.
package api
