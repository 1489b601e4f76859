// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation view: the message transcript,
// the composer with voice capture, the starter landing screen, and the
// background refresh loop that keeps the transcript in sync with the
// message service.
//
// The package is organized by concern:
//
//   - model.go:    the Bubble Tea model and construction
//   - update.go:   message dispatch and state transitions
//   - view.go:     rendering for every screen state
//   - commands.go: async commands (refresh, send, bootstrap, voice)
//   - messages.go: the Bubble Tea message vocabulary
//   - input.go:    composer handling and submission
//   - keys.go:     key bindings and the help overlay data
package chat
