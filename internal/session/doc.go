// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks user activity for the running app session.
//
// The tracker's main job is gating the background poll loop: while the user
// is interacting, conversations refresh on the regular cadence; after the
// idle threshold passes, polling drops to a slower cadence to stop hammering
// the message service from an abandoned terminal. Any input restores the
// active cadence immediately.
//
// It also drives transcript auto-archiving: the chat model marks the session
// dirty after message changes and the tracker decides when the archive
// write is due.
package session
