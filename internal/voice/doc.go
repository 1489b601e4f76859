// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides single-utterance speech capture for the composer.
//
// A Recognizer backend handles the actual audio capture and transcription;
// the Controller wraps one in a small idle/recording state machine that
// enforces permission-first startup, converts backend failures into
// user-facing error categories, and appends the final transcript to the
// composer without disturbing text already typed there.
//
// Capture is strictly single-utterance: each activation yields at most one
// transcript and the controller returns to idle, whether recognition
// succeeded, failed, or was cancelled.
package voice
