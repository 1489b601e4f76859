// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"os/exec"
	"runtime"
)

// Recognizer captures one utterance and returns its transcript.
//
// Implementations must honor context cancellation: a cancelled Recognize
// stops capture and returns ctx.Err(). RequestPermission runs before the
// first capture and must not record audio itself.
type Recognizer interface {
	// RequestPermission acquires microphone access. Called once before the
	// first Recognize; returns ErrPermissionDenied when refused.
	RequestPermission(ctx context.Context) error

	// Recognize records a single utterance and returns its transcript.
	// Returns a classified error (ErrNoSpeech, ErrNetwork, ErrRecognition)
	// on failure.
	Recognize(ctx context.Context) (string, error)
}

// Detect probes for a usable speech backend on this platform. Returns
// ErrUnsupported when none is found so callers can hide the voice
// affordance instead of failing at capture time.
func Detect() (Recognizer, error) {
	// macOS ships a dictation-capable speech synthesis stack; Linux needs a
	// recognition helper on PATH. Either way the actual capture runs through
	// the external tool so the TUI never touches audio devices directly.
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("hear"); err == nil {
			return newCommandRecognizer(path, "--timeout", "8"), nil
		}
	case "linux":
		for _, tool := range []string{"vosk-transcriber", "whisper-stream"} {
			if path, err := exec.LookPath(tool); err == nil {
				return newCommandRecognizer(path), nil
			}
		}
	}
	return nil, ErrUnsupported
}

// FromCommand builds a recognizer around an explicit helper command,
// bypassing platform detection. Used for the config recognizer override.
func FromCommand(path string, args ...string) Recognizer {
	return newCommandRecognizer(path, args...)
}
