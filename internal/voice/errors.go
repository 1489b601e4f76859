// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import "errors"

// Recognition failures are classified so the UI can show a category-specific
// message instead of a raw backend error. Unclassified failures fall through
// to the generic bucket.
var (
	// ErrUnsupported indicates no speech backend is available on this
	// platform. The UI hides the voice affordance entirely.
	ErrUnsupported = errors.New("voice input not supported on this platform")

	// ErrPermissionDenied indicates microphone access was refused.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrNoSpeech indicates the utterance window closed without detecting
	// any speech.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrNetwork indicates the recognition service was unreachable.
	ErrNetwork = errors.New("speech recognition network error")

	// ErrRecognition is the generic recognition failure.
	ErrRecognition = errors.New("speech recognition failed")

	// ErrAlreadyRecording indicates an activation while a capture is in
	// progress.
	ErrAlreadyRecording = errors.New("already recording")
)

// UserMessage maps a recognition error to the text shown in the error toast.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access was denied. Enable microphone permissions and try again."
	case errors.Is(err, ErrNoSpeech):
		return "No speech was detected. Try speaking again."
	case errors.Is(err, ErrNetwork):
		return "Speech recognition needs a network connection. Check your connection and try again."
	case errors.Is(err, ErrUnsupported):
		return "Voice input is not supported on this system."
	default:
		return "Speech recognition failed. Try again or type your message."
	}
}
