// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// commandRecognizer shells out to an external speech-to-text helper that
// records one utterance from the default microphone and prints the
// transcript to stdout.
type commandRecognizer struct {
	path string
	args []string
}

func newCommandRecognizer(path string, args ...string) *commandRecognizer {
	return &commandRecognizer{path: path, args: args}
}

// RequestPermission runs the helper in probe mode so the OS permission
// prompt (where the platform has one) fires before the first real capture.
func (r *commandRecognizer) RequestPermission(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.path, append(r.args, "--probe")...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if isPermissionFailure(out) {
		return ErrPermissionDenied
	}
	// Helpers without a probe mode exit non-zero here; that is not a
	// permission failure. The real capture will surface any actual problem.
	return nil
}

func (r *commandRecognizer) Recognize(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, r.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classify(stderr.Bytes(), err)
	}

	transcript := strings.TrimSpace(stdout.String())
	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

// classify maps helper diagnostics to the error categories the UI knows
// how to present.
func classify(diag []byte, err error) error {
	text := strings.ToLower(string(diag))
	switch {
	case isPermissionFailure(diag):
		return ErrPermissionDenied
	case strings.Contains(text, "no speech"), strings.Contains(text, "silence"):
		return ErrNoSpeech
	case strings.Contains(text, "network"), strings.Contains(text, "connection"),
		strings.Contains(text, "timeout"):
		return ErrNetwork
	default:
		return errors.Join(ErrRecognition, err)
	}
}

func isPermissionFailure(diag []byte) bool {
	text := strings.ToLower(string(diag))
	return strings.Contains(text, "permission") ||
		strings.Contains(text, "not authorized") ||
		strings.Contains(text, "access denied")
}
