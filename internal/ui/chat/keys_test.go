// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
)

func TestDefaultKeyMapBindingsEnabled(t *testing.T) {
	k := DefaultKeyMap()

	bindings := map[string]interface{ Enabled() bool }{
		"PageUp":     k.PageUp,
		"PageDown":   k.PageDown,
		"Top":        k.Top,
		"Bottom":     k.Bottom,
		"Submit":     k.Submit,
		"Voice":      k.Voice,
		"NewChat":    k.NewChat,
		"Timestamps": k.Timestamps,
		"Help":       k.Help,
		"Quit":       k.Quit,
	}

	for name, b := range bindings {
		if !b.Enabled() {
			t.Errorf("binding %s should be enabled", name)
		}
	}
}

func TestShortHelpIsSubsetOfFullHelp(t *testing.T) {
	k := DefaultKeyMap()

	if len(k.ShortHelp()) == 0 {
		t.Fatal("short help should not be empty")
	}

	full := 0
	for _, group := range k.FullHelp() {
		full += len(group)
	}
	if full < len(k.ShortHelp()) {
		t.Error("full help should contain at least the short help bindings")
	}
}

func TestGetHelpItemsForContext(t *testing.T) {
	tests := []struct {
		ctx      HelpContext
		wantKey  string
		skipKey  string
	}{
		{ContextLanding, "Tab/arrows", "C-n"},
		{ContextChat, "C-n", "Tab/arrows"},
		{ContextRecording, "C-v/Esc", "PgUp/C-u"},
	}

	for _, tt := range tests {
		t.Run(string(tt.ctx), func(t *testing.T) {
			items := GetHelpItemsForContext(tt.ctx)
			if len(items) == 0 {
				t.Fatalf("no help items for context %s", tt.ctx)
			}

			keys := make(map[string]bool, len(items))
			for _, item := range items {
				keys[item.Key] = true
			}
			if !keys[tt.wantKey] {
				t.Errorf("context %s should include %q", tt.ctx, tt.wantKey)
			}
			if keys[tt.skipKey] {
				t.Errorf("context %s should not include %q", tt.ctx, tt.skipKey)
			}
		})
	}
}

func TestEveryContextHasQuit(t *testing.T) {
	for _, ctx := range []HelpContext{ContextLanding, ContextChat, ContextRecording} {
		found := false
		for _, item := range GetHelpItemsForContext(ctx) {
			if item.Key == "C-c" {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("context %s is missing the quit binding", ctx)
		}
	}
}
