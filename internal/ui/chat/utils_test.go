// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"zero width", "hello", 0, ""},
		{"negative width", "hello", -1, ""},
		{"tiny width", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.input, tt.maxWidth)
			if got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncateTextWideRunes(t *testing.T) {
	// CJK runes occupy two cells each; truncation must count cells.
	got := truncateText("日本語のテキスト", 9)
	if strings.Contains(got, "テキスト") {
		t.Errorf("expected wide-rune truncation, got %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"trims whitespace", "  hello  ", "hello"},
		{"keeps interior newline", "line one\nline two", "line one\nline two"},
		{"keeps tabs", "a\tb", "a\tb"},
		{"strips control chars", "he\x07llo\x1b[0m", "hello[0m"},
		{"strips delete", "he\x7fllo", "hello"},
		{"all whitespace", "   \n  ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeInput(tt.input)
			if got != tt.want {
				t.Errorf("normalizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	if !isBlank("") || !isBlank("   ") || !isBlank("\n\t") {
		t.Error("whitespace-only strings should be blank")
	}
	if isBlank("x") || isBlank("  x  ") {
		t.Error("strings with content should not be blank")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
