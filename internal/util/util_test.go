// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"empty string", "", 10, ""},
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"negative max", "hello", -1, ""},
		{"max of three", "hello", 3, "hel"},
		{"unicode preserved", "héllo wörld", 8, "héllo..."},
		{"cjk preserved", "こんにちは世界", 5, "こん..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	// CJK characters are two columns wide, so five of them do not fit
	// in eight columns without truncation.
	got := TruncateWidth("こんにちは", 8)
	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth produced width %d, want <= 8", StringWidth(got))
	}

	if got := TruncateWidth("hello", 10); got != "hello" {
		t.Errorf("TruncateWidth(hello, 10) = %q, want unchanged", got)
	}
	if got := TruncateWidth("hello", 0); got != "" {
		t.Errorf("TruncateWidth(hello, 0) = %q, want empty", got)
	}
}

func TestStringWidth(t *testing.T) {
	if w := StringWidth("abc"); w != 3 {
		t.Errorf("StringWidth(abc) = %d, want 3", w)
	}
	if w := StringWidth("日本"); w != 4 {
		t.Errorf("StringWidth(日本) = %d, want 4", w)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight(ab, 5) = %q", got)
	}
	if got := PadRight("abcdef", 5); got != "abcdef" {
		t.Errorf("PadRight should not truncate, got %q", got)
	}
}

// =============================================================================
// CONVERT TESTS
// =============================================================================

func TestIntToString(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
	}
	for _, tt := range tests {
		if got := IntToString(tt.input); got != tt.want {
			t.Errorf("IntToString(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFloatToString(t *testing.T) {
	if got := FloatToString(1.5); got != "1.50" {
		t.Errorf("FloatToString(1.5) = %q, want 1.50", got)
	}
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.json")

	data := []byte(`{"hello":"world"}`)
	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("file content = %q, want %q", got, data)
	}

	// Overwrite replaces content fully
	if err := AtomicWriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile overwrite failed: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "x" {
		t.Errorf("file content after overwrite = %q, want x", got)
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "file.json" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}
