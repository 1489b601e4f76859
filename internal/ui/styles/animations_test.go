// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the cardwise TUI.
package styles

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// SPINNER CONFIG TESTS
// =============================================================================

func TestSpinnerConfigs(t *testing.T) {
	spinners := []struct {
		name   string
		config SpinnerConfig
	}{
		{"LineSpinner", LineSpinner},
		{"DotsSpinner", DotsSpinner},
		{"PulseSpinner", PulseSpinner},
	}

	for _, s := range spinners {
		t.Run(s.name, func(t *testing.T) {
			if len(s.config.Frames) == 0 {
				t.Errorf("%s should have frames", s.name)
			}
			if s.config.FPS <= 0 {
				t.Errorf("%s FPS should be positive", s.name)
			}
		})
	}
}

func TestSpinnerConfigDuration(t *testing.T) {
	tests := []struct {
		name string
		fps  int
		want time.Duration
	}{
		{"6 FPS", 6, time.Second / 6},
		{"8 FPS", 8, time.Second / 8},
		{"10 FPS", 10, time.Second / 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := SpinnerConfig{FPS: tc.fps}
			if got := config.Duration(); got != tc.want {
				t.Errorf("Duration() = %v, want %v", got, tc.want)
			}
		})
	}
}

// =============================================================================
// PROGRESS BAR TESTS
// =============================================================================

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
	}{
		{"empty", 10, 0},
		{"half", 10, 50},
		{"full", 10, 100},
		{"over 100 clamps", 10, 150},
		{"negative clamps", 10, -5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bar := RenderProgressBar(tc.width, tc.percent)
			if len(bar) < tc.width {
				t.Errorf("RenderProgressBar(%d, %v) length = %d, want >= %d",
					tc.width, tc.percent, len(bar), tc.width)
			}
		})
	}
}

func TestRenderProgressBarZeroWidth(t *testing.T) {
	if got := RenderProgressBar(0, 50); got != "" {
		t.Errorf("RenderProgressBar(0, 50) = %q, want empty", got)
	}
	if got := RenderProgressBar(-5, 50); got != "" {
		t.Errorf("RenderProgressBar(-5, 50) = %q, want empty", got)
	}
}

func TestRenderProgressBarFull(t *testing.T) {
	bar := RenderProgressBar(8, 100)
	if bar != strings.Repeat(ProgressFull, 8) {
		t.Errorf("full bar = %q, want all %q", bar, ProgressFull)
	}
}

// =============================================================================
// TREE CONNECTOR TESTS
// =============================================================================

func TestRenderTreeLine(t *testing.T) {
	if got := RenderTreeLine(true); !strings.HasPrefix(got, TreeChars.Corner) {
		t.Errorf("RenderTreeLine(true) = %q, want corner prefix", got)
	}
	if got := RenderTreeLine(false); !strings.HasPrefix(got, TreeChars.Tee) {
		t.Errorf("RenderTreeLine(false) = %q, want tee prefix", got)
	}
}
