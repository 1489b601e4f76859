// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/cardwise/cardwise-tui/internal/pipeline"
)

func TestStarterGridSelection(t *testing.T) {
	grid := NewStarterGrid(testTheme())

	if grid.Count() != 4 {
		t.Fatalf("expected 4 starters, got %d", grid.Count())
	}

	first := grid.Selected()

	grid.MoveNext()
	if grid.Selected() == first {
		t.Error("MoveNext should change the selection")
	}

	grid.MovePrev()
	if grid.Selected() != first {
		t.Error("MovePrev should return to the first starter")
	}

	// Wrap-around in both directions
	grid.MovePrev()
	last := grid.Selected()
	grid.MoveNext()
	if grid.Selected() != first {
		t.Error("MoveNext from last should wrap to first")
	}
	if last != pipeline.Starters()[3] {
		t.Error("MovePrev from first should wrap to last")
	}
}

func TestStarterGridSelectClamps(t *testing.T) {
	grid := NewStarterGrid(testTheme())

	grid.Select(-1)
	if grid.Selected() != pipeline.Starters()[0] {
		t.Error("Select(-1) should clamp to the first starter")
	}

	grid.Select(99)
	if grid.Selected() != pipeline.Starters()[3] {
		t.Error("Select(99) should clamp to the last starter")
	}
}

func TestStarterGridViewContainsTitles(t *testing.T) {
	grid := NewStarterGrid(testTheme())
	grid.SetWidth(110)

	out := grid.View()
	for _, starter := range pipeline.Starters() {
		if !strings.Contains(out, starter.Title) {
			t.Errorf("grid view should contain starter title %q", starter.Title)
		}
	}
}

func TestStarterGridNarrowLayout(t *testing.T) {
	grid := NewStarterGrid(testTheme())
	grid.SetWidth(50)

	out := grid.View()
	if out == "" {
		t.Error("narrow layout should still render")
	}
	if !strings.Contains(out, pipeline.Starters()[0].Title) {
		t.Error("narrow layout should contain the first starter")
	}
}
