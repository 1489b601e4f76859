// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/cardwise/cardwise-tui/internal/model"
)

func sidebarMetas() []model.ConversationMeta {
	return []model.ConversationMeta{
		{ID: "c3", Title: "Proposal draft", MessageCount: 8},
		{ID: "c2", Title: "Rate review", MessageCount: 3},
		{ID: "c1", Title: "Marketing ideas", MessageCount: 12},
	}
}

func TestSidebarSelectionWraps(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetConversations(sidebarMetas())

	if s.Selected().ID != "c3" {
		t.Errorf("initial selection = %q, want first row", s.Selected().ID)
	}

	s.MoveNext()
	s.MoveNext()
	s.MoveNext()
	if s.Selected().ID != "c3" {
		t.Errorf("selection after full cycle = %q, want c3", s.Selected().ID)
	}

	s.MovePrev()
	if s.Selected().ID != "c1" {
		t.Errorf("selection after wrap-back = %q, want c1", s.Selected().ID)
	}
}

func TestSidebarTracksCurrentConversation(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetCurrent("c2")
	s.SetConversations(sidebarMetas())

	if s.Selected().ID != "c2" {
		t.Errorf("selection = %q, want the open conversation", s.Selected().ID)
	}

	// A refreshed listing keeps following the open conversation even when
	// its position changes.
	s.SetConversations([]model.ConversationMeta{
		{ID: "c2", Title: "Rate review", MessageCount: 4},
		{ID: "c3", Title: "Proposal draft", MessageCount: 8},
	})
	if s.Selected().ID != "c2" {
		t.Errorf("selection after refresh = %q, want c2", s.Selected().ID)
	}
}

func TestSidebarSelectionClampsOnShrink(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetConversations(sidebarMetas())
	s.MoveNext()
	s.MoveNext()

	s.SetConversations(sidebarMetas()[:1])

	if s.Selected().ID != "c3" {
		t.Errorf("selection = %q, want the only remaining row", s.Selected().ID)
	}
}

func TestSidebarEmptyListing(t *testing.T) {
	s := NewSidebar(testTheme())

	if s.Selected() != nil {
		t.Error("empty sidebar has no selection")
	}
	s.MoveNext() // must not panic
	if !strings.Contains(s.View(), "No conversations") {
		t.Error("empty sidebar should say so")
	}
}

func TestSidebarViewMarksOpenConversation(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetConversations(sidebarMetas())
	s.SetCurrent("c2")
	s.SetHeight(20)

	view := s.View()
	if !strings.Contains(view, "Rate review") {
		t.Error("view should list conversation titles")
	}
	if !strings.Contains(view, ">") {
		t.Error("view should mark the open conversation")
	}
}
