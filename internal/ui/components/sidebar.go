// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cardwise TUI.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
	"github.com/cardwise/cardwise-tui/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT - Conversation list panel
// =============================================================================

// sidebarWidth is the fixed panel width including border and padding.
const sidebarWidth = 30

// Sidebar lists recent conversations next to the transcript. The listing
// arrives most-recently-updated first and the panel preserves that order;
// the open conversation is marked, the highlighted row is the navigation
// target.
type Sidebar struct {
	convs    []model.ConversationMeta
	selected int
	current  string // open conversation ID
	height   int
	theme    *styles.Theme
}

// NewSidebar creates an empty conversation sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{
		height: 10,
		theme:  theme,
	}
}

// SetConversations replaces the listing. The selection tracks the open
// conversation when it is present, otherwise it clamps into range.
func (s *Sidebar) SetConversations(convs []model.ConversationMeta) {
	s.convs = convs
	if i := s.indexOf(s.current); i >= 0 {
		s.selected = i
		return
	}
	if s.selected >= len(convs) {
		s.selected = len(convs) - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
}

// SetCurrent marks conversationID as the open conversation.
func (s *Sidebar) SetCurrent(conversationID string) {
	s.current = conversationID
	if i := s.indexOf(conversationID); i >= 0 {
		s.selected = i
	}
}

// SetHeight updates the panel height.
func (s *Sidebar) SetHeight(height int) {
	s.height = height
}

// Width returns the panel's rendered width.
func (s *Sidebar) Width() int {
	return sidebarWidth
}

// Count returns the number of listed conversations.
func (s *Sidebar) Count() int {
	return len(s.convs)
}

// Selected returns the highlighted conversation, or nil when empty.
func (s *Sidebar) Selected() *model.ConversationMeta {
	if len(s.convs) == 0 {
		return nil
	}
	return &s.convs[s.selected]
}

// MoveNext advances the highlight, wrapping at the end.
func (s *Sidebar) MoveNext() {
	if len(s.convs) == 0 {
		return
	}
	s.selected = (s.selected + 1) % len(s.convs)
}

// MovePrev moves the highlight back, wrapping at the start.
func (s *Sidebar) MovePrev() {
	if len(s.convs) == 0 {
		return
	}
	s.selected = (s.selected - 1 + len(s.convs)) % len(s.convs)
}

func (s *Sidebar) indexOf(conversationID string) int {
	if conversationID == "" {
		return -1
	}
	for i := range s.convs {
		if s.convs[i].ID == conversationID {
			return i
		}
	}
	return -1
}

// View renders the panel.
func (s *Sidebar) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	lines := []string{titleStyle.Render("Conversations"), ""}

	if len(s.convs) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("No conversations yet"))
	} else {
		// Border and padding take four columns; the marker takes two.
		rowWidth := sidebarWidth - 6
		visible := s.height - 4
		if visible < 1 {
			visible = 1
		}
		start := s.scrollStart(visible)
		for i := start; i < len(s.convs) && i < start+visible; i++ {
			lines = append(lines, s.renderRow(&s.convs[i], i == s.selected, rowWidth))
		}
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		Width(sidebarWidth).
		Height(s.height - 2)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// scrollStart keeps the highlighted row inside the visible window.
func (s *Sidebar) scrollStart(visible int) int {
	if s.selected < visible {
		return 0
	}
	return s.selected - visible + 1
}

func (s *Sidebar) renderRow(conv *model.ConversationMeta, highlighted bool, width int) string {
	marker := "  "
	if conv.ID == s.current {
		marker = lipgloss.NewStyle().Foreground(styles.Blue).Render("> ")
	}

	title := conv.Title
	if title == "" {
		title = model.DefaultTitle
	}
	count := fmt.Sprintf(" (%d)", conv.MessageCount)
	title = util.TruncateRunes(title, width-len(count))

	rowStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	if highlighted {
		rowStyle = rowStyle.
			Foreground(styles.TextPrimary).
			Bold(true).
			Background(styles.SurfaceBright)
	}

	return marker + rowStyle.Render(title) + countStyle.Render(count)
}
