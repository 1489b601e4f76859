// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cardwise TUI.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// =============================================================================
// STARTER GRID COMPONENT - Landing view conversation starters
// =============================================================================

// StarterGrid renders the conversation starter cards shown when no
// conversation is active. Arrow keys move the selection; Enter submits the
// selected starter's prompt verbatim.
type StarterGrid struct {
	starters []pipeline.Starter
	selected int
	width    int
	theme    *styles.Theme
}

// NewStarterGrid creates a starter grid over the fixed starter set.
func NewStarterGrid(theme *styles.Theme) *StarterGrid {
	return &StarterGrid{
		starters: pipeline.Starters(),
		width:    80,
		theme:    theme,
	}
}

// SetWidth updates the grid width.
func (g *StarterGrid) SetWidth(width int) {
	g.width = width
}

// Selected returns the currently highlighted starter.
func (g *StarterGrid) Selected() pipeline.Starter {
	return g.starters[g.selected]
}

// Count returns the number of starters.
func (g *StarterGrid) Count() int {
	return len(g.starters)
}

// MoveNext advances the selection, wrapping at the end.
func (g *StarterGrid) MoveNext() {
	g.selected = (g.selected + 1) % len(g.starters)
}

// MovePrev moves the selection back, wrapping at the start.
func (g *StarterGrid) MovePrev() {
	g.selected = (g.selected - 1 + len(g.starters)) % len(g.starters)
}

// Select sets the selection index directly (clamped).
func (g *StarterGrid) Select(i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(g.starters) {
		i = len(g.starters) - 1
	}
	g.selected = i
}

// View renders the starter cards.
// Wide terminals get a 2x2 grid; narrow terminals stack the cards.
func (g *StarterGrid) View() string {
	if g.width < 70 {
		return g.viewStacked()
	}
	return g.viewGrid()
}

// viewGrid renders a 2x2 card grid.
func (g *StarterGrid) viewGrid() string {
	cardWidth := (g.width - 12) / 2
	if cardWidth > 40 {
		cardWidth = 40
	}
	if cardWidth < 24 {
		cardWidth = 24
	}

	cards := make([]string, len(g.starters))
	for i, starter := range g.starters {
		cards[i] = g.renderCard(starter, i == g.selected, cardWidth)
	}

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1])
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3])

	grid := lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow)

	return lipgloss.NewStyle().
		Width(g.width).
		Align(lipgloss.Center).
		Render(grid)
}

// viewStacked renders the cards in a single column.
func (g *StarterGrid) viewStacked() string {
	cardWidth := g.width - 8
	if cardWidth < 24 {
		cardWidth = 24
	}

	cards := make([]string, len(g.starters))
	for i, starter := range g.starters {
		cards[i] = g.renderCard(starter, i == g.selected, cardWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// renderCard renders a single starter card.
func (g *StarterGrid) renderCard(starter pipeline.Starter, selected bool, width int) string {
	accent := styles.AccentColor(starter.Accent)

	iconStyle := lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	promptStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Width(width - 6)

	title := iconStyle.Render(starter.Icon) + " " + titleStyle.Render(starter.Title)
	prompt := promptStyle.Render(starter.Prompt)

	content := lipgloss.JoinVertical(lipgloss.Left, title, prompt)

	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2).
		Margin(0, 1).
		Width(width)

	if selected {
		cardStyle = cardStyle.
			BorderForeground(accent).
			Background(styles.SurfaceBright)
	}

	return cardStyle.Render(content)
}
