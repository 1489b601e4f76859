// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cardwise TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - Title bar with cardwise branding
// =============================================================================

// Header is the title bar shown above the conversation.
type Header struct {
	Title             string // Main title (default: "cardwise")
	ConversationTitle string // Active conversation title
	ServerURL         string // Backend base URL (shown dimmed)
	Width             int    // Available width
	theme             *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "cardwise",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetConversationTitle updates the active conversation title.
func (h *Header) SetConversationTitle(title string) {
	h.ConversationTitle = title
}

// SetServerURL updates the displayed backend URL.
func (h *Header) SetServerURL(url string) {
	h.ServerURL = url
}

// View renders the header component.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	// Inner width accounts for borders and padding
	innerWidth := width - 6

	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Blue)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	brand := accentStyle.Render("< ") +
		brandStyle.Render(h.Title) +
		accentStyle.Render(" >")

	subtitleParts := []string{}

	if h.ConversationTitle != "" {
		titleStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
		subtitleParts = append(subtitleParts, titleStyle.Render(h.ConversationTitle))
	}

	if h.ServerURL != "" {
		urlStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
		subtitleParts = append(subtitleParts, urlStyle.Render(h.ServerURL))
	}

	subtitle := strings.Join(subtitleParts, " | ")

	brandLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(brand)

	lines := []string{brandLine}
	if subtitle != "" {
		subtitleLine := lipgloss.NewStyle().
			Width(innerWidth).
			Align(lipgloss.Center).
			Foreground(styles.TextMuted).
			Render(subtitle)
		lines = append(lines, subtitleLine)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)

	headerBox := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Background(styles.SurfaceDim).
		Padding(0, 2).
		Width(width)

	return headerBox.Render(content)
}

// ViewCompact renders a compact single-line header for narrow terminals.
func (h *Header) ViewCompact() string {
	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Blue)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	brand := accentStyle.Render("<") +
		brandStyle.Render(h.Title) +
		accentStyle.Render(">")

	parts := []string{brand}

	if h.ConversationTitle != "" {
		titleStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted)
		parts = append(parts, titleStyle.Render(h.ConversationTitle))
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	return strings.Join(parts, separator)
}
