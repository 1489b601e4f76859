// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cardwise TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom sync and activity bar
// =============================================================================

// SyncState describes the freshness of the local message store.
type SyncState int

const (
	// SyncFresh - last refresh succeeded within the poll window
	SyncFresh SyncState = iota
	// SyncStale - a refresh is overdue or in flight
	SyncStale
	// SyncFailed - the last refresh attempt errored
	SyncFailed
	// SyncOffline - the backend is unreachable
	SyncOffline
)

// String returns the display string for the sync state.
func (s SyncState) String() string {
	switch s {
	case SyncFresh:
		return "Synced"
	case SyncStale:
		return "Syncing"
	case SyncFailed:
		return "Sync failed"
	case SyncOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the sync state.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users.
func (s SyncState) Icon() string {
	switch s {
	case SyncFresh:
		return styles.StatusIndicators.Success
	case SyncStale:
		return styles.StatusIndicators.Pending
	case SyncFailed:
		return styles.StatusIndicators.Error
	case SyncOffline:
		return styles.StatusIndicators.Warning
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar showing sync freshness, send activity,
// and keyboard shortcuts.
type StatusBar struct {
	Sync          SyncState // Store freshness
	LastRefresh   time.Time // When the store last refreshed successfully
	SendPending   bool      // A send is in flight
	Recording     bool      // The microphone is live
	MessageCount  int       // Messages in the active conversation
	Width         int       // Available width
	ShowShortcuts bool      // Show keyboard shortcuts
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Sync:          SyncStale,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetSync updates the sync state and refresh time.
func (s *StatusBar) SetSync(state SyncState, lastRefresh time.Time) {
	s.Sync = state
	s.LastRefresh = lastRefresh
}

// SetSendPending marks whether a send is in flight.
func (s *StatusBar) SetSendPending(pending bool) {
	s.SendPending = pending
}

// SetRecording marks whether voice capture is active.
func (s *StatusBar) SetRecording(recording bool) {
	s.Recording = recording
}

// SetMessageCount updates the message counter.
func (s *StatusBar) SetMessageCount(n int) {
	s.MessageCount = n
}

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals.
// Format: [icon] 12 msg ~send
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	syncStyle := s.getSyncStyle()
	parts = append(parts, syncStyle.Render(s.Sync.Icon()))

	countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	parts = append(parts, countStyle.Render(fmtNumber(s.MessageCount)+" msg"))

	if s.SendPending {
		pendingStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		parts = append(parts, pendingStyle.Render("~send"))
	}

	if s.Recording {
		recStyle := lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
		parts = append(parts, recStyle.Render("REC"))
	}

	result := strings.Join(parts, " ")

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full status bar.
// Format: [OK] Synced 2s ago | 12 messages | Sending... | shortcuts
func (s *StatusBar) viewWide() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	leftParts := []string{}

	// Sync state with freshness age
	syncStyle := s.getSyncStyle()
	syncText := s.Sync.Icon() + " " + s.Sync.String()
	if !s.LastRefresh.IsZero() && s.Sync == SyncFresh {
		ageStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		syncText = syncStyle.Render(syncText) + " " + ageStyle.Render(formatAge(time.Since(s.LastRefresh)))
	} else {
		syncText = syncStyle.Render(syncText)
	}
	leftParts = append(leftParts, syncText)

	// Message count
	countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	leftParts = append(leftParts, countStyle.Render(fmtNumber(s.MessageCount)+" messages"))

	// Send activity
	if s.SendPending {
		pendingStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		leftParts = append(leftParts, pendingStyle.Render("Sending..."))
	}

	// Voice activity
	if s.Recording {
		recStyle := lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
		leftParts = append(leftParts, recStyle.Render("* Listening"))
	}

	leftSection := strings.Join(leftParts, separator)

	// Right section: keyboard shortcuts
	rightSection := ""
	if s.ShowShortcuts {
		rightSection = s.renderShortcuts()
	}

	// Spacing between sections
	leftWidth := lipgloss.Width(leftSection)
	rightWidth := lipgloss.Width(rightSection)
	spacing := s.Width - leftWidth - rightWidth - 4
	if spacing < 1 {
		spacing = 1
	}

	result := leftSection + strings.Repeat(" ", spacing) + rightSection

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// renderShortcuts renders keyboard shortcut hints.
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Blue).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("^V") + descStyle.Render("voice"),
		keyStyle.Render("^N") + descStyle.Render("new"),
		keyStyle.Render("^C") + descStyle.Render("quit"),
	}

	return strings.Join(shortcuts, " ")
}

// getSyncStyle returns the style for the current sync state.
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users.
func (s *StatusBar) getSyncStyle() lipgloss.Style {
	switch s.Sync {
	case SyncFresh:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case SyncStale:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	case SyncFailed:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	case SyncOffline:
		return lipgloss.NewStyle().Foreground(styles.TextMuted).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}

// formatAge formats a short "Ns ago" freshness age.
func formatAge(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		return "just now"
	}
	if secs < 60 {
		return toStr(secs) + "s ago"
	}
	mins := secs / 60
	return toStr(mins) + "m ago"
}
