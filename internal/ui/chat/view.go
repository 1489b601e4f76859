// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file renders the chat view. Each screen state assembles the same
// vertical chrome: header, body, activity line, composer, status bar.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardwise/cardwise-tui/internal/ui/components"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// View renders the current screen state.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.viewHelp()
	}

	m.syncStatusBar()

	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateLanding:
		return m.viewLanding()
	default:
		return m.viewChat()
	}
}

// syncStatusBar pushes current activity flags into the status bar before
// rendering.
func (m Model) syncStatusBar() {
	m.status.SetSync(m.syncState, m.lastRefresh)
	m.status.SetSendPending(m.sending || (m.conversationID != "" && m.pipe.Pending(m.conversationID)))
	m.status.SetRecording(m.recording)
	m.status.SetMessageCount(len(m.messages))
}

// =============================================================================
// LOADING
// =============================================================================

func (m Model) viewLoading() string {
	brand := lipgloss.NewStyle().
		Foreground(styles.Blue).
		Bold(true).
		Render("cardwise")

	text := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Connecting to the message service...")

	block := lipgloss.JoinVertical(lipgloss.Center, brand, "", text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, block)
}

// =============================================================================
// LANDING
// =============================================================================

func (m Model) viewLanding() string {
	var b strings.Builder

	b.WriteString(m.header.View())
	b.WriteString("\n")

	title := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true).
		Width(m.width).
		Align(lipgloss.Center).
		Render("How can I help your business today?")

	subtitle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(m.width).
		Align(lipgloss.Center).
		Render("Pick a starter or type your own question")

	b.WriteString("\n" + title + "\n" + subtitle + "\n\n")
	b.WriteString(m.starters.View())
	b.WriteString("\n")

	if stack := m.renderToasts(); stack != "" {
		b.WriteString(stack + "\n")
	}

	b.WriteString(m.renderActivity())
	b.WriteString("\n")
	b.WriteString(m.renderComposer())
	b.WriteString("\n")
	b.WriteString(m.status.View())

	return b.String()
}

// =============================================================================
// CHAT
// =============================================================================

func (m Model) viewChat() string {
	var b strings.Builder

	b.WriteString(m.header.View())
	b.WriteString("\n")
	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.viewport.View()))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if stack := m.renderToasts(); stack != "" {
		b.WriteString(stack + "\n")
	}

	b.WriteString(m.renderActivity())
	b.WriteString("\n")
	b.WriteString(m.renderComposer())
	b.WriteString("\n")
	b.WriteString(m.status.View())

	return b.String()
}

// =============================================================================
// SHARED CHROME
// =============================================================================

// renderActivity renders the one-line indicator between transcript and
// composer: voice capture beats the typing indicator.
func (m Model) renderActivity() string {
	switch {
	case m.recording:
		return m.theme.VoiceActive.Render("* Listening... press Ctrl+V to stop")
	case m.thinking.IsActive():
		return m.thinking.View()
	default:
		return ""
	}
}

func (m Model) renderComposer() string {
	return m.theme.InputContainer.Width(clamp(m.width-2, 20, m.width)).Render(m.input.View())
}

func (m Model) renderToasts() string {
	toasts := m.toasts.GetToasts()
	if len(toasts) == 0 {
		return ""
	}
	stack := components.RenderToastStack(toasts, m.width, 0)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) viewHelp() string {
	items := GetHelpItemsForContext(m.helpContext())

	keyStyle := lipgloss.NewStyle().Foreground(styles.Blue).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)

	keyWidth := 0
	for _, item := range items {
		if w := len(item.Key); w > keyWidth {
			keyWidth = w
		}
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true).
		Render("Keyboard Shortcuts"))
	lines = append(lines, "")
	for _, item := range items {
		pad := strings.Repeat(" ", keyWidth-len(item.Key))
		lines = append(lines, keyStyle.Render(item.Key)+pad+"  "+descStyle.Render(item.Desc))
	}
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("Press F1 to close"))

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Blue).
		Padding(1, 3).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
