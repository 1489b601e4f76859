// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines keyboard bindings for the chat view, along with the
// help overlay data. The composer keeps focus in every state, so transcript
// scrolling uses page-level keys that the textarea does not consume.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	PageUp        key.Binding
	PageDown      key.Binding
	Top           key.Binding
	Bottom        key.Binding
	Submit        key.Binding
	Voice         key.Binding
	NewChat       key.Binding
	Conversations key.Binding
	Timestamps    key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send message"),
		),
		Voice: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("C-v", "voice input"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		Conversations: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "conversation list"),
		),
		Timestamps: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "toggle timestamps"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Voice, k.NewChat, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		// Actions
		{k.Submit, k.Voice, k.NewChat, k.Conversations},
		// Misc
		{k.Timestamps, k.Help, k.Quit},
	}
}

// =============================================================================
// HELP OVERLAY DATA
// =============================================================================

// HelpContext filters help items to the current view state, so the overlay
// only lists bindings that would actually do something.
type HelpContext string

const (
	// ContextLanding is the empty landing screen with the starter grid.
	ContextLanding HelpContext = "landing"
	// ContextChat is the populated transcript view.
	ContextChat HelpContext = "chat"
	// ContextRecording is active voice capture.
	ContextRecording HelpContext = "recording"
)

// HelpItem is a single help overlay entry.
type HelpItem struct {
	Key      string
	Desc     string
	Contexts []HelpContext
}

// GetHelpItems returns every help entry with its context tags.
func GetHelpItems() []HelpItem {
	all := []HelpContext{ContextLanding, ContextChat, ContextRecording}
	chatOnly := []HelpContext{ContextChat}
	landing := []HelpContext{ContextLanding}

	return []HelpItem{
		{"Enter", "Send message", []HelpContext{ContextLanding, ContextChat}},
		{"Tab/arrows", "Choose a starter", landing},
		{"C-v", "Start voice input", []HelpContext{ContextLanding, ContextChat}},
		{"C-v/Esc", "Stop voice input", []HelpContext{ContextRecording}},
		{"C-n", "New conversation", chatOnly},
		{"C-l", "Conversation list", chatOnly},
		{"C-t", "Toggle timestamps", chatOnly},
		{"PgUp/C-u", "Scroll transcript up", chatOnly},
		{"PgDn/C-d", "Scroll transcript down", chatOnly},
		{"Home", "Jump to first message", chatOnly},
		{"End", "Jump to latest message", chatOnly},
		{"F1", "Toggle this help", all},
		{"C-c", "Quit", all},
	}
}

// GetHelpItemsForContext returns the help entries active in ctx.
func GetHelpItemsForContext(ctx HelpContext) []HelpItem {
	var filtered []HelpItem
	for _, item := range GetHelpItems() {
		for _, c := range item.Contexts {
			if c == ctx {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}
