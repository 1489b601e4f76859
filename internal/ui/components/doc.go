// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cardwise TUI:
// message bubbles, the conversation header, the sync status bar, starter
// cards, spinners, and non-blocking toast notifications.
package components
