// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// TEXT HELPERS
// =============================================================================

// truncateText shortens s to fit maxWidth terminal cells, appending "..."
// when anything was cut. Width is measured in display cells, not bytes, so
// wide runes count double.
func truncateText(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// normalizeInput prepares composer text for submission: trims surrounding
// whitespace and strips control characters that a terminal paste can smuggle
// in. Interior newlines survive; the service accepts multi-line messages.
func normalizeInput(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// isBlank reports whether s contains nothing submittable.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
