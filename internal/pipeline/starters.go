// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

// Starter is a curated conversation opener shown on the empty landing view.
// Selecting one submits its Prompt exactly as if the user had typed it.
type Starter struct {
	// Title is the short card heading.
	Title string
	// Prompt is the message text submitted on selection.
	Prompt string
	// Icon is a single glyph rendered on the card.
	Icon string
	// Accent is the card's highlight color token (theme palette key).
	Accent string
}

// Starters returns the fixed set of conversation starters, in display order.
func Starters() []Starter {
	return []Starter{
		{
			Title:  "Calculate Rates",
			Prompt: "I need help calculating processing rates and finding competitive pricing",
			Icon:   "▦",
			Accent: "blue",
		},
		{
			Title:  "Compare Processors",
			Prompt: "Show me how TracerPay beats my current processor and saves money",
			Icon:   "⇄",
			Accent: "green",
		},
		{
			Title:  "Create Proposal",
			Prompt: "I need help creating a merchant proposal with competitive rates and terms",
			Icon:   "✎",
			Accent: "purple",
		},
		{
			Title:  "Marketing Strategy",
			Prompt: "Create Marketing Strategy & Content",
			Icon:   "★",
			Accent: "orange",
		},
	}
}
