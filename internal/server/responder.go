// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"strings"
	"time"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// Responder generates the canned assistant reply after each user message.
// The delay simulates assistant thinking time so client-side refresh
// behavior is exercised realistically: the reply is never in the response
// to the send, it appears on a later poll.
type Responder struct {
	db    *DB
	delay time.Duration
}

// NewResponder creates a responder writing into db after delay.
func NewResponder(db *DB, delay time.Duration) *Responder {
	return &Responder{db: db, delay: delay}
}

// Respond schedules the assistant reply for a user message. Returns
// immediately; the reply is inserted on a background goroutine.
func (r *Responder) Respond(conversationID, userContent string) {
	reply, actions := composeReply(userContent)

	time.AfterFunc(r.delay, func() {
		if _, err := r.db.AppendMessage(conversationID, model.RoleAssistant, reply, actions); err != nil {
			log.Printf("RESPONDER_ERROR | conversation=%s error=%v", conversationID, err)
		}
	})
}

// composeReply picks a reply template from keywords in the user message.
func composeReply(content string) (string, []model.Action) {
	lower := strings.ToLower(content)

	switch {
	case strings.Contains(lower, "rate") || strings.Contains(lower, "pricing") || strings.Contains(lower, "fee"):
		return "I can help with that. Based on typical interchange-plus pricing, a merchant " +
				"processing $50,000/month in card-present volume lands around a 2.3% effective rate. " +
				"Share your current statement and I'll run the exact comparison.",
			[]model.Action{
				{Type: model.ActionDocumentLink, Label: "Rate calculator worksheet", URL: "https://docs.cardwise.local/rate-calculator.pdf"},
				{Type: model.ActionSearchQuery, Label: "Search interchange tables", Query: "interchange rates card-present 2025"},
			}

	case strings.Contains(lower, "tracerpay") || strings.Contains(lower, "processor") || strings.Contains(lower, "compet"):
		return "Here's how TracerPay stacks up: flat 2.25% + $0.10 per transaction with no monthly " +
				"minimums, versus the 2.9% + $0.30 most legacy processors charge. On $40,000/month " +
				"that's roughly $340 in monthly savings.",
			[]model.Action{
				{Type: model.ActionDocumentLink, Label: "TracerPay comparison sheet", URL: "https://docs.cardwise.local/tracerpay-comparison.pdf"},
			}

	case strings.Contains(lower, "proposal"):
		return "Let's build that proposal. I'll need the merchant's business name, monthly card volume, " +
				"average ticket size, and current effective rate. Once you have those I'll draft " +
				"competitive terms with a side-by-side savings breakdown.",
			[]model.Action{
				{Type: model.ActionExport, Label: "Export proposal template"},
			}

	case strings.Contains(lower, "marketing"):
		return "For a merchant-services marketing push I'd start with three pieces: a savings-focused " +
				"one-pager for cold outreach, an email sequence for statement-review leads, and a " +
				"local-business case study. Which should we draft first?",
			nil

	default:
		return "Got it. Tell me more about the merchant you're working with - industry, monthly volume, " +
			"and what they're paying today - and I'll point you at the best next step.", nil
	}
}
