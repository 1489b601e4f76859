// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// `cardwise ask "question"` creates a conversation on the message service,
// submits the question through the regular send pipeline, and polls until
// the assistant reply lands. The reply is rendered as markdown when stdout
// is a terminal and printed raw when piped.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/store"
)

const (
	// MaxFileSize limits --file context to keep requests reasonable (50KB).
	MaxFileSize = 50 * 1024

	// defaultAskTimeout is how long ask waits for the assistant reply.
	defaultAskTimeout = 60 * time.Second

	// askPollInterval is the reply poll cadence. Deliberately tighter than
	// the TUI's background cadence; ask is a foreground wait.
	askPollInterval = 1 * time.Second
)

// markdownRenderer is shared across invocations. Initialized lazily because
// glamour probes the terminal, which should only happen when output is a TTY.
var markdownRenderer *glamour.TermRenderer

// renderMarkdown renders markdown for terminal display.
// Falls back to plain text when the renderer is unavailable.
func renderMarkdown(text string) string {
	if markdownRenderer == nil {
		var err error
		markdownRenderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return text
		}
	}

	rendered, err := markdownRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}

// HandleAsk handles the ask command. Returns the process exit code.
func HandleAsk(args Args) int {
	question := strings.TrimSpace(args.Query)
	if question == "" {
		err := ErrMissingArgument("question", `cardwise ask "What rate tiers fit a restaurant?"`)
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	// Optional file context is appended under the question.
	if args.File != "" {
		content, err := readFileForContext(args.File)
		if err != nil {
			DisplayError(err, args.JSON)
			return GetExitCode(err)
		}
		question = question + "\n\n" + content
	}

	timeout := defaultAskTimeout
	if raw, ok := args.Options["timeout"]; ok {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	cfg := loadConfig(args)
	client := newClient(cfg)

	st := store.New(client)
	pipe := pipeline.New(client, st)
	pipe.SetFollowupDelay(0) // foreground poll below makes the followup redundant
	boot := pipeline.NewBootstrap(client, pipe)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()

	if !args.Quiet && !args.JSON {
		fmt.Fprintln(os.Stderr, DimStyle.Render("Asking cardwise..."))
	}

	conversationID, err := boot.StartWithMessage(ctx, question)
	if err != nil {
		wrapped := WrapError(err, "could not reach the message service")
		DisplayError(wrapped, args.JSON)
		return GetExitCode(wrapped)
	}

	reply, err := waitForReply(ctx, st, conversationID)
	if err != nil {
		wrapped := WrapError(err, "no reply from the message service")
		DisplayError(wrapped, args.JSON)
		return GetExitCode(wrapped)
	}

	if args.JSON {
		resp := NewJSONResponse("ask", AskData{
			Question:       args.Query,
			Response:       reply.Content,
			ConversationID: conversationID,
			DurationMs:     time.Since(start).Milliseconds(),
		})
		resp.Print()
		return ExitSuccess
	}

	displayResponse(reply.Content)
	return ExitSuccess
}

// waitForReply polls the message store until an assistant message appears
// after the submitted question.
func waitForReply(ctx context.Context, st *store.Store, conversationID string) (*model.Message, error) {
	ticker := time.NewTicker(askPollInterval)
	defer ticker.Stop()

	for {
		msgs, err := st.Load(ctx, conversationID)
		if err == nil {
			for i := len(msgs) - 1; i >= 0; i-- {
				if msgs[i].Role == model.RoleAssistant {
					return msgs[i], nil
				}
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// displayResponse prints the assistant reply, rendered when stdout is a TTY.
func displayResponse(content string) {
	if IsStdoutTTY() {
		fmt.Println(renderMarkdown(content))
		return
	}
	// Piped output gets the raw text so it stays machine-readable.
	fmt.Println(content)
}

// readFileForContext reads a file to include as question context.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", ErrNotFound("file", path)
	}
	if info.Size() > MaxFileSize {
		return "", NewValidationError("file", path,
			fmt.Sprintf("file too large (%s, max %s)", formatBytes(info.Size()), formatBytes(MaxFileSize)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", WrapError(err, "could not read file")
	}

	return fmt.Sprintf("--- %s ---\n%s", path, string(data)), nil
}
