// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal interactive chat.
//
// `cardwise chat` is the REPL alternative to the TUI for environments where
// a full-screen interface is unwanted (SSH sessions, screen readers, simple
// scripting). It talks to the same message service through the same send
// pipeline.
//
// ACCESSIBILITY: line-oriented output works with terminal screen readers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/storage"
	"github.com/cardwise/cardwise-tui/internal/store"
)

// chatHistoryFile is the liner history filename under the config dir.
const chatHistoryFile = "chat_history"

// ChatCLI wraps liner with persistent history.
type ChatCLI struct {
	line        *liner.State
	historyPath string
}

// NewChatCLI creates a line editor with history loaded from the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line}

	if dir, err := config.ConfigDir(); err == nil {
		c.historyPath = filepath.Join(dir, chatHistoryFile)
		if f, err := os.Open(c.historyPath); err == nil {
			c.line.ReadHistory(f)
			f.Close()
		}
	}

	return c
}

// ReadInput reads one line of input with editing and history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to disk.
func (c *ChatCLI) SaveHistory() {
	if c.historyPath == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// ChatSession holds the state of one REPL conversation.
type ChatSession struct {
	client  *api.Client
	store   *store.Store
	pipe    *pipeline.Pipeline
	boot    *pipeline.Bootstrap
	archive *storage.Archive

	conversationID string
	title          string
	seen           int
}

// newChatSession wires the service collaborators for the REPL.
func newChatSession(cfg *config.Config) *ChatSession {
	client := newClient(cfg)
	st := store.New(client)
	pipe := pipeline.New(client, st)
	pipe.SetFollowupDelay(0)

	s := &ChatSession{
		client: client,
		store:  st,
		pipe:   pipe,
		boot:   pipeline.NewBootstrap(client, pipe),
	}

	if cfg.Archive.Enabled {
		var arch *storage.Archive
		var err error
		if cfg.Archive.Dir != "" {
			arch, err = storage.NewArchiveWithDir(cfg.Archive.Dir)
		} else {
			arch, err = storage.NewArchive()
		}
		if err == nil {
			s.archive = arch
		}
	}

	return s
}

// Submit sends content, bootstrapping a conversation on first use, and
// returns the assistant reply.
func (s *ChatSession) Submit(ctx context.Context, content string) (*model.Message, error) {
	before := len(s.store.Snapshot(s.conversationID))

	if s.conversationID == "" {
		id, err := s.boot.StartWithMessage(ctx, content)
		if err != nil {
			return nil, err
		}
		s.conversationID = id
		s.title = model.DefaultTitle
		s.store.SetActive(id)
		before = 0
	} else {
		if err := s.pipe.Send(ctx, s.conversationID, content); err != nil {
			return nil, err
		}
	}

	return s.waitForReply(ctx, before)
}

// waitForReply polls until an assistant message lands past the given index.
func (s *ChatSession) waitForReply(ctx context.Context, afterIndex int) (*model.Message, error) {
	ticker := time.NewTicker(askPollInterval)
	defer ticker.Stop()

	for {
		msgs, err := s.store.Load(ctx, s.conversationID)
		if err == nil {
			for i := len(msgs) - 1; i >= afterIndex && i >= 0; i-- {
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

// Save archives the current conversation transcript.
func (s *ChatSession) Save() error {
	if s.archive == nil {
		return fmt.Errorf("transcript archive is disabled in config")
	}
	if s.conversationID == "" {
		return storage.ErrNoTranscript
	}

	msgs := s.store.Snapshot(s.conversationID)
	if len(msgs) == 0 {
		return storage.ErrNoTranscript
	}

	conv := &model.Conversation{
		ID:        s.conversationID,
		Title:     s.title,
		IsActive:  true,
		UpdatedAt: time.Now(),
		Messages:  msgs,
	}
	return s.archive.Save(conv)
}

// Reset drops the current conversation so the next message starts fresh.
func (s *ChatSession) Reset() {
	s.conversationID = ""
	s.title = ""
	s.seen = 0
	s.store.SetActive("")
}

// HandleChat handles the chat command. Returns the process exit code.
func HandleChat(args Args) int {
	if err := RequiresTTY("chat"); err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	cfg := loadConfig(args)
	session := newChatSession(cfg)

	cli := NewChatCLI()
	defer cli.Close()

	// SIGINT mid-reply cancels the wait instead of killing the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("cardwise chat"))
		fmt.Println(DimStyle.Render("Ask about rates, processors, or proposals. /help for commands, /quit to exit."))
		fmt.Println()
	}

	for {
		input, err := cli.ReadInput("you> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(DimStyle.Render("Goodbye."))
				return ExitSuccess
			}
			// io.EOF on Ctrl+D
			fmt.Println()
			return ExitSuccess
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, code := handleChatCommand(session, input)
			if done {
				return code
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), defaultAskTimeout)
		replyCh := make(chan struct{})
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-replyCh:
			}
		}()

		fmt.Println(DimStyle.Render("thinking..."))
		reply, err := session.Submit(ctx, input)
		close(replyCh)
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				fmt.Println(WarningStyle.Render("No reply (canceled or timed out)."))
				continue
			}
			DisplayError(WrapError(err, "message failed"), false)
			continue
		}

		fmt.Println()
		if IsStdoutTTY() {
			fmt.Println(renderMarkdown(reply.Content))
		} else {
			fmt.Println(reply.Content)
		}
		fmt.Println()
	}
}

// handleChatCommand executes a slash command. Returns (true, code) when the
// REPL should exit.
func handleChatCommand(session *ChatSession, input string) (bool, int) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help", "/?":
		fmt.Println(SectionStyle.Render("Commands:"))
		fmt.Println("  /new        Start a new conversation")
		fmt.Println("  /save       Archive the current transcript")
		fmt.Println("  /list       List conversations on the service")
		fmt.Println("  /quit       Exit chat (also /exit, Ctrl+C)")

	case "/new":
		session.Reset()
		fmt.Println(DimStyle.Render("Started a new conversation."))

	case "/save":
		if err := session.Save(); err != nil {
			DisplayError(WrapError(err, "could not save transcript"), false)
		} else {
			fmt.Println(SuccessStyle.Render("Transcript saved."))
		}

	case "/list":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		metas, err := session.client.Conversations(ctx)
		cancel()
		if err != nil {
			DisplayError(WrapError(err, "could not list conversations"), false)
			break
		}
		if len(metas) == 0 {
			fmt.Println(DimStyle.Render("No conversations yet."))
			break
		}
		for _, meta := range metas {
			marker := "  "
			if meta.ID == session.conversationID {
				marker = HighlightStyle.Render("* ")
			}
			fmt.Printf("%s%s  %s (%d messages)\n", marker, meta.ID, meta.Title, meta.MessageCount)
		}

	case "/quit", "/exit", "/q":
		fmt.Println(DimStyle.Render("Goodbye."))
		return true, ExitSuccess

	default:
		fmt.Println(WarningStyle.Render("Unknown command " + cmd + ". Try /help."))
	}

	return false, ExitSuccess
}
