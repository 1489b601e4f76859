// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cardwise - merchant services sales assistant.
//
// Running with no arguments starts the chat TUI. Subcommands (ask, chat,
// serve, status, config, transcripts, doctor) are dispatched to the cli
// package; each handler returns an exit code and main owns process
// termination.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/cli"
	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/ui/chat"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Keep the cli package's copies in sync for `cardwise version`.
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))

	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(args))

	case cli.CmdChat:
		os.Exit(cli.HandleChat(args))

	case cli.CmdServe:
		os.Exit(cli.HandleServe(args))

	case cli.CmdStatus:
		os.Exit(cli.HandleStatus(args))

	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))

	case cli.CmdTranscripts:
		os.Exit(cli.HandleTranscripts(args))

	case cli.CmdDoctor:
		os.Exit(cli.HandleDoctor(args))

	case cli.CmdVersion:
		cli.HandleVersion(args)

	case cli.CmdHelp:
		cli.PrintUsage()

	case cli.CmdUnknown:
		os.Exit(cli.HandleUnknown(args))
	}
}

// runTUI starts the full-screen chat interface.
func runTUI(args cli.Args) int {
	// The TUI takes over the terminal; it cannot run on a pipe.
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, "cardwise: the TUI requires an interactive terminal")
		fmt.Fprintln(os.Stderr, "Use 'cardwise ask' or 'cardwise chat' for non-interactive use.")
		return cli.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardwise: could not load configuration: %v\n", err)
		return cli.ExitConfigError
	}
	if args.Server != "" {
		cfg.API.BaseURL = args.Server
	}
	if args.Token != "" {
		cfg.API.AuthToken = args.Token
	}
	config.SetGlobal(cfg)

	client := api.NewClient(cfg.API.BaseURL)
	if cfg.API.AuthToken != "" {
		client = client.WithAuthToken(cfg.API.AuthToken)
	}
	if cfg.API.MaxRetries > 0 {
		client = client.WithMaxRetries(cfg.API.MaxRetries)
	}

	theme := styles.NewTheme()
	model := chat.New(theme, client, cfg)

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Hot-reload tunables while the TUI runs: edits to the config file
	// reach the chat view without a restart. Best-effort; the TUI works
	// without a watcher.
	watcher, err := config.Watch(func(reloaded *config.Config) {
		program.Send(chat.ConfigReloadedMsg{Cfg: reloaded})
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "cardwise: %v\n", err)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}
