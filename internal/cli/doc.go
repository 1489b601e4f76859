// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the cardwise command-line interface.
//
// The default invocation starts the chat TUI; everything else is a
// subcommand:
//
//	ask         one-shot question with a rendered reply
//	chat        line-oriented REPL (liner, no alternate screen)
//	serve       bundled development message service
//	status      message service connectivity summary
//	config      show/get/set/reset configuration
//	transcripts archived conversation management
//	doctor      environment health checks
//
// Conventions shared by every command:
//
//   - Handlers return an exit code instead of calling os.Exit so main owns
//     process termination.
//   - --json switches output to the JSONResponse envelope (json_output.go);
//     human-readable chatter moves to stderr.
//   - Styling goes through styles.go and degrades to plain text when stdout
//     is not a terminal (terminal.go).
//   - Destructive operations require --confirm or an interactive prompt
//     (confirm.go).
package cli
