// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Unified confirmation handling for destructive CLI commands.
//
// USABILITY: TTY detection for proper terminal handling
//
// One pattern for every destructive action:
//   1. If --confirm flag is present, proceed without prompting
//   2. If --json mode, require --confirm flag (no interactive prompts in JSON mode)
//   3. If stdin is not a TTY, require --confirm flag (can't prompt)
//   4. Otherwise, show interactive prompt for confirmation
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RequireConfirmation checks if the user has confirmed a destructive action.
//
// Parameters:
//
//	confirmFlag - true if --confirm flag was passed
//	action      - description of the action (e.g., "delete transcript abc123")
//	jsonMode    - true if --json flag was passed
//
// Returns:
//
//	bool  - true if confirmed, false if cancelled
//	error - non-nil if confirmation is required but cannot be prompted for
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	// If --confirm flag is present, proceed without prompting
	if confirmFlag {
		return true, nil
	}

	// In JSON mode, --confirm flag is required (no interactive prompts)
	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm flag for destructive actions in JSON mode")
	}

	// USABILITY: TTY detection for proper terminal handling
	// Can't prompt if stdin is not a TTY (e.g., piped input, cron jobs, CI/CD)
	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm flag")
	}

	// Show interactive prompt
	fmt.Println()
	fmt.Printf("Are you sure you want to %s? [y/N]: ", action)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	confirmed := response == "y" || response == "yes"

	return confirmed, nil
}

// ConfirmDangerousAction is a specialized confirmation for operations that
// destroy data in bulk. The user must type a specific phrase to confirm
// (e.g., "DELETE ALL"); a lone "y" is not enough.
func ConfirmDangerousAction(confirmFlag bool, action, confirmPhrase string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm flag for destructive actions in JSON mode")
	}

	// USABILITY: TTY detection for proper terminal handling
	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm flag")
	}

	fmt.Println()
	fmt.Println(ErrorStyle.Render("[!!] DESTRUCTIVE ACTION [!!]"))
	fmt.Println(RenderSeparator(50))
	fmt.Println()
	fmt.Printf("You are about to: %s\n", ErrorStyle.Render(action))
	fmt.Println()
	fmt.Println(ErrorStyle.Render("THIS ACTION CANNOT BE UNDONE."))
	fmt.Println()
	fmt.Printf("To confirm, type '%s' (without quotes): ", confirmPhrase)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.TrimSpace(input)
	confirmed := response == confirmPhrase

	if !confirmed {
		fmt.Println()
		fmt.Println(DimStyle.Render("Confirmation phrase did not match. Cancelled."))
		fmt.Println()
	}

	return confirmed, nil
}

// ShowCancellationMessage displays a standard cancellation message.
// Use this after RequireConfirmation returns false.
func ShowCancellationMessage() {
	fmt.Println()
	fmt.Println(DimStyle.Render("Cancelled."))
	fmt.Println()
}
