// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for cardwise.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdServe
	CmdStatus
	CmdConfig
	CmdTranscripts
	CmdDoctor
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Server  string // Override the message service base URL
	Token   string // Override the bearer token

	// Command-specific
	Query      string
	File       string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format, --output)
	Options map[string]string
}

const usageText = `cardwise - merchant services sales assistant

Cardwise is a chat assistant for merchant services sales teams. It talks
to a message service and helps with processing rates, processor
comparisons, proposals, and marketing.

Usage:
  cardwise                        Start the chat TUI (default)
  cardwise ask "question"         Ask a single question and print the reply
  cardwise chat                   Interactive chat in plain terminal mode
  cardwise serve                  Run the local development message service
  cardwise status, s              Show message service status
  cardwise config [subcommand]    Configuration management
  cardwise transcripts, t [subcommand]
                                  Archived conversation transcripts
  cardwise doctor                 Run health checks
  cardwise version                Show version information
  cardwise help                   Show this help

Ask Command:
  cardwise ask "What rate tiers fit a restaurant?"
    -f, --file PATH               Include a file as context with the question
    --timeout SECS                How long to wait for the reply (default: 60)
    --json                        Output response as JSON

Config Commands:
  cardwise config show            Show current configuration
  cardwise config get <key>       Get a single value (e.g. chat.poll_interval_ms)
  cardwise config set <key> <value>
                                  Set a value and save
  cardwise config path            Print the config file path
  cardwise config reset --confirm Reset configuration to defaults

Transcript Commands:
  cardwise transcripts list       List archived conversations
  cardwise transcripts show <id>  Print a transcript
  cardwise transcripts search <text>
                                  Search transcripts by title and content
  cardwise transcripts export <id>
    --format md|json              Export format (default: md)
    --output FILE                 Write to file (default: stdout)
  cardwise transcripts delete <id> --confirm
  cardwise transcripts clear --confirm

Serve Command:
  cardwise serve                  Start the development message service
    --listen ADDR                 Bind address (default: localhost:8787)
    --db PATH                     SQLite database path

Global Flags:
  --server URL    Message service base URL (overrides config)
  --token TOKEN   Bearer token for the message service
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format

Examples:
  cardwise                                  Start the TUI
  cardwise ask "Compare Stripe and Square for a food truck"
  cardwise ask "Review this statement:" --file statement.txt
  cardwise chat                             Terminal chat without the TUI
  cardwise status                           Check the message service (alias: s)
  cardwise config set api.base_url http://localhost:8787
  cardwise transcripts list                 List saved conversations
  cardwise transcripts export a1b2c3 --format md --output proposal.md
  cardwise serve --listen localhost:8787    Run the dev service
  cardwise doctor                           Diagnose connectivity and voice input

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("cardwise version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// HandleVersion handles the version command, honoring --json.
func HandleVersion(args Args) {
	if args.JSON {
		resp := NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		})
		resp.Print()
		return
	}
	PrintVersion()
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments. Split out from Parse for testing.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// No arguments means the TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "serve", "server":
		parseOptionArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "transcripts", "transcript", "t":
		parseOptionArgs(&parsedArgs, remaining)
		return CmdTranscripts, parsedArgs

	case "doctor":
		parseOptionArgs(&parsedArgs, remaining)
		return CmdDoctor, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Subcommand = cmd
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.Server = args[i]
			}
		case "--token":
			if i+1 < len(args) {
				i++
				parsedArgs.Token = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--server=") {
				parsedArgs.Server = strings.TrimPrefix(arg, "--server=")
			} else if strings.HasPrefix(arg, "--token=") {
				parsedArgs.Token = strings.TrimPrefix(arg, "--token=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "--timeout":
			if i+1 < len(remaining) {
				i++
				args.Options["timeout"] = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--timeout=") {
				args.Options["timeout"] = strings.TrimPrefix(arg, "--timeout=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}

	args.Subcommand = strings.ToLower(remaining[0])
	rest := remaining[1:]

	switch args.Subcommand {
	case "get":
		if len(rest) > 0 {
			args.ConfigKey = rest[0]
		}
	case "set":
		if len(rest) > 0 {
			args.ConfigKey = rest[0]
		}
		if len(rest) > 1 {
			args.ConfigVal = strings.Join(rest[1:], " ")
		}
	case "reset":
		parseOptionArgs(args, rest)
	}
}

// parseOptionArgs parses a subcommand followed by flags into Args.Subcommand,
// Args.Options, and positional Raw args, using the shared ArgParser.
func parseOptionArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)

	if sub := parser.Subcommand(); sub != "" {
		args.Subcommand = strings.ToLower(sub)
	}
	if parser.PositionalCount() > 1 {
		args.Raw = parser.PositionalFrom(1)
	} else {
		args.Raw = nil
	}

	for name, value := range parser.Flags() {
		args.Options[name] = value
	}
	for name, set := range parser.BoolFlags() {
		if set {
			args.Options[name] = "true"
		}
	}
}

// HandleUnknown prints an error for an unrecognized command, with a typo
// suggestion when one is close enough.
func HandleUnknown(args Args) int {
	fmt.Fprintf(os.Stderr, "cardwise: unknown command %q\n", args.Subcommand)
	if suggestion := SuggestCommand(args.Subcommand); suggestion != "" {
		fmt.Fprintf(os.Stderr, "Did you mean %q?\n", suggestion)
	}
	fmt.Fprintln(os.Stderr, "Run 'cardwise help' for usage.")
	return ExitUsageError
}
