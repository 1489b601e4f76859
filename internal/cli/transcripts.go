// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcripts.go - Archived conversation transcript management.
//
// Subcommands: list (default), show, search, export, delete, clear.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/storage"
)

// openArchive opens the transcript archive honoring the config override.
func openArchive() (*storage.Archive, error) {
	cfg, err := config.Load()
	if err == nil && cfg.Archive.Dir != "" {
		return storage.NewArchiveWithDir(cfg.Archive.Dir)
	}
	return storage.NewArchive()
}

// HandleTranscripts handles the transcripts command. Returns the exit code.
func HandleTranscripts(args Args) int {
	archive, err := openArchive()
	if err != nil {
		DisplayError(WrapError(err, "could not open the transcript archive"), args.JSON)
		return GetExitCode(err)
	}

	switch args.Subcommand {
	case "", "list", "ls":
		return handleTranscriptsList(archive, args)
	case "show":
		return handleTranscriptsShow(archive, args)
	case "search":
		return handleTranscriptsSearch(archive, args)
	case "export":
		return handleTranscriptsExport(archive, args)
	case "delete", "rm":
		return handleTranscriptsDelete(archive, args)
	case "clear":
		return handleTranscriptsClear(archive, args)
	default:
		err := NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown transcripts subcommand",
			"cardwise transcripts [list|show|search|export|delete|clear]")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
}

func handleTranscriptsList(archive *storage.Archive, args Args) int {
	metas, err := archive.List()
	if err != nil {
		DisplayError(WrapError(err, "could not list transcripts"), args.JSON)
		return GetExitCode(err)
	}
	return printTranscriptList(metas, args, "No archived transcripts yet.")
}

func handleTranscriptsSearch(archive *storage.Archive, args Args) int {
	query := strings.Join(args.Raw, " ")
	if query == "" {
		err := ErrMissingArgument("query", `cardwise transcripts search "interchange"`)
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	metas, err := archive.Search(query)
	if err != nil {
		DisplayError(WrapError(err, "search failed"), args.JSON)
		return GetExitCode(err)
	}
	return printTranscriptList(metas, args, "No transcripts matched "+fmt.Sprintf("%q", query)+".")
}

func printTranscriptList(metas []storage.TranscriptMeta, args Args, emptyMsg string) int {
	if args.JSON {
		infos := make([]TranscriptInfo, 0, len(metas))
		for _, m := range metas {
			infos = append(infos, TranscriptInfo{
				ID:           m.ID,
				Title:        m.Title,
				MessageCount: m.MessageCount,
				ArchivedAt:   m.ArchivedAt.UTC().Format(time.RFC3339),
			})
		}
		NewJSONResponse("transcripts", TranscriptListData{Transcripts: infos, Count: len(infos)}).Print()
		return ExitSuccess
	}

	if len(metas) == 0 {
		fmt.Println(DimStyle.Render(emptyMsg))
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render("Archived transcripts"))
	for _, m := range metas {
		fmt.Printf("%s  %s\n", HighlightStyle.Render(m.ID), ValueStyle.Render(m.Title))
		fmt.Printf("    %s\n", DimStyle.Render(fmt.Sprintf("%d messages, archived %s",
			m.MessageCount, m.ArchivedAt.Local().Format("2006-01-02 15:04"))))
	}
	return ExitSuccess
}

func handleTranscriptsShow(archive *storage.Archive, args Args) int {
	id := firstRawArg(args)
	if id == "" {
		err := ErrMissingArgument("id", "cardwise transcripts show <id>")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	transcript, err := archive.Load(id)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	if args.JSON {
		data, err := transcript.ExportJSON()
		if err != nil {
			DisplayError(err, true)
			return GetExitCode(err)
		}
		os.Stdout.Write(data)
		fmt.Println()
		return ExitSuccess
	}

	markdown := transcript.ExportMarkdown()
	if IsStdoutTTY() {
		fmt.Println(renderMarkdown(markdown))
	} else {
		fmt.Println(markdown)
	}
	return ExitSuccess
}

func handleTranscriptsExport(archive *storage.Archive, args Args) int {
	id := firstRawArg(args)
	if id == "" {
		err := ErrMissingArgument("id", "cardwise transcripts export <id> --format md")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	format := args.Options["format"]
	if format == "" {
		format = "md"
	}

	transcript, err := archive.Load(id)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	var output []byte
	switch format {
	case "md", "markdown":
		output = []byte(transcript.ExportMarkdown())
	case "json":
		output, err = transcript.ExportJSON()
		if err != nil {
			DisplayError(err, args.JSON)
			return GetExitCode(err)
		}
	default:
		err := ErrUnsupportedFormat(format, []string{"md", "json"})
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	if outPath := args.Options["output"]; outPath != "" {
		safe, err := ValidateOutputPath(outPath)
		if err != nil {
			DisplayError(err, args.JSON)
			return GetExitCode(err)
		}
		if err := os.WriteFile(safe, output, 0600); err != nil {
			DisplayError(WrapError(err, "could not write file"), args.JSON)
			return GetExitCode(err)
		}
		if !args.Quiet {
			fmt.Printf("%s %s\n", SuccessStyle.Render("Exported"), safe)
		}
		return ExitSuccess
	}

	os.Stdout.Write(output)
	return ExitSuccess
}

func handleTranscriptsDelete(archive *storage.Archive, args Args) int {
	id := firstRawArg(args)
	if id == "" {
		err := ErrMissingArgument("id", "cardwise transcripts delete <id> --confirm")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	confirmed := args.Options["confirm"] == "true"
	ok, err := RequireConfirmation(confirmed, "delete transcript "+id, args.JSON)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
	if !ok {
		ShowCancellationMessage()
		return ExitSuccess
	}

	if err := archive.Delete(id); err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	if args.JSON {
		NewJSONResponse("transcripts", map[string]string{"deleted": id}).Print()
		return ExitSuccess
	}
	fmt.Printf("%s %s\n", SuccessStyle.Render("Deleted"), id)
	return ExitSuccess
}

func handleTranscriptsClear(archive *storage.Archive, args Args) int {
	confirmed := args.Options["confirm"] == "true"
	ok, err := ConfirmDangerousAction(confirmed, "delete ALL archived transcripts", "DELETE ALL", args.JSON)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
	if !ok {
		ShowCancellationMessage()
		return ExitSuccess
	}

	if err := archive.Clear(); err != nil {
		DisplayError(WrapError(err, "could not clear the archive"), args.JSON)
		return GetExitCode(err)
	}

	if args.JSON {
		NewJSONResponse("transcripts", map[string]bool{"cleared": true}).Print()
		return ExitSuccess
	}
	fmt.Println(SuccessStyle.Render("Archive cleared."))
	return ExitSuccess
}

// firstRawArg returns the first positional argument after the subcommand.
func firstRawArg(args Args) string {
	if len(args.Raw) == 0 {
		return ""
	}
	return args.Raw[0]
}
