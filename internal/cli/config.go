// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration management command.
//
// Subcommands: show (default), get, set, path, reset.
// Keys use dotted paths matching the config file sections, e.g.
// api.base_url, chat.poll_interval_ms, voice.enabled.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cardwise/cardwise-tui/internal/config"
)

// HandleConfig handles the config command. Returns the process exit code.
func HandleConfig(args Args) int {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "path":
		return handleConfigPath(args)
	case "reset":
		return handleConfigReset(args)
	default:
		err := NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown config subcommand", "cardwise config [show|get|set|path|reset]")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
}

func handleConfigShow(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		DisplayError(WrapError(err, "could not load configuration"), args.JSON)
		return ExitConfigError
	}

	path, _ := config.ConfigPathTOML()

	data := ConfigShowData{
		API: ConfigAPIInfo{
			BaseURL:     cfg.API.BaseURL,
			AuthSet:     cfg.API.AuthToken != "",
			TimeoutSecs: cfg.API.TimeoutSecs,
			MaxRetries:  cfg.API.MaxRetries,
		},
		Chat: ConfigChatInfo{
			PollIntervalMs:     cfg.Chat.PollIntervalMs,
			FollowupRefreshMs:  cfg.Chat.FollowupRefreshMs,
			IdleAfterMins:      cfg.Chat.IdleAfterMins,
			IdlePollIntervalMs: cfg.Chat.IdlePollIntervalMs,
		},
		Voice: ConfigVoiceInfo{
			Enabled:    cfg.Voice.Enabled,
			Recognizer: cfg.Voice.Recognizer,
		},
		Archive: ConfigArchiveInfo{
			Enabled:        cfg.Archive.Enabled,
			Dir:            cfg.Archive.Dir,
			MaxTranscripts: cfg.Archive.MaxTranscripts,
		},
		UI: ConfigUIInfo{
			Theme:          cfg.UI.Theme,
			ShowTimestamps: cfg.UI.ShowTimestamps,
			Markdown:       cfg.UI.Markdown,
		},
		Path: path,
	}

	if args.JSON {
		NewJSONResponse("config", data).Print()
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render("cardwise configuration"))

	fmt.Println(SectionStyle.Render("Message Service"))
	fmt.Printf("%s %s\n", RenderLabel("base_url:"), ValueStyle.Render(data.API.BaseURL))
	if data.API.AuthSet {
		fmt.Printf("%s %s\n", RenderLabel("auth_token:"), DimStyle.Render("(set, hidden)"))
	} else {
		fmt.Printf("%s %s\n", RenderLabel("auth_token:"), DimStyle.Render("not set"))
	}
	fmt.Printf("%s %s\n", RenderLabel("timeout_secs:"), ValueStyle.Render(strconv.Itoa(data.API.TimeoutSecs)))
	fmt.Printf("%s %s\n", RenderLabel("max_retries:"), ValueStyle.Render(strconv.Itoa(data.API.MaxRetries)))

	fmt.Println(SectionStyle.Render("Chat"))
	fmt.Printf("%s %s\n", RenderLabel("poll_interval_ms:"), ValueStyle.Render(strconv.Itoa(data.Chat.PollIntervalMs)))
	fmt.Printf("%s %s\n", RenderLabel("followup_refresh_ms:"), ValueStyle.Render(strconv.Itoa(data.Chat.FollowupRefreshMs)))
	fmt.Printf("%s %s\n", RenderLabel("idle_after_mins:"), ValueStyle.Render(strconv.Itoa(data.Chat.IdleAfterMins)))
	fmt.Printf("%s %s\n", RenderLabel("idle_poll_interval_ms:"), ValueStyle.Render(strconv.Itoa(data.Chat.IdlePollIntervalMs)))

	fmt.Println(SectionStyle.Render("Voice"))
	fmt.Printf("%s %s\n", RenderLabel("enabled:"), ValueStyle.Render(strconv.FormatBool(data.Voice.Enabled)))
	if data.Voice.Recognizer != "" {
		fmt.Printf("%s %s\n", RenderLabel("recognizer:"), ValueStyle.Render(data.Voice.Recognizer))
	}

	fmt.Println(SectionStyle.Render("Archive"))
	fmt.Printf("%s %s\n", RenderLabel("enabled:"), ValueStyle.Render(strconv.FormatBool(data.Archive.Enabled)))
	fmt.Printf("%s %s\n", RenderLabel("max_transcripts:"), ValueStyle.Render(strconv.Itoa(data.Archive.MaxTranscripts)))

	fmt.Println(SectionStyle.Render("UI"))
	fmt.Printf("%s %s\n", RenderLabel("theme:"), ValueStyle.Render(data.UI.Theme))
	fmt.Printf("%s %s\n", RenderLabel("show_timestamps:"), ValueStyle.Render(strconv.FormatBool(data.UI.ShowTimestamps)))
	fmt.Printf("%s %s\n", RenderLabel("markdown:"), ValueStyle.Render(strconv.FormatBool(data.UI.Markdown)))

	fmt.Println()
	fmt.Printf("%s %s\n", RenderLabel("Config file:"), DimStyle.Render(data.Path))

	return ExitSuccess
}

func handleConfigGet(args Args) int {
	if args.ConfigKey == "" {
		err := ErrMissingArgument("key", "cardwise config get chat.poll_interval_ms")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	cfg, err := config.Load()
	if err != nil {
		DisplayError(WrapError(err, "could not load configuration"), args.JSON)
		return ExitConfigError
	}

	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	if args.JSON {
		NewJSONResponse("config", map[string]interface{}{args.ConfigKey: value}).Print()
		return ExitSuccess
	}

	fmt.Println(value)
	return ExitSuccess
}

func handleConfigSet(args Args) int {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		err := ErrMissingArgument("key and value", "cardwise config set api.base_url http://localhost:8787")
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	cfg, err := config.Load()
	if err != nil {
		DisplayError(WrapError(err, "could not load configuration"), args.JSON)
		return ExitConfigError
	}

	if err := cfg.Set(args.ConfigKey, coerceConfigValue(args.ConfigVal)); err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}

	if err := cfg.Validate(); err != nil {
		DisplayError(WrapError(err, "invalid configuration"), args.JSON)
		return ExitConfigError
	}

	if err := config.Save(cfg); err != nil {
		DisplayError(WrapError(err, "could not save configuration"), args.JSON)
		return ExitConfigError
	}

	if args.JSON {
		NewJSONResponse("config", map[string]string{args.ConfigKey: args.ConfigVal}).Print()
		return ExitSuccess
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("Saved"), args.ConfigKey, args.ConfigVal)
	return ExitSuccess
}

// coerceConfigValue converts the CLI string to the most specific type so
// numeric and boolean fields round-trip through Config.Set.
func coerceConfigValue(raw string) interface{} {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	return raw
}

func handleConfigPath(args Args) int {
	path, err := config.ConfigPathTOML()
	if err != nil {
		DisplayError(err, args.JSON)
		return ExitConfigError
	}

	if args.JSON {
		NewJSONResponse("config", map[string]string{"path": path}).Print()
		return ExitSuccess
	}

	fmt.Println(path)
	return ExitSuccess
}

func handleConfigReset(args Args) int {
	confirmed := args.Options["confirm"] == "true"

	ok, err := RequireConfirmation(confirmed, "reset configuration to defaults", args.JSON)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
	if !ok {
		ShowCancellationMessage()
		return ExitSuccess
	}

	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		DisplayError(WrapError(err, "could not save configuration"), args.JSON)
		return ExitConfigError
	}

	if args.JSON {
		NewJSONResponse("config", map[string]bool{"reset": true}).Print()
		return ExitSuccess
	}

	fmt.Println(SuccessStyle.Render("Configuration reset to defaults."))
	return ExitSuccess
}
