// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - System diagnostics command.
//
// Runs a battery of health checks against the local setup and the message
// service, prints results with suggested fixes, and exits non-zero when any
// check fails.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// HandleDoctor handles the doctor command. Returns the process exit code.
func HandleDoctor(args Args) int {
	var checks []DoctorCheck

	checks = append(checks, checkConfig())
	checks = append(checks, checkConfigDir())
	checks = append(checks, checkService(args))
	checks = append(checks, checkVoice())
	checks = append(checks, checkArchiveDir())
	checks = append(checks, checkTerminal())

	summary := DoctorSummary{}
	for _, c := range checks {
		switch c.Status {
		case "pass":
			summary.Passed++
		case "warn":
			summary.Warned++
		case "fail":
			summary.Failed++
		}
	}
	summary.Healthy = summary.Failed == 0

	if args.JSON {
		NewJSONResponse("doctor", DoctorData{Checks: checks, Summary: summary}).Print()
		if !summary.Healthy {
			return ExitGeneralError
		}
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render("cardwise doctor"))

	for _, c := range checks {
		fmt.Printf("%s %s\n", RenderStatus(c.Status), ValueStyle.Render(c.Name))
		fmt.Printf("       %s\n", DimStyle.Render(c.Message))
		if c.Fix != "" && c.Status != "pass" {
			fmt.Printf("       %s %s\n", WarningStyle.Render("fix:"), c.Fix)
		}
	}

	fmt.Println()
	fmt.Printf("%d passed, %d warnings, %d failed\n", summary.Passed, summary.Warned, summary.Failed)

	if !summary.Healthy {
		fmt.Println(ErrorStyle.Render("Some checks failed."))
		return ExitGeneralError
	}
	fmt.Println(SuccessStyle.Render("All checks passed."))
	return ExitSuccess
}

func checkConfig() DoctorCheck {
	check := DoctorCheck{Name: "Configuration"}

	cfg, err := config.Load()
	if err != nil {
		check.Status = "fail"
		check.Message = "config file could not be loaded: " + err.Error()
		check.Fix = "run 'cardwise config reset --confirm' to rewrite defaults"
		return check
	}

	if err := cfg.Validate(); err != nil {
		check.Status = "fail"
		check.Message = "config is invalid: " + err.Error()
		check.Fix = "fix the reported keys with 'cardwise config set'"
		return check
	}

	path, _ := config.ConfigPathTOML()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Status = "warn"
		check.Message = "no config file found, using built-in defaults"
		check.Fix = "run 'cardwise config set' once to create " + path
		return check
	}

	check.Status = "pass"
	check.Message = "loaded and valid (" + path + ")"
	return check
}

func checkConfigDir() DoctorCheck {
	check := DoctorCheck{Name: "Config directory"}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = "fail"
		check.Message = "cannot resolve config directory: " + err.Error()
		return check
	}

	if err := config.EnsureConfigDir(); err != nil {
		check.Status = "fail"
		check.Message = dir + " is not writable: " + err.Error()
		check.Fix = "check ownership and permissions of " + dir
		return check
	}

	check.Status = "pass"
	check.Message = dir + " exists and is writable"
	return check
}

func checkService(args Args) DoctorCheck {
	check := DoctorCheck{Name: "Message service"}

	cfg := loadConfig(args)
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
	defer cancel()

	start := time.Now()
	health, err := client.CheckHealth(ctx)
	if err != nil {
		check.Status = "fail"
		check.Message = cfg.API.BaseURL + " is unreachable: " + err.Error()
		check.Fix = "start the development service with 'cardwise serve'"
		return check
	}
	if health.Status != "ok" {
		check.Status = "warn"
		check.Message = "service responded with status " + health.Status
		return check
	}

	check.Status = "pass"
	check.Message = fmt.Sprintf("%s responded in %dms", cfg.API.BaseURL, time.Since(start).Milliseconds())
	return check
}

func checkVoice() DoctorCheck {
	check := DoctorCheck{Name: "Voice input"}

	cfg, err := config.Load()
	if err == nil && !cfg.Voice.Enabled {
		check.Status = "warn"
		check.Message = "disabled in config"
		check.Fix = "enable with 'cardwise config set voice.enabled true'"
		return check
	}

	if cfg != nil && cfg.Voice.Recognizer != "" {
		if _, err := os.Stat(cfg.Voice.Recognizer); err != nil {
			check.Status = "fail"
			check.Message = "configured recognizer not found: " + cfg.Voice.Recognizer
			check.Fix = "install the recognizer or clear voice.recognizer to auto-detect"
			return check
		}
		check.Status = "pass"
		check.Message = "using configured recognizer " + cfg.Voice.Recognizer
		return check
	}

	if _, err := voice.Detect(); err != nil {
		check.Status = "warn"
		check.Message = "no speech recognizer found on this system"
		check.Fix = "install a recognizer (hear on macOS, vosk-transcriber on Linux)"
		return check
	}

	check.Status = "pass"
	check.Message = "speech recognizer detected"
	return check
}

func checkArchiveDir() DoctorCheck {
	check := DoctorCheck{Name: "Transcript archive"}

	cfg, err := config.Load()
	if err == nil && !cfg.Archive.Enabled {
		check.Status = "warn"
		check.Message = "disabled in config"
		check.Fix = "enable with 'cardwise config set archive.enabled true'"
		return check
	}

	dir := ""
	if cfg != nil {
		dir = cfg.Archive.Dir
	}
	if dir == "" {
		base, err := config.ConfigDir()
		if err != nil {
			check.Status = "fail"
			check.Message = "cannot resolve archive directory: " + err.Error()
			return check
		}
		dir = filepath.Join(base, "transcripts")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		check.Status = "fail"
		check.Message = dir + " is not writable: " + err.Error()
		check.Fix = "check ownership and permissions of " + dir
		return check
	}

	check.Status = "pass"
	check.Message = dir + " exists and is writable"
	return check
}

func checkTerminal() DoctorCheck {
	check := DoctorCheck{Name: "Terminal"}

	caps := GetTerminalCapabilities()
	if !caps.IsStdoutTTY {
		check.Status = "warn"
		check.Message = "stdout is not a terminal; the TUI needs an interactive terminal"
		return check
	}

	if caps.Width < MinTerminalWidth {
		check.Status = "warn"
		check.Message = fmt.Sprintf("terminal is narrow (%d columns); layout may wrap", caps.Width)
		return check
	}

	detail := fmt.Sprintf("%dx%d", caps.Width, caps.Height)
	if caps.SupportsTrueColor {
		detail += ", true color"
	} else if caps.Supports256Color {
		detail += ", 256 colors"
	} else if !caps.ColorsEnabled {
		detail += ", colors disabled"
	}

	check.Status = "pass"
	check.Message = detail
	return check
}
