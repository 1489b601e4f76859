// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Local development message service command.
//
// `cardwise serve` runs the bundled message service so the TUI and CLI
// commands have something to talk to without a deployed backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/server"
)

// serveShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
const serveShutdownTimeout = 5 * time.Second

// HandleServe handles the serve command. Blocks until the server stops.
// Returns the process exit code.
func HandleServe(args Args) int {
	cfg := loadConfig(args)

	listen := cfg.Server.Listen
	if v, ok := args.Options["listen"]; ok && v != "" && v != "true" {
		listen = v
	}

	dbPath := cfg.Server.DBPath
	if v, ok := args.Options["db"]; ok && v != "" && v != "true" {
		dbPath = v
	}
	if dbPath == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			DisplayError(WrapError(err, "could not resolve the database path"), args.JSON)
			return ExitConfigError
		}
		if err := config.EnsureConfigDir(); err != nil {
			DisplayError(WrapError(err, "could not create the config directory"), args.JSON)
			return ExitConfigError
		}
		dbPath = filepath.Join(dir, "cardwise.db")
	}

	db, err := server.OpenDB(dbPath)
	if err != nil {
		DisplayError(WrapError(err, "could not open the database"), args.JSON)
		return GetExitCode(err)
	}
	defer db.Close()

	delay := time.Duration(cfg.Server.ResponseDelayMs) * time.Millisecond
	srv := server.NewServer(db, listen).
		WithResponder(server.NewResponder(db, delay))

	if cfg.API.AuthToken != "" {
		auth := server.DefaultAuthConfig()
		auth.Enabled = true
		auth.BearerToken = cfg.API.AuthToken
		srv = srv.WithAuth(auth)
	}

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("cardwise message service"))
		fmt.Printf("%s %s\n", RenderLabel("Listening:"), ValueStyle.Render("http://"+srv.Listen()))
		fmt.Printf("%s %s\n", RenderLabel("Database:"), ValueStyle.Render(dbPath))
		fmt.Println(DimStyle.Render("Press Ctrl+C to stop."))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			DisplayError(WrapError(err, "server stopped"), args.JSON)
			return GetExitCode(err)
		}
		return ExitSuccess
	case <-sigCh:
		if !args.Quiet {
			fmt.Println()
			fmt.Println(DimStyle.Render("Shutting down..."))
		}
		ctx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			DisplayError(WrapError(err, "shutdown failed"), args.JSON)
			return ExitGeneralError
		}
		return ExitSuccess
	}
}
