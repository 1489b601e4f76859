// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// service.go - Shared message service wiring for CLI commands.
package cli

import (
	"time"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/config"
)

// loadConfig loads the configuration and applies CLI overrides.
// Falls back to defaults when no config file exists or loading fails;
// commands that care about load errors use config.Load directly.
func loadConfig(args Args) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if args.Server != "" {
		cfg.API.BaseURL = args.Server
	}
	if args.Token != "" {
		cfg.API.AuthToken = args.Token
	}
	return cfg
}

// newClient builds a message service client from config.
func newClient(cfg *config.Config) *api.Client {
	client := api.NewClient(cfg.API.BaseURL)
	if cfg.API.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)
	}
	if cfg.API.MaxRetries > 0 {
		client = client.WithMaxRetries(cfg.API.MaxRetries)
	}
	if cfg.API.AuthToken != "" {
		client = client.WithAuthToken(cfg.API.AuthToken)
	}
	return client
}
