// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cardwise.
//
// Supports TOML and JSON formats with sensible defaults, CARDWISE_*
// environment overrides, and validation. A fsnotify watcher reloads the
// global config when the file changes on disk.
//
// Configuration file locations (in order of precedence):
//   - ~/.cardwise/config.toml
//   - ~/.cardwise/config.json
//   - Built-in defaults
package config
