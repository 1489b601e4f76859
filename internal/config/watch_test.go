// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDirIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	reloaded := make(chan *Config, 1)
	w, err := WatchDir(dir, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("WatchDir: %v", err)
	}
	defer w.Close()

	// Unrelated files in the config directory never trigger a reload.
	if err := SaveTOML(Default(), filepath.Join(dir, "notes.toml")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("unrelated file should not trigger reload")
	case <-time.After(2 * debounceWindow):
	}
}

func TestIsConfigFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/home/u/.cardwise/config.toml", true},
		{"/home/u/.cardwise/config.json", true},
		{"/home/u/.cardwise/cardwise.db", false},
		{"/home/u/.cardwise/config.toml.bak", false},
	}
	for _, tt := range tests {
		if got := isConfigFile(tt.path); got != tt.want {
			t.Errorf("isConfigFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
