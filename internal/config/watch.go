// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow collapses the editor write burst (truncate, write, chmod)
// into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads the global config when the config file changes on disk.
type Watcher struct {
	fsw    *fsnotify.Watcher
	done   chan struct{}
	onLoad func(*Config)
}

// Watch starts watching the config directory and reloads the global config
// on changes. onLoad, if non-nil, is called with the new config after each
// successful reload. Close the returned watcher to stop.
func Watch(onLoad func(*Config)) (*Watcher, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return WatchDir(dir, onLoad)
}

// WatchDir watches a specific directory for config file changes.
func WatchDir(dir string, onLoad func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files via rename,
	// which drops a watch on the file itself.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		done:   make(chan struct{}),
		onLoad: onLoad,
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := ReloadGlobal(); err != nil {
		log.Printf("config reload failed: %v", err)
		return
	}
	if w.onLoad != nil {
		w.onLoad(Global())
	}
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.toml" || base == "config.json"
}
