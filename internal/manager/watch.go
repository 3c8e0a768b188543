// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor save produces into
// one reload.
const watchDebounce = 500 * time.Millisecond

// Watch starts a filesystem watcher over the directories of all currently
// registered components and reloads a loaded component when its source or
// manifest changes. Reload failures are logged, never fatal; the component
// is simply left unloaded. The watcher stops when ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	// Map watched directories back to component ids.
	dirs := make(map[string]string)
	m.mu.Lock()
	for id, c := range m.components {
		dirs[filepath.Clean(c.dir)] = id
	}
	m.mu.Unlock()

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go func() {
		defer func() { _ = watcher.Close() }()

		var timerMu sync.Mutex
		timers := make(map[string]*time.Timer)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !strings.HasSuffix(event.Name, ".js") && !strings.HasSuffix(event.Name, ".toml") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				id, ok := dirs[filepath.Dir(filepath.Clean(event.Name))]
				if !ok {
					continue
				}

				timerMu.Lock()
				if t := timers[id]; t != nil {
					t.Stop()
				}
				timers[id] = time.AfterFunc(watchDebounce, func() {
					if !m.Loaded(id) {
						return
					}
					if err := m.Reload(id); err != nil {
						m.log.Error("auto-reload failed", "id", id, "err", err)
					}
				})
				timerMu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.log.Warn("file watcher error", "err", err)
			}
		}
	}()

	return nil
}
