// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the shell's host configuration, read from skiffsh.yaml.
type Config struct {
	// SearchPaths are the directories scanned for components. Empty means
	// the discovery defaults.
	SearchPaths []string `yaml:"search_paths"`

	// HistoryFile overrides the readline history location.
	HistoryFile string `yaml:"history_file"`

	// AutoReload watches loaded components and reloads them on change.
	AutoReload bool `yaml:"auto_reload"`
}

const defaultConfigFile = "skiffsh.yaml"

// loadConfig reads the config at path. A missing file is fine unless the
// path was set explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skiffsh_history"
	}
	return filepath.Join(home, ".skiffsh_history")
}
