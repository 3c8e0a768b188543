// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package discovery handles finding component directories.
package discovery

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/manifest"
)

// Component is a discovered component directory.
type Component struct {
	ID       string             // Manifest name, the component's identity
	Dir      string             // Full path to the component directory
	Manifest *manifest.Manifest // Parsed manifest
	Info     hostapi.Info       // Manifest-derived dependency list
}

// Discoverer finds valid components under a set of search paths.
type Discoverer struct {
	searchPaths []string
	log         *log.Logger
}

// New creates a discoverer over the given search paths. With none given it
// falls back to the defaults. logger may be nil.
func New(logger *log.Logger, searchPaths ...string) *Discoverer {
	if logger == nil {
		logger = log.Default()
	}
	if len(searchPaths) == 0 {
		searchPaths = defaultSearchPaths()
	}
	return &Discoverer{searchPaths: searchPaths, log: logger}
}

// defaultSearchPaths returns the paths searched when none are configured.
// Search order: ~/.skiff/components -> ./components
func defaultSearchPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".skiff", "components"))
	}
	paths = append(paths, "components")
	return paths
}

// Discover finds all valid components in the search paths. Directories
// without a parseable manifest are skipped silently; duplicates by id are
// resolved first-found-wins.
func (d *Discoverer) Discover() ([]*Component, error) {
	var components []*Component
	seen := make(map[string]bool)

	for _, searchPath := range d.searchPaths {
		if _, err := os.Stat(searchPath); os.IsNotExist(err) {
			continue
		}

		found, err := d.discoverInPath(searchPath)
		if err != nil {
			d.log.Warn("error searching path", "path", searchPath, "err", err)
			continue
		}

		for _, c := range found {
			if !seen[c.ID] {
				components = append(components, c)
				seen[c.ID] = true
			}
		}
	}

	return components, nil
}

func (d *Discoverer) discoverInPath(searchPath string) ([]*Component, error) {
	entries, err := os.ReadDir(searchPath)
	if err != nil {
		return nil, err
	}

	var components []*Component
	for _, entry := range entries {
		dir := filepath.Join(searchPath, entry.Name())

		// Follow symlinks when checking for a directory.
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		mf, depInfo, err := manifest.LoadFromDir(dir)
		if err != nil {
			// Not a valid component, skip.
			d.log.Debug("skipping directory", "dir", dir, "err", err)
			continue
		}

		components = append(components, &Component{
			ID:       mf.Name,
			Dir:      dir,
			Manifest: mf,
			Info:     depInfo,
		})
	}
	return components, nil
}
