// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package manifest handles component manifest files.
//
// Every component root carries a manifest.toml naming the component and
// declaring its dependencies on other components:
//
//	name = "greeter"
//	description = "Greets things"
//	author = "Example Author"
//	license = "MIT"
//
//	[depends]
//	formatter = "^1.0.0"
//
//	[optional_depends]
//	emoji = ">=2.1"
//
// The manifest is consumed, not owned: it is parsed into the resolved
// dependency list the host's registry works with.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/skiffworks/skiff/internal/hostapi"
)

// FileName is the manifest file expected in a component's root directory.
const FileName = "manifest.toml"

var (
	// ErrNotFound indicates the manifest file is absent. Distinct from a
	// malformed file so callers can tell "not a component" from "broken
	// component".
	ErrNotFound = errors.New("manifest.toml not found")

	// ErrInvalidFormat indicates the manifest exists but could not be parsed
	// or validated.
	ErrInvalidFormat = errors.New("invalid manifest")
)

// Manifest is a component's parsed manifest.toml. Unknown fields are
// rejected during parsing.
type Manifest struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
	License     string `toml:"license,omitempty"`

	// Depends maps component ids to semver requirement strings ("^1.0.0").
	Depends map[string]string `toml:"depends,omitempty"`

	// OptionalDepends has the same shape as Depends; these components may be
	// absent at call time without that being an error.
	OptionalDepends map[string]string `toml:"optional_depends,omitempty"`
}

// Validate checks required fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFormat)
	}
	if m.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidFormat)
	}
	if m.Author == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidFormat)
	}
	return nil
}

// LoadFromDir reads and validates dir/manifest.toml and derives the
// dependency info the host consumes. Dependency lists come back sorted by
// component id so the result is deterministic.
func LoadFromDir(dir string) (*Manifest, hostapi.Info, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hostapi.Info{}, fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return nil, hostapi.Info{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, hostapi.Info{}, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, hostapi.Info{}, err
	}

	depends, err := parseDepends(m.Depends, "depends")
	if err != nil {
		return nil, hostapi.Info{}, err
	}
	optional, err := parseDepends(m.OptionalDepends, "optional_depends")
	if err != nil {
		return nil, hostapi.Info{}, err
	}

	return &m, hostapi.Info{Depends: depends, OptionalDepends: optional}, nil
}

func parseDepends(reqs map[string]string, field string) ([]hostapi.Depend, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	depends := make([]hostapi.Depend, 0, len(ids))
	for _, id := range ids {
		c, err := semver.NewConstraint(reqs[id])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: bad version requirement %q: %v",
				ErrInvalidFormat, field, id, reqs[id], err)
		}
		depends = append(depends, hostapi.Depend{ID: id, Requirement: c})
	}
	return depends, nil
}
