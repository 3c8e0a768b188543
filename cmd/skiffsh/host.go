// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/value"
)

// Host is the shell's in-memory host: it keeps one function table per loaded
// component and resolves cross-component calls against them. Version
// resolution is deliberately simple - a call matches when the requested
// version equals the component's registered version.
type Host struct {
	mu       sync.RWMutex
	exports  map[string]map[string]function.Function
	versions map[string]*semver.Version
}

func NewHost() *Host {
	return &Host{
		exports:  make(map[string]map[string]function.Function),
		versions: make(map[string]*semver.Version),
	}
}

// SetVersion records the version the component is loaded as.
func (h *Host) SetVersion(id string, v *semver.Version) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.versions[id] = v
}

// ExportSink returns the callback that registers a component's exports into
// its function table.
func (h *Host) ExportSink(id string) func(function.Function) error {
	return func(fn function.Function) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.exports[id] == nil {
			h.exports[id] = make(map[string]function.Function)
		}
		h.exports[id][fn.Name()] = fn
		return nil
	}
}

// DropExports clears a component's function table while keeping its version
// pin. Wired as the session manager's unload hook so exports never outlive
// the session they were bound in.
func (h *Host) DropExports(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.exports, id)
}

// DropComponent forgets a component entirely, table and version pin both.
func (h *Host) DropComponent(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.exports, id)
	delete(h.versions, id)
}

// Exports lists a component's function names, sorted.
func (h *Host) Exports(id string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.exports[id]))
	for name := range h.exports[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls a component function directly from the shell.
func (h *Host) Invoke(id, name string, args []value.Value) (*value.Value, error) {
	h.mu.RLock()
	fn := h.exports[id][name]
	h.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("no function %s on component %s", name, id)
	}
	return fn.Call(args)
}

func (h *Host) resolve(id string, version *semver.Version, name string) (function.Function, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	have, ok := h.versions[id]
	if !ok || !have.Equal(version) {
		return nil, false
	}
	fn := h.exports[id][name]
	return fn, fn != nil
}

// CallDepend resolves a required-dependency call; every miss is an error.
func (h *Host) CallDepend(id string, version *semver.Version, name string, args []value.Value) (*value.Value, error) {
	fn, ok := h.resolve(id, version, name)
	if !ok {
		return nil, fmt.Errorf("function %s not found on %s@%s", name, id, version)
	}
	return fn.Call(args)
}

// CallOptionalDepend resolves an optional-dependency call; a miss is an
// absence signal, not an error.
func (h *Host) CallOptionalDepend(id string, version *semver.Version, name string, args []value.Value) (bool, *value.Value, error) {
	fn, ok := h.resolve(id, version, name)
	if !ok {
		return false, nil, nil
	}
	out, err := fn.Call(args)
	return true, out, err
}

var _ hostapi.API = (*Host)(nil)

// builtinRegistry assembles the host functions every component sees as
// globals.
func builtinRegistry(output func(string)) (*hostapi.Registry, error) {
	reg := hostapi.NewRegistry()

	print := function.New("print",
		[]function.Arg{{Name: "args"}}, nil,
		func(args []value.Value) (*value.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				if a.Kind() == value.KindString {
					parts[i] = a.Text()
				} else {
					parts[i] = a.String()
				}
			}
			output(strings.Join(parts, " "))
			return nil, nil
		})

	now := function.New("now", nil,
		&function.Arg{Name: "output", Type: function.Of(value.KindString)},
		func([]value.Value) (*value.Value, error) {
			out := value.String(time.Now().Format(time.RFC3339))
			return &out, nil
		})

	for _, fn := range []function.Function{print, now} {
		if err := reg.Add(fn); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
