// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package manager owns the lifecycle of scripted components: register a
// component directory, load it into a fresh script runtime, hand its bound
// functions to the host, and tear the session down again on unload.
//
// A component moves through three states:
//
//	unregistered -> registered -> loaded -> unregistered
//
// Register only reads the manifest; no runtime exists until Load. Load is
// all-or-nothing: a failure at any step (missing entry file, source error,
// unfulfilled request, malformed export) leaves no session behind.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/jsapi"
	"github.com/skiffworks/skiff/internal/manifest"
	"github.com/skiffworks/skiff/internal/scripting"
)

// EntryFile is the entry source expected in a component's root directory.
const EntryFile = "index.js"

var (
	// ErrAlreadyRegistered indicates a second Register for the same id.
	ErrAlreadyRegistered = errors.New("component already registered")

	// ErrNotRegistered indicates the component id is unknown.
	ErrNotRegistered = errors.New("component not registered")

	// ErrAlreadyLoaded indicates Load on a component that has a live session.
	ErrAlreadyLoaded = errors.New("component already loaded")

	// ErrNotLoaded indicates Unload on a component without a session.
	ErrNotLoaded = errors.New("component not loaded")

	// ErrStillLoaded indicates Unregister on a component that must be
	// unloaded first.
	ErrStillLoaded = errors.New("component still loaded")

	// ErrEntryMissing indicates the component directory has no entry source.
	ErrEntryMissing = errors.New("entry source not found")
)

// LoadContext carries everything the host supplies for one load.
type LoadContext struct {
	// API resolves cross-component calls for the gateway. Nil disables the
	// gateway globals.
	API hostapi.API

	// Host lists the host-owned functions installed as globals before the
	// entry source runs. May be nil.
	Host *hostapi.Registry

	// Requests are the function signatures the component must supply.
	Requests []hostapi.Request

	// OnRequest receives each fulfilled request descriptor. Called only
	// after every request resolved. May be nil.
	OnRequest func(function.Function) error

	// OnExport receives each ad-hoc export descriptor. Called only after
	// the whole export list parsed cleanly. May be nil.
	OnExport func(function.Function) error

	// OnUnload runs when the session is dropped, on Unload and before the
	// rebind in Reload, so the host can retract every descriptor it was
	// handed. Descriptors outliving their session keep executing against
	// the discarded runtime. May be nil.
	OnUnload func()
}

type component struct {
	dir      string
	manifest *manifest.Manifest
	info     hostapi.Info
	session  *Session

	// loadCtx is retained from the last successful Load so the watcher can
	// reload with the same host wiring.
	loadCtx LoadContext
}

// Manager is the component session manager. One instance owns all sessions;
// there is at most one session per component id at any time, and a session
// exists iff the component is loaded.
//
// The manager's own mutex guards the component map and serializes lifecycle
// operations. It is independent of the per-session locks: lifecycle changes
// for one component never block calls running inside another component's
// session.
type Manager struct {
	mu         sync.Mutex
	components map[string]*component
	log        *log.Logger
}

// New creates an empty manager. logger may be nil.
func New(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		components: make(map[string]*component),
		log:        logger,
	}
}

// Register reads and validates the manifest in dir and records the component
// as registered. No runtime is constructed. The returned Info is the
// manifest-derived dependency list the host's registry consumes.
func (m *Manager) Register(id, dir string) (hostapi.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.components[id]; ok {
		return hostapi.Info{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}

	mf, info, err := manifest.LoadFromDir(dir)
	if err != nil {
		return hostapi.Info{}, err
	}

	m.components[id] = &component{dir: dir, manifest: mf, info: info}
	m.log.Info("registered component", "id", id, "name", mf.Name)
	return info, nil
}

// Load brings a registered component up: fresh runtime, host functions and
// gateway installed, entry source executed, requests fulfilled, exports
// bound, session stored. Any failure leaves the component registered but not
// loaded, with no session and nothing handed to the host callbacks.
func (m *Manager) Load(id string, ctx LoadContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if c.session != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	}

	sess, err := m.buildSession(id, c.dir, ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", id, err)
	}

	c.session = sess
	c.loadCtx = ctx
	m.log.Info("loaded component", "id", id)
	return nil
}

// buildSession runs the load sequence against a runtime nothing else can see
// yet; the session lock is not needed until the session is published.
func (m *Manager) buildSession(id, dir string, ctx LoadContext) (*Session, error) {
	runner := scripting.NewGojaRunner(dir)
	sess := newSession(id, runner)
	vm := runner.Runtime()

	if err := jsapi.InstallHostFunctions(vm, ctx.Host); err != nil {
		return nil, err
	}
	if ctx.API != nil {
		if err := jsapi.InstallGateway(vm, ctx.API); err != nil {
			return nil, err
		}
	}

	entry := filepath.Join(dir, EntryFile)
	if _, err := os.Stat(entry); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryMissing, entry)
	}
	entryResult, err := runner.RunFile(entry)
	if err != nil {
		return nil, fmt.Errorf("entry source %s: %w", entry, err)
	}

	requests, err := jsapi.BindRequests(vm, sess, ctx.Requests)
	if err != nil {
		return nil, err
	}
	exports, err := jsapi.BindExports(vm, sess, entryResult)
	if err != nil {
		return nil, err
	}
	m.log.Debug("bound component functions",
		"id", id, "requests", len(requests), "exports", len(exports))

	if ctx.OnRequest != nil {
		for _, fn := range requests {
			if err := ctx.OnRequest(fn); err != nil {
				return nil, fmt.Errorf("registering request %s: %w", fn.Name(), err)
			}
		}
	}
	if ctx.OnExport != nil {
		for _, fn := range exports {
			if err := ctx.OnExport(fn); err != nil {
				return nil, fmt.Errorf("registering export %s: %w", fn.Name(), err)
			}
		}
	}

	return sess, nil
}

// Unload removes and drops the component's session. The runtime and all its
// globals are discarded; no notification is sent into the script.
func (m *Manager) Unload(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if c.session == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}

	c.session = nil
	if c.loadCtx.OnUnload != nil {
		c.loadCtx.OnUnload()
	}
	m.log.Info("unloaded component", "id", id)
	return nil
}

// Reload unloads and loads the component again with the LoadContext from its
// last successful load.
func (m *Manager) Reload(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if c.session == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}

	// Retract the old session's descriptors before rebinding; the new
	// source may export fewer functions than the old one did.
	c.session = nil
	if c.loadCtx.OnUnload != nil {
		c.loadCtx.OnUnload()
	}

	sess, err := m.buildSession(id, c.dir, c.loadCtx)
	if err != nil {
		// A failed reload leaves the component registered but unloaded,
		// same as a failed load.
		return fmt.Errorf("reloading %s: %w", id, err)
	}

	c.session = sess
	m.log.Info("reloaded component", "id", id)
	return nil
}

// Unregister forgets a component. Bookkeeping only; the component must be
// unloaded first.
func (m *Manager) Unregister(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if c.session != nil {
		return fmt.Errorf("%w: %s", ErrStillLoaded, id)
	}

	delete(m.components, id)
	m.log.Info("unregistered component", "id", id)
	return nil
}

// Loaded reports whether the component currently has a live session.
func (m *Manager) Loaded(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.components[id]
	return ok && c.session != nil
}

// Registered reports whether the component id is known.
func (m *Manager) Registered(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.components[id]
	return ok
}

// Manifest returns the registered component's parsed manifest.
func (m *Manager) Manifest(id string) (*manifest.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	return c.manifest, nil
}

// Components lists registered component ids in map order.
func (m *Manager) Components() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.components))
	for id := range m.components {
		ids = append(ids, id)
	}
	return ids
}
