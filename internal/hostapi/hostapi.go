// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package hostapi defines the surface the host plugin framework presents to
// the bridge. The host owns component registration, version resolution and
// per-component function tables; the bridge only calls through these
// interfaces and hands descriptors back across them.
package hostapi

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/value"
)

// ErrDuplicateFunction is returned by Registry.Add for a name collision.
var ErrDuplicateFunction = errors.New("function already registered")

// API is the host's cross-component call surface. Implementations resolve a
// function by component id, version and name on the caller's declared
// dependencies.
type API interface {
	// CallDepend invokes name on a required dependency. A missing component,
	// version or function is an error, as is any failure raised by the call.
	CallDepend(id string, version *semver.Version, name string, args []value.Value) (*value.Value, error)

	// CallOptionalDepend invokes name on an optional dependency. An absent
	// dependency or function is not an error: it reports found == false with
	// a nil result. Genuine call failures still return an error.
	CallOptionalDepend(id string, version *semver.Version, name string, args []value.Value) (found bool, out *value.Value, err error)
}

// Request is a host-declared function signature a component must supply at
// load time to be usable.
type Request struct {
	Name   string
	Inputs []function.Type
	Output *function.Type
}

// Depend names another component and the version range that satisfies it.
type Depend struct {
	ID          string
	Requirement *semver.Constraints
}

// Info is the manifest-derived dependency list consumed by the host.
type Info struct {
	Depends         []Depend
	OptionalDepends []Depend
}

// Registry holds the host-owned functions exposed to every component's
// runtime as globals. Order is preserved; names are unique.
type Registry struct {
	funcs  []function.Function
	byName map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]struct{})}
}

// Add appends fn, rejecting duplicate names. Uniqueness here is what makes
// overwriting globals during install safe.
func (r *Registry) Add(fn function.Function) error {
	if _, ok := r.byName[fn.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, fn.Name())
	}
	r.byName[fn.Name()] = struct{}{}
	r.funcs = append(r.funcs, fn)
	return nil
}

// Functions returns the registered functions in insertion order.
func (r *Registry) Functions() []function.Function {
	return r.funcs
}

// Len reports the number of registered functions.
func (r *Registry) Len() int { return len(r.funcs) }
