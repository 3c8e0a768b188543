// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package manager

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/jsapi"
	"github.com/skiffworks/skiff/internal/scripting"
)

// Session owns one script runtime for one loaded component. Every call that
// executes script code - a host-issued call on a bound descriptor, a
// cross-component call arriving from another session - goes through With and
// holds the lock for the full duration, so calls into one component are
// totally ordered. Sessions for different components are independent and may
// run concurrently.
//
// The lock is not reentrant. A component that reaches itself through the
// cross-component gateway (directly or via a dependency cycle) deadlocks on
// the second acquisition; self-calls are forbidden rather than detected.
// There is no timeout: a call that never returns blocks its caller.
type Session struct {
	id     string
	mu     sync.Mutex
	runner *scripting.GojaRunner
}

func newSession(id string, runner *scripting.GojaRunner) *Session {
	return &Session{id: id, runner: runner}
}

// ID returns the owning component's identifier.
func (s *Session) ID() string { return s.id }

// With runs fn with exclusive access to the session's runtime.
func (s *Session) With(fn func(vm *goja.Runtime) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.runner.Runtime())
}

// Interrupt stops whatever the session's runtime is currently executing.
// Safe to call without holding the lock.
func (s *Session) Interrupt() {
	s.runner.Interrupt()
}

var _ jsapi.Session = (*Session)(nil)
