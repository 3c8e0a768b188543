// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import "github.com/dop251/goja"

// Session is the lock-protected handle to a component's runtime. Descriptor
// bodies that re-enter the runtime from the host side hold it for the full
// duration of the call, so all calls into one component are totally ordered.
//
// The lock is not reentrant. Host-exposed functions and the gateway run
// inside a script call that already holds it, which is why they use the raw
// runtime instead of going through With. The corollary is that a component
// must not call back into itself through the gateway - directly or through a
// dependency cycle - or the second acquisition deadlocks. Self-calls are
// forbidden, not detected.
type Session interface {
	// With runs fn with exclusive access to the session's runtime.
	With(fn func(vm *goja.Runtime) error) error
}
