// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package scripting provides the embedded script runtime behind a small
// Runner abstraction. One runner backs one loaded component; it lives for
// exactly as long as the component stays loaded.
package scripting

import "github.com/dop251/goja"

// ScriptError represents a failure raised while executing script source.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// Runner is the low-level VM abstraction for executing component source.
//
// It deliberately does NOT handle:
//   - Timeouts or context cancellation (a call that never returns blocks its
//     caller; callers own Interrupt if they want to enforce deadlines)
//   - Locking (the owning session serializes access)
type Runner interface {
	// Run executes inline code and returns its completion value.
	Run(code string) (goja.Value, error)

	// RunFile executes a script file and returns its completion value.
	RunFile(path string) (goja.Value, error)

	// Global returns the named global, or nil if it was never defined.
	Global(name string) goja.Value

	// Interrupt stops the currently running script. Safe to call from
	// another goroutine.
	Interrupt()
}
