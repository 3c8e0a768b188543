// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package scripting

import (
	"fmt"
	"os"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// GojaRunner implements Runner using the Goja JavaScript interpreter.
type GojaRunner struct {
	vm *goja.Runtime
}

// NewGojaRunner creates a fresh runtime. searchDir, when non-empty, is added
// to the module search path so a component's entry source can require()
// siblings from its own directory.
func NewGojaRunner(searchDir string) *GojaRunner {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	opts := []require.Option{}
	if searchDir != "" {
		opts = append(opts, require.WithGlobalFolders(searchDir))
	}
	registry := require.NewRegistry(opts...)
	registry.Enable(vm)
	console.Enable(vm)

	return &GojaRunner{vm: vm}
}

// Run executes inline code and returns its completion value.
func (r *GojaRunner) Run(code string) (goja.Value, error) {
	result, err := r.vm.RunString(code)
	if err != nil {
		return nil, wrapException(err)
	}
	return result, nil
}

// RunFile executes the script at path and returns its completion value.
func (r *GojaRunner) RunFile(path string) (goja.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := r.vm.RunScript(path, string(src))
	if err != nil {
		return nil, wrapException(err)
	}
	return result, nil
}

// Global returns the named global, or nil if it was never defined.
func (r *GojaRunner) Global(name string) goja.Value {
	return r.vm.Get(name)
}

// Interrupt stops the currently running script.
func (r *GojaRunner) Interrupt() {
	r.vm.Interrupt("script interrupted")
}

// Runtime returns the underlying Goja runtime for installing globals and
// invoking callables. Callers must hold the owning session's lock when the
// component is live.
func (r *GojaRunner) Runtime() *goja.Runtime {
	return r.vm
}

// wrapException converts Goja exceptions to ScriptError with a readable
// message (including position info); other errors pass through.
func wrapException(err error) error {
	if jsErr, ok := err.(*goja.Exception); ok {
		return &ScriptError{Message: jsErr.String()}
	}
	return err
}

// Compile-time interface check
var _ Runner = (*GojaRunner)(nil)
