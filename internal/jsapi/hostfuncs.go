// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/hostapi"
)

// InstallHostFunctions installs one global callable per registry entry into
// vm. Each callable converts its script arguments to tagged values, invokes
// the descriptor body, and converts the optional result back (none becomes
// null). Conversion and call failures surface as script exceptions.
//
// Installation mutates the global namespace; an existing global of the same
// name is overwritten. Name uniqueness is the registry's job.
//
// The callables never take the session lock: they only ever run inside a
// script call that already holds it.
func InstallHostFunctions(vm *goja.Runtime, reg *hostapi.Registry) error {
	if reg == nil {
		return nil
	}

	for _, fn := range reg.Functions() {
		fn := fn
		wrapper := func(call goja.FunctionCall) goja.Value {
			args, err := argsFromJS(call.Arguments)
			if err != nil {
				panic(vm.NewGoError(fmt.Errorf("%s: %w", fn.Name(), err)))
			}

			out, err := fn.Call(args)
			if err != nil {
				panic(vm.NewGoError(fmt.Errorf("%s: %w", fn.Name(), err)))
			}
			if out == nil {
				return goja.Null()
			}
			return ToJS(vm, *out)
		}

		if err := vm.Set(fn.Name(), wrapper); err != nil {
			return fmt.Errorf("installing host function %s: %w", fn.Name(), err)
		}
	}
	return nil
}
