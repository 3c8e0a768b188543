// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/value"
)

// GatewayGlobal is the fixed global name of the cross-component call
// gateway object.
const GatewayGlobal = "host"

// InstallGateway installs the cross-component call gateway into vm as a
// global object with two callables:
//
//	host.callDepend(id, version, name, ...args)
//	host.callOptionalDepend(id, version, name, ...args)
//
// callDepend treats every failure - malformed version, unknown component or
// function, an error raised by the callee - as a script exception.
// callOptionalDepend wraps the outcome in a presence indicator instead:
// {found: false, result: null} when the dependency or function is absent,
// {found: true, result: <value or null>} when it ran. Optional dependencies
// are expected to sometimes be missing; that is not an error.
func InstallGateway(vm *goja.Runtime, api hostapi.API) error {
	gw := vm.NewObject()

	if err := gw.Set("callDepend", makeCallDepend(vm, api)); err != nil {
		return fmt.Errorf("installing callDepend: %w", err)
	}
	if err := gw.Set("callOptionalDepend", makeCallOptionalDepend(vm, api)); err != nil {
		return fmt.Errorf("installing callOptionalDepend: %w", err)
	}

	if err := vm.Set(GatewayGlobal, gw); err != nil {
		return fmt.Errorf("installing gateway global: %w", err)
	}
	return nil
}

func makeCallDepend(vm *goja.Runtime, api hostapi.API) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id, version, name, args := parseGatewayCall(vm, "callDepend", call)

		out, err := api.CallDepend(id, version, name, args)
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("callDepend %s@%s.%s: %w", id, version, name, err)))
		}
		if out == nil {
			return goja.Null()
		}
		return ToJS(vm, *out)
	}
}

func makeCallOptionalDepend(vm *goja.Runtime, api hostapi.API) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id, version, name, args := parseGatewayCall(vm, "callOptionalDepend", call)

		found, out, err := api.CallOptionalDepend(id, version, name, args)
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("callOptionalDepend %s@%s.%s: %w", id, version, name, err)))
		}

		result := vm.NewObject()
		_ = result.Set("found", found)
		if found && out != nil {
			_ = result.Set("result", ToJS(vm, *out))
		} else {
			_ = result.Set("result", goja.Null())
		}
		return result
	}
}

// parseGatewayCall extracts (id, version, name, args) from a gateway call,
// raising a script exception for missing arguments, a malformed version or
// an unconvertible argument.
func parseGatewayCall(vm *goja.Runtime, op string, call goja.FunctionCall) (string, *semver.Version, string, []value.Value) {
	if len(call.Arguments) < 3 {
		panic(vm.ToValue(op + " requires (id, version, name, ...args)"))
	}

	id := call.Arguments[0].String()
	verStr := call.Arguments[1].String()
	name := call.Arguments[2].String()

	version, err := semver.NewVersion(verStr)
	if err != nil {
		panic(vm.NewGoError(fmt.Errorf("%s: bad version %q: %w", op, verStr, err)))
	}

	args, err := argsFromJS(call.Arguments[3:])
	if err != nil {
		panic(vm.NewGoError(fmt.Errorf("%s %s.%s: %w", op, id, name, err)))
	}

	return id, version, name, args
}
