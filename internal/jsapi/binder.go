// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/value"
)

var (
	// ErrRequestMissing indicates a host-declared request has no matching
	// global in the component.
	ErrRequestMissing = errors.New("does not exist")

	// ErrNotCallable indicates a global exists under a request's name but is
	// not a function.
	ErrNotCallable = errors.New("should be a function")

	// ErrMalformedExport indicates the entry source declared an export that
	// does not match the {name, inputs, func} record shape.
	ErrMalformedExport = errors.New("malformed export")
)

// BindRequests resolves the host's declared requests against the globals the
// entry source defined, wrapping each match as a descriptor the host can
// invoke. vm must be the runtime owned by sess; the binder reads globals
// directly because load runs before the session is published.
func BindRequests(vm *goja.Runtime, sess Session, requests []hostapi.Request) ([]function.Function, error) {
	bound := make([]function.Function, 0, len(requests))
	for _, req := range requests {
		g := vm.Get(req.Name)
		if g == nil || goja.IsUndefined(g) {
			return nil, fmt.Errorf("request %q %w", req.Name, ErrRequestMissing)
		}
		callable, ok := goja.AssertFunction(g)
		if !ok {
			return nil, fmt.Errorf("%q %w", req.Name, ErrNotCallable)
		}

		args := make([]function.Arg, len(req.Inputs))
		for i, ty := range req.Inputs {
			args[i] = function.Arg{Name: "arg_" + strconv.Itoa(i), Type: ty}
		}
		var output *function.Arg
		if req.Output != nil {
			output = &function.Arg{Name: "output", Type: *req.Output}
		}

		bound = append(bound, function.New(req.Name, args, output, scriptCallBody(sess, req.Name, callable)))
	}
	return bound, nil
}

// BindExports interprets the entry source's completion value as the
// component's ad-hoc export declarations: an array of records, each
// {name: string, inputs: [string...], func: callable}. Every record is
// validated before any descriptor is returned, so a malformed declaration
// anywhere fails the whole batch and nothing gets registered.
//
// Exports carry no static types, so parameters and the return slot are
// unconstrained.
func BindExports(vm *goja.Runtime, sess Session, entryResult goja.Value) ([]function.Function, error) {
	if entryResult == nil || goja.IsUndefined(entryResult) || goja.IsNull(entryResult) {
		// A component with nothing to export still has to say so.
		return nil, fmt.Errorf("%w: entry source must yield an array of exports (use [] for none)", ErrMalformedExport)
	}

	arr, ok := entryResult.(*goja.Object)
	if !ok || arr.ClassName() != "Array" {
		return nil, fmt.Errorf("%w: entry source yielded %s, want an array", ErrMalformedExport, entryResult.ExportType())
	}

	length := arr.Get("length").ToInteger()
	exports := make([]function.Function, 0, length)
	for i := int64(0); i < length; i++ {
		fn, err := bindExport(sess, arr.Get(strconv.FormatInt(i, 10)), i)
		if err != nil {
			return nil, err
		}
		exports = append(exports, fn)
	}
	return exports, nil
}

func bindExport(sess Session, rec goja.Value, index int64) (function.Function, error) {
	obj, ok := rec.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%w: export %d is not a record", ErrMalformedExport, index)
	}

	nameVal := obj.Get("name")
	name, ok := exportedString(nameVal)
	if !ok {
		return nil, fmt.Errorf("%w: export %d: name field is not a string", ErrMalformedExport, index)
	}

	inputsVal := obj.Get("inputs")
	inputs, err := exportedStringSlice(inputsVal)
	if err != nil {
		return nil, fmt.Errorf("%w: export %q: %v", ErrMalformedExport, name, err)
	}

	callable, ok := goja.AssertFunction(obj.Get("func"))
	if !ok {
		return nil, fmt.Errorf("%w: export %q: func field is not callable", ErrMalformedExport, name)
	}

	args := make([]function.Arg, len(inputs))
	for i, in := range inputs {
		args[i] = function.Arg{Name: in, Type: function.Unconstrained()}
	}
	output := &function.Arg{Name: "output", Type: function.Unconstrained()}

	return function.New(name, args, output, scriptCallBody(sess, name, callable)), nil
}

// scriptCallBody builds the invocation body for a bound script function:
// acquire the session, convert arguments, call the script callable in order,
// convert a non-null result back. A null or undefined script result means
// "no result".
func scriptCallBody(sess Session, name string, callable goja.Callable) function.Body {
	return func(args []value.Value) (*value.Value, error) {
		var out *value.Value
		err := sess.With(func(vm *goja.Runtime) error {
			jsArgs := make([]goja.Value, len(args))
			for i, a := range args {
				jsArgs[i] = ToJS(vm, a)
			}

			res, err := callable(goja.Undefined(), jsArgs...)
			if err != nil {
				return fmt.Errorf("calling %s: %w", name, err)
			}
			if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
				return nil
			}

			v, err := FromJS(res)
			if err != nil {
				return fmt.Errorf("result of %s: %w", name, err)
			}
			out = &v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func exportedString(v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	s, ok := v.Export().(string)
	return s, ok && s != ""
}

func exportedStringSlice(v goja.Value) ([]string, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errors.New("inputs field is missing")
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return nil, errors.New("inputs field is not an array")
	}

	length := obj.Get("length").ToInteger()
	names := make([]string, 0, length)
	for i := int64(0); i < length; i++ {
		s, ok := obj.Get(strconv.FormatInt(i, 10)).Export().(string)
		if !ok {
			return nil, fmt.Errorf("inputs[%d] is not a string", i)
		}
		names = append(names, s)
	}
	return names, nil
}
