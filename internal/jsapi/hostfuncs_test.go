// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import (
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/value"
)

func hostRegistry(t *testing.T) *hostapi.Registry {
	t.Helper()
	reg := hostapi.NewRegistry()

	add := function.New("hostAdd",
		[]function.Arg{{Name: "a"}, {Name: "b"}},
		&function.Arg{Name: "output"},
		func(args []value.Value) (*value.Value, error) {
			if len(args) != 2 {
				return nil, errors.New("hostAdd expects 2 arguments")
			}
			out := value.Int32(args[0].Int32() + args[1].Int32())
			return &out, nil
		})

	void := function.New("hostVoid", nil, nil,
		func([]value.Value) (*value.Value, error) {
			return nil, nil
		})

	fail := function.New("hostFail", nil, nil,
		func([]value.Value) (*value.Value, error) {
			return nil, errors.New("host side exploded")
		})

	for _, fn := range []function.Function{add, void, fail} {
		if err := reg.Add(fn); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestHostFunctionCall(t *testing.T) {
	vm := goja.New()
	if err := InstallHostFunctions(vm, hostRegistry(t)); err != nil {
		t.Fatalf("InstallHostFunctions: %v", err)
	}

	v := mustRun(t, vm, `hostAdd(2, 3)`)
	if v.ToInteger() != 5 {
		t.Errorf("hostAdd(2, 3) = %v, want 5", v)
	}
}

func TestHostFunctionNoResultIsNull(t *testing.T) {
	vm := goja.New()
	if err := InstallHostFunctions(vm, hostRegistry(t)); err != nil {
		t.Fatal(err)
	}

	v := mustRun(t, vm, `hostVoid() === null`)
	if !v.ToBoolean() {
		t.Error("hostVoid() should evaluate to null")
	}
}

func TestHostFunctionErrorBecomesException(t *testing.T) {
	vm := goja.New()
	if err := InstallHostFunctions(vm, hostRegistry(t)); err != nil {
		t.Fatal(err)
	}

	_, err := vm.RunString(`hostFail()`)
	if err == nil {
		t.Fatal("expected exception")
	}
	if !strings.Contains(err.Error(), "host side exploded") {
		t.Errorf("exception = %v, want the host error text", err)
	}

	// The runtime stays usable after a failed call.
	if v := mustRun(t, vm, `hostAdd(1, 1)`); v.ToInteger() != 2 {
		t.Errorf("runtime unusable after failure: %v", v)
	}
}

func TestHostFunctionRejectsUnconvertibleArgs(t *testing.T) {
	vm := goja.New()
	if err := InstallHostFunctions(vm, hostRegistry(t)); err != nil {
		t.Fatal(err)
	}

	_, err := vm.RunString(`hostAdd(1, function() {})`)
	if err == nil {
		t.Fatal("expected exception for callable argument")
	}
	if !strings.Contains(err.Error(), "unsupported value type") {
		t.Errorf("exception = %v, want unsupported value type", err)
	}
}

func TestInstallOverwritesGlobals(t *testing.T) {
	vm := goja.New()
	if err := vm.Set("hostAdd", 1); err != nil {
		t.Fatal(err)
	}
	if err := InstallHostFunctions(vm, hostRegistry(t)); err != nil {
		t.Fatal(err)
	}

	if v := mustRun(t, vm, `hostAdd(4, 4)`); v.ToInteger() != 8 {
		t.Errorf("existing global not overwritten: %v", v)
	}
}

func TestInstallNilRegistry(t *testing.T) {
	if err := InstallHostFunctions(goja.New(), nil); err != nil {
		t.Errorf("nil registry: %v", err)
	}
}
