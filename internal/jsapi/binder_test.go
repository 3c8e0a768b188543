// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

package jsapi

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/function"
	"github.com/skiffworks/skiff/internal/hostapi"
	"github.com/skiffworks/skiff/internal/value"
)

// testSession serializes access to one runtime, the way a component session
// does.
type testSession struct {
	mu sync.Mutex
	vm *goja.Runtime
}

func (s *testSession) With(fn func(vm *goja.Runtime) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.vm)
}

func sessionWith(t *testing.T, src string) (*testSession, goja.Value) {
	t.Helper()
	vm := goja.New()
	result, err := vm.RunString(src)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	return &testSession{vm: vm}, result
}

func intType() function.Type { return function.Of(value.KindInt32) }

func TestBindRequestsFulfilled(t *testing.T) {
	sess, _ := sessionWith(t, `function add(a, b) { return a + b; }`)

	out := intType()
	reqs := []hostapi.Request{{
		Name:   "add",
		Inputs: []function.Type{function.Unconstrained(), function.Unconstrained()},
		Output: &out,
	}}

	bound, err := BindRequests(sess.vm, sess, reqs)
	if err != nil {
		t.Fatalf("BindRequests: %v", err)
	}
	if len(bound) != 1 {
		t.Fatalf("bound %d functions", len(bound))
	}

	fn := bound[0]
	if fn.Name() != "add" {
		t.Errorf("Name() = %q", fn.Name())
	}
	if len(fn.Args()) != 2 || fn.Args()[0].Name != "arg_0" || fn.Args()[1].Name != "arg_1" {
		t.Errorf("Args() = %v", fn.Args())
	}
	if fn.Output() == nil || fn.Output().Name != "output" {
		t.Errorf("Output() = %v", fn.Output())
	}

	got, err := fn.Call([]value.Value{value.Int32(2), value.Int32(3)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got == nil || !got.Equal(value.Int32(5)) {
		t.Errorf("add(2, 3) = %v, want 5", got)
	}
}

func TestBindRequestsMissingGlobal(t *testing.T) {
	sess, _ := sessionWith(t, `var unrelated = 1;`)

	_, err := BindRequests(sess.vm, sess, []hostapi.Request{{Name: "add"}})
	if !errors.Is(err, ErrRequestMissing) {
		t.Errorf("error = %v, want ErrRequestMissing", err)
	}
	if err == nil || !strings.Contains(err.Error(), `"add"`) {
		t.Errorf("error should name the missing request: %v", err)
	}
}

func TestBindRequestsNotCallable(t *testing.T) {
	sess, _ := sessionWith(t, `var add = 42;`)

	_, err := BindRequests(sess.vm, sess, []hostapi.Request{{Name: "add"}})
	if !errors.Is(err, ErrNotCallable) {
		t.Errorf("error = %v, want ErrNotCallable", err)
	}
}

func TestBoundRequestNullResultMeansNone(t *testing.T) {
	sess, _ := sessionWith(t, `function quiet() { return null; }`)

	bound, err := BindRequests(sess.vm, sess, []hostapi.Request{{Name: "quiet"}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := bound[0].Call(nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != nil {
		t.Errorf("null result = %v, want none", got)
	}
}

func TestBoundRequestScriptThrow(t *testing.T) {
	sess, _ := sessionWith(t, `function angry() { throw new Error("script raised"); }`)

	bound, err := BindRequests(sess.vm, sess, []hostapi.Request{{Name: "angry"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = bound[0].Call(nil)
	if err == nil || !strings.Contains(err.Error(), "script raised") {
		t.Errorf("Call error = %v, want the script's message", err)
	}
	if err != nil && !strings.Contains(err.Error(), "angry") {
		t.Errorf("Call error = %v, should name the call path", err)
	}
}

func TestBoundRequestUnconvertibleResult(t *testing.T) {
	sess, _ := sessionWith(t, `function sneaky() { return function() {}; }`)

	bound, err := BindRequests(sess.vm, sess, []hostapi.Request{{Name: "sneaky"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = bound[0].Call(nil)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Call error = %v, want ErrUnsupportedType", err)
	}
}

const exportEntry = `
function greet(name) { return "hello " + name; }
function fire() {}
[
	{ name: "greet", inputs: ["name"], func: greet },
	{ name: "fire", inputs: [], func: fire },
]
`

func TestBindExports(t *testing.T) {
	sess, result := sessionWith(t, exportEntry)

	exports, err := BindExports(sess.vm, sess, result)
	if err != nil {
		t.Fatalf("BindExports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("bound %d exports", len(exports))
	}

	greet := exports[0]
	if greet.Name() != "greet" {
		t.Errorf("Name() = %q", greet.Name())
	}
	if len(greet.Args()) != 1 || greet.Args()[0].Name != "name" {
		t.Errorf("Args() = %v", greet.Args())
	}
	if _, constrained := greet.Args()[0].Type.Kind(); constrained {
		t.Error("export parameters should be unconstrained")
	}

	got, err := greet.Call([]value.Value{value.String("bob")})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got == nil || !got.Equal(value.String("hello bob")) {
		t.Errorf("greet = %v", got)
	}

	none, err := exports[1].Call(nil)
	if err != nil {
		t.Fatalf("fire: %v", err)
	}
	if none != nil {
		t.Errorf("fire returned %v, want none", none)
	}
}

func TestBindExportsEmptyArray(t *testing.T) {
	sess, result := sessionWith(t, `[]`)

	exports, err := BindExports(sess.vm, sess, result)
	if err != nil {
		t.Fatalf("BindExports: %v", err)
	}
	if len(exports) != 0 {
		t.Errorf("exports = %v", exports)
	}
}

func TestBindExportsMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no completion value", `var x = 1;`},
		{"not an array", `({ name: "x" })`},
		{"number", `42`},
		{"record not an object", `[1]`},
		{"name missing", `[{ inputs: [], func: function() {} }]`},
		{"name not a string", `[{ name: 7, inputs: [], func: function() {} }]`},
		{"inputs missing", `[{ name: "f", func: function() {} }]`},
		{"inputs not an array", `[{ name: "f", inputs: "nope", func: function() {} }]`},
		{"input not a string", `[{ name: "f", inputs: [1], func: function() {} }]`},
		{"func missing", `[{ name: "f", inputs: [] }]`},
		{"func not callable", `[{ name: "f", inputs: [], func: 3 }]`},
		{
			"second record malformed fails the batch",
			`[{ name: "good", inputs: [], func: function() {} }, { name: "bad", inputs: [] }]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, result := sessionWith(t, tt.src)
			exports, err := BindExports(sess.vm, sess, result)
			if !errors.Is(err, ErrMalformedExport) {
				t.Errorf("error = %v, want ErrMalformedExport", err)
			}
			if exports != nil {
				t.Errorf("malformed batch still returned %d exports", len(exports))
			}
		})
	}
}
