// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package function describes callable descriptors: named, typed function
// signatures paired with an invocation body. Descriptors cross the runtime
// boundary in both directions - the host exposes them to scripts and scripts
// export them back to the host - so the declared signature is advisory only;
// arity and type checks happen inside the body at call time.
package function

import "github.com/skiffworks/skiff/internal/value"

// Type constrains a parameter or return value. The zero value is
// unconstrained, which is what script-side exports carry since the entry
// source declares names but no types.
type Type struct {
	kind        value.Kind
	constrained bool
}

// Unconstrained returns the type tag that accepts any value.
func Unconstrained() Type { return Type{} }

// Of returns the type tag constraining to a single value kind.
func Of(k value.Kind) Type { return Type{kind: k, constrained: true} }

// Kind returns the constrained kind, if any.
func (t Type) Kind() (value.Kind, bool) { return t.kind, t.constrained }

func (t Type) String() string {
	if !t.constrained {
		return "any"
	}
	return t.kind.String()
}

// Arg is one named parameter or return slot in a descriptor.
type Arg struct {
	Name string
	Type Type
}

// Function is a callable descriptor. Concrete implementations forward into a
// component session, into the host API, or into a bound script global; all of
// them accept ordered values and produce an optional value or a failure.
type Function interface {
	// Name identifies the descriptor within its registry.
	Name() string

	// Args lists the declared parameters, in order.
	Args() []Arg

	// Output describes the declared return slot, or nil for none.
	Output() *Arg

	// Call invokes the body. A nil result with a nil error means the call
	// produced no value.
	Call(args []value.Value) (*value.Value, error)
}

// Body is the invocation body of a GoFunc.
type Body func(args []value.Value) (*value.Value, error)

// GoFunc is a Function built from a Go closure.
type GoFunc struct {
	name   string
	args   []Arg
	output *Arg
	body   Body
}

// New builds a descriptor around body. output may be nil.
func New(name string, args []Arg, output *Arg, body Body) *GoFunc {
	return &GoFunc{name: name, args: args, output: output, body: body}
}

func (f *GoFunc) Name() string { return f.name }
func (f *GoFunc) Args() []Arg  { return f.args }
func (f *GoFunc) Output() *Arg { return f.output }

func (f *GoFunc) Call(args []value.Value) (*value.Value, error) {
	return f.body(args)
}

var _ Function = (*GoFunc)(nil)
