// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package value defines the tagged value type exchanged between the host and
// embedded script runtimes. The union is closed: every value that can cross
// the boundary is one of the kinds below, and nothing runtime-bound (native
// functions, handles, promises) can be represented. Values are built at each
// boundary crossing and consumed immediately; they are never persisted.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindChar
	KindString
	KindList
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindChar:    "char",
	KindString:  "string",
	KindList:    "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one tagged value. The zero value is null.
//
// Numeric variants share the num field: signed integers are stored
// sign-extended, floats as their IEEE bit patterns. Accessors must only be
// used on a Value of the matching kind; they do not convert.
type Value struct {
	kind Kind
	num  uint64
	str  string
	list []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func Int8(v int8) Value   { return Value{kind: KindInt8, num: uint64(int64(v))} }
func Int16(v int16) Value { return Value{kind: KindInt16, num: uint64(int64(v))} }
func Int32(v int32) Value { return Value{kind: KindInt32, num: uint64(int64(v))} }
func Int64(v int64) Value { return Value{kind: KindInt64, num: uint64(v)} }

func Uint8(v uint8) Value   { return Value{kind: KindUint8, num: uint64(v)} }
func Uint16(v uint16) Value { return Value{kind: KindUint16, num: uint64(v)} }
func Uint32(v uint32) Value { return Value{kind: KindUint32, num: uint64(v)} }
func Uint64(v uint64) Value { return Value{kind: KindUint64, num: v} }

func Float32(v float32) Value { return Value{kind: KindFloat32, num: uint64(math.Float32bits(v))} }
func Float64(v float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(v)} }

// Char wraps a single character.
func Char(r rune) Value { return Value{kind: KindChar, num: uint64(uint32(r))} }

// String wraps a text string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List wraps an ordered, possibly heterogeneous sequence of values.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// Kind reports which variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool       { return v.num != 0 }
func (v Value) Int8() int8       { return int8(v.num) }
func (v Value) Int16() int16     { return int16(v.num) }
func (v Value) Int32() int32     { return int32(v.num) }
func (v Value) Int64() int64     { return int64(v.num) }
func (v Value) Uint8() uint8     { return uint8(v.num) }
func (v Value) Uint16() uint16   { return uint16(v.num) }
func (v Value) Uint32() uint32   { return uint32(v.num) }
func (v Value) Uint64() uint64   { return v.num }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.num)) }
func (v Value) Float64() float64 { return math.Float64frombits(v.num) }
func (v Value) Rune() rune       { return rune(uint32(v.num)) }

// Text returns the string payload of a KindString value.
func (v Value) Text() string { return v.str }

// List returns the element slice of a KindList value. The slice is shared,
// not copied; callers must not mutate it.
func (v Value) List() []Value { return v.list }

// Equal reports deep equality: same kind and same payload, recursing into
// lists. Floats compare by bit pattern, so NaN equals NaN.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.num == other.num
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(int64(v.num), 10)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return strconv.FormatUint(v.num, 10)
	case KindFloat32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case KindChar:
		return strconv.QuoteRune(v.Rune())
	case KindString:
		return strconv.Quote(v.str)
	case KindList:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(']')
		return b.String()
	default:
		return "unknown"
	}
}
