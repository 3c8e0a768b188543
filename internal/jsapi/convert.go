// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// Package jsapi is the Goja-facing surface of the bridge.
//
// It converts values across the host/script boundary and installs the
// callable entry points a component's runtime sees: the host's exposed
// functions (hostfuncs.go), the cross-component call gateway (gateway.go),
// and the binder that wraps script globals and exports as descriptors the
// host can invoke (binder.go).
package jsapi

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/skiffworks/skiff/internal/value"
)

// ErrUnsupportedType indicates a script value with no safe tagged
// representation: functions, symbols, promises, error objects and wrapped Go
// handles are rejected, never approximated.
var ErrUnsupportedType = errors.New("unsupported value type")

// ToJS converts a tagged value to its script representation. The conversion
// is total: every variant has exactly one JS form. Lists become arrays built
// in order; a char becomes a one-character string.
func ToJS(vm *goja.Runtime, v value.Value) goja.Value {
	switch v.Kind() {
	case value.KindNull:
		return goja.Null()
	case value.KindBool:
		return vm.ToValue(v.Bool())
	case value.KindInt8:
		return vm.ToValue(int64(v.Int8()))
	case value.KindInt16:
		return vm.ToValue(int64(v.Int16()))
	case value.KindInt32:
		return vm.ToValue(int64(v.Int32()))
	case value.KindInt64:
		return vm.ToValue(v.Int64())
	case value.KindUint8:
		return vm.ToValue(uint64(v.Uint8()))
	case value.KindUint16:
		return vm.ToValue(uint64(v.Uint16()))
	case value.KindUint32:
		return vm.ToValue(uint64(v.Uint32()))
	case value.KindUint64:
		return vm.ToValue(v.Uint64())
	case value.KindFloat32:
		return vm.ToValue(float64(v.Float32()))
	case value.KindFloat64:
		return vm.ToValue(v.Float64())
	case value.KindChar:
		return vm.ToValue(string(v.Rune()))
	case value.KindString:
		return vm.ToValue(v.Text())
	case value.KindList:
		elems := v.List()
		items := make([]interface{}, len(elems))
		for i, e := range elems {
			items[i] = ToJS(vm, e)
		}
		return vm.NewArray(items...)
	default:
		// The union is closed; an unknown kind is a programming bug.
		panic(fmt.Sprintf("jsapi: unknown value kind %v", v.Kind()))
	}
}

// FromJS converts a script value to its tagged form.
//
// Numbers narrow: integral numbers become int32 (truncating) and fractional
// numbers become float32. This is a known precision-loss point - the script
// side has a single number type, so no width information survives the
// inbound direction. Arrays convert element by element in index order; plain
// objects convert their values in key insertion order, deliberately
// discarding the keys. Functions, symbols, promises, error objects and
// wrapped Go handles fail with ErrUnsupportedType.
func FromJS(v goja.Value) (value.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return value.Null(), nil
	}

	if _, ok := v.(*goja.Symbol); ok {
		return value.Value{}, fmt.Errorf("%w: Symbol", ErrUnsupportedType)
	}

	if obj, ok := v.(*goja.Object); ok {
		return objectFromJS(obj)
	}

	switch ex := v.Export().(type) {
	case bool:
		return value.Bool(ex), nil
	case int64:
		return value.Int32(int32(ex)), nil
	case float64:
		return value.Float32(float32(ex)), nil
	case string:
		return value.String(ex), nil
	default:
		return value.Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, ex)
	}
}

func objectFromJS(obj *goja.Object) (value.Value, error) {
	switch class := obj.ClassName(); class {
	case "Array":
		length := obj.Get("length").ToInteger()
		elems := make([]value.Value, 0, length)
		for i := int64(0); i < length; i++ {
			elem, err := FromJS(obj.Get(strconv.FormatInt(i, 10)))
			if err != nil {
				return value.Value{}, fmt.Errorf("array index %d: %w", i, err)
			}
			elems = append(elems, elem)
		}
		return value.List(elems...), nil

	case "Function", "Promise", "Error", "Generator", "GeneratorFunction", "AsyncFunction":
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, class)

	default:
		if _, callable := goja.AssertFunction(obj); callable {
			return value.Value{}, fmt.Errorf("%w: Function", ErrUnsupportedType)
		}
		if t := obj.ExportType(); t != nil {
			switch t.Kind() {
			case reflect.Func, reflect.Chan, reflect.UnsafePointer:
				return value.Value{}, fmt.Errorf("%w: wrapped %s", ErrUnsupportedType, t.Kind())
			}
		}

		// Associative container: only the values survive, in key insertion
		// order. The key association is deliberately lost.
		keys := obj.Keys()
		elems := make([]value.Value, 0, len(keys))
		for _, k := range keys {
			elem, err := FromJS(obj.Get(k))
			if err != nil {
				return value.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			elems = append(elems, elem)
		}
		return value.List(elems...), nil
	}
}

// argsFromJS converts an ordered argument list, reporting the position of
// the first unconvertible argument.
func argsFromJS(jsArgs []goja.Value) ([]value.Value, error) {
	args := make([]value.Value, len(jsArgs))
	for i, a := range jsArgs {
		v, err := FromJS(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}
