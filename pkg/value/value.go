// Package value implements Lox's dynamically-typed value model: a tagged
// Value variant (Nil, Bool, Number, Obj) plus the closed set of heap Obj
// kinds (String, Function, Closure, Upvalue, Native, Class, Instance,
// BoundMethod) that back the Obj case.
//
// Obj is modeled as a Go interface satisfied by a handful of concrete
// struct types rather than a class hierarchy — method lookup in the VM is
// a type switch or a map probe, never a vtable.
package value

import (
	"strconv"
	"strings"
)

// Kind discriminates the cases of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is Lox's tagged runtime value. Equality is structural per-variant;
// values of different Kind are never equal. Ordering (<, >, <=, >=) is
// only defined for Number.
type Value struct {
	kind   Kind
	b      bool
	number float64
	obj    Obj
}

// Nil is the Lox nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// FromObj wraps a heap object.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Obj        { return v.obj }

// IsString reports whether v holds an *ObjString.
func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.kind == KindObj && ok
}

// AsString returns the Go string backing an *ObjString value. Panics if
// v does not hold a string — callers must check IsString first.
func (v Value) AsString() string {
	return v.obj.(*ObjString).Chars
}

// IsFalsey implements Lox's truthiness rule: nil and false are falsey;
// every other value, including the number zero, is truthy.
func (v Value) IsFalsey() bool {
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return !v.b
	default:
		return false
	}
}

// Equal implements Lox's == operator: structural per-variant equality.
// Mixed-variant comparisons are always false. Strings compare by content,
// not identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.number == o.number
	case KindObj:
		if vs, ok := v.obj.(*ObjString); ok {
			if os, ok := o.obj.(*ObjString); ok {
				return vs.Chars == os.Chars
			}
			return false
		}
		return v.obj == o.obj
	}
	return false
}

// String renders v the way the VM's `print` statement does.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) && !strings.Contains(strconv.FormatFloat(n, 'g', -1, 64), "e") {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName returns a short name for v's runtime type ("nil", "boolean",
// "number", or the object kind's name).
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObj:
		return v.obj.ObjType().String()
	}
	return "unknown"
}
