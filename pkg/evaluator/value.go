// Package evaluator implements the tree-walking runtime: values,
// environments, the mark-and-sweep heap, and the AST evaluator.
package evaluator

import "github.com/ArnoudK/libecma/pkg/ast"

// Value is the interface for all runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	jsValue() // sealed marker
}

// Undefined is the undefined value, distinct from null and from "absent".
type Undefined struct{}

func (Undefined) jsValue() {}

// Null represents the null value.
type Null struct{}

func (Null) jsValue() {}

// Boolean represents a boolean value.
type Boolean struct {
	Value bool
}

func (Boolean) jsValue() {}

// Number represents an IEEE-754 double.
type Number struct {
	Value float64
}

func (Number) jsValue() {}

// String wraps a heap-allocated immutable string.
type String struct {
	S *HeapString
}

func (String) jsValue() {}

// Object wraps a heap-allocated ordered property map.
type Object struct {
	O *JSObject
}

func (Object) jsValue() {}

// Array wraps a heap-allocated dense value sequence.
type Array struct {
	A *JSArray
}

func (Array) jsValue() {}

// FuncValue is the payload of a user-defined function: its code plus the
// environment it closed over. Closures capture by reference, not snapshot.
type FuncValue struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure *Env
}

// Function represents a user-defined function value.
type Function struct {
	Fn *FuncValue
}

func (Function) jsValue() {}

// NativeFn is the signature of a host-defined callable.
type NativeFn func(ev *Evaluator, args []Value) (Value, error)

// NativeValue is the payload of a host-defined function. Closure is optional;
// when set it is traced by the collector like a user closure.
type NativeValue struct {
	Name    string
	Fn      NativeFn
	Closure *Env
}

// Native represents a host-defined function value.
type Native struct {
	N *NativeValue
}

func (Native) jsValue() {}

// NewUndefined creates an undefined value.
func NewUndefined() Value {
	return Undefined{}
}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Boolean{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewNative creates a host function value.
func NewNative(name string, fn NativeFn) Value {
	return Native{N: &NativeValue{Name: name, Fn: fn}}
}

// Truthiness returns the boolean interpretation of a value. undefined, null,
// false, 0, NaN, and "" are falsy; everything else — objects and arrays
// included, empty or not — is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Undefined, Null:
		return false
	case Boolean:
		return val.Value
	case Number:
		return val.Value != 0 && val.Value == val.Value // NaN is falsy
	case String:
		return len(val.S.Value) != 0
	default:
		return true
	}
}

// TypeName returns the typeof tag for a value.
func TypeName(v Value) string {
	switch v.(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Function, Native:
		return "function"
	default:
		return "object"
	}
}
