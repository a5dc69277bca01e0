package evaluator

import (
	"math"
	"strconv"
	"testing"
)

func TestTruthinessTable(t *testing.T) {
	h := newTestHeap()
	tests := []struct {
		v    Value
		want bool
	}{
		{Undefined{}, false},
		{Null{}, false},
		{Boolean{Value: false}, false},
		{Boolean{Value: true}, true},
		{Number{Value: 0}, false},
		{Number{Value: math.NaN()}, false},
		{Number{Value: 1}, true},
		{Number{Value: -0.5}, true},
		{h.NewString(""), false},
		{h.NewString("x"), true},
		{Object{O: h.AllocObject(0)}, true},
		{Array{A: h.AllocArray(0)}, true}, // empty array is truthy
		{Function{Fn: &FuncValue{}}, true},
		{NewNative("f", nil), true},
	}
	for i, tt := range tests {
		if got := Truthiness(tt.v); got != tt.want {
			t.Errorf("case %d (%T): got %v, want %v", i, tt.v, got, tt.want)
		}
	}
}

func TestTypeNameTable(t *testing.T) {
	h := newTestHeap()
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined{}, "undefined"},
		{Null{}, "object"},
		{Boolean{}, "boolean"},
		{Number{}, "number"},
		{h.NewString(""), "string"},
		{Object{O: h.AllocObject(0)}, "object"},
		{Array{A: h.AllocArray(0)}, "object"},
		{Function{Fn: &FuncValue{}}, "function"},
		{NewNative("f", nil), "function"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.v); got != tt.want {
			t.Errorf("TypeName(%T) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatValues(t *testing.T) {
	h := newTestHeap()
	arr := h.AllocArray(3)
	arr.Elems[0] = Number{Value: 1}
	arr.Elems[1] = h.NewString("two")
	arr.Elems[2] = Null{}

	tests := []struct {
		v    Value
		want string
	}{
		{Undefined{}, "undefined"},
		{Null{}, "null"},
		{Boolean{Value: true}, "true"},
		{Boolean{Value: false}, "false"},
		{Number{Value: 25}, "25"},
		{Number{Value: 0.5}, "0.5"},
		{Number{Value: -3}, "-3"},
		{h.NewString("verbatim"), "verbatim"},
		{Object{O: h.AllocObject(0)}, "[object Object]"},
		{Array{A: arr}, "[1, two, null]"},
		{Function{Fn: &FuncValue{Name: "f"}}, "[Function: f]"},
		{Function{Fn: &FuncValue{}}, "[Function: (anonymous)]"},
		{NewNative("log", nil), "[Function: log]"},
	}
	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format(%T) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatNumberSpecials(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{3.14, "3.14"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

// Numeric stringification round-trips for safe integers.
func TestFormatNumberRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 1234567, 9007199254740991, -9007199254740991, 0.125, 1e-3}
	for _, v := range values {
		s := FormatNumber(v)
		back, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Errorf("FormatNumber(%v) = %q does not parse: %v", v, s, err)
			continue
		}
		if back != v {
			t.Errorf("round trip of %v via %q gives %v", v, s, back)
		}
	}
}
