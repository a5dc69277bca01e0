package evaluator

import (
	"math"
	"testing"
)

func buildSample(h *Heap) Value {
	// {a: 1, b: [2, 3]}
	arr := h.AllocArray(2)
	arr.Elems[0] = Number{Value: 2}
	arr.Elems[1] = Number{Value: 3}
	obj := h.AllocObject(2)
	obj.Set("a", Number{Value: 1})
	obj.Set("b", Array{A: arr})
	return Object{O: obj}
}

func mustEncode(t *testing.T, v Value, indent string) string {
	t.Helper()
	s, err := EncodeJSON(v, indent)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	return s
}

func TestEncodeCompact(t *testing.T) {
	h := newTestHeap()
	if got := mustEncode(t, buildSample(h), ""); got != `{"a":1,"b":[2,3]}` {
		t.Errorf("got %s", got)
	}
}

func TestEncodeScalars(t *testing.T) {
	h := newTestHeap()
	tests := []struct {
		v    Value
		want string
	}{
		{Null{}, "null"},
		{Undefined{}, "undefined"},
		{Boolean{Value: true}, "true"},
		{Number{Value: 1.5}, "1.5"},
		{Number{Value: 3}, "3"},
		{Number{Value: math.NaN()}, "null"},
		{Number{Value: math.Inf(1)}, "null"},
		{h.NewString("hi"), `"hi"`},
		{Function{Fn: &FuncValue{Name: "f"}}, `"[Function]"`},
		{NewNative("n", nil), `"[Native Function]"`},
	}
	for _, tt := range tests {
		if got := mustEncode(t, tt.v, ""); got != tt.want {
			t.Errorf("encode %T: got %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestEncodeEmptyContainersStayFlat(t *testing.T) {
	h := newTestHeap()
	if got := mustEncode(t, Object{O: h.AllocObject(0)}, "  "); got != "{}" {
		t.Errorf("empty object: got %s", got)
	}
	if got := mustEncode(t, Array{A: h.AllocArray(0)}, "  "); got != "[]" {
		t.Errorf("empty array: got %s", got)
	}
}

func TestEncodeIndented(t *testing.T) {
	h := newTestHeap()
	got := mustEncode(t, buildSample(h), "  ")
	want := "{\n  \"a\": 1,\n  \"b\": [\n    2,\n    3\n  ]\n}"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeStringEscaping(t *testing.T) {
	h := newTestHeap()
	obj := h.AllocObject(1)
	obj.Set("line\n\"quoted\"", h.NewString("tab\there\x01"))
	got := mustEncode(t, Object{O: obj}, "")
	want := `{"line\n\"quoted\"":"tab\there\u0001"}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeCycleFails(t *testing.T) {
	h := newTestHeap()
	obj := h.AllocObject(1)
	obj.Set("self", Object{O: obj})
	if _, err := EncodeJSON(Object{O: obj}, ""); err == nil {
		t.Error("expected error for circular structure")
	}

	arr := h.AllocArray(1)
	arr.Elems[0] = Array{A: arr}
	if _, err := EncodeJSON(Array{A: arr}, ""); err == nil {
		t.Error("expected error for circular array")
	}
}

func TestEncodeSharedSubtreeIsNotACycle(t *testing.T) {
	h := newTestHeap()
	shared := h.AllocObject(1)
	shared.Set("v", Number{Value: 1})
	obj := h.AllocObject(2)
	obj.Set("x", Object{O: shared})
	obj.Set("y", Object{O: shared})
	got := mustEncode(t, Object{O: obj}, "")
	want := `{"x":{"v":1},"y":{"v":1}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
