package stdlib

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oarkflow/json"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/evaluator"
)

// JSON.stringify(value, replacer?, space?) — canonical JSON per the runtime
// encoder. Replacer functions are not supported; space may be a string (used
// verbatim) or a number of spaces clamped to [0, 10].
func jsonStringify(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	if len(args) == 0 {
		return evaluator.Undefined{}, nil
	}
	if len(args) > 1 {
		switch args[1].(type) {
		case evaluator.Null, evaluator.Undefined:
		default:
			return nil, &evaluator.RuntimeError{
				Code:    diagnostics.ENotImplemented,
				Message: "JSON.stringify: replacer is not supported",
			}
		}
	}

	indent := ""
	if len(args) > 2 {
		switch space := args[2].(type) {
		case evaluator.String:
			indent = space.S.Value
		case evaluator.Number:
			n := int(space.Value)
			if n > 10 {
				n = 10
			}
			if n > 0 {
				indent = strings.Repeat(" ", n)
			}
		}
	}

	out, err := evaluator.EncodeJSON(args[0], indent)
	if err != nil {
		return nil, &evaluator.RuntimeError{
			Code:    diagnostics.EType,
			Message: "JSON.stringify: " + err.Error(),
		}
	}
	return ev.Heap().NewString(out), nil
}

// JSON.parse(text) — decodes JSON into runtime values. Object keys come back
// sorted, since the decoder's maps carry no order.
func jsonParse(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("JSON.parse requires an argument")
	}
	text, ok := args[0].(evaluator.String)
	if !ok {
		return nil, fmt.Errorf("JSON.parse requires a string, got %s", evaluator.TypeName(args[0]))
	}

	var raw any
	if err := json.Unmarshal([]byte(text.S.Value), &raw); err != nil {
		return nil, fmt.Errorf("JSON.parse: %s", err.Error())
	}
	return decodedToValue(ev, raw), nil
}

func decodedToValue(ev *evaluator.Evaluator, raw any) evaluator.Value {
	switch v := raw.(type) {
	case nil:
		return evaluator.Null{}
	case bool:
		return evaluator.Boolean{Value: v}
	case float64:
		return evaluator.Number{Value: v}
	case string:
		return ev.Heap().NewString(v)
	case []any:
		arr := ev.Heap().AllocArray(len(v))
		val := evaluator.Array{A: arr}
		depth := ev.Protect(val)
		for i, elem := range v {
			arr.Elems[i] = decodedToValue(ev, elem)
		}
		ev.Release(depth)
		return val
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := ev.Heap().AllocObject(len(keys))
		val := evaluator.Object{O: obj}
		depth := ev.Protect(val)
		for _, k := range keys {
			obj.Set(k, decodedToValue(ev, v[k]))
		}
		ev.Release(depth)
		return val
	default:
		return evaluator.Null{}
	}
}

func buildJSON(ev *evaluator.Evaluator) evaluator.Value {
	obj := hostObject(ev, "JSON", []namedFn{
		{"stringify", jsonStringify},
		{"parse", jsonParse},
	})
	return evaluator.Object{O: obj}
}
