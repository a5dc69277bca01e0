package stdlib

import (
	"fmt"

	"github.com/ArnoudK/libecma/pkg/evaluator"
)

// Object.keys(o) → array of key strings in insertion order.
func objectKeys(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	obj, err := oneObject("Object.keys", args)
	if err != nil {
		return nil, err
	}
	keys := obj.Keys()
	arr := ev.Heap().AllocArray(len(keys))
	val := evaluator.Array{A: arr}
	depth := ev.Protect(val)
	for i, k := range keys {
		arr.Elems[i] = ev.Heap().NewString(k)
	}
	ev.Release(depth)
	return val, nil
}

// Object.values(o) → array of property values in insertion order.
func objectValues(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	obj, err := oneObject("Object.values", args)
	if err != nil {
		return nil, err
	}
	keys := obj.Keys()
	arr := ev.Heap().AllocArray(len(keys))
	for i, k := range keys {
		v, _ := obj.Get(k)
		arr.Elems[i] = v
	}
	return evaluator.Array{A: arr}, nil
}

// Object.entries(o) → array of [key, value] pairs in insertion order.
func objectEntries(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	obj, err := oneObject("Object.entries", args)
	if err != nil {
		return nil, err
	}
	keys := obj.Keys()
	arr := ev.Heap().AllocArray(len(keys))
	val := evaluator.Array{A: arr}
	depth := ev.Protect(val)
	for i, k := range keys {
		pair := ev.Heap().AllocArray(2)
		arr.Elems[i] = evaluator.Array{A: pair} // reachable before the key string allocates
		pair.Elems[0] = ev.Heap().NewString(k)
		v, _ := obj.Get(k)
		pair.Elems[1] = v
	}
	ev.Release(depth)
	return val, nil
}

func oneObject(name string, args []evaluator.Value) (*evaluator.JSObject, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s requires an argument", name)
	}
	obj, ok := args[0].(evaluator.Object)
	if !ok {
		return nil, fmt.Errorf("%s requires an object, got %s", name, evaluator.TypeName(args[0]))
	}
	return obj.O, nil
}

func buildObject(ev *evaluator.Evaluator) evaluator.Value {
	obj := hostObject(ev, "Object", []namedFn{
		{"keys", objectKeys},
		{"values", objectValues},
		{"entries", objectEntries},
	})
	return evaluator.Object{O: obj}
}
