// Package stdlib provides the host-native globals registered into the
// interpreter's global environment before execution: console, Math, JSON,
// and Object.
package stdlib

import (
	"github.com/ArnoudK/libecma/pkg/evaluator"
)

// Global is one host-defined global: a name plus a builder that produces its
// value against a concrete evaluator (builders allocate on its heap).
type Global struct {
	Name  string
	Build func(ev *evaluator.Evaluator) evaluator.Value
}

// Registry holds registered host globals.
type Registry struct {
	globals []Global
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a host global to the registry.
func (r *Registry) Register(g Global) {
	r.globals = append(r.globals, g)
}

// Install builds every registered global and defines it in the evaluator's
// global environment.
func (r *Registry) Install(ev *evaluator.Evaluator) {
	for _, g := range r.globals {
		ev.Globals().Define(g.Name, g.Build(ev))
	}
}

// RegisterDefaults registers the standard host globals.
func RegisterDefaults(r *Registry) {
	r.Register(Global{Name: "console", Build: buildConsole})
	r.Register(Global{Name: "Math", Build: buildMath})
	r.Register(Global{Name: "JSON", Build: buildJSON})
	r.Register(Global{Name: "Object", Build: buildObject})
}

// namedFn pairs a property name with its native implementation; builders use
// it to keep property insertion order deterministic.
type namedFn struct {
	name string
	fn   evaluator.NativeFn
}

// hostObject allocates an object whose properties are native functions named
// "owner.prop" for diagnostics.
func hostObject(ev *evaluator.Evaluator, owner string, fns []namedFn) *evaluator.JSObject {
	obj := ev.Heap().AllocObject(len(fns))
	for _, f := range fns {
		obj.Set(f.name, evaluator.NewNative(owner+"."+f.name, f.fn))
	}
	return obj
}
