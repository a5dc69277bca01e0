// Package runtime wires the pipeline together: lexer → parser → validator →
// evaluator over a mark-and-sweep heap, with the host globals installed.
package runtime

import (
	"io"
	"os"
	"time"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/evaluator"
	"github.com/ArnoudK/libecma/pkg/parser"
	"github.com/ArnoudK/libecma/pkg/stdlib"
	"github.com/ArnoudK/libecma/pkg/validator"
)

// Runtime owns one interpreter instance: a heap, an evaluator with its
// global environment, and the two output sinks. It is not safe for
// concurrent use; the heap has a single mutator by design.
type Runtime struct {
	heap        *evaluator.Heap
	eval        *evaluator.Evaluator
	stdout      io.Writer
	stderr      io.Writer
	seed        int64
	gcThreshold int
	registry    *stdlib.Registry
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets the standard output sink.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithStderr sets the error output sink.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stderr = w
	}
}

// WithSeed sets the Math.random seed. The default seeds from the clock.
func WithSeed(seed int64) Option {
	return func(rt *Runtime) {
		rt.seed = seed
	}
}

// WithGCThreshold sets the initial collection trigger in bytes.
func WithGCThreshold(n int) Option {
	return func(rt *Runtime) {
		rt.gcThreshold = n
	}
}

// WithRegistry replaces the default host-global registry.
func WithRegistry(reg *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = reg
	}
}

// New creates a runtime with the default host globals installed.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout: os.Stdout,
		stderr: os.Stderr,
		seed:   time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.registry == nil {
		reg := stdlib.NewRegistry()
		stdlib.RegisterDefaults(reg)
		rt.registry = reg
	}

	rt.heap = evaluator.NewHeap()
	if rt.gcThreshold > 0 {
		rt.heap.SetThreshold(rt.gcThreshold)
	}
	rt.eval = evaluator.New(rt.heap, rt.stdout, rt.stderr, rt.seed)
	rt.registry.Install(rt.eval)
	return rt
}

// Evaluator exposes the underlying evaluator, mainly for embedding and the
// REPL.
func (rt *Runtime) Evaluator() *evaluator.Evaluator {
	return rt.eval
}

// Heap exposes the underlying heap.
func (rt *Runtime) Heap() *evaluator.Heap {
	return rt.heap
}

// Run parses, validates, and executes source. Parse and validation problems
// come back as diagnostics; execution problems as an error (usually a
// *evaluator.RuntimeError). The environment persists across calls, which is
// what the REPL leans on.
func (rt *Runtime) Run(source string) (evaluator.Value, []diagnostics.Diagnostic, error) {
	prog, diags := parser.Parse(source)
	if len(diags) > 0 {
		return nil, diags, nil
	}
	if diags := validator.Validate(prog); len(diags) > 0 {
		return nil, diags, nil
	}
	v, err := rt.eval.Run(prog)
	if err != nil {
		return nil, nil, err
	}
	return v, nil, nil
}

// RunFile reads and runs a source file.
func (rt *Runtime) RunFile(path string) (evaluator.Value, []diagnostics.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return rt.Run(string(data))
}
