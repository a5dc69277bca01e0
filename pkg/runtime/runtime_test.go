package runtime_test

import (
	"strings"
	"testing"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/evaluator"
	"github.com/ArnoudK/libecma/pkg/runtime"
)

func newRuntime() (*runtime.Runtime, *strings.Builder, *strings.Builder) {
	var out, errOut strings.Builder
	rt := runtime.New(
		runtime.WithStdout(&out),
		runtime.WithStderr(&errOut),
		runtime.WithSeed(1),
	)
	return rt, &out, &errOut
}

func TestRunProducesParseDiagnostics(t *testing.T) {
	rt, _, _ := newRuntime()
	_, diags, err := rt.Run("const x;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) == 0 || diags[0].Code != diagnostics.EConstWithoutInitializer {
		t.Errorf("got %v", diags)
	}
}

func TestRunProducesValidationDiagnostics(t *testing.T) {
	rt, _, _ := newRuntime()
	_, diags, err := rt.Run("break;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) == 0 || diags[0].Code != diagnostics.EBreakOutsideLoop {
		t.Errorf("got %v", diags)
	}
}

func TestRunProducesRuntimeErrors(t *testing.T) {
	rt, _, _ := newRuntime()
	_, diags, err := rt.Run("missing();")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	re, ok := err.(*evaluator.RuntimeError)
	if !ok {
		t.Fatalf("error is %T, want *RuntimeError", err)
	}
	if re.Code != diagnostics.EUndefinedVariable {
		t.Errorf("got %s", re.Code)
	}
}

func TestEnvironmentPersistsAcrossRuns(t *testing.T) {
	rt, _, _ := newRuntime()
	if _, diags, err := rt.Run("let counter = 41;"); err != nil || len(diags) > 0 {
		t.Fatalf("setup failed: %v %v", diags, err)
	}
	v, diags, err := rt.Run("counter + 1;")
	if err != nil || len(diags) > 0 {
		t.Fatalf("second run failed: %v %v", diags, err)
	}
	if v.(evaluator.Number).Value != 42 {
		t.Errorf("got %v", v)
	}
}

func TestHostGlobalsInstalled(t *testing.T) {
	rt, out, _ := newRuntime()
	_, diags, err := rt.Run(`console.log(typeof Math.floor, typeof JSON.parse, typeof Object.keys);`)
	if err != nil || len(diags) > 0 {
		t.Fatalf("run failed: %v %v", diags, err)
	}
	if out.String() != "function function function\n" {
		t.Errorf("got %q", out.String())
	}
}

// The end-to-end scenarios: literal program in, exact stdout bytes out.
func TestScenarios(t *testing.T) {
	scenarios := []struct {
		name   string
		src    string
		stdout string
	}{
		{
			name:   "arithmetic precedence",
			src:    `console.log(1 + 2 * 3);`,
			stdout: "7\n",
		},
		{
			name:   "function call",
			src:    `function f(x){ return x*x; } console.log(f(5));`,
			stdout: "25\n",
		},
		{
			name:   "array indexing",
			src:    `const a = [1,2,3]; console.log(a[0], a[2]);`,
			stdout: "1 3\n",
		},
		{
			name:   "object members",
			src:    `let o = {x: 10, y: 20}; console.log(o.x + o.y);`,
			stdout: "30\n",
		},
		{
			name:   "closure counter",
			src:    `function mk(){ let c = 0; return function(){ c = c + 1; return c; }; } let f = mk(); console.log(f(), f(), f());`,
			stdout: "1 2 3\n",
		},
		{
			name:   "json stringify",
			src:    `console.log(JSON.stringify({a:1,b:[2,3]}));`,
			stdout: "{\"a\":1,\"b\":[2,3]}\n",
		},
	}
	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.name, func(t *testing.T) {
			rt, out, _ := newRuntime()
			_, diags, err := rt.Run(sc.src)
			if len(diags) > 0 {
				t.Fatalf("diagnostics: %s", diagnostics.FormatAll(diags, "scenario.js", sc.src))
			}
			if err != nil {
				t.Fatalf("runtime error: %v", err)
			}
			if out.String() != sc.stdout {
				t.Errorf("stdout:\n got %q\nwant %q", out.String(), sc.stdout)
			}
		})
	}
}

func TestLowGCThresholdStillCorrect(t *testing.T) {
	var out strings.Builder
	rt := runtime.New(
		runtime.WithStdout(&out),
		runtime.WithStderr(&out),
		runtime.WithSeed(1),
		runtime.WithGCThreshold(2048),
	)
	src := `
		function mk(n) {
			return function() { return n; };
		}
		let fns = [mk(1), mk(2), mk(3)];
		let total = 0;
		for (let i = 0; i < 500; i = i + 1) {
			let waste = {s: "............................................."};
			total = fns[0]() + fns[1]() + fns[2]();
		}
		console.log(total);
	`
	_, diags, err := rt.Run(src)
	if len(diags) > 0 || err != nil {
		t.Fatalf("failed: %v %v", diags, err)
	}
	if out.String() != "6\n" {
		t.Errorf("got %q", out.String())
	}
	if rt.Heap().Stats().Collections == 0 {
		t.Error("expected the tiny threshold to force collections")
	}
}
