// Package testutil provides shared helpers for end-to-end interpreter tests.
package testutil

import (
	"strings"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/evaluator"
	"github.com/ArnoudK/libecma/pkg/runtime"
)

// Scenario is one end-to-end case: a literal source program and what it must
// produce. Exactly one of the Want fields is meaningful: WantStdout for
// passing runs, WantErrCode for runs that must fail with a diagnostic or
// runtime error of that code.
type Scenario struct {
	Name        string
	Source      string
	WantStdout  string
	WantErrCode string
}

// Result captures everything a scenario run produced.
type Result struct {
	Stdout  string
	Stderr  string
	ErrCode string
	ErrText string
	Passed  bool
}

// Run executes a scenario through a fresh runtime with a fixed seed and
// captured sinks.
func Run(sc Scenario) Result {
	var out, errOut strings.Builder
	rt := runtime.New(
		runtime.WithStdout(&out),
		runtime.WithStderr(&errOut),
		runtime.WithSeed(1),
	)

	res := Result{}
	_, diags, err := rt.Run(sc.Source)
	res.Stdout = out.String()
	res.Stderr = errOut.String()

	switch {
	case len(diags) > 0:
		res.ErrCode = diags[0].Code
		res.ErrText = diagnostics.FormatAll(diags, "scenario.js", sc.Source)
	case err != nil:
		res.ErrText = err.Error()
		if re, ok := err.(*evaluator.RuntimeError); ok {
			res.ErrCode = re.Code
		}
	}

	if sc.WantErrCode != "" {
		res.Passed = res.ErrCode == sc.WantErrCode
	} else {
		res.Passed = res.ErrCode == "" && res.ErrText == "" && res.Stdout == sc.WantStdout
	}
	return res
}
