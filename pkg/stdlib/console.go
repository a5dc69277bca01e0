package stdlib

import (
	"fmt"
	"io"
	"strings"

	"github.com/ArnoudK/libecma/pkg/evaluator"
)

// console.log(...args) — default stringification of each argument, joined by
// single spaces, terminated by a newline.
func consoleLog(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	return writeLine(ev.Stdout(), args)
}

// console.error(...args) — like console.log, on the error sink.
func consoleError(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	return writeLine(ev.Stderr(), args)
}

func writeLine(w io.Writer, args []evaluator.Value) (evaluator.Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = evaluator.Format(arg)
	}
	if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
		return nil, err
	}
	return evaluator.Undefined{}, nil
}

func buildConsole(ev *evaluator.Evaluator) evaluator.Value {
	obj := hostObject(ev, "console", []namedFn{
		{"log", consoleLog},
		{"error", consoleError},
	})
	return evaluator.Object{O: obj}
}
