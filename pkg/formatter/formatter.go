// Package formatter pretty-prints runtime values for interactive display.
// The REPL uses it to echo results: objects and arrays expand over multiple
// lines once they stop fitting a single one, with source-style (unquoted)
// keys and quoted strings.
package formatter

import (
	"strconv"
	"strings"

	"github.com/ArnoudK/libecma/pkg/evaluator"
)

const indent = "  "

// compactLimit is the rendered width above which containers break onto
// multiple lines.
const compactLimit = 60

// FormatValue pretty-prints a runtime value.
func FormatValue(v evaluator.Value) string {
	seen := make(map[any]bool)
	return format(v, 0, seen)
}

func format(v evaluator.Value, level int, seen map[any]bool) string {
	switch val := v.(type) {
	case evaluator.String:
		return strconv.Quote(val.S.Value)

	case evaluator.Array:
		if seen[val.A] {
			return "[...]"
		}
		seen[val.A] = true
		defer delete(seen, val.A)

		parts := make([]string, len(val.A.Elems))
		for i, elem := range val.A.Elems {
			parts[i] = format(elem, level+1, seen)
		}
		compact := "[" + strings.Join(parts, ", ") + "]"
		if len(compact) <= compactLimit && !strings.Contains(compact, "\n") {
			return compact
		}
		return "[\n" + joinIndented(parts, level+1) + "\n" + pad(level) + "]"

	case evaluator.Object:
		if seen[val.O] {
			return "{...}"
		}
		seen[val.O] = true
		defer delete(seen, val.O)

		keys := val.O.Keys()
		parts := make([]string, len(keys))
		for i, key := range keys {
			pv, _ := val.O.Get(key)
			parts[i] = formatKey(key) + ": " + format(pv, level+1, seen)
		}
		if len(parts) == 0 {
			return "{}"
		}
		compact := "{" + strings.Join(parts, ", ") + "}"
		if len(compact) <= compactLimit && !strings.Contains(compact, "\n") {
			return compact
		}
		return "{\n" + joinIndented(parts, level+1) + "\n" + pad(level) + "}"

	default:
		// Scalars and functions share the console stringification.
		return evaluator.Format(v)
	}
}

// formatKey renders an object key bare when it lexes as an identifier,
// quoted otherwise.
func formatKey(key string) string {
	if key == "" {
		return `""`
	}
	for i := 0; i < len(key); i++ {
		ch := key[i]
		alpha := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
		if !alpha && !(i > 0 && ch >= '0' && ch <= '9') {
			return strconv.Quote(key)
		}
	}
	return key
}

func pad(level int) string {
	return strings.Repeat(indent, level)
}

func joinIndented(parts []string, level int) string {
	lines := make([]string, len(parts))
	for i, part := range parts {
		lines[i] = pad(level) + part + ","
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSuffix(out, ",")
}
