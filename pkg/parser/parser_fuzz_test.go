package parser_test

import (
	"testing"

	"github.com/ArnoudK/libecma/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic — it should return diagnostics for invalid
// input.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Minimal programs
		`1;`,
		`let x = 42;`,
		`const y = "hello";`,
		`var z;`,
		// Expressions
		`1 + 2 * 3 - 4 / 5 % 6 ** 7;`,
		`a && b || c ?? d;`,
		`a === b !== c == d != e;`,
		`a << 1 >> 2 >>> 3 & 4 | 5 ^ 6;`,
		`x = y += z **= 2;`,
		`cond ? a : b ? c : d;`,
		`-a + !b - ~c + typeof d + void e;`,
		`delete o.k;`,
		`++i; j--;`,
		// Literals
		`[1, 2, 3,];`,
		`({a: 1, "b c": 2, in: 3});`,
		"`t ${x + 1} u`;",
		`0xFF + 0b10 + 0o7 + 1_000 + 12n;`,
		// Statements
		`if (a) b; else c;`,
		`while (x) { y; break; }`,
		`for (let i = 0; i < 10; i = i + 1) continue;`,
		`for (;;) break;`,
		`function f(a, b) { return a + b; }`,
		`let f = function() { return 1; };`,
		`{ let scoped = 1; }`,
		// Calls and accesses
		`a.b.c(1)(2)[3]?.d;`,
		`console.log(JSON.stringify({a:[1,2]}));`,
		// Error shapes
		`const x;`,
		`1 = 2;`,
		`let = ;`,
		`function (`,
		`if (`,
		`{`,
		`}`,
		``,
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, source string) {
		prog, diags := parser.Parse(source)
		if prog == nil && len(diags) == 0 {
			t.Fatal("nil program must come with diagnostics")
		}
	})
}
