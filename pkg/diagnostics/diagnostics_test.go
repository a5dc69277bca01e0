package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/ArnoudK/libecma/pkg/ast"
	"github.com/ArnoudK/libecma/pkg/diagnostics"
)

func TestPosition(t *testing.T) {
	src := "ab\ncde\n\nf"
	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},  // the newline itself
		{3, 2, 1},  // 'c'
		{5, 2, 3},  // 'e'
		{7, 3, 1},  // empty line
		{8, 4, 1},  // 'f'
		{99, 4, 2}, // clamped past the end
	}
	for _, tt := range tests {
		line, col := diagnostics.Position(src, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestFormatWithSpan(t *testing.T) {
	src := "let x = @;"
	span := ast.Span{Start: 8, End: 9}
	d := diagnostics.MakeDiag(diagnostics.EUnexpectedCharacter, "unexpected character '@'", &span, "")
	got := diagnostics.Format(d, "prog.js", src)
	want := "E_UNEXPECTED_CHARACTER: unexpected character '@' at prog.js:1:9"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatWithoutSpan(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.EIO, "cannot open file", nil, "")
	got := diagnostics.Format(d, "prog.js", "")
	if got != "E_IO: cannot open file" {
		t.Errorf("got %q", got)
	}
}

func TestFormatWithHint(t *testing.T) {
	span := ast.Span{Start: 0, End: 1}
	d := diagnostics.MakeDiag(diagnostics.EExpectedToken, "expected ';'", &span, "statements end with a semicolon")
	got := diagnostics.Format(d, "prog.js", "x")
	if !strings.Contains(got, "(statements end with a semicolon)") {
		t.Errorf("hint missing: %q", got)
	}
}

func TestFormatAllJoinsLines(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EIO, "first", nil, ""),
		diagnostics.MakeDiag(diagnostics.EIO, "second", nil, ""),
	}
	got := diagnostics.FormatAll(diags, "f.js", "")
	if got != "E_IO: first\nE_IO: second" {
		t.Errorf("got %q", got)
	}
}

func TestPositionMultiLineSpanStart(t *testing.T) {
	src := "line one\nline two with problem here"
	idx := strings.Index(src, "problem")
	line, col := diagnostics.Position(src, idx)
	if line != 2 {
		t.Errorf("line = %d, want 2", line)
	}
	if col != idx-len("line one\n")+1 {
		t.Errorf("col = %d", col)
	}
}
