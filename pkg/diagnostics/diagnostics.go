// Package diagnostics defines diagnostic types for lex/parse/runtime errors.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/ArnoudK/libecma/pkg/ast"
)

// Diagnostic code constants.
const (
	// Lexer
	ELexNotFound           = "E_NOT_FOUND"
	EUnterminatedString    = "E_UNTERMINATED_STRING_LITERAL"
	EInvalidExponent       = "E_INVALID_EXPONENT"
	EUnexpectedCharacter   = "E_UNEXPECTED_CHARACTER"
	EUnterminatedTemplate  = "E_UNTERMINATED_TEMPLATE_LITERAL"
	EInvalidEscapeSequence = "E_INVALID_ESCAPE_SEQUENCE"

	// Parser
	EExpectedToken           = "E_EXPECTED_TOKEN"
	EUnexpectedToken         = "E_UNEXPECTED_TOKEN"
	EConstWithoutInitializer = "E_CONSTANT_WITHOUT_INITIALIZER"
	EInvalidAssignmentTarget = "E_INVALID_ASSIGNMENT_TARGET"
	EInvalidNumber           = "E_INVALID_NUMBER"

	// Validation
	EBreakOutsideLoop    = "E_BREAK_OUTSIDE_LOOP"
	EContinueOutsideLoop = "E_CONTINUE_OUTSIDE_LOOP"
	EDuplicateParameter  = "E_DUPLICATE_PARAMETER"

	// Evaluator
	EUndefinedVariable = "E_UNDEFINED_VARIABLE"
	ENotCallable       = "E_NOT_CALLABLE"
	ENotAnObject       = "E_NOT_AN_OBJECT"
	ENotAnArray        = "E_NOT_AN_ARRAY"
	EIndexOutOfBounds  = "E_INDEX_OUT_OF_BOUNDS"
	ETooManyArguments  = "E_TOO_MANY_ARGUMENTS"
	ENotAString        = "E_NOT_A_STRING"
	EType              = "E_TYPE"
	EAssignToConst     = "E_ASSIGN_TO_CONST"
	EInvalidArgument   = "E_INVALID_ARGUMENT"
	ENotImplemented    = "E_NOT_IMPLEMENTED"

	// Host / IO
	EIO = "E_IO"
)

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Position converts a byte offset into a 1-based line and column by
// rescanning the source from the beginning. A leading shebang line is
// counted like any other text; callers pass the same buffer the lexer saw.
func Position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line, col = 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Format renders a diagnostic as a single line:
//
//	CODE: message at file:line:col
//
// The location is omitted when the diagnostic has no span.
func Format(d Diagnostic, file, src string) string {
	var b strings.Builder
	b.WriteString(d.Code)
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Span != nil {
		line, col := Position(src, d.Span.Start)
		fmt.Fprintf(&b, " at %s:%d:%d", file, line, col)
	}
	if d.Hint != "" {
		b.WriteString(" (")
		b.WriteString(d.Hint)
		b.WriteString(")")
	}
	return b.String()
}

// FormatAll renders a slice of diagnostics, one per line.
func FormatAll(diags []Diagnostic, file, src string) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = Format(d, file, src)
	}
	return strings.Join(lines, "\n")
}
