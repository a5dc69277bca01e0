package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
)

// DecodeError reports a malformed literal lexeme.
type DecodeError struct {
	Code string
	Msg  string
}

func (e *DecodeError) Error() string { return e.Msg }

func decodeErr(code, format string, args ...any) error {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// DecodeNumber converts a numeric lexeme to a float64, honoring base
// prefixes, '_' separators, and the octal/decimal ambiguity rule: a leading
// zero followed only by octal digits is octal, while any '8', '9', '.', or
// exponent demotes the literal to decimal. A trailing 'n' (BigInt) is
// stripped; the value is still represented as a double.
func DecodeNumber(lexeme string) (float64, error) {
	if strings.HasSuffix(lexeme, "n") {
		lexeme = lexeme[:len(lexeme)-1]
	}
	lexeme = strings.ReplaceAll(lexeme, "_", "")
	if lexeme == "" {
		return 0, decodeErr(diagnostics.EInvalidNumber, "empty numeric literal")
	}

	if len(lexeme) > 2 && lexeme[0] == '0' {
		switch lexeme[1] {
		case 'x', 'X':
			return decodeDigits(lexeme[2:], 16)
		case 'b', 'B':
			return decodeDigits(lexeme[2:], 2)
		case 'o', 'O':
			return decodeDigits(lexeme[2:], 8)
		}
	}

	// Legacy octal: leading zero and nothing but octal digits.
	if len(lexeme) > 1 && lexeme[0] == '0' && isOctalDigits(lexeme[1:]) {
		return decodeDigits(lexeme[1:], 8)
	}

	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0, decodeErr(diagnostics.EInvalidNumber, "invalid numeric literal %q", lexeme)
	}
	return v, nil
}

func isOctalDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return len(s) > 0
}

// decodeDigits accumulates into a float64 so that literals beyond the uint64
// range still round the way IEEE-754 does.
func decodeDigits(digits string, base int) (float64, error) {
	if digits == "" {
		return 0, decodeErr(diagnostics.EInvalidNumber, "numeric literal has no digits")
	}
	var v float64
	for i := 0; i < len(digits); i++ {
		d := digitValue(digits[i])
		if d < 0 || d >= base {
			return 0, decodeErr(diagnostics.EInvalidNumber,
				"invalid digit %q for base %d", digits[i], base)
		}
		v = v*float64(base) + float64(d)
	}
	return v, nil
}

func digitValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	default:
		return -1
	}
}

// DecodeString decodes a quoted string lexeme (quotes included) into its
// runtime bytes, applying the escape grammar.
func DecodeString(lexeme string) (string, error) {
	if len(lexeme) < 2 {
		return "", decodeErr(diagnostics.EInvalidEscapeSequence, "malformed string lexeme")
	}
	return decodeEscapes(lexeme[1 : len(lexeme)-1])
}

// DecodeTemplateChunk decodes the raw text chunk of a template literal. The
// chunk carries no surrounding quotes; backtick and dollar escapes are also
// accepted here.
func DecodeTemplateChunk(raw string) (string, error) {
	return decodeEscapes(raw)
}

// decodeEscapes handles \0 \a \b \t \n \v \f \r \e quote and backslash
// escapes, \xHH, and \uHHHH with surrogate-pair combination re-encoded as
// UTF-8. Every other escape is malformed.
func decodeEscapes(src string) (string, error) {
	var out strings.Builder
	out.Grow(len(src))

	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch != '\\' {
			out.WriteByte(ch)
			continue
		}
		i++
		if i >= len(src) {
			return "", decodeErr(diagnostics.EInvalidEscapeSequence,
				"escape sequence was not finished")
		}
		switch src[i] {
		case '0':
			out.WriteByte(0)
		case 'a':
			out.WriteByte(7)
		case 'b':
			out.WriteByte(8)
		case 't':
			out.WriteByte(9)
		case 'n':
			out.WriteByte(10)
		case 'v':
			out.WriteByte(11)
		case 'f':
			out.WriteByte(12)
		case 'r':
			out.WriteByte(13)
		case 'e':
			out.WriteByte(0x1b)
		case '"':
			out.WriteByte('"')
		case '\'':
			out.WriteByte('\'')
		case '`':
			out.WriteByte('`')
		case '$':
			out.WriteByte('$')
		case '\\':
			out.WriteByte('\\')
		case 'x':
			if i+2 >= len(src) || !isHexDigit(src[i+1]) || !isHexDigit(src[i+2]) {
				return "", decodeErr(diagnostics.EInvalidEscapeSequence,
					"\\x escape requires two hex digits")
			}
			out.WriteByte(byte(digitValue(src[i+1])<<4 | digitValue(src[i+2])))
			i += 2
		case 'u':
			r, consumed, err := decodeUnicodeEscape(src[i+1:])
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			i += consumed
		default:
			return "", decodeErr(diagnostics.EInvalidEscapeSequence,
				"invalid escape sequence \\%c", src[i])
		}
	}
	return out.String(), nil
}

// decodeUnicodeEscape reads the 4 hex digits after \u, combining a high
// surrogate with a following \uHHHH low surrogate into a single code point.
// It returns the rune and the number of bytes consumed after the 'u'.
func decodeUnicodeEscape(src string) (rune, int, error) {
	hi, ok := readHex4(src)
	if !ok {
		return 0, 0, decodeErr(diagnostics.EInvalidEscapeSequence,
			"\\u escape requires four hex digits")
	}
	consumed := 4
	if utf16.IsSurrogate(rune(hi)) && hi >= 0xD800 && hi <= 0xDBFF &&
		len(src) >= 10 && src[4] == '\\' && src[5] == 'u' {
		lo, ok := readHex4(src[6:])
		if ok && lo >= 0xDC00 && lo <= 0xDFFF {
			r := utf16.DecodeRune(rune(hi), rune(lo))
			if r != utf8.RuneError {
				return r, 10, nil
			}
		}
	}
	return rune(hi), consumed, nil
}

func readHex4(src string) (uint32, bool) {
	if len(src) < 4 {
		return 0, false
	}
	var v uint32
	for i := 0; i < 4; i++ {
		d := digitValue(src[i])
		if d < 0 || d > 15 {
			return 0, false
		}
		v = v<<4 | uint32(d)
	}
	return v, true
}
