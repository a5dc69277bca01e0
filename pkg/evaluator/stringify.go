package evaluator

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a double the way console output expects: integral
// values print without a decimal point, everything else in the shortest
// round-tripping form. NaN and the infinities use their JS names.
func FormatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Format renders a value with the default stringification used by
// console.log and template interpolation: strings verbatim, arrays as
// "[1, 2, 3]", objects as "[object Object]", functions by name.
func Format(v Value) string {
	switch val := v.(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.S.Value
	case Object:
		return "[object Object]"
	case Array:
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range val.A.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Format(elem))
		}
		b.WriteByte(']')
		return b.String()
	case Function:
		name := val.Fn.Name
		if name == "" {
			name = "(anonymous)"
		}
		return "[Function: " + name + "]"
	case Native:
		return "[Function: " + val.N.Name + "]"
	default:
		return "undefined"
	}
}
