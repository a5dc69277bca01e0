package stdlib

import (
	"fmt"
	"math"

	"github.com/ArnoudK/libecma/pkg/evaluator"
)

func oneNumber(name string, args []evaluator.Value) (float64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires an argument", name)
	}
	n, ok := args[0].(evaluator.Number)
	if !ok {
		return 0, fmt.Errorf("%s requires a number, got %s", name, evaluator.TypeName(args[0]))
	}
	return n.Value, nil
}

func mathUnary(name string, f func(float64) float64) evaluator.NativeFn {
	return func(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
		v, err := oneNumber(name, args)
		if err != nil {
			return nil, err
		}
		return evaluator.Number{Value: f(v)}, nil
	}
}

// Math.random() — a double in [0, 1) from the interpreter's seeded PRNG.
func mathRandom(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.Number{Value: ev.Rand().Float64()}, nil
}

// Math.pow(base, exp)
func mathPow(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("Math.pow requires two arguments")
	}
	base, okB := args[0].(evaluator.Number)
	exp, okE := args[1].(evaluator.Number)
	if !okB || !okE {
		return nil, fmt.Errorf("Math.pow requires numbers")
	}
	return evaluator.Number{Value: math.Pow(base.Value, exp.Value)}, nil
}

// Math.min(...args) / Math.max(...args) over the argument list: an error if
// any argument is not a number, NaN if any argument is NaN.
func mathExtremum(name string, better func(a, b float64) bool, empty float64) evaluator.NativeFn {
	return func(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
		best := empty
		for _, arg := range args {
			n, ok := arg.(evaluator.Number)
			if !ok {
				return nil, fmt.Errorf("%s requires numbers, got %s", name, evaluator.TypeName(arg))
			}
			if math.IsNaN(n.Value) {
				return evaluator.Number{Value: math.NaN()}, nil
			}
			if better(n.Value, best) {
				best = n.Value
			}
		}
		return evaluator.Number{Value: best}, nil
	}
}

func buildMath(ev *evaluator.Evaluator) evaluator.Value {
	obj := hostObject(ev, "Math", []namedFn{
		{"random", mathRandom},
		{"floor", mathUnary("Math.floor", math.Floor)},
		{"ceil", mathUnary("Math.ceil", math.Ceil)},
		{"round", mathUnary("Math.round", math.Round)},
		{"trunc", mathUnary("Math.trunc", math.Trunc)},
		{"abs", mathUnary("Math.abs", math.Abs)},
		{"sqrt", mathUnary("Math.sqrt", math.Sqrt)},
		{"pow", mathPow},
		{"min", mathExtremum("Math.min", func(a, b float64) bool { return a < b }, math.Inf(1))},
		{"max", mathExtremum("Math.max", func(a, b float64) bool { return a > b }, math.Inf(-1))},
	})
	obj.Set("PI", evaluator.Number{Value: math.Pi})
	obj.Set("E", evaluator.Number{Value: math.E})
	return evaluator.Object{O: obj}
}
