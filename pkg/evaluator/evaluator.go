package evaluator

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/ArnoudK/libecma/pkg/ast"
	"github.com/ArnoudK/libecma/pkg/diagnostics"
)

// RuntimeError represents a runtime error during program execution.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func runtimeErr(code string, span ast.Span, format string, args ...any) error {
	s := span
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &s}
}

// signal is the control-flow result threaded through statement execution.
type signal int

const (
	sigNone signal = iota
	sigReturn
	sigBreak
	sigContinue
)

// Evaluator walks a parsed program against a scope chain backed by the
// mark-and-sweep heap. It is single-threaded; collection happens only
// between allocations of the one mutator.
type Evaluator struct {
	heap    *Heap
	globals *Env
	env     *Env
	stdout  io.Writer
	stderr  io.Writer
	rng     *rand.Rand

	// temps is a shadow stack of in-flight values: partially built literals,
	// evaluated call arguments, operands awaiting their partner. Everything
	// on it is part of the root set, so a collection triggered mid-expression
	// cannot sweep work in progress.
	temps []Value
}

// New creates an evaluator with a fresh global environment on the given
// heap. The writers receive console output; seed feeds the Math.random
// generator.
func New(heap *Heap, stdout, stderr io.Writer, seed int64) *Evaluator {
	ev := &Evaluator{
		heap:   heap,
		stdout: stdout,
		stderr: stderr,
		rng:    rand.New(rand.NewSource(seed)),
	}
	ev.globals = heap.AllocEnv(nil, true)
	ev.env = ev.globals
	heap.SetRootFunc(ev.markRoots)
	ev.globals.Define("undefined", Undefined{})
	ev.globals.Define("NaN", Number{Value: math.NaN()})
	ev.globals.Define("Infinity", Number{Value: math.Inf(1)})
	return ev
}

// markRoots marks the global environment, the entire current scope chain,
// and the shadow stack of working values.
func (ev *Evaluator) markRoots(mark func(Value)) {
	markObject(ev.globals)
	markObject(ev.env)
	for _, v := range ev.temps {
		mark(v)
	}
}

// Globals returns the global environment.
func (ev *Evaluator) Globals() *Env { return ev.globals }

// Heap returns the evaluator's heap.
func (ev *Evaluator) Heap() *Heap { return ev.heap }

// Stdout returns the standard output sink.
func (ev *Evaluator) Stdout() io.Writer { return ev.stdout }

// Stderr returns the error output sink.
func (ev *Evaluator) Stderr() io.Writer { return ev.stderr }

// Rand returns the seeded PRNG backing Math.random.
func (ev *Evaluator) Rand() *rand.Rand { return ev.rng }

func (ev *Evaluator) protect(v Value) {
	ev.temps = append(ev.temps, v)
}

func (ev *Evaluator) release(depth int) {
	ev.temps = ev.temps[:depth]
}

// Protect pins a value into the collector's root set while host code builds
// structures the environment cannot reach yet. It returns the depth to pass
// to Release once the value is connected.
func (ev *Evaluator) Protect(v Value) int {
	depth := len(ev.temps)
	ev.protect(v)
	return depth
}

// Release pops the shadow stack back to the depth returned by Protect.
func (ev *Evaluator) Release(depth int) {
	ev.release(depth)
}

// Run executes a program in the global environment and returns the last
// statement's value. A top-level return stops execution with its value.
func (ev *Evaluator) Run(prog *ast.Program) (Value, error) {
	var last Value = Undefined{}
	for _, stmt := range prog.Stmts {
		v, sig, err := ev.execStmt(stmt, ev.globals)
		if err != nil {
			return nil, err
		}
		switch sig {
		case sigReturn:
			return v, nil
		case sigBreak:
			return nil, runtimeErr(diagnostics.EBreakOutsideLoop, stmt.NodeSpan(),
				"'break' outside of a loop")
		case sigContinue:
			return nil, runtimeErr(diagnostics.EContinueOutsideLoop, stmt.NodeSpan(),
				"'continue' outside of a loop")
		}
		last = v
	}
	return last, nil
}

// --- Statements ---

func (ev *Evaluator) execStmt(stmt ast.Stmt, env *Env) (Value, signal, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := ev.evalExpr(s.Expr, env)
		if err != nil {
			return nil, sigNone, err
		}
		return v, sigNone, nil

	case *ast.VarDecl:
		var init Value = Undefined{}
		if s.Init != nil {
			v, err := ev.evalExpr(s.Init, env)
			if err != nil {
				return nil, sigNone, err
			}
			init = v
		}
		switch s.Decl {
		case ast.DeclConst:
			env.DefineConst(s.Name, init)
		case ast.DeclVar:
			env.DefineVar(s.Name, init)
		default:
			env.Define(s.Name, init)
		}
		return Undefined{}, sigNone, nil

	case *ast.FuncDecl:
		fn := Function{Fn: &FuncValue{
			Name:    s.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: env,
		}}
		env.Define(s.Name, fn)
		return Undefined{}, sigNone, nil

	case *ast.BlockStmt:
		return ev.execBlock(s, ev.heap.AllocEnv(env, false))

	case *ast.IfStmt:
		cond, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return nil, sigNone, err
		}
		if Truthiness(cond) {
			return ev.execStmt(s.Then, env)
		}
		if s.Else != nil {
			return ev.execStmt(s.Else, env)
		}
		return Undefined{}, sigNone, nil

	case *ast.WhileStmt:
		var last Value = Undefined{}
		for {
			cond, err := ev.evalExpr(s.Cond, env)
			if err != nil {
				return nil, sigNone, err
			}
			if !Truthiness(cond) {
				return last, sigNone, nil
			}
			v, sig, err := ev.execStmt(s.Body, env)
			if err != nil {
				return nil, sigNone, err
			}
			switch sig {
			case sigReturn:
				return v, sigReturn, nil
			case sigBreak:
				return last, sigNone, nil
			}
			last = v
		}

	case *ast.ForStmt:
		return ev.execFor(s, env)

	case *ast.ReturnStmt:
		var v Value = Undefined{}
		if s.Value != nil {
			val, err := ev.evalExpr(s.Value, env)
			if err != nil {
				return nil, sigNone, err
			}
			v = val
		}
		return v, sigReturn, nil

	case *ast.BreakStmt:
		return Undefined{}, sigBreak, nil

	case *ast.ContinueStmt:
		return Undefined{}, sigContinue, nil

	default:
		return nil, sigNone, runtimeErr(diagnostics.ENotImplemented, stmt.NodeSpan(),
			"unsupported statement %s", stmt.Kind())
	}
}

// execFor runs a three-clause for loop. The loop gets its own frame so a let
// in the init clause scopes to the loop, not the surrounding block; the frame
// becomes the current environment for the loop's duration so the collector
// sees it as a root.
func (ev *Evaluator) execFor(s *ast.ForStmt, env *Env) (Value, signal, error) {
	loopEnv := ev.heap.AllocEnv(env, false)
	prev := ev.env
	ev.env = loopEnv
	defer func() { ev.env = prev }()

	if s.Init != nil {
		if _, _, err := ev.execStmt(s.Init, loopEnv); err != nil {
			return nil, sigNone, err
		}
	}
	var last Value = Undefined{}
	for {
		if s.Cond != nil {
			cond, err := ev.evalExpr(s.Cond, loopEnv)
			if err != nil {
				return nil, sigNone, err
			}
			if !Truthiness(cond) {
				return last, sigNone, nil
			}
		}
		v, sig, err := ev.execStmt(s.Body, loopEnv)
		if err != nil {
			return nil, sigNone, err
		}
		switch sig {
		case sigReturn:
			return v, sigReturn, nil
		case sigBreak:
			return last, sigNone, nil
		}
		last = v
		if s.Step != nil {
			if _, err := ev.evalExpr(s.Step, loopEnv); err != nil {
				return nil, sigNone, err
			}
		}
	}
}

// execBlock runs statements in the given frame. The result is the last
// statement's value; return/break/continue signals propagate to the caller.
func (ev *Evaluator) execBlock(block *ast.BlockStmt, env *Env) (Value, signal, error) {
	prev := ev.env
	ev.env = env
	defer func() { ev.env = prev }()

	var last Value = Undefined{}
	for _, stmt := range block.Stmts {
		v, sig, err := ev.execStmt(stmt, env)
		if err != nil {
			return nil, sigNone, err
		}
		if sig != sigNone {
			return v, sig, nil
		}
		last = v
	}
	return last, sigNone, nil
}

// --- Expressions ---

func (ev *Evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return Number{Value: e.Value}, nil

	case *ast.StringLit:
		return ev.heap.NewString(e.Value), nil

	case *ast.BoolLit:
		return Boolean{Value: e.Value}, nil

	case *ast.NullLit:
		return Null{}, nil

	case *ast.Identifier:
		v, ok := env.Get(e.Name)
		if !ok {
			return nil, runtimeErr(diagnostics.EUndefinedVariable, e.Span,
				"'%s' is not defined", e.Name)
		}
		return v, nil

	case *ast.TemplateLit:
		return ev.evalTemplate(e, env)

	case *ast.ArrayLit:
		// The partially built array is protected so elements written so far
		// survive a collection triggered while evaluating the rest.
		arr := ev.heap.AllocArray(len(e.Elements))
		v := Array{A: arr}
		depth := len(ev.temps)
		ev.protect(v)
		for i, elem := range e.Elements {
			val, err := ev.evalExpr(elem, env)
			if err != nil {
				ev.release(depth)
				return nil, err
			}
			arr.Elems[i] = val
		}
		ev.release(depth)
		return v, nil

	case *ast.ObjectLit:
		obj := ev.heap.AllocObject(len(e.Pairs))
		v := Object{O: obj}
		depth := len(ev.temps)
		ev.protect(v)
		for _, pair := range e.Pairs {
			val, err := ev.evalExpr(pair.Value, env)
			if err != nil {
				ev.release(depth)
				return nil, err
			}
			obj.Set(pair.Key, val)
		}
		ev.release(depth)
		return v, nil

	case *ast.FuncLit:
		return Function{Fn: &FuncValue{
			Name:    e.Name,
			Params:  e.Params,
			Body:    e.Body,
			Closure: env,
		}}, nil

	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)

	case *ast.UpdateExpr:
		return ev.evalUpdate(e, env)

	case *ast.BinaryExpr:
		return ev.evalBinary(e, env)

	case *ast.AssignExpr:
		return ev.evalAssign(e, env)

	case *ast.CondExpr:
		cond, err := ev.evalExpr(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthiness(cond) {
			return ev.evalExpr(e.Then, env)
		}
		return ev.evalExpr(e.Else, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)

	case *ast.MemberExpr:
		obj, err := ev.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		return ev.member(obj, e)

	case *ast.IndexExpr:
		obj, err := ev.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		depth := len(ev.temps)
		ev.protect(obj)
		idx, err := ev.evalExpr(e.Index, env)
		ev.release(depth)
		if err != nil {
			return nil, err
		}
		return ev.index(obj, idx, e)

	default:
		return nil, runtimeErr(diagnostics.ENotImplemented, expr.NodeSpan(),
			"unsupported expression %s", expr.Kind())
	}
}

func (ev *Evaluator) evalTemplate(e *ast.TemplateLit, env *Env) (Value, error) {
	var b strings.Builder
	b.WriteString(e.Quasis[0])
	for i, sub := range e.Exprs {
		v, err := ev.evalExpr(sub, env)
		if err != nil {
			return nil, err
		}
		b.WriteString(Format(v))
		b.WriteString(e.Quasis[i+1])
	}
	return ev.heap.NewString(b.String()), nil
}

func (ev *Evaluator) evalUnary(e *ast.UnaryExpr, env *Env) (Value, error) {
	switch e.Op {
	case ast.OpTypeof:
		// typeof tolerates unresolved identifiers.
		if id, ok := e.Operand.(*ast.Identifier); ok {
			if v, found := env.Get(id.Name); found {
				return ev.heap.NewString(TypeName(v)), nil
			}
			return ev.heap.NewString("undefined"), nil
		}
		v, err := ev.evalExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return ev.heap.NewString(TypeName(v)), nil

	case ast.OpVoid:
		if _, err := ev.evalExpr(e.Operand, env); err != nil {
			return nil, err
		}
		return Undefined{}, nil

	case ast.OpDelete:
		return ev.evalDelete(e, env)
	}

	v, err := ev.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		if n, ok := v.(Number); ok {
			return Number{Value: -n.Value}, nil
		}
		return Undefined{}, nil
	case ast.OpPlus:
		if n, ok := v.(Number); ok {
			return n, nil
		}
		return Undefined{}, nil
	case ast.OpNot:
		return Boolean{Value: !Truthiness(v)}, nil
	case ast.OpBitNot:
		if n, ok := v.(Number); ok {
			return Number{Value: float64(^toInt32(n.Value))}, nil
		}
		return Undefined{}, nil
	default:
		return nil, runtimeErr(diagnostics.ENotImplemented, e.Span,
			"unsupported unary operator %s", e.Op)
	}
}

func (ev *Evaluator) evalDelete(e *ast.UnaryExpr, env *Env) (Value, error) {
	switch target := e.Operand.(type) {
	case *ast.MemberExpr:
		objVal, err := ev.evalExpr(target.Object, env)
		if err != nil {
			return nil, err
		}
		if obj, ok := objVal.(Object); ok {
			return Boolean{Value: obj.O.Delete(target.Property)}, nil
		}
		return Boolean{Value: true}, nil

	case *ast.IndexExpr:
		objVal, err := ev.evalExpr(target.Object, env)
		if err != nil {
			return nil, err
		}
		depth := len(ev.temps)
		ev.protect(objVal)
		idxVal, err := ev.evalExpr(target.Index, env)
		ev.release(depth)
		if err != nil {
			return nil, err
		}
		switch obj := objVal.(type) {
		case Object:
			if key, ok := idxVal.(String); ok {
				return Boolean{Value: obj.O.Delete(key.S.Value)}, nil
			}
		case Array:
			if n, ok := idxVal.(Number); ok {
				i := int(math.Floor(n.Value))
				if i >= 0 && i < len(obj.A.Elems) {
					// Array deletion punches an undefined hole; the length
					// is fixed.
					obj.A.Elems[i] = Undefined{}
					return Boolean{Value: true}, nil
				}
			}
		}
		return Boolean{Value: true}, nil

	case *ast.Identifier:
		// Variable bindings are not deletable.
		return Boolean{Value: false}, nil

	default:
		if _, err := ev.evalExpr(e.Operand, env); err != nil {
			return nil, err
		}
		return Boolean{Value: true}, nil
	}
}

func (ev *Evaluator) evalUpdate(e *ast.UpdateExpr, env *Env) (Value, error) {
	old, err := ev.evalExpr(e.Target, env)
	if err != nil {
		return nil, err
	}
	n, ok := old.(Number)
	if !ok {
		return nil, runtimeErr(diagnostics.EType, e.Span,
			"'%s' requires a number, got %s", e.Op, TypeName(old))
	}
	delta := 1.0
	if e.Op == "--" {
		delta = -1.0
	}
	updated := Number{Value: n.Value + delta}
	if err := ev.assignTo(e.Target, updated, env, e.Span); err != nil {
		return nil, err
	}
	if e.Prefix {
		return updated, nil
	}
	return n, nil
}

func (ev *Evaluator) evalBinary(e *ast.BinaryExpr, env *Env) (Value, error) {
	// Short-circuit forms evaluate the right side conditionally.
	switch e.Op {
	case ast.OpAnd:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if !Truthiness(left) {
			return left, nil
		}
		return ev.evalExpr(e.Right, env)
	case ast.OpOr:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if Truthiness(left) {
			return left, nil
		}
		return ev.evalExpr(e.Right, env)
	case ast.OpNullish:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if !isNullish(left) {
			return left, nil
		}
		return ev.evalExpr(e.Right, env)
	}

	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	depth := len(ev.temps)
	ev.protect(left)
	right, err := ev.evalExpr(e.Right, env)
	ev.release(depth)
	if err != nil {
		return nil, err
	}
	return ev.applyBinary(e.Op, left, right, e.Span)
}

func (ev *Evaluator) applyBinary(op ast.BinaryOp, left, right Value, span ast.Span) (Value, error) {
	switch op {
	case ast.OpEqEq:
		return Boolean{Value: looseEquals(left, right)}, nil
	case ast.OpNeq:
		return Boolean{Value: !looseEquals(left, right)}, nil
	case ast.OpEqEqEq:
		return Boolean{Value: strictEquals(left, right)}, nil
	case ast.OpNeqEq:
		return Boolean{Value: !strictEquals(left, right)}, nil

	case ast.OpIn:
		switch container := right.(type) {
		case Object:
			if key, ok := left.(String); ok {
				_, found := container.O.Get(key.S.Value)
				return Boolean{Value: found}, nil
			}
			return Boolean{Value: false}, nil
		case Array:
			if n, ok := left.(Number); ok {
				i := int(math.Floor(n.Value))
				return Boolean{Value: i >= 0 && i < len(container.A.Elems)}, nil
			}
			return Boolean{Value: false}, nil
		default:
			return nil, runtimeErr(diagnostics.EType, span,
				"'in' requires an object or array, got %s", TypeName(right))
		}

	case ast.OpInstanceof:
		switch right.(type) {
		case Function, Native:
			// No prototype chain in this runtime: nothing is an instance.
			return Boolean{Value: false}, nil
		default:
			return nil, runtimeErr(diagnostics.EType, span,
				"right side of 'instanceof' is not callable")
		}
	}

	lnum, lIsNum := left.(Number)
	rnum, rIsNum := right.(Number)
	if lIsNum && rIsNum {
		a, b := lnum.Value, rnum.Value
		switch op {
		case ast.OpAdd:
			return Number{Value: a + b}, nil
		case ast.OpSub:
			return Number{Value: a - b}, nil
		case ast.OpMul:
			return Number{Value: a * b}, nil
		case ast.OpDiv:
			return Number{Value: a / b}, nil
		case ast.OpMod:
			return Number{Value: math.Mod(a, b)}, nil
		case ast.OpPow:
			return Number{Value: math.Pow(a, b)}, nil
		case ast.OpLt:
			return Boolean{Value: a < b}, nil
		case ast.OpLtEq:
			return Boolean{Value: a <= b}, nil
		case ast.OpGt:
			return Boolean{Value: a > b}, nil
		case ast.OpGtEq:
			return Boolean{Value: a >= b}, nil
		case ast.OpBitAnd:
			return Number{Value: float64(toInt32(a) & toInt32(b))}, nil
		case ast.OpBitOr:
			return Number{Value: float64(toInt32(a) | toInt32(b))}, nil
		case ast.OpBitXor:
			return Number{Value: float64(toInt32(a) ^ toInt32(b))}, nil
		case ast.OpShl:
			return Number{Value: float64(toInt32(a) << (toUint32(b) & 31))}, nil
		case ast.OpShr:
			return Number{Value: float64(toInt32(a) >> (toUint32(b) & 31))}, nil
		case ast.OpUShr:
			return Number{Value: float64(toUint32(a) >> (toUint32(b) & 31))}, nil
		}
	}

	lstr, lIsStr := left.(String)
	rstr, rIsStr := right.(String)
	if op == ast.OpAdd && lIsStr && rIsStr {
		return ev.heap.NewString(lstr.S.Value + rstr.S.Value), nil
	}

	// Every other operand combination is a documented gap.
	return Undefined{}, nil
}

func isNullish(v Value) bool {
	switch v.(type) {
	case Null, Undefined:
		return true
	default:
		return false
	}
}

func strictEquals(a, b Value) bool {
	switch av := a.(type) {
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av.Value == bv.Value
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value // NaN !== NaN falls out of !=
	case String:
		bv, ok := b.(String)
		return ok && av.S.Value == bv.S.Value
	case Object:
		bv, ok := b.(Object)
		return ok && av.O == bv.O
	case Array:
		bv, ok := b.(Array)
		return ok && av.A == bv.A
	case Function:
		bv, ok := b.(Function)
		return ok && av.Fn == bv.Fn
	case Native:
		bv, ok := b.(Native)
		return ok && av.N == bv.N
	default:
		return false
	}
}

// looseEquals is strict equality plus two coercions: null and undefined
// compare equal to each other, and a number compares against a string's
// numeric value. No other conversions apply.
func looseEquals(a, b Value) bool {
	if strictEquals(a, b) {
		return true
	}
	if isNullish(a) && isNullish(b) {
		return true
	}
	if an, ok := a.(Number); ok {
		if bs, ok := b.(String); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(bs.S.Value), 64); err == nil {
				return an.Value == f
			}
			return false
		}
	}
	if as, ok := a.(String); ok {
		if bn, ok := b.(Number); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(as.S.Value), 64); err == nil {
				return f == bn.Value
			}
			return false
		}
	}
	return false
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := math.Mod(math.Trunc(f), 4294967296)
	if n < 0 {
		n += 4294967296
	}
	return uint32(n)
}

func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

// --- Assignment ---

func (ev *Evaluator) evalAssign(e *ast.AssignExpr, env *Env) (Value, error) {
	// Logical-assignment forms only evaluate (and assign) the right side
	// when the current value calls for it.
	switch e.Op {
	case "&&=", "||=", "??=":
		current, err := ev.evalExpr(e.Target, env)
		if err != nil {
			return nil, err
		}
		assign := false
		switch e.Op {
		case "&&=":
			assign = Truthiness(current)
		case "||=":
			assign = !Truthiness(current)
		case "??=":
			assign = isNullish(current)
		}
		if !assign {
			return current, nil
		}
		v, err := ev.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := ev.assignTo(e.Target, v, env, e.Span); err != nil {
			return nil, err
		}
		return v, nil
	}

	v, err := ev.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}

	if e.Op != "=" {
		depth := len(ev.temps)
		ev.protect(v)
		current, err := ev.evalExpr(e.Target, env)
		if err != nil {
			ev.release(depth)
			return nil, err
		}
		op := ast.BinaryOp(strings.TrimSuffix(e.Op, "="))
		combined, err := ev.applyBinary(op, current, v, e.Span)
		ev.release(depth)
		if err != nil {
			return nil, err
		}
		v = combined
	}

	if err := ev.assignTo(e.Target, v, env, e.Span); err != nil {
		return nil, err
	}
	return v, nil
}

func (ev *Evaluator) assignTo(target ast.Expr, v Value, env *Env, span ast.Span) error {
	switch t := target.(type) {
	case *ast.Identifier:
		found, isConst := env.Set(t.Name, v)
		if !found {
			return runtimeErr(diagnostics.EUndefinedVariable, t.Span,
				"'%s' is not defined", t.Name)
		}
		if isConst {
			return runtimeErr(diagnostics.EAssignToConst, t.Span,
				"assignment to constant '%s'", t.Name)
		}
		return nil

	case *ast.MemberExpr:
		base := len(ev.temps)
		ev.protect(v)
		objVal, err := ev.evalExpr(t.Object, env)
		ev.release(base)
		if err != nil {
			return err
		}
		obj, ok := objVal.(Object)
		if !ok {
			return runtimeErr(diagnostics.ENotAnObject, t.Span,
				"cannot set property '%s' on %s", t.Property, TypeName(objVal))
		}
		obj.O.Set(t.Property, v)
		return nil

	case *ast.IndexExpr:
		base := len(ev.temps)
		ev.protect(v)
		objVal, err := ev.evalExpr(t.Object, env)
		ev.release(base)
		if err != nil {
			return err
		}
		depth := len(ev.temps)
		ev.protect(objVal)
		ev.protect(v)
		idxVal, err := ev.evalExpr(t.Index, env)
		ev.release(depth)
		if err != nil {
			return err
		}
		switch obj := objVal.(type) {
		case Object:
			key, ok := idxVal.(String)
			if !ok {
				return runtimeErr(diagnostics.ENotAString, t.Span,
					"object index must be a string, got %s", TypeName(idxVal))
			}
			obj.O.Set(key.S.Value, v)
			return nil
		case Array:
			n, ok := idxVal.(Number)
			if !ok {
				return runtimeErr(diagnostics.EType, t.Span,
					"array index must be a number, got %s", TypeName(idxVal))
			}
			i := int(math.Floor(n.Value))
			if i < 0 || i >= len(obj.A.Elems) {
				return runtimeErr(diagnostics.EIndexOutOfBounds, t.Span,
					"index %d out of bounds for array of length %d", i, len(obj.A.Elems))
			}
			obj.A.Elems[i] = v
			return nil
		default:
			return runtimeErr(diagnostics.ENotAnObject, t.Span,
				"cannot index into %s", TypeName(objVal))
		}

	default:
		return runtimeErr(diagnostics.EType, span,
			"invalid assignment target %s", target.Kind())
	}
}

// --- Calls ---

func (ev *Evaluator) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := ev.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}

	depth := len(ev.temps)
	ev.protect(callee)
	args := make([]Value, 0, len(e.Args))
	for _, argExpr := range e.Args {
		arg, err := ev.evalExpr(argExpr, env)
		if err != nil {
			ev.release(depth)
			return nil, err
		}
		args = append(args, arg)
		ev.protect(arg)
	}
	v, err := ev.apply(callee, args, e.Span)
	ev.release(depth)
	return v, err
}

// apply invokes a callable with already-evaluated arguments. The caller is
// responsible for keeping callee and args rooted.
func (ev *Evaluator) apply(callee Value, args []Value, span ast.Span) (Value, error) {
	switch fn := callee.(type) {
	case Function:
		return ev.callFunction(fn.Fn, args, span)
	case Native:
		v, err := fn.N.Fn(ev, args)
		if err != nil {
			if _, ok := err.(*RuntimeError); ok {
				return nil, err
			}
			return nil, runtimeErr(diagnostics.EInvalidArgument, span, "%s: %s",
				fn.N.Name, err.Error())
		}
		if v == nil {
			v = Undefined{}
		}
		return v, nil
	default:
		return nil, runtimeErr(diagnostics.ENotCallable, span,
			"%s is not callable", TypeName(callee))
	}
}

// callFunction binds arguments positionally in a fresh frame whose parent is
// the callee's captured closure (lexical scoping), then executes the body.
// The result is an explicit return value, or the body's last statement value.
func (ev *Evaluator) callFunction(fn *FuncValue, args []Value, span ast.Span) (Value, error) {
	if len(args) > len(fn.Params) {
		name := fn.Name
		if name == "" {
			name = "(anonymous)"
		}
		return nil, runtimeErr(diagnostics.ETooManyArguments, span,
			"%s expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}

	callEnv := ev.heap.AllocEnv(fn.Closure, true)
	prev := ev.env
	ev.env = callEnv
	defer func() { ev.env = prev }()

	for i, param := range fn.Params {
		if i < len(args) {
			callEnv.Define(param, args[i])
		} else {
			callEnv.Define(param, Undefined{})
		}
	}

	var last Value = Undefined{}
	for _, stmt := range fn.Body.Stmts {
		v, sig, err := ev.execStmt(stmt, callEnv)
		if err != nil {
			return nil, err
		}
		switch sig {
		case sigReturn:
			return v, nil
		case sigBreak, sigContinue:
			return nil, runtimeErr(diagnostics.EType, stmt.NodeSpan(),
				"loop control outside of a loop")
		}
		last = v
	}
	return last, nil
}

// --- Member and index access ---

func (ev *Evaluator) member(objVal Value, e *ast.MemberExpr) (Value, error) {
	if e.Optional && isNullish(objVal) {
		return Undefined{}, nil
	}
	switch obj := objVal.(type) {
	case Object:
		if v, ok := obj.O.Get(e.Property); ok {
			return v, nil
		}
		return Undefined{}, nil
	case Array:
		if e.Property == "length" {
			return Number{Value: float64(len(obj.A.Elems))}, nil
		}
		return Undefined{}, nil
	case String:
		if e.Property == "length" {
			return Number{Value: float64(len(obj.S.Value))}, nil
		}
		return Undefined{}, nil
	default:
		return nil, runtimeErr(diagnostics.ENotAnObject, e.Span,
			"cannot read property '%s' of %s", e.Property, TypeName(objVal))
	}
}

func (ev *Evaluator) index(objVal, idxVal Value, e *ast.IndexExpr) (Value, error) {
	if key, ok := idxVal.(String); ok {
		return ev.member(objVal, &ast.MemberExpr{
			Span:     e.Span,
			Object:   e.Object,
			Property: key.S.Value,
		})
	}
	if n, ok := idxVal.(Number); ok {
		switch obj := objVal.(type) {
		case Array:
			i := int(math.Floor(n.Value))
			if i < 0 || i >= len(obj.A.Elems) {
				return Undefined{}, nil
			}
			return obj.A.Elems[i], nil
		case String:
			i := int(math.Floor(n.Value))
			if i < 0 || i >= len(obj.S.Value) {
				return Undefined{}, nil
			}
			return ev.heap.NewString(obj.S.Value[i : i+1]), nil
		}
	}
	return Undefined{}, nil
}
