// Package validator implements semantic validation of parsed programs: the
// structural checks that are cheaper to reject before evaluation starts.
package validator

import (
	"fmt"

	"github.com/ArnoudK/libecma/pkg/ast"
	"github.com/ArnoudK/libecma/pkg/diagnostics"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate performs semantic analysis on a program and returns diagnostics.
// It checks loop-control placement (break/continue must sit inside a loop
// within the current function) and duplicate parameter names.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	for _, stmt := range program.Stmts {
		v.checkStmt(stmt, false)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	s := span
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &s, ""))
}

func (v *validator) checkStmt(stmt ast.Stmt, inLoop bool) {
	switch s := stmt.(type) {
	case *ast.BreakStmt:
		if !inLoop {
			v.addDiag(diagnostics.EBreakOutsideLoop,
				"'break' outside of a loop", s.Span)
		}

	case *ast.ContinueStmt:
		if !inLoop {
			v.addDiag(diagnostics.EContinueOutsideLoop,
				"'continue' outside of a loop", s.Span)
		}

	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			v.checkStmt(inner, inLoop)
		}

	case *ast.IfStmt:
		v.checkExpr(s.Cond)
		v.checkStmt(s.Then, inLoop)
		if s.Else != nil {
			v.checkStmt(s.Else, inLoop)
		}

	case *ast.WhileStmt:
		v.checkExpr(s.Cond)
		v.checkStmt(s.Body, true)

	case *ast.ForStmt:
		if s.Init != nil {
			v.checkStmt(s.Init, inLoop)
		}
		if s.Cond != nil {
			v.checkExpr(s.Cond)
		}
		if s.Step != nil {
			v.checkExpr(s.Step)
		}
		v.checkStmt(s.Body, true)

	case *ast.FuncDecl:
		v.checkParams(s.Name, s.Params, s.Span)
		// A new function body resets the loop context.
		v.checkStmt(s.Body, false)

	case *ast.VarDecl:
		if s.Init != nil {
			v.checkExpr(s.Init)
		}

	case *ast.ExprStmt:
		v.checkExpr(s.Expr)

	case *ast.ReturnStmt:
		if s.Value != nil {
			v.checkExpr(s.Value)
		}
	}
}

func (v *validator) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.FuncLit:
		name := e.Name
		if name == "" {
			name = "(anonymous)"
		}
		v.checkParams(name, e.Params, e.Span)
		v.checkStmt(e.Body, false)

	case *ast.UnaryExpr:
		v.checkExpr(e.Operand)
	case *ast.UpdateExpr:
		v.checkExpr(e.Target)
	case *ast.BinaryExpr:
		v.checkExpr(e.Left)
		v.checkExpr(e.Right)
	case *ast.AssignExpr:
		v.checkExpr(e.Target)
		v.checkExpr(e.Value)
	case *ast.CondExpr:
		v.checkExpr(e.Cond)
		v.checkExpr(e.Then)
		v.checkExpr(e.Else)
	case *ast.CallExpr:
		v.checkExpr(e.Callee)
		for _, arg := range e.Args {
			v.checkExpr(arg)
		}
	case *ast.MemberExpr:
		v.checkExpr(e.Object)
	case *ast.IndexExpr:
		v.checkExpr(e.Object)
		v.checkExpr(e.Index)
	case *ast.ArrayLit:
		for _, elem := range e.Elements {
			v.checkExpr(elem)
		}
	case *ast.ObjectLit:
		for _, pair := range e.Pairs {
			v.checkExpr(pair.Value)
		}
	case *ast.TemplateLit:
		for _, sub := range e.Exprs {
			v.checkExpr(sub)
		}
	}
}

func (v *validator) checkParams(fnName string, params []string, span ast.Span) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			v.addDiag(diagnostics.EDuplicateParameter,
				fmt.Sprintf("duplicate parameter '%s' in %s", p, fnName), span)
		}
		seen[p] = true
	}
}
