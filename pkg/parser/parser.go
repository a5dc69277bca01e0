// Package parser implements the Pratt-style parser for the scripting
// language. It turns the lexer's token stream into an ast.Program.
package parser

import (
	"fmt"

	"github.com/ArnoudK/libecma/pkg/ast"
	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/lexer"
)

// Precedence levels, low to high. A left-associative operator at level L
// parses its right operand at L+1; assignment and the conditional parse at
// their own level and therefore nest to the right.
const (
	precLowest = iota
	precAssign
	precConditional
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precShift
	precTerm
	precFactor
	precUnary
	precUpdate
	precCall
)

type parser struct {
	source string
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EUnexpectedCharacter, err.Error(), nil, ""),
		}
	}

	p := &parser{source: source, tokens: tokens}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenKind {
	return p.current().Kind
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.addError(diagnostics.EExpectedToken,
			fmt.Sprintf("expected %s, got %s", lexer.KindName(kind), describe(tok)), tok)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(code, msg string, tok lexer.Token) {
	span := ast.Span{Start: tok.Start, End: tok.End}
	p.diags = append(p.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{Start: start.Start, End: end.End}
}

func tokSpan(tok lexer.Token) ast.Span {
	return ast.Span{Start: tok.Start, End: tok.End}
}

// --- Statements ---

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{Span: ast.Span{Start: 0, End: len(p.source)}}
	for p.peek() != lexer.TokEOF {
		if p.peek() == lexer.TokSemicolon {
			p.advance() // stray semicolon
			continue
		}
		stmt := p.parseStmt()
		if stmt == nil {
			return prog
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLet, lexer.TokConst, lexer.TokVar:
		return p.parseVarDecl(true)
	case lexer.TokFunction:
		return p.parseFuncDecl()
	case lexer.TokIf:
		return p.parseIfStmt()
	case lexer.TokWhile:
		return p.parseWhileStmt()
	case lexer.TokFor:
		return p.parseForStmt()
	case lexer.TokReturn:
		return p.parseReturnStmt()
	case lexer.TokBreak:
		tok := p.advance()
		p.endStmt()
		return &ast.BreakStmt{Span: tokSpan(tok)}
	case lexer.TokContinue:
		tok := p.advance()
		p.endStmt()
		return &ast.ContinueStmt{Span: tokSpan(tok)}
	case lexer.TokLBrace:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

// endStmt consumes the statement-terminating semicolon. The terminator may
// be elided immediately before '}' or end of file.
func (p *parser) endStmt() bool {
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
		return true
	case lexer.TokRBrace, lexer.TokEOF:
		return true
	default:
		tok := p.current()
		p.addError(diagnostics.EExpectedToken,
			fmt.Sprintf("expected ';', got %s", describe(tok)), tok)
		return false
	}
}

func (p *parser) parseVarDecl(consumeSemi bool) ast.Stmt {
	kw := p.advance()
	var kind ast.DeclKind
	switch kw.Kind {
	case lexer.TokLet:
		kind = ast.DeclLet
	case lexer.TokConst:
		kind = ast.DeclConst
	default:
		kind = ast.DeclVar
	}

	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.peek() == lexer.TokAssign {
		p.advance()
		init = p.parseExpr(precAssign)
		if init == nil {
			return nil
		}
	} else if kind == ast.DeclConst {
		p.addError(diagnostics.EConstWithoutInitializer,
			fmt.Sprintf("constant '%s' declared without an initializer", nameTok.Lexeme), nameTok)
		return nil
	}

	end := tokSpan(p.current())
	if consumeSemi {
		if !p.endStmt() {
			return nil
		}
	}
	return &ast.VarDecl{
		Span: spanFromTo(tokSpan(kw), end),
		Decl: kind,
		Name: nameTok.Lexeme,
		Init: init,
	}
}

func (p *parser) parseFuncDecl() ast.Stmt {
	kw := p.advance() // consume 'function'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	params, ok := p.parseParamList()
	if !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	block := body.(*ast.BlockStmt)
	return &ast.FuncDecl{
		Span:   spanFromTo(tokSpan(kw), block.Span),
		Name:   nameTok.Lexeme,
		Params: params,
		Body:   block,
	}
}

func (p *parser) parseParamList() ([]string, bool) {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil, false
	}
	params := []string{}
	for p.peek() != lexer.TokRParen {
		nameTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil, false
		}
		params = append(params, nameTok.Lexeme)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance() // consume ',' (a trailing comma is fine)
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil, false
	}
	return params, true
}

func (p *parser) parseBlock() ast.Stmt {
	open, ok := p.expect(lexer.TokLBrace)
	if !ok {
		return nil
	}
	block := &ast.BlockStmt{}
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		if p.peek() == lexer.TokSemicolon {
			p.advance()
			continue
		}
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	closeTok, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil
	}
	block.Span = spanFromTo(tokSpan(open), tokSpan(closeTok))
	return block
}

func (p *parser) parseIfStmt() ast.Stmt {
	kw := p.advance()
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := p.parseExpr(precLowest)
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	then := p.parseStmt()
	if then == nil {
		return nil
	}
	var elseStmt ast.Stmt
	if p.peek() == lexer.TokElse {
		p.advance()
		elseStmt = p.parseStmt()
		if elseStmt == nil {
			return nil
		}
	}
	end := then.NodeSpan()
	if elseStmt != nil {
		end = elseStmt.NodeSpan()
	}
	return &ast.IfStmt{
		Span: spanFromTo(tokSpan(kw), end),
		Cond: cond,
		Then: then,
		Else: elseStmt,
	}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	kw := p.advance()
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := p.parseExpr(precLowest)
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	body := p.parseStmt()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{
		Span: spanFromTo(tokSpan(kw), body.NodeSpan()),
		Cond: cond,
		Body: body,
	}
}

func (p *parser) parseForStmt() ast.Stmt {
	kw := p.advance()
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var init ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		// absent init
	case lexer.TokLet, lexer.TokConst, lexer.TokVar:
		init = p.parseVarDecl(false)
		if init == nil {
			return nil
		}
	default:
		expr := p.parseExpr(precLowest)
		if expr == nil {
			return nil
		}
		init = &ast.ExprStmt{Span: expr.NodeSpan(), Expr: expr}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	var cond ast.Expr
	if p.peek() != lexer.TokSemicolon {
		cond = p.parseExpr(precLowest)
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	var step ast.Expr
	if p.peek() != lexer.TokRParen {
		step = p.parseExpr(precLowest)
		if step == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body := p.parseStmt()
	if body == nil {
		return nil
	}
	return &ast.ForStmt{
		Span: spanFromTo(tokSpan(kw), body.NodeSpan()),
		Init: init,
		Cond: cond,
		Step: step,
		Body: body,
	}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	kw := p.advance()
	var value ast.Expr
	if p.peek() != lexer.TokSemicolon && p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		value = p.parseExpr(precLowest)
		if value == nil {
			return nil
		}
	}
	end := tokSpan(p.current())
	if !p.endStmt() {
		return nil
	}
	return &ast.ReturnStmt{
		Span:  spanFromTo(tokSpan(kw), end),
		Value: value,
	}
}

func (p *parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr(precLowest)
	if expr == nil {
		return nil
	}
	if !p.endStmt() {
		return nil
	}
	return &ast.ExprStmt{Span: expr.NodeSpan(), Expr: expr}
}

// --- Expressions (Pratt) ---

// infixPrec reports the binding power of a token in infix position, or
// precLowest when the token cannot continue an expression.
func infixPrec(kind lexer.TokenKind) int {
	switch kind {
	case lexer.TokAssign, lexer.TokPlusAssign, lexer.TokMinusAssign,
		lexer.TokStarAssign, lexer.TokSlashAssign, lexer.TokPercentAssign,
		lexer.TokPowAssign, lexer.TokShlAssign, lexer.TokShrAssign,
		lexer.TokUShrAssign, lexer.TokAmpAssign, lexer.TokPipeAssign,
		lexer.TokCaretAssign, lexer.TokAndAssign, lexer.TokOrAssign,
		lexer.TokNullishAssign:
		return precAssign
	case lexer.TokQuestion:
		return precConditional
	case lexer.TokOrOr, lexer.TokNullish:
		return precOr
	case lexer.TokAndAnd:
		return precAnd
	case lexer.TokPipe:
		return precBitOr
	case lexer.TokCaret:
		return precBitXor
	case lexer.TokAmp:
		return precBitAnd
	case lexer.TokEqEq, lexer.TokBangEq, lexer.TokEqEqEq, lexer.TokBangEqEq:
		return precEquality
	case lexer.TokLt, lexer.TokLtEq, lexer.TokGt, lexer.TokGtEq,
		lexer.TokIn, lexer.TokInstanceof:
		return precComparison
	case lexer.TokShl, lexer.TokShr, lexer.TokUShr:
		return precShift
	case lexer.TokPlus, lexer.TokMinus:
		return precTerm
	case lexer.TokStar, lexer.TokSlash, lexer.TokPercent, lexer.TokPow:
		return precFactor
	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		return precUpdate
	case lexer.TokDot, lexer.TokQuestionDot, lexer.TokLBracket, lexer.TokLParen:
		return precCall
	default:
		return precLowest
	}
}

func binaryOpFor(kind lexer.TokenKind) ast.BinaryOp {
	switch kind {
	case lexer.TokPlus:
		return ast.OpAdd
	case lexer.TokMinus:
		return ast.OpSub
	case lexer.TokStar:
		return ast.OpMul
	case lexer.TokSlash:
		return ast.OpDiv
	case lexer.TokPercent:
		return ast.OpMod
	case lexer.TokPow:
		return ast.OpPow
	case lexer.TokLt:
		return ast.OpLt
	case lexer.TokLtEq:
		return ast.OpLtEq
	case lexer.TokGt:
		return ast.OpGt
	case lexer.TokGtEq:
		return ast.OpGtEq
	case lexer.TokEqEq:
		return ast.OpEqEq
	case lexer.TokBangEq:
		return ast.OpNeq
	case lexer.TokEqEqEq:
		return ast.OpEqEqEq
	case lexer.TokBangEqEq:
		return ast.OpNeqEq
	case lexer.TokAndAnd:
		return ast.OpAnd
	case lexer.TokOrOr:
		return ast.OpOr
	case lexer.TokNullish:
		return ast.OpNullish
	case lexer.TokAmp:
		return ast.OpBitAnd
	case lexer.TokPipe:
		return ast.OpBitOr
	case lexer.TokCaret:
		return ast.OpBitXor
	case lexer.TokShl:
		return ast.OpShl
	case lexer.TokShr:
		return ast.OpShr
	case lexer.TokUShr:
		return ast.OpUShr
	case lexer.TokIn:
		return ast.OpIn
	case lexer.TokInstanceof:
		return ast.OpInstanceof
	default:
		return ""
	}
}

func (p *parser) parseExpr(min int) ast.Expr {
	left := p.parsePrefix()
	for left != nil {
		prec := infixPrec(p.peek())
		if prec == precLowest || prec < min {
			return left
		}
		left = p.parseInfix(left, prec)
	}
	return nil
}

func (p *parser) parsePrefix() ast.Expr {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokNumericLiteral, lexer.TokBigIntLiteral:
		p.advance()
		v, err := lexer.DecodeNumber(tok.Lexeme)
		if err != nil {
			p.addError(diagnostics.EInvalidNumber, err.Error(), tok)
			return nil
		}
		return &ast.NumberLit{
			Span:   tokSpan(tok),
			Value:  v,
			BigInt: tok.Kind == lexer.TokBigIntLiteral,
		}

	case lexer.TokStringLiteral:
		p.advance()
		s, err := lexer.DecodeString(tok.Lexeme)
		if err != nil {
			p.addError(diagnostics.EInvalidEscapeSequence, err.Error(), tok)
			return nil
		}
		return &ast.StringLit{Span: tokSpan(tok), Value: s}

	case lexer.TokTemplateStart:
		return p.parseTemplate()

	case lexer.TokBoolLiteral:
		p.advance()
		return &ast.BoolLit{Span: tokSpan(tok), Value: tok.Lexeme == "true"}

	case lexer.TokNullLiteral:
		p.advance()
		return &ast.NullLit{Span: tokSpan(tok)}

	case lexer.TokIdent:
		p.advance()
		return &ast.Identifier{Span: tokSpan(tok), Name: tok.Lexeme}

	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpr(precLowest)
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokLBracket:
		return p.parseArrayLit()

	case lexer.TokLBrace:
		return p.parseObjectLit()

	case lexer.TokFunction:
		return p.parseFuncLit()

	case lexer.TokBang, lexer.TokTilde, lexer.TokPlus, lexer.TokMinus,
		lexer.TokTypeof, lexer.TokVoid, lexer.TokDelete:
		p.advance()
		operand := p.parseExpr(precUnary)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			Span:    spanFromTo(tokSpan(tok), operand.NodeSpan()),
			Op:      unaryOpFor(tok.Kind),
			Operand: operand,
		}

	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		p.advance()
		target := p.parseExpr(precUnary)
		if target == nil {
			return nil
		}
		if !isAssignTarget(target) {
			p.addError(diagnostics.EInvalidAssignmentTarget,
				fmt.Sprintf("invalid target for prefix '%s'", tok.Lexeme), tok)
			return nil
		}
		return &ast.UpdateExpr{
			Span:   spanFromTo(tokSpan(tok), target.NodeSpan()),
			Op:     tok.Lexeme,
			Target: target,
			Prefix: true,
		}

	default:
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("unexpected %s", describe(tok)), tok)
		return nil
	}
}

func unaryOpFor(kind lexer.TokenKind) ast.UnaryOp {
	switch kind {
	case lexer.TokBang:
		return ast.OpNot
	case lexer.TokTilde:
		return ast.OpBitNot
	case lexer.TokPlus:
		return ast.OpPlus
	case lexer.TokMinus:
		return ast.OpNeg
	case lexer.TokTypeof:
		return ast.OpTypeof
	case lexer.TokVoid:
		return ast.OpVoid
	default:
		return ast.OpDelete
	}
}

func isAssignTarget(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberExpr, *ast.IndexExpr:
		return true
	default:
		return false
	}
}

func (p *parser) parseInfix(left ast.Expr, prec int) ast.Expr {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokAssign, lexer.TokPlusAssign, lexer.TokMinusAssign,
		lexer.TokStarAssign, lexer.TokSlashAssign, lexer.TokPercentAssign,
		lexer.TokPowAssign, lexer.TokShlAssign, lexer.TokShrAssign,
		lexer.TokUShrAssign, lexer.TokAmpAssign, lexer.TokPipeAssign,
		lexer.TokCaretAssign, lexer.TokAndAssign, lexer.TokOrAssign,
		lexer.TokNullishAssign:
		if !isAssignTarget(left) {
			p.addError(diagnostics.EInvalidAssignmentTarget,
				"left side of assignment is not assignable", tok)
			return nil
		}
		p.advance()
		value := p.parseExpr(precAssign) // right-associative
		if value == nil {
			return nil
		}
		return &ast.AssignExpr{
			Span:   spanFromTo(left.NodeSpan(), value.NodeSpan()),
			Op:     tok.Lexeme,
			Target: left,
			Value:  value,
		}

	case lexer.TokQuestion:
		p.advance()
		then := p.parseExpr(precAssign)
		if then == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokColon); !ok {
			return nil
		}
		elseExpr := p.parseExpr(precConditional) // right-associative
		if elseExpr == nil {
			return nil
		}
		return &ast.CondExpr{
			Span: spanFromTo(left.NodeSpan(), elseExpr.NodeSpan()),
			Cond: left,
			Then: then,
			Else: elseExpr,
		}

	case lexer.TokLParen:
		return p.parseCall(left)

	case lexer.TokDot, lexer.TokQuestionDot:
		p.advance()
		nameTok := p.current()
		if nameTok.Kind != lexer.TokIdent && !isKeywordToken(nameTok.Kind) {
			p.addError(diagnostics.EExpectedToken,
				fmt.Sprintf("expected property name, got %s", describe(nameTok)), nameTok)
			return nil
		}
		p.advance()
		return &ast.MemberExpr{
			Span:     spanFromTo(left.NodeSpan(), tokSpan(nameTok)),
			Object:   left,
			Property: nameTok.Lexeme,
			Optional: tok.Kind == lexer.TokQuestionDot,
		}

	case lexer.TokLBracket:
		p.advance()
		index := p.parseExpr(precLowest)
		if index == nil {
			return nil
		}
		closeTok, ok := p.expect(lexer.TokRBracket)
		if !ok {
			return nil
		}
		return &ast.IndexExpr{
			Span:   spanFromTo(left.NodeSpan(), tokSpan(closeTok)),
			Object: left,
			Index:  index,
		}

	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		if !isAssignTarget(left) {
			p.addError(diagnostics.EInvalidAssignmentTarget,
				fmt.Sprintf("invalid target for postfix '%s'", tok.Lexeme), tok)
			return nil
		}
		p.advance()
		return &ast.UpdateExpr{
			Span:   spanFromTo(left.NodeSpan(), tokSpan(tok)),
			Op:     tok.Lexeme,
			Target: left,
			Prefix: false,
		}

	default:
		op := binaryOpFor(tok.Kind)
		if op == "" {
			p.addError(diagnostics.EUnexpectedToken,
				fmt.Sprintf("unexpected %s", describe(tok)), tok)
			return nil
		}
		p.advance()
		right := p.parseExpr(prec + 1) // left-associative
		if right == nil {
			return nil
		}
		return &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func isKeywordToken(kind lexer.TokenKind) bool {
	return kind >= lexer.TokFunction && kind <= lexer.TokFinally
}

func (p *parser) parseCall(callee ast.Expr) ast.Expr {
	p.advance() // consume '('
	args := []ast.Expr{}
	for p.peek() != lexer.TokRParen {
		arg := p.parseExpr(precAssign)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance() // consume ',' (a trailing comma is fine)
	}
	closeTok, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span:   spanFromTo(callee.NodeSpan(), tokSpan(closeTok)),
		Callee: callee,
		Args:   args,
	}
}

func (p *parser) parseArrayLit() ast.Expr {
	open := p.advance() // consume '['
	elements := []ast.Expr{}
	for p.peek() != lexer.TokRBracket {
		elem := p.parseExpr(precAssign)
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	closeTok, ok := p.expect(lexer.TokRBracket)
	if !ok {
		return nil
	}
	return &ast.ArrayLit{
		Span:     spanFromTo(tokSpan(open), tokSpan(closeTok)),
		Elements: elements,
	}
}

func (p *parser) parseObjectLit() ast.Expr {
	open := p.advance() // consume '{'
	pairs := []*ast.ObjectPair{}
	for p.peek() != lexer.TokRBrace {
		keyTok := p.current()
		var key string
		switch {
		case keyTok.Kind == lexer.TokIdent || isKeywordToken(keyTok.Kind) ||
			keyTok.Kind == lexer.TokBoolLiteral || keyTok.Kind == lexer.TokNullLiteral:
			key = keyTok.Lexeme
			p.advance()
		case keyTok.Kind == lexer.TokStringLiteral:
			decoded, err := lexer.DecodeString(keyTok.Lexeme)
			if err != nil {
				p.addError(diagnostics.EInvalidEscapeSequence, err.Error(), keyTok)
				return nil
			}
			key = decoded
			p.advance()
		default:
			p.addError(diagnostics.EExpectedToken,
				fmt.Sprintf("expected property key, got %s", describe(keyTok)), keyTok)
			return nil
		}

		if _, ok := p.expect(lexer.TokColon); !ok {
			return nil
		}
		value := p.parseExpr(precAssign)
		if value == nil {
			return nil
		}
		pairs = append(pairs, &ast.ObjectPair{
			Span:  spanFromTo(tokSpan(keyTok), value.NodeSpan()),
			Key:   key,
			Value: value,
		})
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance() // consume ',' (a trailing comma is fine)
	}
	closeTok, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil
	}
	return &ast.ObjectLit{
		Span:  spanFromTo(tokSpan(open), tokSpan(closeTok)),
		Pairs: pairs,
	}
}

func (p *parser) parseFuncLit() ast.Expr {
	kw := p.advance() // consume 'function'
	name := ""
	if p.peek() == lexer.TokIdent {
		name = p.advance().Lexeme
	}
	params, ok := p.parseParamList()
	if !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	block := body.(*ast.BlockStmt)
	return &ast.FuncLit{
		Span:   spanFromTo(tokSpan(kw), block.Span),
		Name:   name,
		Params: params,
		Body:   block,
	}
}

// parseTemplate consumes a template-literal token group. Text chunks decode
// through the template escape decoder; interpolations parse as full
// expressions and stop at the TemplateExprEnd marker, which has no infix
// binding power.
func (p *parser) parseTemplate() ast.Expr {
	open := p.advance() // consume TemplateStart
	quasis := []string{}
	exprs := []ast.Expr{}
	pending := ""

	for {
		tok := p.current()
		switch tok.Kind {
		case lexer.TokTemplateString:
			p.advance()
			decoded, err := lexer.DecodeTemplateChunk(tok.Lexeme)
			if err != nil {
				p.addError(diagnostics.EInvalidEscapeSequence, err.Error(), tok)
				return nil
			}
			pending = decoded

		case lexer.TokTemplateExprStart:
			p.advance()
			expr := p.parseExpr(precLowest)
			if expr == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokTemplateExprEnd); !ok {
				return nil
			}
			quasis = append(quasis, pending)
			pending = ""
			exprs = append(exprs, expr)

		case lexer.TokTemplateEnd:
			p.advance()
			quasis = append(quasis, pending)
			return &ast.TemplateLit{
				Span:   spanFromTo(tokSpan(open), tokSpan(tok)),
				Quasis: quasis,
				Exprs:  exprs,
			}

		default:
			p.addError(diagnostics.EUnexpectedToken,
				fmt.Sprintf("unexpected %s inside template literal", describe(tok)), tok)
			return nil
		}
	}
}
