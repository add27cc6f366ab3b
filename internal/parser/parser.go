// Package parser implements the syntax analysis for YPSH.
// It uses Pratt parsing for expressions and recursive descent for statements/declarations.
package parser

import (
	"fmt"
	"strconv"

	"ypsh-lang/internal/ast"
	"ypsh-lang/internal/diag"
	"ypsh-lang/internal/span"
	"ypsh-lang/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpTernary    = 5  // ? : (right-associative)
	bpOr         = 10 // ||
	bpAnd        = 20 // &&
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // ! -
	bpPostfix    = 80 // () [] .
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.QUESTION:
		return bpTernary
	case token.OR:
		return bpOr
	case token.AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.LBRACKET, token.DOT:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseFile parses the entire file and returns the AST root and diagnostics.
func (p *Parser) ParseFile() (*ast.File, []diag.Diagnostic) {
	file := &ast.File{}
	startPos := p.peek().Span.Start

	p.skipSep()
	for !p.isAtEnd() {
		node := p.parseTopLevel()
		if node != nil {
			file.Body = append(file.Body, node)
		}
		p.skipSep()
	}

	endPos := p.peek().Span.End
	file.Span = span.Span{Start: startPos, End: endPos}
	return file, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) peekAt(offset int) token.Kind {
	if p.pos+offset >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[p.pos+offset].Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s', got '%s'", kind, tok.Kind))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips NEWLINE and SEMICOLON tokens (separators).
func (p *Parser) skipSep() {
	for p.match(token.NEWLINE, token.SEMICOLON) {
		p.advance()
	}
}

// skipNewlines skips NEWLINE tokens only.
func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) error(code string, s span.Span, msg string) {
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.match(token.NEWLINE, token.SEMICOLON) {
			p.advance()
			return
		}
		if p.check(token.RBRACE) {
			return
		}
		if p.match(token.KW_IF, token.KW_WHILE, token.KW_FOR, token.KW_SWITCH,
			token.KW_FUNC, token.KW_TEMPLATE, token.KW_CLASS, token.KW_ENUM,
			token.KW_VAR, token.KW_LET, token.KW_RETURN, token.KW_BREAK,
			token.KW_CONTINUE, token.KW_DO, token.KW_IMPORT) {
			return
		}
		p.advance()
	}
}

// ============================================================
// Top-level parsing
// ============================================================

func (p *Parser) parseTopLevel() ast.Node {
	switch p.peekKind() {
	case token.KW_FUNC:
		return p.parseFuncDecl()
	case token.KW_TEMPLATE:
		return p.parseTemplateDecl()
	case token.KW_CLASS:
		return p.parseClassDecl()
	case token.KW_ENUM:
		return p.parseEnumDecl()
	default:
		return p.parseStmt()
	}
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_SWITCH:
		return p.parseSwitchStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_BREAK:
		return p.parseBreakStmt()
	case token.KW_CONTINUE:
		return p.parseContinueStmt()
	case token.KW_VAR, token.KW_LET:
		return p.parseVarDecl(ast.ScopeDefault, p.peek())
	case token.KW_GLOBAL, token.KW_LOCAL:
		return p.parseScopedStmt()
	case token.KW_DO:
		return p.parseDoCatchStmt()
	case token.KW_IMPORT:
		return p.parseImportStmt()
	case token.SHELL, token.SHELL_HEAD:
		return p.parseShellStmt()
	default:
		return p.parseSimpleStmt()
	}
}

// parseCondition parses a condition expression. Parentheses are optional;
// a grouped condition is handled by ordinary expression parsing.
func (p *Parser) parseCondition() ast.Expr {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("expected condition, got '%s'", tok.Kind))
	}
	return expr
}

// parseIfStmt parses: if expr block { elif expr block } [ else block ].
// `else if` is accepted as a spelling of `elif`.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	stmt.Condition = p.parseCondition()
	stmt.Body = p.parseBlock()

	for {
		// elif/else may start on the line after the closing brace
		mark := p.pos
		p.skipNewlines()

		if p.check(token.KW_ELIF) || (p.check(token.KW_ELSE) && p.peekAt(1) == token.KW_IF) {
			clauseStart := p.advance() // 'elif' or 'else'
			if clauseStart.Kind == token.KW_ELSE {
				p.advance() // 'if'
			}
			clause := ast.ElseIfClause{}
			clause.Condition = p.parseCondition()
			clause.Body = p.parseBlock()
			clause.Span = p.makeSpan(clauseStart.Span.Start)
			stmt.ElseIfs = append(stmt.ElseIfs, clause)
			continue
		}
		if p.check(token.KW_ELSE) {
			p.advance()
			stmt.ElseBody = p.parseBlock()
			break
		}

		p.pos = mark
		break
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while expr block
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	stmt.Condition = p.parseCondition()
	stmt.Body = p.parseBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseForStmt parses: for IDENT in expr block
func (p *Parser) parseForStmt() *ast.ForInStmt {
	start := p.advance() // consume 'for'
	stmt := &ast.ForInStmt{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.VarName = nameTok.Lexeme

	if _, ok := p.expect(token.KW_IN); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}

	stmt.Iterable = p.parseExpr(bpNone)
	stmt.Body = p.parseBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseSwitchStmt parses:
//
//	switch expr { case value: block ... default: block }
//
// Arms do not fall through; at most the first matching arm runs.
func (p *Parser) parseSwitchStmt() *ast.SwitchStmt {
	start := p.advance() // consume 'switch'
	stmt := &ast.SwitchStmt{}

	stmt.Subject = p.parseExpr(bpNone)

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		switch p.peekKind() {
		case token.KW_CASE:
			armStart := p.advance()
			arm := ast.SwitchArm{}
			arm.Value = p.parseExpr(bpNone)
			p.expect(token.COLON)
			arm.Body = p.parseBlock()
			arm.Span = p.makeSpan(armStart.Span.Start)
			stmt.Arms = append(stmt.Arms, arm)
		case token.KW_DEFAULT:
			defTok := p.advance()
			p.expect(token.COLON)
			body := p.parseBlock()
			if stmt.Default != nil {
				p.error("E2007", defTok.Span, "duplicate default arm in switch")
			}
			stmt.Default = body
		default:
			tok := p.peek()
			p.error("E2007", tok.Span, fmt.Sprintf("expected 'case' or 'default', got '%s'", tok.Kind))
			p.synchronize()
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturnStmt parses: return [expr]
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	if !p.match(token.NEWLINE, token.SEMICOLON, token.RBRACE, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

func (p *Parser) parseBreakStmt() *ast.BreakStmt {
	start := p.advance()
	return &ast.BreakStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

func (p *Parser) parseContinueStmt() *ast.ContinueStmt {
	start := p.advance()
	return &ast.ContinueStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

// parseScopedStmt parses either a scoped declaration (global var x = 1)
// or a bare scope intent (global x).
func (p *Parser) parseScopedStmt() ast.Stmt {
	start := p.advance() // consume 'global' or 'local'
	mode := ast.ScopeGlobal
	if start.Kind == token.KW_LOCAL {
		mode = ast.ScopeLocal
	}

	if p.match(token.KW_VAR, token.KW_LET) {
		return p.parseVarDecl(mode, start)
	}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		return &ast.IntentStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()), Kind: mode}
	}
	return &ast.IntentStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Kind:     mode,
		Name:     nameTok.Lexeme,
	}
}

// parseVarDecl parses: (var | let) IDENT [: type] [= expr]
func (p *Parser) parseVarDecl(scope ast.ScopeMode, start token.Token) *ast.VarDeclStmt {
	kw := p.advance() // consume 'var' or 'let'
	stmt := &ast.VarDeclStmt{IsLet: kw.Kind == token.KW_LET, Scope: scope, Type: "auto"}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Name = nameTok.Lexeme

	if p.check(token.COLON) {
		p.advance()
		stmt.Type = p.parseTypeName()
	}

	if p.check(token.ASSIGN) {
		p.advance()
		p.skipNewlines()
		stmt.Init = p.parseExpr(bpNone)
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseTypeName parses a type annotation: IDENT { . IDENT }.
// Annotations are advisory; the name is recorded verbatim.
func (p *Parser) parseTypeName() string {
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return "auto"
	}
	name := nameTok.Lexeme
	for p.check(token.DOT) {
		p.advance()
		part, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		name += "." + part.Lexeme
	}
	return name
}

// parseDoCatchStmt parses: do block catch IDENT block
func (p *Parser) parseDoCatchStmt() *ast.DoCatchStmt {
	start := p.advance() // consume 'do'
	stmt := &ast.DoCatchStmt{}

	stmt.Body = p.parseBlock()

	p.skipNewlines()
	if _, ok := p.expect(token.KW_CATCH); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}

	nameTok, ok := p.expect(token.IDENT)
	if ok {
		stmt.CatchName = nameTok.Lexeme
	}
	stmt.Handler = p.parseBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseImportStmt parses: import "path" [as IDENT]
func (p *Parser) parseImportStmt() *ast.ImportStmt {
	start := p.advance() // consume 'import'
	stmt := &ast.ImportStmt{}

	pathTok, ok := p.expect(token.STRING)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Path = pathTok.Lexeme

	if p.check(token.KW_AS) {
		p.advance()
		aliasTok, ok := p.expect(token.IDENT)
		if ok {
			stmt.Alias = aliasTok.Lexeme
		}
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseShellStmt parses a `$ command` line. Interpolated lines arrive as
// SHELL_HEAD expr SHELL_MIDDLE ... SHELL_TAIL token runs.
func (p *Parser) parseShellStmt() *ast.ShellStmt {
	start := p.peek()
	cmd := &ast.InterpString{}

	if p.check(token.SHELL) {
		tok := p.advance()
		cmd.Parts = append(cmd.Parts, tok.Lexeme)
	} else {
		head := p.advance() // SHELL_HEAD
		cmd.Parts = append(cmd.Parts, head.Lexeme)
		for {
			expr := p.parseExpr(bpNone)
			if expr == nil {
				tok := p.peek()
				p.error("E2006", tok.Span, "expected expression in shell interpolation")
				break
			}
			cmd.Exprs = append(cmd.Exprs, expr)
			seg := p.peek()
			if seg.Kind == token.SHELL_MIDDLE {
				p.advance()
				cmd.Parts = append(cmd.Parts, seg.Lexeme)
				continue
			}
			if seg.Kind == token.SHELL_TAIL {
				p.advance()
				cmd.Parts = append(cmd.Parts, seg.Lexeme)
				break
			}
			p.error("E2006", seg.Span, "unterminated shell interpolation")
			break
		}
	}

	cmd.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return &ast.ShellStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Command:  cmd,
	}
}

// parseSimpleStmt parses an expression statement or assignment.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Kind))
		p.synchronize()
		return &ast.ExprStmt{
			StmtBase: makeStmtBase(tok.Span.Start, tok.Span.End),
		}
	}

	// Assignment: expr = value
	if p.check(token.ASSIGN) {
		p.advance()
		p.skipNewlines()
		value := p.parseExpr(bpNone)
		p.checkLValue(expr)
		return &ast.AssignStmt{
			StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
			Target:   expr,
			Value:    value,
		}
	}

	// Compound assignment: expr += / -= / *= / /= value
	if p.match(token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN) {
		opTok := p.advance()
		p.skipNewlines()
		rhs := p.parseExpr(bpNone)
		p.checkLValue(expr)
		// Desugar: target op= rhs → target = target op rhs
		value := &ast.BinaryExpr{
			ExprBase: makeExprBase(expr.GetSpan().Start, p.prevEnd()),
			Op:       compoundToOp(opTok.Kind),
			Left:     expr,
			Right:    rhs,
		}
		return &ast.AssignStmt{
			StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
			Target:   expr,
			Value:    value,
		}
	}

	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}
}

// checkLValue reports targets that cannot be assigned to.
func (p *Parser) checkLValue(expr ast.Expr) {
	switch expr.(type) {
	case *ast.IdentExpr, *ast.AttrExpr, *ast.IndexExpr:
	default:
		p.error("E2004", expr.GetSpan(), "invalid assignment target")
	}
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.peek()
	block := &ast.BlockStmt{}

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		block.Span = p.makeSpan(start.Span.Start)
		return block
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		node := p.parseTopLevel()
		if node != nil {
			block.Stmts = append(block.Stmts, node)
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// ============================================================
// Declaration parsing
// ============================================================

// parseFuncDecl parses: func IDENT ( params ) [-> type] block
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // consume 'func'
	decl := &ast.FuncDecl{ReturnType: "auto"}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	decl.Params = p.parseParamList()

	if p.check(token.ARROW) {
		p.advance()
		decl.ReturnType = p.parseTypeName()
	}

	decl.Body = p.parseBlock()
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseParamList parses: ( name [: type] [= default], ... )
func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param

	if _, ok := p.expect(token.LPAREN); !ok {
		return params
	}

	p.skipNewlines()
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			p.synchronize()
			break
		}
		param := ast.Param{Name: nameTok.Lexeme, Type: "auto"}
		if p.check(token.COLON) {
			p.advance()
			param.Type = p.parseTypeName()
		}
		if p.check(token.ASSIGN) {
			p.advance()
			param.Default = p.parseExpr(bpNone)
		}
		params = append(params, param)

		if !p.check(token.COMMA) {
			break
		}
		p.advance() // consume ','
		p.skipNewlines()
	}

	p.expect(token.RPAREN)
	return params
}

// parseTemplateDecl parses: template IDENT { var/let/func declarations }
func (p *Parser) parseTemplateDecl() *ast.TemplateDecl {
	start := p.advance() // consume 'template'
	decl := &ast.TemplateDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	decl.Body = p.parseTypeBody()
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseClassDecl parses: class IDENT [: Parent] { var/let/func declarations }
func (p *Parser) parseClassDecl() *ast.ClassDecl {
	start := p.advance() // consume 'class'
	decl := &ast.ClassDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	if p.check(token.COLON) {
		p.advance()
		parentTok, ok := p.expect(token.IDENT)
		if ok {
			decl.Parent = parentTok.Lexeme
		}
	}

	decl.Body = p.parseTypeBody()
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseTypeBody parses a template/class body, which admits only field and
// method declarations.
func (p *Parser) parseTypeBody() []ast.Node {
	var body []ast.Node

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		return body
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		switch p.peekKind() {
		case token.KW_VAR, token.KW_LET:
			body = append(body, p.parseVarDecl(ast.ScopeDefault, p.peek()))
		case token.KW_FUNC:
			body = append(body, p.parseFuncDecl())
		default:
			tok := p.peek()
			p.error("E2003", tok.Span, fmt.Sprintf("expected field or method declaration, got '%s'", tok.Kind))
			p.synchronize()
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	return body
}

// parseEnumDecl parses: enum IDENT { CaseA, CaseB, ... }
// Cases may be separated by commas, newlines, or both.
func (p *Parser) parseEnumDecl() *ast.EnumDecl {
	start := p.advance() // consume 'enum'
	decl := &ast.EnumDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		caseTok, ok := p.expect(token.IDENT)
		if !ok {
			p.synchronize()
			break
		}
		decl.Cases = append(decl.Cases, caseTok.Lexeme)
		if p.check(token.COMMA) {
			p.advance()
		}
		p.skipSep()
	}

	p.expect(token.RBRACE)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		kind := p.peekKind()
		bp := infixBP(kind)
		if bp <= minBP {
			break
		}
		left = p.led(left)
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		val, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.FLOAT:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
		}

	case token.STR_HEAD:
		return p.parseInterpString()

	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    true,
		}

	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    false,
		}

	case token.KW_NONE:
		p.advance()
		return &ast.NoneLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
		}

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		p.skipNewlines()
		expr := p.parseExpr(bpNone)
		p.skipNewlines()
		p.expect(token.RPAREN)
		return expr

	case token.BANG:
		p.advance()
		p.skipNewlines()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			p.error("E2002", tok.Span, "expected operand after '!'")
			return nil
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       token.BANG,
			Operand:  operand,
		}

	case token.MINUS:
		p.advance()
		p.skipNewlines()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			p.error("E2002", tok.Span, "expected operand after '-'")
			return nil
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       token.MINUS,
			Operand:  operand,
		}

	case token.LBRACKET:
		return p.parseListLiteral()

	case token.LBRACE:
		return p.parseDictLiteral()

	default:
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR:
		// Binary infix operator (left-associative)
		bp := infixBP(tok.Kind)
		p.advance()
		p.skipNewlines() // allow continuation on next line after operator
		right := p.parseExpr(bp)
		if right == nil {
			p.error("E2002", tok.Span, fmt.Sprintf("expected operand after '%s'", tok.Kind))
			return left
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.QUESTION:
		// Ternary: cond ? then : else (right-associative)
		p.advance()
		p.skipNewlines()
		thenExpr := p.parseExpr(bpNone)
		p.expect(token.COLON)
		p.skipNewlines()
		elseExpr := p.parseExpr(bpNone)
		if thenExpr == nil || elseExpr == nil {
			p.error("E2002", tok.Span, "expected expression in ternary branches")
			return left
		}
		return &ast.TernaryExpr{
			ExprBase:  makeExprBase(left.GetSpan().Start, elseExpr.GetSpan().End),
			Condition: left,
			Then:      thenExpr,
			Else:      elseExpr,
		}

	case token.LPAREN:
		return p.parseCallExpr(left)

	case token.LBRACKET:
		// Index expression: object[index]
		p.advance()
		p.skipNewlines()
		index := p.parseExpr(bpNone)
		p.skipNewlines()
		end, _ := p.expect(token.RBRACKET)
		return &ast.IndexExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, end.Span.End),
			Object:   left,
			Index:    index,
		}

	case token.DOT:
		// Attribute access: object.name
		p.advance()
		p.skipNewlines()
		nameTok, _ := p.expect(token.IDENT)
		return &ast.AttrExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, nameTok.Span.End),
			Object:   left,
			Name:     nameTok.Lexeme,
		}

	default:
		return left
	}
}

// parseCallExpr parses: callee ( args ), with positional arguments first and
// name=value keyword arguments after.
func (p *Parser) parseCallExpr(callee ast.Expr) *ast.CallExpr {
	p.advance() // consume '('
	call := &ast.CallExpr{Callee: callee}

	p.skipNewlines()
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		if p.check(token.IDENT) && p.peekAt(1) == token.ASSIGN {
			nameTok := p.advance()
			p.advance() // consume '='
			value := p.parseExpr(bpNone)
			call.Kwargs = append(call.Kwargs, ast.Kwarg{Name: nameTok.Lexeme, Value: value})
		} else {
			arg := p.parseExpr(bpNone)
			if arg == nil {
				tok := p.peek()
				p.error("E2002", tok.Span, fmt.Sprintf("expected argument, got '%s'", tok.Kind))
				break
			}
			if len(call.Kwargs) > 0 {
				p.error("E2005", arg.GetSpan(), "positional argument after keyword argument")
			}
			call.Args = append(call.Args, arg)
		}

		if !p.check(token.COMMA) {
			break
		}
		p.advance() // consume ','
		p.skipNewlines()
	}
	p.skipNewlines()
	end, _ := p.expect(token.RPAREN)

	call.ExprBase = makeExprBase(callee.GetSpan().Start, end.Span.End)
	return call
}

// parseInterpString parses a STR_HEAD expr STR_MIDDLE ... STR_TAIL run
// into an InterpString node.
func (p *Parser) parseInterpString() *ast.InterpString {
	head := p.advance() // STR_HEAD
	node := &ast.InterpString{}
	node.Parts = append(node.Parts, head.Lexeme)

	for {
		expr := p.parseExpr(bpNone)
		if expr == nil {
			tok := p.peek()
			p.error("E2006", tok.Span, "expected expression in string interpolation")
			break
		}
		node.Exprs = append(node.Exprs, expr)

		seg := p.peek()
		if seg.Kind == token.STR_MIDDLE {
			p.advance()
			node.Parts = append(node.Parts, seg.Lexeme)
			continue
		}
		if seg.Kind == token.STR_TAIL {
			p.advance()
			node.Parts = append(node.Parts, seg.Lexeme)
			break
		}
		p.error("E2006", seg.Span, "unterminated string interpolation")
		break
	}

	node.ExprBase = makeExprBase(head.Span.Start, p.prevEnd())
	return node
}

// parseListLiteral parses: [ expr, expr, ... ]
func (p *Parser) parseListLiteral() *ast.ListLiteral {
	start := p.advance() // consume '['
	var elements []ast.Expr

	p.skipNewlines()
	if !p.check(token.RBRACKET) {
		elements = append(elements, p.parseExpr(bpNone))
		for p.check(token.COMMA) {
			p.advance()
			p.skipNewlines()
			if p.check(token.RBRACKET) {
				break // trailing comma
			}
			elements = append(elements, p.parseExpr(bpNone))
		}
	}
	p.skipNewlines()
	end, _ := p.expect(token.RBRACKET)

	return &ast.ListLiteral{
		ExprBase: makeExprBase(start.Span.Start, end.Span.End),
		Elements: elements,
	}
}

// parseDictLiteral parses: { key: value, ... } with identifier or string keys.
func (p *Parser) parseDictLiteral() *ast.DictLiteral {
	start := p.advance() // consume '{'
	lit := &ast.DictLiteral{}

	p.skipNewlines()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if !p.match(token.IDENT, token.STRING) {
			tok := p.peek()
			p.error("E2008", tok.Span, fmt.Sprintf("expected dict key, got '%s'", tok.Kind))
			p.synchronize()
			break
		}
		key := p.advance().Lexeme
		if _, ok := p.expect(token.COLON); !ok {
			p.synchronize()
			break
		}
		p.skipNewlines()
		value := p.parseExpr(bpNone)
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)

		if p.check(token.COMMA) {
			p.advance()
		}
		p.skipNewlines()
	}
	end, _ := p.expect(token.RBRACE)

	lit.ExprBase = makeExprBase(start.Span.Start, end.Span.End)
	return lit
}

// compoundToOp maps a compound assignment token to its binary operator.
func compoundToOp(kind token.Kind) token.Kind {
	switch kind {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	default:
		return token.PLUS
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
