// Package ast defines the abstract syntax tree for YPSH.
package ast

import (
	"ypsh-lang/internal/span"
	"ypsh-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// File (top-level AST root)
// ============================================================

// File represents the entire source file.
type File struct {
	NodeBase
	Body []Node // top-level statements and declarations
}

// ============================================================
// Expressions
// ============================================================

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	ExprBase
	Value int64
}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral represents a string literal without interpolation spans.
type StringLiteral struct {
	ExprBase
	Value string
}

// InterpString represents a string with \(expr) interpolation spans.
// Parts has len(Exprs)+1 elements; Parts[i] is the text before Exprs[i].
type InterpString struct {
	ExprBase
	Parts []string // static text segments
	Exprs []Expr   // interpolated expressions
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NoneLiteral represents none.
type NoneLiteral struct {
	ExprBase
}

// ListLiteral represents a list literal: [a, b, c].
type ListLiteral struct {
	ExprBase
	Elements []Expr
}

// DictLiteral represents a dict literal: { key: val, ... }.
// Keys are resolved at parse time (identifier keys become strings) and
// retain source order.
type DictLiteral struct {
	ExprBase
	Keys   []string
	Values []Expr
}

// UnaryExpr represents a unary operation: !x, -x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents a binary operation: a + b, x == y.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// TernaryExpr represents a conditional: cond ? then : else.
type TernaryExpr struct {
	ExprBase
	Condition Expr
	Then      Expr
	Else      Expr
}

// Kwarg is a keyword argument in a call: name=value.
type Kwarg struct {
	Name  string
	Value Expr
}

// CallExpr represents a function call: f(a, b, name=c).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
	Kwargs []Kwarg
}

// IndexExpr represents indexing: a[i].
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// AttrExpr represents attribute access: a.b.
type AttrExpr struct {
	ExprBase
	Object Expr
	Name   string
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// ScopeMode controls where a declaration binds.
type ScopeMode int

const (
	ScopeDefault ScopeMode = iota
	ScopeGlobal            // global var / global let
	ScopeLocal             // local var / local let
)

// VarDeclStmt represents a variable declaration:
// [global|local] (var|let) name [: type] = expr.
// The type annotation is advisory and recorded for tooling only.
type VarDeclStmt struct {
	StmtBase
	Name  string
	Type  string // "auto" when no annotation
	IsLet bool
	Scope ScopeMode
	Init  Expr
}

// IntentStmt represents a bare scope intent: global name / local name.
// It marks where later declarations of the name should bind.
type IntentStmt struct {
	StmtBase
	Kind ScopeMode
	Name string
}

// AssignStmt represents an assignment: target = value.
type AssignStmt struct {
	StmtBase
	Target Expr // must be a valid lvalue (ident, attr, index)
	Value  Expr
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	StmtBase
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Node
}

// IfStmt represents an if/elif/else chain. `else if` parses into the
// same ElseIfs list as `elif`.
type IfStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
	ElseIfs   []ElseIfClause
	ElseBody  *BlockStmt // may be nil
}

// ElseIfClause represents a single elif branch.
type ElseIfClause struct {
	Span      span.Span
	Condition Expr
	Body      *BlockStmt
}

// SwitchStmt represents: switch subject { case v: { } ... default: { } }.
// Arms do not fall through.
type SwitchStmt struct {
	StmtBase
	Subject Expr
	Arms    []SwitchArm
	Default *BlockStmt // may be nil
}

// SwitchArm represents a single case arm.
type SwitchArm struct {
	Span  span.Span
	Value Expr
	Body  *BlockStmt
}

// ForInStmt represents: for name in iterable { body }.
type ForInStmt struct {
	StmtBase
	VarName  string
	Iterable Expr
	Body     *BlockStmt
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

// DoCatchStmt represents: do { body } catch e { handler }.
type DoCatchStmt struct {
	StmtBase
	Body      *BlockStmt
	CatchName string
	Handler   *BlockStmt
}

// ShellStmt represents a `$ command` line. The command text is an
// interpolated string so \(expr) spans substitute before dispatch.
type ShellStmt struct {
	StmtBase
	Command *InterpString
}

// ImportStmt represents: import "path" [as ns].
type ImportStmt struct {
	StmtBase
	Path  string
	Alias string // empty: derived from the file name
}

// ============================================================
// Declarations (also implement Stmt for top-level use)
// ============================================================

// Param is a function parameter with optional advisory type annotation
// and optional default-value expression.
type Param struct {
	Name    string
	Type    string // "auto" when no annotation
	Default Expr   // may be nil
}

// FuncDecl represents: func name(params) [-> type] { body }.
type FuncDecl struct {
	StmtBase
	Name       string
	Params     []Param
	ReturnType string // "auto" when no annotation
	Body       *BlockStmt
}

// TemplateDecl represents: template Name { var/func declarations }.
type TemplateDecl struct {
	StmtBase
	Name string
	Body []Node
}

// ClassDecl represents: class Name [: Parent] { var/func declarations }.
type ClassDecl struct {
	StmtBase
	Name   string
	Parent string // may be empty
	Body   []Node
}

// EnumDecl represents: enum Name { CaseA, CaseB, ... }.
type EnumDecl struct {
	StmtBase
	Name  string
	Cases []string
}
