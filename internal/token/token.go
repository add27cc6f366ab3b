// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"
	"ypsh-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF
	NEWLINE

	// Literals
	IDENT  // identifiers: x, foo, myVar
	INT    // integer literals: 123
	FLOAT  // float literals: 3.14
	STRING // string literals without interpolation: "hello"

	// Interpolated string segments. A string containing \(expr) spans is
	// emitted as STR_HEAD expr... STR_MIDDLE expr... STR_TAIL, with the
	// expression tokens lexed in between.
	STR_HEAD
	STR_MIDDLE
	STR_TAIL

	// Shell-escape lines. A plain `$ cmd` line is one SHELL token; a line
	// whose command contains \(expr) spans is split the same way as strings.
	SHELL
	SHELL_HEAD
	SHELL_MIDDLE
	SHELL_TAIL

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	BANG    // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	AND // &&
	OR  // ||

	// Compound assignment
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=

	// Misc operators
	QUESTION // ?
	ARROW    // ->

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :

	// Keywords
	KW_VAR
	KW_LET
	KW_GLOBAL
	KW_LOCAL
	KW_FUNC
	KW_RETURN
	KW_IF
	KW_ELIF
	KW_ELSE
	KW_FOR
	KW_IN
	KW_WHILE
	KW_BREAK
	KW_CONTINUE
	KW_SWITCH
	KW_CASE
	KW_DEFAULT
	KW_TEMPLATE
	KW_CLASS
	KW_ENUM
	KW_DO
	KW_CATCH
	KW_IMPORT
	KW_AS
	KW_TRUE
	KW_FALSE
	KW_NONE
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	NEWLINE: "NEWLINE",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	STR_HEAD:   "STR_HEAD",
	STR_MIDDLE: "STR_MIDDLE",
	STR_TAIL:   "STR_TAIL",

	SHELL:        "SHELL",
	SHELL_HEAD:   "SHELL_HEAD",
	SHELL_MIDDLE: "SHELL_MIDDLE",
	SHELL_TAIL:   "SHELL_TAIL",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	BANG:    "!",
	EQ:      "==",
	NEQ:     "!=",
	LT:      "<",
	LTE:     "<=",
	GT:      ">",
	GTE:     ">=",

	AND:          "&&",
	OR:           "||",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",
	QUESTION:     "?",
	ARROW:        "->",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",

	KW_VAR:      "var",
	KW_LET:      "let",
	KW_GLOBAL:   "global",
	KW_LOCAL:    "local",
	KW_FUNC:     "func",
	KW_RETURN:   "return",
	KW_IF:       "if",
	KW_ELIF:     "elif",
	KW_ELSE:     "else",
	KW_FOR:      "for",
	KW_IN:       "in",
	KW_WHILE:    "while",
	KW_BREAK:    "break",
	KW_CONTINUE: "continue",
	KW_SWITCH:   "switch",
	KW_CASE:     "case",
	KW_DEFAULT:  "default",
	KW_TEMPLATE: "template",
	KW_CLASS:    "class",
	KW_ENUM:     "enum",
	KW_DO:       "do",
	KW_CATCH:    "catch",
	KW_IMPORT:   "import",
	KW_AS:       "as",
	KW_TRUE:     "true",
	KW_FALSE:    "false",
	KW_NONE:     "none",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_VAR && k <= KW_NONE
}

// IsLiteral returns true if the kind is a literal (ident/int/float/string).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

var keywords = map[string]Kind{
	"var":      KW_VAR,
	"let":      KW_LET,
	"global":   KW_GLOBAL,
	"local":    KW_LOCAL,
	"func":     KW_FUNC,
	"return":   KW_RETURN,
	"if":       KW_IF,
	"elif":     KW_ELIF,
	"else":     KW_ELSE,
	"for":      KW_FOR,
	"in":       KW_IN,
	"while":    KW_WHILE,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"switch":   KW_SWITCH,
	"case":     KW_CASE,
	"default":  KW_DEFAULT,
	"template": KW_TEMPLATE,
	"class":    KW_CLASS,
	"enum":     KW_ENUM,
	"do":       KW_DO,
	"catch":    KW_CATCH,
	"import":   KW_IMPORT,
	"as":       KW_AS,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
	"none":     KW_NONE,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token represents a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
