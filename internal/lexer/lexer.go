// Package lexer implements the lexical analysis (tokenization) for YPSH.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"ypsh-lang/internal/diag"
	"ypsh-lang/internal/span"
	"ypsh-lang/internal/token"
)

// interpState tracks one suspended string or shell-line segment while its
// \(expr) expression is being tokenized. depth counts parens opened inside
// the expression; the segment resumes when depth returns to zero.
type interpState struct {
	shell  bool // shell line rather than string literal
	quote  byte // quote character ('"' or '\'') for strings
	triple bool // triple-quoted string (newlines allowed)
	depth  int
}

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags        []diag.Diagnostic
	interpStack  []interpState
	lineHasToken bool // a non-newline token was emitted on the current line
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// skipWhitespace skips spaces and tabs (not newlines).
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

// skipLineComment skips to end of line without consuming the newline.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment skips a /* ... */ comment, which may span lines.
func (l *Lexer) skipBlockComment(start span.Position) {
	l.advance() // /
	l.advance() // *
	for l.pos < len(l.source) {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.addError("E1004", l.makeSpan(start), "unterminated block comment")
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	tok := l.scanToken()
	if tok.Kind == token.NEWLINE {
		l.lineHasToken = false
	} else if tok.Kind != token.EOF {
		l.lineHasToken = true
	}
	return tok
}

func (l *Lexer) scanToken() token.Token {
	l.skipWhitespace()

	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Lexeme: "", Span: l.makeSpan(l.curPos())}
	}

	start := l.curPos()
	ch := l.peek()

	// Newline
	if ch == '\n' {
		l.advance()
		return token.Token{Kind: token.NEWLINE, Lexeme: "\\n", Span: l.makeSpan(start)}
	}

	// Line comments: # and //
	if ch == '#' {
		l.skipLineComment()
		return l.scanToken()
	}
	if ch == '/' && l.peekNext() == '/' {
		l.skipLineComment()
		return l.scanToken()
	}

	// Block comment: /* ... */
	if ch == '/' && l.peekNext() == '*' {
		l.skipBlockComment(start)
		return l.scanToken()
	}

	// Shell-escape line: $ at the start of a line
	if ch == '$' && !l.lineHasToken {
		return l.readShellStart(start)
	}

	// String literal
	if ch == '"' || ch == '\'' {
		return l.readStringStart(start)
	}

	// Number literal
	if isDigit(ch) {
		return l.readNumber(start)
	}

	// Identifier or keyword
	if l.isIdentStart() {
		return l.readIdentifier(start)
	}

	// Operators and delimiters
	return l.readOperator(start)
}

// readNumber reads an integer or float literal.
func (l *Lexer) readNumber(start span.Position) token.Token {
	isFloat := false
	numStart := l.pos

	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}

	// Decimal point only when followed by a digit, so 3.times lexes as 3 . times
	if l.pos < len(l.source) && l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[numStart:l.pos]
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && l.isIdentPart() {
		l.advanceRune()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	switch ch {
	case '(':
		if len(l.interpStack) > 0 {
			l.interpStack[len(l.interpStack)-1].depth++
		}
		return token.Token{Kind: token.LPAREN, Lexeme: "(", Span: l.makeSpan(start)}
	case ')':
		if len(l.interpStack) > 0 && l.interpStack[len(l.interpStack)-1].depth == 0 {
			// Closing an interpolation expression, resume the suspended segment
			st := l.interpStack[len(l.interpStack)-1]
			l.interpStack = l.interpStack[:len(l.interpStack)-1]
			if st.shell {
				return l.readShellSegment(start, false)
			}
			return l.readStringSegment(start, st.quote, st.triple, false)
		}
		if len(l.interpStack) > 0 {
			l.interpStack[len(l.interpStack)-1].depth--
		}
		return token.Token{Kind: token.RPAREN, Lexeme: ")", Span: l.makeSpan(start)}
	case '{':
		return token.Token{Kind: token.LBRACE, Lexeme: "{", Span: l.makeSpan(start)}
	case '}':
		return token.Token{Kind: token.RBRACE, Lexeme: "}", Span: l.makeSpan(start)}
	case '[':
		return token.Token{Kind: token.LBRACKET, Lexeme: "[", Span: l.makeSpan(start)}
	case ']':
		return token.Token{Kind: token.RBRACKET, Lexeme: "]", Span: l.makeSpan(start)}
	case ',':
		return token.Token{Kind: token.COMMA, Lexeme: ",", Span: l.makeSpan(start)}
	case '.':
		return token.Token{Kind: token.DOT, Lexeme: ".", Span: l.makeSpan(start)}
	case ';':
		return token.Token{Kind: token.SEMICOLON, Lexeme: ";", Span: l.makeSpan(start)}
	case ':':
		return token.Token{Kind: token.COLON, Lexeme: ":", Span: l.makeSpan(start)}
	case '+':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.PLUS_ASSIGN, Lexeme: "+=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.PLUS, Lexeme: "+", Span: l.makeSpan(start)}
	case '-':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.MINUS_ASSIGN, Lexeme: "-=", Span: l.makeSpan(start)}
		}
		if l.peek() == '>' {
			l.advance()
			return token.Token{Kind: token.ARROW, Lexeme: "->", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.MINUS, Lexeme: "-", Span: l.makeSpan(start)}
	case '*':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.STAR_ASSIGN, Lexeme: "*=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.STAR, Lexeme: "*", Span: l.makeSpan(start)}
	case '/':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.SLASH_ASSIGN, Lexeme: "/=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.SLASH, Lexeme: "/", Span: l.makeSpan(start)}
	case '%':
		return token.Token{Kind: token.PERCENT, Lexeme: "%", Span: l.makeSpan(start)}
	case '!':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.NEQ, Lexeme: "!=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.BANG, Lexeme: "!", Span: l.makeSpan(start)}
	case '?':
		return token.Token{Kind: token.QUESTION, Lexeme: "?", Span: l.makeSpan(start)}
	case '=':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.EQ, Lexeme: "==", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.ASSIGN, Lexeme: "=", Span: l.makeSpan(start)}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.LTE, Lexeme: "<=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.LT, Lexeme: "<", Span: l.makeSpan(start)}
	case '>':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.GTE, Lexeme: ">=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.GT, Lexeme: ">", Span: l.makeSpan(start)}
	case '&':
		if l.peek() == '&' {
			l.advance()
			return token.Token{Kind: token.AND, Lexeme: "&&", Span: l.makeSpan(start)}
		}
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c', did you mean '&&'?", ch))
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Span: l.makeSpan(start)}
	case '|':
		if l.peek() == '|' {
			l.advance()
			return token.Token{Kind: token.OR, Lexeme: "||", Span: l.makeSpan(start)}
		}
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c', did you mean '||'?", ch))
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Span: l.makeSpan(start)}
	default:
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", ch))
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Span: l.makeSpan(start)}
	}
}

// ---- string literals ----

// readStringStart is called at an opening quote. It detects triple quoting
// and reads the first text segment, which is either the whole literal or
// the head of an interpolated string.
func (l *Lexer) readStringStart(start span.Position) token.Token {
	quote := l.advance()
	triple := false
	if l.peek() == quote && l.peekNext() == quote {
		l.advance()
		l.advance()
		triple = true
	}
	return l.readStringSegment(start, quote, triple, true)
}

// readStringSegment reads string text until the closing quote or the next
// \(expr) span. head indicates whether this is the first segment.
func (l *Lexer) readStringSegment(start span.Position, quote byte, triple, head bool) token.Token {
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()

		if ch == quote {
			if !triple {
				l.advance()
				return l.stringSegmentToken(start, string(value), head, true)
			}
			if l.peekNext() == quote && l.pos+2 < len(l.source) && l.source[l.pos+2] == quote {
				l.advance()
				l.advance()
				l.advance()
				return l.stringSegmentToken(start, string(value), head, true)
			}
			value = append(value, ch)
			l.advance()
			continue
		}
		if ch == '\n' && !triple {
			l.addError("E1001", l.makeSpan(start), "unterminated string literal")
			return l.stringSegmentToken(start, string(value), head, true)
		}
		if ch == '\\' {
			if l.peekNext() == '(' {
				// Interpolation span: suspend the string, lex the expression
				l.advance()
				l.advance()
				l.interpStack = append(l.interpStack, interpState{quote: quote, triple: triple})
				return l.stringSegmentToken(start, string(value), head, false)
			}
			l.advance()
			if l.pos >= len(l.source) {
				break
			}
			esc := l.peek()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case 'r':
				value = append(value, '\r')
			case '\\':
				value = append(value, '\\')
			case '\'':
				value = append(value, '\'')
			case '"':
				value = append(value, '"')
			case '0':
				value = append(value, 0)
			default:
				l.addError("E1002", l.makeSpan(start), fmt.Sprintf("unknown escape sequence: \\%c", esc))
				value = append(value, esc)
			}
			l.advance()
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.stringSegmentToken(start, string(value), head, true)
}

// stringSegmentToken picks the token kind for a string segment.
func (l *Lexer) stringSegmentToken(start span.Position, text string, head, closed bool) token.Token {
	kind := token.STR_MIDDLE
	switch {
	case head && closed:
		kind = token.STRING
	case head:
		kind = token.STR_HEAD
	case closed:
		kind = token.STR_TAIL
	}
	return token.Token{Kind: kind, Lexeme: text, Span: l.makeSpan(start)}
}

// ---- shell-escape lines ----

// readShellStart is called at a $ that begins a line. The rest of the line
// is the command text, with \(expr) spans lexed like string interpolation.
func (l *Lexer) readShellStart(start span.Position) token.Token {
	l.advance() // consume $
	l.skipWhitespace()
	return l.readShellSegment(start, true)
}

// readShellSegment reads shell command text until end of line or the next
// \(expr) span. The terminating newline is left for the next token.
func (l *Lexer) readShellSegment(start span.Position, head bool) token.Token {
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			if l.peekNext() == '(' {
				l.advance()
				l.advance()
				l.interpStack = append(l.interpStack, interpState{shell: true})
				return l.shellSegmentToken(start, string(value), head, false)
			}
			if l.peekNext() == '\\' {
				l.advance()
				l.advance()
				value = append(value, '\\')
				continue
			}
		}
		value = append(value, ch)
		l.advance()
	}

	return l.shellSegmentToken(start, string(value), head, true)
}

// shellSegmentToken picks the token kind for a shell line segment.
func (l *Lexer) shellSegmentToken(start span.Position, text string, head, closed bool) token.Token {
	kind := token.SHELL_MIDDLE
	switch {
	case head && closed:
		kind = token.SHELL
	case head:
		kind = token.SHELL_HEAD
	case closed:
		kind = token.SHELL_TAIL
	}
	return token.Token{Kind: kind, Lexeme: text, Span: l.makeSpan(start)}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// advanceRune consumes one rune, which may be multiple bytes.
func (l *Lexer) advanceRune() {
	ch := l.source[l.pos]
	if ch < 0x80 {
		l.advance()
		return
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	for i := 0; i < size; i++ {
		l.advance()
	}
}

func (l *Lexer) isIdentStart() bool {
	ch := l.source[l.pos]
	if ch == '_' || ch == '@' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
		return true
	}
	if ch >= 0x80 {
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		return unicode.IsLetter(r)
	}
	return false
}

func (l *Lexer) isIdentPart() bool {
	return l.isIdentStart() || isDigit(l.source[l.pos])
}
