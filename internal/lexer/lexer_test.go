package lexer

import (
	"testing"

	"ypsh-lang/internal/token"
)

// expectKinds tokenizes source and checks the token kind sequence.
func expectKinds(t *testing.T, source string, expected []token.Kind) []token.Token {
	t.Helper()
	l := New(source, "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
	return tokens
}

func TestTokenizeSimple(t *testing.T) {
	expectKinds(t, `var x = 1 + 2`, []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.INT, token.PLUS, token.INT, token.EOF,
	})
}

func TestTokenizeKeywords(t *testing.T) {
	source := `var let global local func return if elif else for in while break continue switch case default template class enum do catch import as true false none`
	expectKinds(t, source, []token.Kind{
		token.KW_VAR, token.KW_LET, token.KW_GLOBAL, token.KW_LOCAL,
		token.KW_FUNC, token.KW_RETURN, token.KW_IF, token.KW_ELIF,
		token.KW_ELSE, token.KW_FOR, token.KW_IN, token.KW_WHILE,
		token.KW_BREAK, token.KW_CONTINUE, token.KW_SWITCH, token.KW_CASE,
		token.KW_DEFAULT, token.KW_TEMPLATE, token.KW_CLASS, token.KW_ENUM,
		token.KW_DO, token.KW_CATCH, token.KW_IMPORT, token.KW_AS,
		token.KW_TRUE, token.KW_FALSE, token.KW_NONE,
		token.EOF,
	})
}

func TestTokenizeOperators(t *testing.T) {
	source := `= == != < <= > >= + - * / % ! && || ? -> += -= *= /=`
	expectKinds(t, source, []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.BANG, token.AND, token.OR, token.QUESTION, token.ARROW,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.EOF,
	})
}

func TestTokenizeDelimiters(t *testing.T) {
	source := `( ) { } [ ] , . ; :`
	expectKinds(t, source, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.DOT,
		token.SEMICOLON, token.COLON,
		token.EOF,
	})
}

func TestTokenizeStrings(t *testing.T) {
	source := `"hello" 'world' "line1\nline2"`
	l := New(source, "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "hello" {
		t.Errorf("expected STRING 'hello', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.STRING || tokens[1].Lexeme != "world" {
		t.Errorf("expected STRING 'world', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
	if tokens[2].Kind != token.STRING || tokens[2].Lexeme != "line1\nline2" {
		t.Errorf("expected STRING with newline, got %s %q", tokens[2].Kind, tokens[2].Lexeme)
	}
}

func TestTokenizeTripleString(t *testing.T) {
	source := "\"\"\"first\nsecond\"\"\""
	l := New(source, "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "first\nsecond" {
		t.Errorf("expected multi-line STRING, got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
}

func TestTokenizeInterpolation(t *testing.T) {
	tokens := expectKinds(t, `"sum: \(a + b)!"`, []token.Kind{
		token.STR_HEAD, token.IDENT, token.PLUS, token.IDENT, token.STR_TAIL,
		token.EOF,
	})
	if tokens[0].Lexeme != "sum: " {
		t.Errorf("head lexeme: expected 'sum: ', got %q", tokens[0].Lexeme)
	}
	if tokens[4].Lexeme != "!" {
		t.Errorf("tail lexeme: expected '!', got %q", tokens[4].Lexeme)
	}
}

func TestTokenizeInterpolationSegments(t *testing.T) {
	tokens := expectKinds(t, `"\(a) and \(b)"`, []token.Kind{
		token.STR_HEAD, token.IDENT, token.STR_MIDDLE, token.IDENT, token.STR_TAIL,
		token.EOF,
	})
	if tokens[2].Lexeme != " and " {
		t.Errorf("middle lexeme: expected ' and ', got %q", tokens[2].Lexeme)
	}
}

func TestTokenizeInterpolationNestedParens(t *testing.T) {
	// Parens inside the interpolated expression must not end the span.
	expectKinds(t, `"v=\((1 + 2) * 3)"`, []token.Kind{
		token.STR_HEAD, token.LPAREN, token.INT, token.PLUS, token.INT,
		token.RPAREN, token.STAR, token.INT, token.STR_TAIL,
		token.EOF,
	})
}

func TestTokenizeShellLine(t *testing.T) {
	tokens := expectKinds(t, "$ echo hi\nx", []token.Kind{
		token.SHELL, token.NEWLINE, token.IDENT, token.EOF,
	})
	if tokens[0].Lexeme != "echo hi" {
		t.Errorf("shell lexeme: expected 'echo hi', got %q", tokens[0].Lexeme)
	}
}

func TestTokenizeShellInterpolation(t *testing.T) {
	tokens := expectKinds(t, `$ cat \(path) again`, []token.Kind{
		token.SHELL_HEAD, token.IDENT, token.SHELL_TAIL, token.EOF,
	})
	if tokens[0].Lexeme != "cat " {
		t.Errorf("head lexeme: expected 'cat ', got %q", tokens[0].Lexeme)
	}
	if tokens[2].Lexeme != " again" {
		t.Errorf("tail lexeme: expected ' again', got %q", tokens[2].Lexeme)
	}
}

func TestDollarMidLineIsNotShell(t *testing.T) {
	// $ only starts a shell line when nothing else precedes it on the line.
	l := New("x $", "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1003" {
		t.Errorf("expected one E1003 diagnostic, got %v", diags)
	}
	if tokens[1].Kind != token.ILLEGAL {
		t.Errorf("expected ILLEGAL token, got %s", tokens[1].Kind)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	source := `123 3.14 0 42`
	l := New(source, "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if tokens[0].Kind != token.INT || tokens[0].Lexeme != "123" {
		t.Errorf("token[0]: expected INT '123', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.FLOAT || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected FLOAT '3.14', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
}

func TestTokenizeDotAfterInt(t *testing.T) {
	// A dot not followed by a digit is attribute access, not a float.
	expectKinds(t, `3.times`, []token.Kind{
		token.INT, token.DOT, token.IDENT, token.EOF,
	})
}

func TestTokenizeNewlines(t *testing.T) {
	expectKinds(t, "a\nb\n", []token.Kind{
		token.IDENT, token.NEWLINE, token.IDENT, token.NEWLINE, token.EOF,
	})
}

func TestTokenizeComments(t *testing.T) {
	expectKinds(t, "x // trailing\ny # other style\nz", []token.Kind{
		token.IDENT, token.NEWLINE, token.IDENT, token.NEWLINE, token.IDENT, token.EOF,
	})

	expectKinds(t, "a /* spans\nlines */ b", []token.Kind{
		token.IDENT, token.IDENT, token.EOF,
	})
}

func TestUnterminatedString(t *testing.T) {
	l := New("\"abc\n", "test.ypsh")
	_, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1001" {
		t.Errorf("expected one E1001 diagnostic, got %v", diags)
	}
}

func TestBackslashAtEndOfSource(t *testing.T) {
	// The escape consumer must not read past the end of the source.
	l := New("\"abc\\", "test.ypsh")
	_, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1001" {
		t.Errorf("expected one E1001 diagnostic, got %v", diags)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closed", "test.ypsh")
	_, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1004" {
		t.Errorf("expected one E1004 diagnostic, got %v", diags)
	}
}

func TestSingleAmpersand(t *testing.T) {
	l := New("a & b", "test.ypsh")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1003" {
		t.Errorf("expected one E1003 diagnostic, got %v", diags)
	}
	if tokens[1].Kind != token.ILLEGAL {
		t.Errorf("expected ILLEGAL token, got %s", tokens[1].Kind)
	}
}

func TestTokenizePositions(t *testing.T) {
	source := "var x = 1"
	l := New(source, "test.ypsh")
	tokens, _ := l.Tokenize()

	// "var" starts at line 1, col 1
	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	// "x" starts at line 1, col 5
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestTokenizeUnicodeIdent(t *testing.T) {
	tokens := expectKinds(t, "var héllo = 1", []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN, token.INT, token.EOF,
	})
	if tokens[1].Lexeme != "héllo" {
		t.Errorf("expected identifier 'héllo', got %q", tokens[1].Lexeme)
	}
}
