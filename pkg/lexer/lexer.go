package lexer

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	ERR

	IDENT
	ICONST
	SCONST

	LET
	PRINT
	IF
	LOOP
	BEGIN
	END

	PLUS
	MINUS
	STAR
	SLASH
	BANG
	LPAREN
	RPAREN
	SC
)

var kindNames = map[Kind]string{
	EOF:    "EOF",
	ERR:    "ERR",
	IDENT:  "IDENT",
	ICONST: "ICONST",
	SCONST: "SCONST",
	LET:    "let",
	PRINT:  "print",
	IF:     "if",
	LOOP:   "loop",
	BEGIN:  "begin",
	END:    "end",
	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	BANG:   "!",
	LPAREN: "(",
	RPAREN: ")",
	SC:     ";",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"let":   LET,
	"print": PRINT,
	"if":    IF,
	"loop":  LOOP,
	"begin": BEGIN,
	"end":   END,
}

// Token is a lexeme with the line it started on. For SCONST the lexeme is the
// decoded string without quotes; for ERR it is the offending text.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT, ICONST, ERR:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Lexeme)
	case SCONST:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
	default:
		return t.Kind.String()
	}
}

// Error is a lexical error at a source line.
type Error struct {
	Line    int
	Message string
	// Unterminated marks input that ended inside a string literal.
	Unterminated bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Lexer produces tokens from source text on demand.
type Lexer struct {
	src  string
	pos  int
	line int

	// set when the last ERR token came from an unterminated string
	unterminated bool
	errMsg       string
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) peek(off int) byte {
	j := l.pos + off
	if j < 0 || j >= len(l.src) {
		return 0
	}
	return l.src[j]
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line}
	}
	ch := l.src[l.pos]
	switch {
	case isIdentStart(ch):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		word := l.src[start:l.pos]
		if kw, ok := keywords[word]; ok {
			return Token{Kind: kw, Lexeme: word, Line: l.line}
		}
		return Token{Kind: IDENT, Lexeme: word, Line: l.line}
	case isDigit(ch):
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.pos < len(l.src) && isIdentStart(l.src[l.pos]) {
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			return l.errorToken(l.src[start:l.pos], "malformed integer constant")
		}
		return Token{Kind: ICONST, Lexeme: l.src[start:l.pos], Line: l.line}
	case ch == '"':
		return l.lexString()
	}

	l.pos++
	switch ch {
	case '+':
		return Token{Kind: PLUS, Lexeme: "+", Line: l.line}
	case '-':
		return Token{Kind: MINUS, Lexeme: "-", Line: l.line}
	case '*':
		return Token{Kind: STAR, Lexeme: "*", Line: l.line}
	case '/':
		return Token{Kind: SLASH, Lexeme: "/", Line: l.line}
	case '!':
		return Token{Kind: BANG, Lexeme: "!", Line: l.line}
	case '(':
		return Token{Kind: LPAREN, Lexeme: "(", Line: l.line}
	case ')':
		return Token{Kind: RPAREN, Lexeme: ")", Line: l.line}
	case ';':
		return Token{Kind: SC, Lexeme: ";", Line: l.line}
	}
	return l.errorToken(string(ch), fmt.Sprintf("unexpected character %q", ch))
}

func (l *Lexer) errorToken(text, msg string) Token {
	l.errMsg = msg
	return Token{Kind: ERR, Lexeme: text, Line: l.line}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == '\n':
			l.line++
			l.pos++
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
		case ch == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexString() Token {
	line := l.line
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return Token{Kind: SCONST, Lexeme: b.String(), Line: line}
		case '\n':
			l.errMsg = "newline in string constant"
			return Token{Kind: ERR, Lexeme: `"` + b.String(), Line: line}
		case '\\':
			next := l.peek(1)
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 0:
				l.pos++
				continue
			default:
				l.pos += 2
				l.errMsg = fmt.Sprintf("unknown escape sequence \\%c", next)
				return Token{Kind: ERR, Lexeme: `"` + b.String(), Line: line}
			}
			l.pos += 2
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	l.unterminated = true
	l.errMsg = "unterminated string constant"
	return Token{Kind: ERR, Lexeme: `"` + b.String(), Line: line}
}

// Tokenize lexes the whole source. The returned slice always ends with an
// EOF token unless an error is returned.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var out []Token
	for {
		tok := l.Next()
		if tok.Kind == ERR {
			return out, &Error{Line: tok.Line, Message: fmt.Sprintf("%s: %s", l.errMsg, tok.Lexeme), Unterminated: l.unterminated}
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
