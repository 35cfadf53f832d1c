package parser

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jnayee7/minilang/pkg/ast"
	"github.com/jnayee7/minilang/pkg/lexer"
)

// SyntaxError is a parse failure at a source line.
type SyntaxError struct {
	Line    int
	Message string
	// Incomplete marks errors caused by the input ending early.
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// IsIncomplete reports whether err only says that more input is needed, as
// with an open begin block or a missing final semicolon.
func IsIncomplete(err error) bool {
	if err == nil {
		return false
	}
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		errs := multi.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, e := range errs {
			if !IsIncomplete(e) {
				return false
			}
		}
		return true
	}
	var syn *SyntaxError
	return errors.As(err, &syn) && syn.Incomplete
}

// Parse lexes and parses a whole program. An empty program yields a nil node.
func Parse(src string) (ast.Node, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return nil, &SyntaxError{Line: lexErr.Line, Message: lexErr.Message, Incomplete: lexErr.Unterminated}
		}
		return nil, fmt.Errorf("parser: %w", err)
	}
	return ParseTokens(toks)
}

// ParseTokens parses a token stream produced by lexer.Tokenize.
func ParseTokens(toks []lexer.Token) (ast.Node, error) {
	p := &parser{toks: toks}
	if p.cur().Kind == lexer.EOF {
		return nil, nil
	}
	root := p.parseStatementList(lexer.EOF)
	if p.cur().Kind != lexer.EOF {
		p.fail(p.cur(), fmt.Sprintf("unexpected %s after program", p.cur()))
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if root == nil {
		return nil, nil
	}
	return root, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
	errs []error
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		line := 0
		if len(p.toks) > 0 {
			line = p.toks[len(p.toks)-1].Line
		}
		return lexer.Token{Kind: lexer.EOF, Line: line}
	}
	return p.toks[p.pos]
}

func (p *parser) next() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) fail(at lexer.Token, msg string) error {
	err := &SyntaxError{Line: at.Line, Message: msg, Incomplete: at.Kind == lexer.EOF}
	p.errs = append(p.errs, err)
	return err
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	t := p.cur()
	if t.Kind != kind {
		return t, p.fail(t, fmt.Sprintf("expected %s, found %s", kind, t))
	}
	return p.next(), nil
}

// synchronize skips to just past the next semicolon so parsing can resume at
// the following statement.
func (p *parser) synchronize(stop lexer.Kind) {
	for {
		switch p.cur().Kind {
		case lexer.EOF:
			return
		case lexer.SC:
			p.next()
			return
		case stop:
			return
		}
		p.next()
	}
}

// parseStatementList parses Stmt ';' { Stmt ';' } up to stop (EOF or END)
// and returns the right-nested chain.
func (p *parser) parseStatementList(stop lexer.Kind) ast.Statement {
	var stmts []ast.Statement
	errCount := len(p.errs)
	for {
		if p.cur().Kind == stop || p.cur().Kind == lexer.EOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			p.synchronize(stop)
			continue
		}
		if _, err := p.expect(lexer.SC); err != nil {
			p.synchronize(stop)
			continue
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		if len(p.errs) == errCount {
			p.fail(p.cur(), fmt.Sprintf("expected statement, found %s", p.cur()))
		}
		return nil
	}
	return chain(stmts)
}

func chain(stmts []ast.Statement) ast.Statement {
	var rest ast.Statement
	for i := len(stmts) - 1; i >= 0; i-- {
		list := ast.NewStatementList(stmts[i], rest)
		ast.SetLine(list, stmts[i].Line())
		rest = list
	}
	return rest
}

func (p *parser) parseStatement() (ast.Statement, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.LET:
		p.next()
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.WithLine(ast.NewLet(name.Lexeme, value), tok.Line), nil
	case lexer.PRINT:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.WithLine(ast.NewPrint(expr), tok.Line), nil
	case lexer.IF, lexer.LOOP:
		p.next()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.BEGIN); err != nil {
			return nil, err
		}
		errCount := len(p.errs)
		body := p.parseStatementList(lexer.END)
		if _, err := p.expect(lexer.END); err != nil {
			return nil, err
		}
		if body == nil || len(p.errs) > errCount {
			return nil, p.errs[len(p.errs)-1]
		}
		if tok.Kind == lexer.IF {
			return ast.WithLine(ast.NewIf(cond, body), tok.Line), nil
		}
		return ast.WithLine(ast.NewLoop(cond, body), tok.Line), nil
	default:
		return nil, p.fail(tok, fmt.Sprintf("expected statement, found %s", tok))
	}
}

func (p *parser) parseExpr() (ast.Expression, error) {
	left, err := p.parseProd()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur()
		var kind ast.BinaryKind
		switch op.Kind {
		case lexer.PLUS:
			kind = ast.Plus
		case lexer.MINUS:
			kind = ast.Minus
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseProd()
		if err != nil {
			return nil, err
		}
		left = ast.WithLine(ast.NewBinaryOp(kind, left, right), op.Line)
	}
}

func (p *parser) parseProd() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur()
		var kind ast.BinaryKind
		switch op.Kind {
		case lexer.STAR:
			kind = ast.Times
		case lexer.SLASH:
			kind = ast.Divide
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.WithLine(ast.NewBinaryOp(kind, left, right), op.Line)
	}
}

func (p *parser) parseUnary() (ast.Expression, error) {
	tok := p.cur()
	if tok.Kind == lexer.BANG {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.WithLine(ast.NewNot(operand), tok.Line), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.IDENT:
		p.next()
		return ast.WithLine(ast.NewIdentifier(tok.Lexeme), tok.Line), nil
	case lexer.ICONST:
		p.next()
		value, ok := new(big.Int).SetString(tok.Lexeme, 10)
		if !ok {
			return nil, p.fail(tok, fmt.Sprintf("invalid integer constant %q", tok.Lexeme))
		}
		return ast.WithLine(ast.NewIntLiteral(value), tok.Line), nil
	case lexer.SCONST:
		p.next()
		return ast.WithLine(ast.NewStringLiteral(tok.Lexeme), tok.Line), nil
	case lexer.LPAREN:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.fail(tok, fmt.Sprintf("expected expression, found %s", tok))
	}
}
