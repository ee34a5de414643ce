package parser

import (
	lex "BStarDB/query_parser/lexer"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("syntax error")

type Parser struct {
	l         *lex.Lexer
	curToken  lex.Token
	peekToken lex.Token
}

func New(l *lex.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) expect(kind lex.TokenKind) error {
	if p.curToken.Kind != kind {
		return p.unexpected(kind.String())
	}
	return nil
}

func (p *Parser) unexpected(want string) error {
	if p.curToken.Kind == lex.END {
		return errors.Wrapf(ErrSyntax, "expected %s, got end of input", want)
	}
	return errors.Wrapf(ErrSyntax, "expected %s, got %s (%s)", want, p.curToken.Kind, p.curToken.Value)
}

// Entry point
func (p *Parser) ParseStatement() (Statement, error) {
	var (
		stmt Statement
		err  error
	)
	switch p.curToken.Kind {
	case lex.PUT:
		stmt, err = p.parsePut()
	case lex.INSERT:
		stmt, err = p.parseInsert()
	case lex.GET:
		stmt, err = p.parseGet()
	case lex.DELETE:
		stmt, err = p.parseDelete()
	case lex.RANGE:
		stmt, err = p.parseRange()
	case lex.SCAN:
		stmt, err = p.parseScan()
	case lex.COUNT:
		stmt = &CountStmt{}
		p.nextToken()
	case lex.COMMIT:
		stmt = &CommitStmt{}
		p.nextToken()
	case lex.FLUSH:
		stmt = &FlushStmt{}
		p.nextToken()
	case lex.OPTIMIZE:
		stmt = &OptimizeStmt{}
		p.nextToken()
	case lex.STATS:
		stmt = &StatsStmt{}
		p.nextToken()
	case lex.VERIFY:
		stmt = &VerifyStmt{}
		p.nextToken()
	default:
		return nil, p.unexpected("a command")
	}
	if err != nil {
		return nil, err
	}

	// one command per line
	if err := p.expect(lex.END); err != nil {
		return nil, err
	}
	return stmt, nil
}

// word consumes a key or value token.
func (p *Parser) word(what string) (string, error) {
	if !p.curToken.Kind.IsWord() {
		return "", p.unexpected(what)
	}
	w := p.curToken.Value
	p.nextToken()
	return w, nil
}

// number consumes a non-negative integer token.
func (p *Parser) number(what string) (int, error) {
	if p.curToken.Kind != lex.INT {
		return 0, p.unexpected(what)
	}
	n, err := strconv.Atoi(p.curToken.Value)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "%s %q out of range", what, p.curToken.Value)
	}
	p.nextToken()
	return n, nil
}
