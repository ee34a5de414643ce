package parser

import (
	lex "BStarDB/query_parser/lexer"
)

// --- RANGE <start> <end> ---
func (p *Parser) parseRange() (*RangeStmt, error) {
	p.nextToken()
	start, err := p.number("start rank")
	if err != nil {
		return nil, err
	}
	end, err := p.number("end rank")
	if err != nil {
		return nil, err
	}
	return &RangeStmt{Start: start, End: end}, nil
}

// --- SCAN [FROM <key>] [LIMIT <n>] [DESC] ---
func (p *Parser) parseScan() (*ScanStmt, error) {
	p.nextToken()
	stmt := &ScanStmt{}

	if p.curToken.Kind == lex.FROM {
		p.nextToken()
		from, err := p.word("key after FROM")
		if err != nil {
			return nil, err
		}
		stmt.From, stmt.HasFrom = from, true
	}

	if p.curToken.Kind == lex.LIMIT {
		p.nextToken()
		n, err := p.number("limit")
		if err != nil {
			return nil, err
		}
		stmt.Limit = n
	}

	if p.curToken.Kind == lex.DESC {
		stmt.Desc = true
		p.nextToken()
	}
	return stmt, nil
}
