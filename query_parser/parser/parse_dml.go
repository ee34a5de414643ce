package parser

// keyValue reads the "<key> <value>" tail shared by PUT and INSERT.
func (p *Parser) keyValue() (string, string, error) {
	p.nextToken()
	key, err := p.word("key")
	if err != nil {
		return "", "", err
	}
	val, err := p.word("value")
	if err != nil {
		return "", "", err
	}
	return key, val, nil
}

func (p *Parser) parsePut() (*PutStmt, error) {
	key, val, err := p.keyValue()
	if err != nil {
		return nil, err
	}
	return &PutStmt{Key: key, Value: val}, nil
}

func (p *Parser) parseInsert() (*InsertStmt, error) {
	key, val, err := p.keyValue()
	if err != nil {
		return nil, err
	}
	return &InsertStmt{Key: key, Value: val}, nil
}

func (p *Parser) parseGet() (*GetStmt, error) {
	p.nextToken()
	key, err := p.word("key")
	if err != nil {
		return nil, err
	}
	return &GetStmt{Key: key}, nil
}

func (p *Parser) parseDelete() (*DeleteStmt, error) {
	p.nextToken()
	key, err := p.word("key")
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Key: key}, nil
}
