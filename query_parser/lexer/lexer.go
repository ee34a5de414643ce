package lex

import (
	"strings"
)

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func New(input string) *Lexer {
	l := &Lexer{
		input:   input,
		pos:     0,
		readPos: 0,
		ch:      0,
	}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() Token {
	l.skipWhiteSpaces()

	switch l.ch {
	case '"':
		str, ok := l.readString()
		if !ok {
			return Token{Kind: INVALID, Value: str}
		}
		return Token{Kind: STRING, Value: str}
	case 0:
		return Token{Kind: END, Value: ""}
	default:
		if isLetter(l.ch) {
			str := l.keyIdentLookup() // str could be a keyword or a bare key
			return Token{Kind: KeyIdentKind(str), Value: str}
		} else if isNumber(l.ch) {
			num := l.readNumber()
			if isWordChar(l.ch) {
				// digits followed by letters, e.g. 42abc, is a bare word
				return Token{Kind: IDENT, Value: num + l.keyIdentLookup()}
			}
			return Token{Kind: INT, Value: num}
		}
		tok := Token{Kind: INVALID, Value: string(l.ch)}
		l.readChar()
		return tok
	}
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) skipWhiteSpaces() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isNumber(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isWordChar covers the characters allowed after the first one of a bare key.
func isWordChar(ch byte) bool {
	return isLetter(ch) || isNumber(ch) || ch == '-' || ch == '.' || ch == ':' || ch == '/'
}

func (l *Lexer) keyIdentLookup() string {
	start := l.pos
	for isWordChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isNumber(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString reads a double-quoted string. \" and \\ are unescaped. ok is
// false when the closing quote is missing.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // read start " of string
	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 {
			return sb.String(), false
		}
		if l.ch == '\\' && (l.peekChar() == '"' || l.peekChar() == '\\') {
			l.readChar()
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	l.readChar() // read end " of string
	return sb.String(), true
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func KeyIdentKind(str string) TokenKind {
	switch strings.ToUpper(str) {
	case "PUT":
		return PUT
	case "INSERT":
		return INSERT
	case "GET":
		return GET
	case "DELETE":
		return DELETE
	case "RANGE":
		return RANGE
	case "SCAN":
		return SCAN
	case "FROM":
		return FROM
	case "LIMIT":
		return LIMIT
	case "DESC":
		return DESC
	case "COUNT":
		return COUNT
	case "COMMIT":
		return COMMIT
	case "FLUSH":
		return FLUSH
	case "OPTIMIZE":
		return OPTIMIZE
	case "STATS":
		return STATS
	case "VERIFY":
		return VERIFY
	default:
		return IDENT
	}
}
