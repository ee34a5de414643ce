package lex

type TokenKind int

const (
	// identifier
	IDENT TokenKind = iota

	// literals
	INT
	STRING

	// keywords
	PUT
	INSERT
	GET
	DELETE
	RANGE
	SCAN
	FROM
	LIMIT
	DESC
	COUNT
	COMMIT
	FLUSH
	OPTIMIZE
	STATS
	VERIFY

	END
	INVALID
)

type Token struct {
	Kind  TokenKind
	Value string
}

func (tk TokenKind) String() string {
	switch tk {
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case STRING:
		return "STRING"
	case PUT:
		return "PUT"
	case INSERT:
		return "INSERT"
	case GET:
		return "GET"
	case DELETE:
		return "DELETE"
	case RANGE:
		return "RANGE"
	case SCAN:
		return "SCAN"
	case FROM:
		return "FROM"
	case LIMIT:
		return "LIMIT"
	case DESC:
		return "DESC"
	case COUNT:
		return "COUNT"
	case COMMIT:
		return "COMMIT"
	case FLUSH:
		return "FLUSH"
	case OPTIMIZE:
		return "OPTIMIZE"
	case STATS:
		return "STATS"
	case VERIFY:
		return "VERIFY"
	case END:
		return "END"
	case INVALID:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// IsWord reports whether a token can stand for a key or value: a bare word,
// a number or a quoted string.
func (tk TokenKind) IsWord() bool {
	return tk == IDENT || tk == INT || tk == STRING
}
