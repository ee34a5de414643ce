package parser

import (
	lex "BStarDB/query_parser/lexer"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
)

// TestParseStatement_Invalid_ReturnsError ensures malformed commands return ErrSyntax.
func TestParseStatement_Invalid_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown command", "FETCH k"},
		{"put without value", "PUT k"},
		{"get without key", "GET"},
		{"delete with extra token", "DELETE k v"},
		{"range with word", "RANGE a 4"},
		{"range with one bound", "RANGE 4"},
		{"scan limit without number", "SCAN LIMIT x"},
		{"scan from without key", "SCAN FROM"},
		{"scan options out of order", "SCAN DESC LIMIT 4"},
		{"bad character", "GET ,"},
		{"unterminated string", `PUT k "v`},
		{"count with argument", "COUNT 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(lex.New(tt.input))
			stmt, err := p.ParseStatement()
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("ParseStatement(%q) expected ErrSyntax, got stmt %#v err %v", tt.input, stmt, err)
			}
		})
	}
}

// TestParseStatement_Valid ensures each command parses to the expected AST.
func TestParseStatement_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  Statement
	}{
		{`PUT user:1 "Alice Smith"`, &PutStmt{Key: "user:1", Value: "Alice Smith"}},
		{"insert 42 7", &InsertStmt{Key: "42", Value: "7"}},
		{"GET user:1", &GetStmt{Key: "user:1"}},
		{`DELETE "spaced key"`, &DeleteStmt{Key: "spaced key"}},
		{"RANGE 0 19", &RangeStmt{Start: 0, End: 19}},
		{"SCAN", &ScanStmt{}},
		{"SCAN FROM k5 LIMIT 3", &ScanStmt{From: "k5", HasFrom: true, Limit: 3}},
		{"scan limit 10 desc", &ScanStmt{Limit: 10, Desc: true}},
		{"SCAN FROM m DESC", &ScanStmt{From: "m", HasFrom: true, Desc: true}},
		{"COUNT", &CountStmt{}},
		{"COMMIT", &CommitStmt{}},
		{"flush", &FlushStmt{}},
		{"OPTIMIZE", &OptimizeStmt{}},
		{"STATS", &StatsStmt{}},
		{"VERIFY", &VerifyStmt{}},
	}
	for _, tt := range tests {
		p := New(lex.New(tt.input))
		stmt, err := p.ParseStatement()
		if err != nil {
			t.Errorf("ParseStatement(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(stmt, tt.want) {
			t.Errorf("ParseStatement(%q): expected %#v, got %#v", tt.input, tt.want, stmt)
		}
	}
}
