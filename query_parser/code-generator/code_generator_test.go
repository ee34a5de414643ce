package codegen

import (
	executor "BStarDB/query_executor"
	lex "BStarDB/query_parser/lexer"
	"BStarDB/query_parser/parser"
	"encoding/json"
	"testing"
)

func emit(t *testing.T, input string) []executor.Instruction {
	t.Helper()
	stmt, err := parser.New(lex.New(input)).ParseStatement()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	instructions, err := EmitBytecode(stmt)
	if err != nil {
		t.Fatalf("EmitBytecode(%q) unexpected error: %v", input, err)
	}
	return instructions
}

// TestEmitBytecode_UnsupportedStatement_ReturnsError ensures unknown statements
// return an error instead of panicking.
func TestEmitBytecode_UnsupportedStatement_ReturnsError(t *testing.T) {
	instructions, err := EmitBytecode(struct{}{})
	if err == nil {
		t.Errorf("EmitBytecode(struct{}) expected error, got %d instructions", len(instructions))
	}
	if instructions != nil {
		t.Errorf("EmitBytecode expected nil instructions on error, got %v", instructions)
	}
}

// TestEmitBytecode_Put ensures key and value are pushed in order before the opcode.
func TestEmitBytecode_Put(t *testing.T) {
	got := emit(t, `PUT k1 "v one"`)
	want := []executor.Instruction{
		{Op: executor.OP_PUSH_KEY, Value: "k1"},
		{Op: executor.OP_PUSH_VAL, Value: "v one"},
		{Op: executor.OP_PUT},
		{Op: executor.OP_END},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

// TestEmitBytecode_Scan ensures scan options reach the executor payload.
func TestEmitBytecode_Scan(t *testing.T) {
	got := emit(t, "SCAN FROM m LIMIT 5 DESC")
	if len(got) != 2 || got[0].Op != executor.OP_SCAN || got[1].Op != executor.OP_END {
		t.Fatalf("unexpected bytecode %v", got)
	}
	var payload executor.ScanPayload
	if err := json.Unmarshal([]byte(got[0].Value), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	want := executor.ScanPayload{From: "m", HasFrom: true, Limit: 5, Desc: true}
	if payload != want {
		t.Errorf("expected payload %+v, got %+v", want, payload)
	}
}

// TestEmitBytecode_EndsWithEnd ensures every command is terminated.
func TestEmitBytecode_EndsWithEnd(t *testing.T) {
	for _, input := range []string{"GET a", "DELETE a", "RANGE 1 2", "COUNT", "COMMIT", "FLUSH", "OPTIMIZE", "STATS", "VERIFY", "INSERT a b"} {
		got := emit(t, input)
		if len(got) == 0 || got[len(got)-1].Op != executor.OP_END {
			t.Errorf("%q: expected trailing OP_END, got %v", input, got)
		}
	}
}
