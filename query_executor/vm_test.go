package executor_test

import (
	bstar "BStarDB/bstartree"
	executor "BStarDB/query_executor"
	codegen "BStarDB/query_parser/code-generator"
	lex "BStarDB/query_parser/lexer"
	"BStarDB/query_parser/parser"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

type shell struct {
	t    *testing.T
	tree *bstar.BStarTree
	vm   *executor.VM
	out  *bytes.Buffer
}

func newShell(t *testing.T) *shell {
	t.Helper()
	tree := bstar.NewBStarTree(filepath.Join(t.TempDir(), "shell.db"), nil)
	if err := tree.SetFanout(6); err != nil {
		t.Fatalf("set fanout: %v", err)
	}
	if err := tree.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	out := &bytes.Buffer{}
	return &shell{t: t, tree: tree, vm: executor.NewVM(tree, out), out: out}
}

// run executes one command line and returns what it printed.
func (s *shell) run(line string) (string, error) {
	s.t.Helper()
	s.out.Reset()
	stmt, err := parser.New(lex.New(line)).ParseStatement()
	if err != nil {
		s.t.Fatalf("parse %q: %v", line, err)
	}
	instructions, err := codegen.EmitBytecode(stmt)
	if err != nil {
		s.t.Fatalf("codegen %q: %v", line, err)
	}
	err = s.vm.Execute(instructions)
	return s.out.String(), err
}

func (s *shell) mustRun(line string) string {
	s.t.Helper()
	out, err := s.run(line)
	if err != nil {
		s.t.Fatalf("execute %q: %v", line, err)
	}
	return out
}

// rowKeys pulls the key column out of a printed table.
func rowKeys(out string) []string {
	var keys []string
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, line := range lines[2 : len(lines)-1] {
		keys = append(keys, strings.TrimSpace(strings.SplitN(line, "|", 2)[0]))
	}
	return keys
}

// TestVMRecordCommands tests PUT, INSERT, GET and DELETE
func TestVMRecordCommands(t *testing.T) {
	s := newShell(t)

	if out := s.mustRun(`PUT user:1 "Alice"`); out != "OK\n" {
		t.Errorf("PUT: expected OK, got %q", out)
	}
	if out := s.mustRun("GET user:1"); out != "Alice\n" {
		t.Errorf("GET: expected Alice, got %q", out)
	}

	if _, err := s.run("INSERT user:1 Bob"); !errors.Is(err, executor.ErrDuplicateKey) {
		t.Errorf("INSERT duplicate: expected ErrDuplicateKey, got %v", err)
	}
	s.mustRun("PUT user:1 Bob")
	if out := s.mustRun("GET user:1"); out != "Bob\n" {
		t.Errorf("GET after PUT: expected Bob, got %q", out)
	}

	if out := s.mustRun("DELETE user:1"); out != "OK\n" {
		t.Errorf("DELETE: expected OK, got %q", out)
	}
	if out := s.mustRun("DELETE user:1"); out != "(not found)\n" {
		t.Errorf("DELETE missing: expected (not found), got %q", out)
	}
	if out := s.mustRun("GET user:1"); out != "(not found)\n" {
		t.Errorf("GET missing: expected (not found), got %q", out)
	}
}

// TestVMScanAndRange tests ordered listing commands
func TestVMScanAndRange(t *testing.T) {
	s := newShell(t)
	for i := 1; i <= 30; i++ {
		s.mustRun(fmt.Sprintf("INSERT k%02d v%d", i, i))
	}

	tests := []struct {
		line string
		want []string
	}{
		{"RANGE 0 2", []string{"k01", "k02", "k03"}},
		{"RANGE 28 40", []string{"k29", "k30"}},
		{"SCAN LIMIT 3", []string{"k01", "k02", "k03"}},
		{"SCAN LIMIT 2 DESC", []string{"k30", "k29"}},
		{"SCAN FROM k10 LIMIT 2", []string{"k10", "k11"}},
		{"SCAN FROM k105 LIMIT 2", []string{"k11", "k12"}},
		{"SCAN FROM k105 LIMIT 2 DESC", []string{"k10", "k09"}},
		{"SCAN FROM k10 LIMIT 2 DESC", []string{"k10", "k09"}},
		{"SCAN FROM z LIMIT 1 DESC", []string{"k30"}},
		{"SCAN FROM z", nil},
	}
	for _, tt := range tests {
		got := rowKeys(s.mustRun(tt.line))
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.line, tt.want, got)
		}
	}

	if out := s.mustRun("SCAN"); !strings.HasSuffix(out, "(30 rows)\n") {
		t.Errorf("SCAN: expected 30 rows, got %q", out)
	}
	if _, err := s.run("RANGE 5 4"); !errors.Is(err, bstar.ErrInvalidRange) {
		t.Errorf("RANGE 5 4: expected ErrInvalidRange, got %v", err)
	}
}

// TestVMStoreCommands tests COUNT, COMMIT, FLUSH, OPTIMIZE, STATS and VERIFY
func TestVMStoreCommands(t *testing.T) {
	s := newShell(t)
	for i := 0; i < 100; i++ {
		s.mustRun(fmt.Sprintf("PUT key%03d value%d", i, i))
	}

	if out := s.mustRun("COUNT"); out != "100\n" {
		t.Errorf("COUNT: expected 100, got %q", out)
	}
	s.mustRun("COMMIT")
	s.mustRun("FLUSH")
	if out := s.mustRun("OPTIMIZE"); !strings.HasPrefix(out, "OK") {
		t.Errorf("OPTIMIZE: got %q", out)
	}
	if out := s.mustRun("VERIFY"); out != "OK (100 records)\n" {
		t.Errorf("VERIFY: got %q", out)
	}
	out := s.mustRun("STATS")
	for _, want := range []string{"items", "100", "fanout", "eviction"} {
		if !strings.Contains(out, want) {
			t.Errorf("STATS: expected %q in %q", want, out)
		}
	}
	if out := s.mustRun("GET key042"); out != "value42\n" {
		t.Errorf("GET after optimize: got %q", out)
	}
}

// TestVMUnknownOpcode tests that a malformed program is rejected
func TestVMUnknownOpcode(t *testing.T) {
	s := newShell(t)
	if err := s.vm.Execute([]executor.Instruction{{Op: executor.OpCode(200)}}); err == nil {
		t.Errorf("expected error for unknown opcode")
	}
	if err := s.vm.Execute([]executor.Instruction{{Op: executor.OP_GET}}); err == nil {
		t.Errorf("expected error for GET with an empty stack")
	}
}
