package main

import (
	bstar "BStarDB/bstartree"
	executor "BStarDB/query_executor"
	codegen "BStarDB/query_parser/code-generator"
	lex "BStarDB/query_parser/lexer"
	"BStarDB/query_parser/parser"
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "bstar.db", "store file, created if missing")
	fanout := flag.Int("fanout", bstar.DefaultFanout, "max records per node (new stores only)")
	pageSize := flag.Int("pagesize", bstar.DefaultPageSize, "node page size in bytes (new stores only)")
	cache := flag.Int("cache", -1, "max live nodes, 0 for unbounded (default: value stored in the file)")
	partial := flag.Bool("partial", false, "evict part of the cache instead of all of it")
	debug := flag.Bool("debug", false, "print AST and bytecode for every command")
	verbose := flag.Bool("v", false, "log store events to stderr")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	tree := bstar.NewBStarTree(*file, nil)
	tree.SetLogger(logger)
	tree.SetFanout(*fanout)
	tree.SetPageSize(*pageSize)
	if *cache >= 0 {
		tree.SetCacheSize(*cache)
	}
	if *partial {
		tree.SetEvictionPolicy(bstar.EvictPartial)
	}
	if err := tree.Open(); err != nil {
		logger.Error("open store", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()

	vm := executor.NewVM(tree, os.Stdout)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	// REPL
	for {
		fmt.Print("db> ")

		if !scanner.Scan() { // Ctrl+D pressed
			fmt.Println()
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			break
		}
		if line == "" {
			continue
		}

		// Lexer + Parser
		l := lex.New(line)
		p := parser.New(l)

		stmt, err := p.ParseStatement()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		instructions, err := codegen.EmitBytecode(stmt)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		if *debug {
			fmt.Println("=== AST ===")
			fmt.Printf("%#v\n", stmt)
			fmt.Println("=== Bytecode ===")
			for i, instr := range instructions {
				fmt.Printf("%d: OP=%v, VALUE=%v\n", i, instr.Op, instr.Value)
			}
			fmt.Println("=== Execution ===")
		}

		if err := vm.Execute(instructions); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}
