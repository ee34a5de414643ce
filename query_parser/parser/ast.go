package parser

// Statement is a generic interface for all statements
type Statement interface{}

// PUT statement, update-or-insert
type PutStmt struct {
	Key   string
	Value string
}

// INSERT statement, rejected when the key exists
type InsertStmt struct {
	Key   string
	Value string
}

type GetStmt struct {
	Key string
}

type DeleteStmt struct {
	Key string
}

// RANGE statement, records by in-order rank, both ends inclusive
type RangeStmt struct {
	Start int
	End   int
}

// SCAN statement. Limit 0 means no limit.
type ScanStmt struct {
	From    string
	HasFrom bool
	Limit   int
	Desc    bool
}

type CountStmt struct{}

type CommitStmt struct{}

type FlushStmt struct{}

type OptimizeStmt struct{}

type StatsStmt struct{}

type VerifyStmt struct{}
