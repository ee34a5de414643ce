package executor

import (
	"io"

	bstar "BStarDB/bstartree"
)

type OpCode byte

const (
	// stack
	OP_PUSH_VAL OpCode = iota
	OP_PUSH_KEY

	// record commands
	OP_PUT
	OP_INSERT
	OP_GET
	OP_DELETE
	OP_RANGE
	OP_SCAN
	OP_COUNT

	// store commands
	OP_COMMIT
	OP_FLUSH
	OP_OPTIMIZE
	OP_STATS
	OP_VERIFY

	OP_END
)

type Instruction struct {
	Op    OpCode
	Value string
}

// RangePayload is the JSON operand of OP_RANGE.
type RangePayload struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ScanPayload is the JSON operand of OP_SCAN.
type ScanPayload struct {
	From    string `json:"from,omitempty"`
	HasFrom bool   `json:"has_from,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Desc    bool   `json:"desc,omitempty"`
}

type VM struct {
	tree *bstar.BStarTree
	out  io.Writer

	stack [][]byte
}
