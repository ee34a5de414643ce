package codegen

import (
	executor "BStarDB/query_executor"
	"BStarDB/query_parser/parser"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

func EmitBytecode(stmt parser.Statement) ([]executor.Instruction, error) {

	instructions := []executor.Instruction{}

	switch s := stmt.(type) {

	case *parser.PutStmt:
		instructions = append(instructions,
			executor.Instruction{Op: executor.OP_PUSH_KEY, Value: s.Key},
			executor.Instruction{Op: executor.OP_PUSH_VAL, Value: s.Value},
			executor.Instruction{Op: executor.OP_PUT},
		)

	case *parser.InsertStmt:
		instructions = append(instructions,
			executor.Instruction{Op: executor.OP_PUSH_KEY, Value: s.Key},
			executor.Instruction{Op: executor.OP_PUSH_VAL, Value: s.Value},
			executor.Instruction{Op: executor.OP_INSERT},
		)

	case *parser.GetStmt:
		instructions = append(instructions,
			executor.Instruction{Op: executor.OP_PUSH_KEY, Value: s.Key},
			executor.Instruction{Op: executor.OP_GET},
		)

	case *parser.DeleteStmt:
		instructions = append(instructions,
			executor.Instruction{Op: executor.OP_PUSH_KEY, Value: s.Key},
			executor.Instruction{Op: executor.OP_DELETE},
		)

	case *parser.RangeStmt:
		payloadJSON, err := json.Marshal(executor.RangePayload{Start: s.Start, End: s.End})
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize range payload")
		}
		instructions = append(instructions, executor.Instruction{
			Op:    executor.OP_RANGE,
			Value: string(payloadJSON),
		})

	case *parser.ScanStmt:
		// package scan options as JSON for executor
		payload := executor.ScanPayload{
			From:    s.From,
			HasFrom: s.HasFrom,
			Limit:   s.Limit,
			Desc:    s.Desc,
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize scan payload")
		}
		instructions = append(instructions, executor.Instruction{
			Op:    executor.OP_SCAN,
			Value: string(payloadJSON),
		})

	case *parser.CountStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_COUNT})

	case *parser.CommitStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_COMMIT})

	case *parser.FlushStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_FLUSH})

	case *parser.OptimizeStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_OPTIMIZE})

	case *parser.StatsStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_STATS})

	case *parser.VerifyStmt:
		instructions = append(instructions, executor.Instruction{Op: executor.OP_VERIFY})

	default:
		return nil, errors.Newf("unknown statement type %T (no bytecode emitted)", stmt)
	}

	// for END of queries
	instructions = append(instructions, executor.Instruction{
		Op: executor.OP_END,
	})
	return instructions, nil
}
