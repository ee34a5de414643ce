package executor

/*
VM - executes one command's instruction list against an open tree
    ↓
    └─→ B* Tree - node graph, write-back commits, page file on disk
*/

import (
	bstar "BStarDB/bstartree"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// NewVM returns a VM that prints results to out, or stdout when out is nil.
func NewVM(tree *bstar.BStarTree, out io.Writer) *VM {
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		tree:  tree,
		out:   out,
		stack: make([][]byte, 0),
	}
}

func (vm *VM) Execute(instructions []Instruction) error {
	vm.stack = nil

	for _, instr := range instructions {
		switch instr.Op {
		case OP_PUSH_VAL:
			vm.stack = append(vm.stack, []byte(instr.Value))

		case OP_PUSH_KEY:
			vm.stack = append(vm.stack, []byte(instr.Value))

		case OP_PUT:
			return vm.ExecutePut()

		case OP_INSERT:
			return vm.ExecuteInsert()

		case OP_GET:
			return vm.ExecuteGet()

		case OP_DELETE:
			return vm.ExecuteDelete()

		case OP_RANGE:
			return vm.ExecuteRange(instr.Value)

		case OP_SCAN:
			return vm.ExecuteScan(instr.Value)

		case OP_COUNT:
			return vm.ExecuteCount()

		case OP_COMMIT:
			return vm.ExecuteCommit()

		case OP_FLUSH:
			return vm.ExecuteFlush()

		case OP_OPTIMIZE:
			return vm.ExecuteOptimize()

		case OP_STATS:
			return vm.ExecuteStats()

		case OP_VERIFY:
			return vm.ExecuteVerify()

		case OP_END:
			return nil

		default:
			return errors.Newf("unknown opcode: %d", instr.Op)
		}
	}
	return nil
}
