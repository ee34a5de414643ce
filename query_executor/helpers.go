// Helper logic for the executor is split into:
//   - exec_write.go: PUT, INSERT, DELETE
//   - exec_read.go: GET, RANGE, SCAN, COUNT
//   - exec_admin.go: COMMIT, FLUSH, OPTIMIZE, STATS, VERIFY
//   - print.go: PrintLine, PrintSeparator, PrintRows, formatValue
package executor

import "github.com/cockroachdb/errors"

// ErrDuplicateKey is returned by INSERT when the key is already stored.
var ErrDuplicateKey = errors.New("duplicate key")

// pop takes the top operand off the stack.
func (vm *VM) pop() ([]byte, error) {
	if len(vm.stack) == 0 {
		return nil, errors.AssertionFailedf("operand stack is empty")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}
