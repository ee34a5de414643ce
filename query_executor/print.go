package executor

import (
	bstar "BStarDB/bstartree"
	"fmt"
	"strings"
	"unicode/utf8"
)

func (vm *VM) PrintLine(cells []string) {
	for i, cell := range cells {
		fmt.Fprintf(vm.out, "%-20s", cell)
		if i < len(cells)-1 {
			fmt.Fprint(vm.out, "| ")
		}
	}
	fmt.Fprintln(vm.out)
}

func (vm *VM) PrintSeparator(count int) {
	if count > 0 {
		fmt.Fprintln(vm.out, strings.Repeat("-", (22*count)-2))
	}
}

// PrintRows prints entries as a KEY | VALUE table with a row count.
func (vm *VM) PrintRows(entries []bstar.Entry) {
	vm.PrintLine([]string{"KEY", "VALUE"})
	vm.PrintSeparator(2)
	for _, e := range entries {
		vm.PrintLine([]string{vm.formatValue(e.Key), vm.formatValue(e.Value)})
	}
	fmt.Fprintf(vm.out, "(%d rows)\n", len(entries))
}

// formatValue prints text as is and anything else as hex.
func (vm *VM) formatValue(val []byte) string {
	if val == nil {
		return "NULL"
	}
	if utf8.Valid(val) {
		return string(val)
	}
	return fmt.Sprintf("0x%x", val)
}
