package executor

import (
	"fmt"
)

func (vm *VM) ExecuteCommit() error {
	if err := vm.tree.Commit(); err != nil {
		return err
	}
	fmt.Fprintln(vm.out, "OK")
	return nil
}

func (vm *VM) ExecuteFlush() error {
	if err := vm.tree.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(vm.out, "OK")
	return nil
}

func (vm *VM) ExecuteOptimize() error {
	if err := vm.tree.Optimize(); err != nil {
		return err
	}
	h := vm.tree.Header()
	fmt.Fprintf(vm.out, "OK (fanout=%d pageSize=%d size~%d)\n", h.Fanout, h.PageSize, h.EstimatedFileSize())
	return nil
}

func (vm *VM) ExecuteStats() error {
	s, err := vm.tree.Stats()
	if err != nil {
		return err
	}
	vm.PrintLine([]string{"STAT", "VALUE"})
	vm.PrintSeparator(2)
	for _, row := range [][2]string{
		{"file", s.FileName},
		{"items", fmt.Sprint(s.ItemCount)},
		{"fanout", fmt.Sprint(s.Fanout)},
		{"page size", fmt.Sprint(s.PageSize)},
		{"cache size", fmt.Sprint(s.CacheSize)},
		{"eviction", s.Policy.String()},
		{"live nodes", fmt.Sprint(s.ActiveNodes)},
		{"dirty nodes", fmt.Sprint(s.DirtyNodes)},
		{"node pages", fmt.Sprint(s.NodePages)},
		{"overflow pages", fmt.Sprint(s.OverflowPages)},
		{"file size", fmt.Sprint(s.FileSize)},
		{"page cache", fmt.Sprintf("%d hits / %d misses", s.PageCacheHits, s.PageCacheMiss)},
	} {
		vm.PrintLine(row[:])
	}
	return nil
}

func (vm *VM) ExecuteVerify() error {
	if err := vm.tree.Verify(); err != nil {
		return err
	}
	fmt.Fprintf(vm.out, "OK (%d records)\n", vm.tree.ItemCount())
	return nil
}
