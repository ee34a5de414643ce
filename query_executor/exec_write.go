package executor

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// keyValue pops the value then the key pushed for PUT and INSERT.
func (vm *VM) keyValue() ([]byte, []byte, error) {
	val, err := vm.pop()
	if err != nil {
		return nil, nil, err
	}
	key, err := vm.pop()
	if err != nil {
		return nil, nil, err
	}
	return key, val, nil
}

func (vm *VM) ExecutePut() error {
	key, val, err := vm.keyValue()
	if err != nil {
		return err
	}
	if err := vm.tree.Update(key, val); err != nil {
		return errors.Wrapf(err, "put %q", key)
	}
	fmt.Fprintln(vm.out, "OK")
	return nil
}

func (vm *VM) ExecuteInsert() error {
	key, val, err := vm.keyValue()
	if err != nil {
		return err
	}
	ok, err := vm.tree.Insert(key, val)
	if err != nil {
		return errors.Wrapf(err, "insert %q", key)
	}
	if !ok {
		return errors.Wrapf(ErrDuplicateKey, "insert %q", key)
	}
	fmt.Fprintln(vm.out, "OK")
	return nil
}

func (vm *VM) ExecuteDelete() error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	ok, err := vm.tree.Delete(key)
	if err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	if !ok {
		fmt.Fprintln(vm.out, "(not found)")
		return nil
	}
	fmt.Fprintln(vm.out, "OK")
	return nil
}
