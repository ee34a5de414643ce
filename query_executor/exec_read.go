package executor

import (
	bstar "BStarDB/bstartree"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

func (vm *VM) ExecuteGet() error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	val, ok, err := vm.tree.Find(key)
	if err != nil {
		return errors.Wrapf(err, "get %q", key)
	}
	if !ok {
		fmt.Fprintln(vm.out, "(not found)")
		return nil
	}
	fmt.Fprintln(vm.out, vm.formatValue(val))
	return nil
}

func (vm *VM) ExecuteRange(payloadJSON string) error {
	var payload RangePayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return errors.Wrap(err, "decode range payload")
	}
	entries, err := vm.tree.Range(payload.Start, payload.End)
	if err != nil {
		return err
	}
	vm.PrintRows(entries)
	return nil
}

// ExecuteScan walks the tree with a cursor. Ascending scans start at the
// first key >= FROM, descending ones at the last key <= FROM.
func (vm *VM) ExecuteScan(payloadJSON string) error {
	var payload ScanPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return errors.Wrap(err, "decode scan payload")
	}

	c, err := vm.scanStart(payload)
	if err != nil {
		return err
	}

	var entries []bstar.Entry
	for c.Valid() && (payload.Limit == 0 || len(entries) < payload.Limit) {
		k, v, ok, err := c.Entry()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		entries = append(entries, bstar.Entry{Key: k, Value: v})

		if payload.Desc {
			_, err = c.Prev()
		} else {
			_, err = c.Next()
		}
		if err != nil {
			return err
		}
	}
	vm.PrintRows(entries)
	return nil
}

func (vm *VM) scanStart(payload ScanPayload) (*bstar.Cursor, error) {
	switch {
	case !payload.HasFrom && payload.Desc:
		return vm.tree.Last()
	case !payload.HasFrom:
		return vm.tree.First()
	}

	from := []byte(payload.From)
	c, err := vm.tree.Seek(from)
	if err != nil || !payload.Desc {
		return c, err
	}
	if !c.Valid() {
		return vm.tree.Last()
	}
	k, _, ok, err := c.Entry()
	if err != nil {
		return nil, err
	}
	if ok && !bytes.Equal(k, from) {
		// Seek landed on the first key above from
		if _, err := c.Prev(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (vm *VM) ExecuteCount() error {
	fmt.Fprintln(vm.out, vm.tree.ItemCount())
	return nil
}
