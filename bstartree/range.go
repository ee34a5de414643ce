package bstar

import "github.com/cockroachdb/errors"

// Range returns the records ranked start through end (inclusive, zero
// based) in key order. If the store holds fewer records the available
// part is returned.
func (t *BStarTree) Range(start, end int) ([]Entry, error) {
	if start < 0 || end < start {
		return nil, errors.Wrapf(ErrInvalidRange, "range [%d, %d]", start, end)
	}
	if err := t.lockRead(); err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()

	w := &rangeWalk{t: t, start: start, end: end}
	if err := w.visit(t.root); err != nil {
		return nil, err
	}
	return w.out, nil
}

type rangeWalk struct {
	t          *BStarTree
	start, end int
	pos        int // rank of the next record visited
	out        []Entry
	done       bool
}

// visit walks n in order. Subtrees wholly before start are skipped by their
// count, stubs without being loaded; internal records take one rank each.
func (w *rangeWalk) visit(n *Node) error {
	if n.isLeaf {
		if w.pos+len(n.keys) <= w.start {
			w.pos += len(n.keys)
			return nil
		}
		for i := range n.keys {
			w.take(n, i)
			if w.done {
				return nil
			}
		}
		return nil
	}
	for i := range n.children {
		skipped := false
		if w.pos < w.start {
			var err error
			if skipped, err = w.skipStub(n, i); err != nil {
				return err
			}
		}
		if !skipped {
			c, err := w.t.loadChild(n, i)
			if err != nil {
				return err
			}
			if err := w.visit(c); err != nil || w.done {
				return err
			}
		}
		if i < len(n.keys) {
			w.take(n, i)
			if w.done {
				return nil
			}
		}
	}
	return nil
}

// skipStub passes over n.children[i] when it is a stub whose records all
// rank before start.
func (w *rangeWalk) skipStub(n *Node, i int) (bool, error) {
	off, stub := w.t.stubOffset(n, i)
	if !stub {
		return false, nil
	}
	count, err := w.t.subtreeCount(off)
	if err != nil {
		return false, err
	}
	if w.pos+count > w.start {
		return false, nil
	}
	w.pos += count
	return true, nil
}

func (w *rangeWalk) take(n *Node, i int) {
	if w.pos >= w.start {
		w.out = append(w.out, Entry{
			Key:   append([]byte{}, n.keys[i]...),
			Value: append([]byte{}, n.vals[i]...),
		})
	}
	w.pos++
	if w.pos > w.end {
		w.done = true
	}
}
