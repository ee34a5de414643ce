package bstar

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Delete removes key. It returns false, without changing anything, when the
// key is absent.
func (t *BStarTree) Delete(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	if err := t.lockWrite(); err != nil {
		return false, err
	}
	defer t.mu.Unlock()

	if _, _, found, err := t.search(key); err != nil || !found {
		return false, err
	}
	if err := t.deleteLocked(key); err != nil {
		return false, err
	}
	t.header.ItemCount--
	t.version.Add(1)
	return true, nil
}

// deleteLocked descends once from the root. Before the descent enters a
// child it makes sure the child holds more than the minimum, so removing a
// record below never underfills a node.
func (t *BStarTree) deleteLocked(key []byte) error {
	floor := t.minKeys()
	n := t.root
	for {
		i, kind := t.findSlot(n, key)

		if n.isLeaf {
			if kind != slotHere {
				return errors.AssertionFailedf("key vanished during delete descent")
			}
			n.keys = removeAt(n.keys, i)
			n.vals = removeAt(n.vals, i)
			n.dirty = true
			return nil
		}

		if kind == slotHere {
			left, err := t.loadChild(n, i)
			if err != nil {
				return err
			}
			if len(left.keys) > floor {
				pk, pv, err := t.maxRecord(left)
				if err != nil {
					return err
				}
				n.keys[i], n.vals[i] = pk, pv
				n.dirty = true
				key, n = pk, left
				continue
			}
			right, err := t.loadChild(n, i+1)
			if err != nil {
				return err
			}
			if len(right.keys) > floor {
				sk, sv, err := t.minRecord(right)
				if err != nil {
					return err
				}
				n.keys[i], n.vals[i] = sk, sv
				n.dirty = true
				key, n = sk, right
				continue
			}
			n = t.merge(n, i)
			continue
		}

		ci := childIndex(i, kind)
		child, err := t.loadChild(n, ci)
		if err != nil {
			return err
		}
		if len(child.keys) > floor {
			n = child
			continue
		}

		if ci > 0 {
			left, err := t.loadChild(n, ci-1)
			if err != nil {
				return err
			}
			if len(left.keys) > floor {
				t.rotateFromLeft(n, ci)
				n = child
				continue
			}
		}
		if ci < len(n.keys) {
			right, err := t.loadChild(n, ci+1)
			if err != nil {
				return err
			}
			if len(right.keys) > floor {
				t.rotateFromRight(n, ci)
				n = child
				continue
			}
			n = t.merge(n, ci)
			continue
		}
		n = t.merge(n, ci-1)
	}
}

func (t *BStarTree) minKeys() int {
	return t.fanout / 3
}

// maxRecord returns the last record of the subtree under n.
func (t *BStarTree) maxRecord(n *Node) ([]byte, []byte, error) {
	for !n.isLeaf {
		c, err := t.loadChild(n, len(n.children)-1)
		if err != nil {
			return nil, nil, err
		}
		n = c
	}
	last := len(n.keys) - 1
	return n.keys[last], n.vals[last], nil
}

// minRecord returns the first record of the subtree under n.
func (t *BStarTree) minRecord(n *Node) ([]byte, []byte, error) {
	for !n.isLeaf {
		c, err := t.loadChild(n, 0)
		if err != nil {
			return nil, nil, err
		}
		n = c
	}
	return n.keys[0], n.vals[0], nil
}

// rotateFromLeft moves the separator before ci down into child ci and the
// left sibling's last record up into its place.
func (t *BStarTree) rotateFromLeft(n *Node, ci int) {
	child, left := n.children[ci], n.children[ci-1]
	last := len(left.keys) - 1

	child.keys = insertAt(child.keys, 0, n.keys[ci-1])
	child.vals = insertAt(child.vals, 0, n.vals[ci-1])
	n.keys[ci-1], n.vals[ci-1] = left.keys[last], left.vals[last]
	left.keys = removeAt(left.keys, last)
	left.vals = removeAt(left.vals, last)
	if !child.isLeaf {
		moved := left.children[len(left.children)-1]
		left.children = removeAt(left.children, len(left.children)-1)
		child.children = insertAt(child.children, 0, moved)
		adopt(child, 0)
	}

	child.dirty = true
	left.dirty = true
	n.dirty = true
}

// rotateFromRight moves the separator after ci down into child ci and the
// right sibling's first record up into its place.
func (t *BStarTree) rotateFromRight(n *Node, ci int) {
	child, right := n.children[ci], n.children[ci+1]

	child.keys = append(child.keys, n.keys[ci])
	child.vals = append(child.vals, n.vals[ci])
	n.keys[ci], n.vals[ci] = right.keys[0], right.vals[0]
	right.keys = removeAt(right.keys, 0)
	right.vals = removeAt(right.vals, 0)
	if !child.isLeaf {
		moved := right.children[0]
		right.children = removeAt(right.children, 0)
		child.children = append(child.children, moved)
		adopt(child, len(child.children)-1)
		adopt(right, 0)
	}

	child.dirty = true
	right.dirty = true
	n.dirty = true
}

// merge folds n.children[i+1] and the separator n.keys[i] into
// n.children[i] and returns the merged node. An emptied root is replaced by
// the merged node.
func (t *BStarTree) merge(n *Node, i int) *Node {
	left, right := n.children[i], n.children[i+1]

	left.keys = append(append(left.keys, n.keys[i]), right.keys...)
	left.vals = append(append(left.vals, n.vals[i]), right.vals...)
	if !left.isLeaf {
		from := len(left.children)
		left.children = append(left.children, right.children...)
		adopt(left, from)
	}
	left.dirty = true

	n.keys = removeAt(n.keys, i)
	n.vals = removeAt(n.vals, i)
	n.children = removeAt(n.children, i+1)
	adopt(n, i+1)
	n.dirty = true

	right.keys, right.vals, right.children = nil, nil, nil
	right.loaded = false
	t.activeNodes.Add(-1)

	if n == t.root && len(n.keys) == 0 {
		t.root = left
		left.parent = nil
		left.childNo = -1
		n.children = nil
		n.loaded = false
		t.activeNodes.Add(-1)
		t.log.Debug("root shrunk", zap.Int64("root", left.fpos))
	}
	return left
}
