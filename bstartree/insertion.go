package bstar

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Insert adds key/val. It returns false, without changing anything, when the
// key is already present.
func (t *BStarTree) Insert(key, val []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	if err := t.lockWrite(); err != nil {
		return false, err
	}
	defer t.mu.Unlock()

	if t.optimizeEvery > 0 && t.header.ItemCount == t.optimizeEvery {
		retune := t.retuneLocked
		if t.autoTune {
			retune = t.optimizeLocked
		}
		if err := retune(); err != nil {
			return false, errors.Wrap(err, "retune")
		}
	}
	return t.insertLocked(append([]byte{}, key...), append([]byte{}, val...))
}

// Update replaces the value stored under key, inserting it if absent.
func (t *BStarTree) Update(key, val []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if err := t.lockWrite(); err != nil {
		return err
	}
	defer t.mu.Unlock()

	n, i, ok, err := t.search(key)
	if err != nil {
		return err
	}
	if ok {
		n.vals[i] = append([]byte{}, val...)
		n.dirty = true
		t.version.Add(1)
		return nil
	}
	_, err = t.insertLocked(append([]byte{}, key...), append([]byte{}, val...))
	return err
}

// insertLocked descends once from the root. Every child is made non-full
// before the descent enters it, so the leaf always has room.
func (t *BStarTree) insertLocked(key, val []byte) (bool, error) {
	if len(t.root.keys) >= t.fanout {
		// a duplicate must not grow the tree
		if _, _, found, err := t.search(key); err != nil || found {
			return false, err
		}
		t.splitRoot()
	}

	n := t.root
	for {
		i, kind := t.findSlot(n, key)
		if kind == slotHere {
			return false, nil
		}
		if n.isLeaf {
			at := 0
			if kind != slotNone {
				at = childIndex(i, kind)
			}
			n.keys = insertAt(n.keys, at, key)
			n.vals = insertAt(n.vals, at, val)
			n.dirty = true
			t.inserted()
			return true, nil
		}

		ci := childIndex(i, kind)
		child, err := t.loadChild(n, ci)
		if err != nil {
			return false, err
		}
		if len(child.keys) < t.fanout {
			n = child
			continue
		}

		// full child: reject duplicates before anything moves
		if _, k := t.findSlot(child, key); k == slotHere {
			return false, nil
		}
		if !child.isLeaf || !t.delaySplit {
			t.split(n, ci)
			continue
		}

		done, err := t.shiftRight(n, ci, key, val)
		if err != nil || done {
			return done, err
		}
		if len(child.keys) < t.fanout {
			n = child
			continue
		}
		done, err = t.shiftLeft(n, ci, key, val)
		if err != nil || done {
			return done, err
		}
		if len(child.keys) < t.fanout {
			n = child
			continue
		}

		s := ci
		if s > 0 {
			s--
		}
		t.split3Leaf(n, s)
	}
}

// shiftRight makes room in the full leaf n.children[ci] by rotating its last
// record through n into a non-full right sibling. It reports true when key
// itself ended up in n.
func (t *BStarTree) shiftRight(n *Node, ci int, key, val []byte) (bool, error) {
	if ci >= len(n.keys) {
		return false, nil
	}
	sib, err := t.loadChild(n, ci+1)
	if err != nil {
		return false, err
	}
	if len(sib.keys) >= t.fanout {
		return false, nil
	}
	child := n.children[ci]

	sib.keys = insertAt(sib.keys, 0, n.keys[ci])
	sib.vals = insertAt(sib.vals, 0, n.vals[ci])
	sib.dirty = true
	n.dirty = true

	last := len(child.keys) - 1
	if t.cmp(child.keys[last], key) < 0 {
		n.keys[ci], n.vals[ci] = key, val
		t.inserted()
		return true, nil
	}
	n.keys[ci], n.vals[ci] = child.keys[last], child.vals[last]
	child.keys = removeAt(child.keys, last)
	child.vals = removeAt(child.vals, last)
	child.dirty = true
	return false, nil
}

// shiftLeft is the mirror of shiftRight using the left sibling.
func (t *BStarTree) shiftLeft(n *Node, ci int, key, val []byte) (bool, error) {
	if ci == 0 {
		return false, nil
	}
	sib, err := t.loadChild(n, ci-1)
	if err != nil {
		return false, err
	}
	if len(sib.keys) >= t.fanout {
		return false, nil
	}
	child := n.children[ci]

	sib.keys = append(sib.keys, n.keys[ci-1])
	sib.vals = append(sib.vals, n.vals[ci-1])
	sib.dirty = true
	n.dirty = true

	if t.cmp(key, child.keys[0]) < 0 {
		n.keys[ci-1], n.vals[ci-1] = key, val
		t.inserted()
		return true, nil
	}
	n.keys[ci-1], n.vals[ci-1] = child.keys[0], child.vals[0]
	child.keys = removeAt(child.keys, 0)
	child.vals = removeAt(child.vals, 0)
	child.dirty = true
	return false, nil
}

func (t *BStarTree) inserted() {
	t.header.ItemCount++
	t.version.Add(1)
}

// retuneLocked commits and shrinks the cache limit by the overflow ratio, so
// trees with large records keep a similar memory footprint. With auto tuning
// on, the threshold insert runs optimizeLocked instead.
func (t *BStarTree) retuneLocked() error {
	if err := t.commitLocked(); err != nil {
		return err
	}
	if t.header.NodePages == 0 {
		return nil
	}
	ofactor := float64(t.header.OverflowPages)/float64(t.header.NodePages) + 1
	pfactor := int(ofactor)
	if pfactor > 1 && t.cacheSize > 0 {
		t.cacheSize = max(t.cacheSize/pfactor, 1)
		t.header.CacheSize = uint64(t.cacheSize)
	}
	t.log.Debug("retuned cache", zap.Float64("ofactor", ofactor), zap.Int("cacheSize", t.cacheSize))
	return nil
}
