package bstar

type slotKind int

const (
	slotNone  slotKind = iota // node is empty
	slotHere                  // keys[i] == key
	slotLeft                  // key < keys[i], descend children[i]
	slotRight                 // key > keys[n-1], descend children[n]
)

// findSlot locates key in n with a binary search.
func (t *BStarTree) findSlot(n *Node, key []byte) (int, slotKind) {
	if len(n.keys) == 0 {
		return -1, slotNone
	}
	i := lowerBound(n.keys, key, t.cmp)
	if i == len(n.keys) {
		return i - 1, slotRight
	}
	if t.cmp(n.keys[i], key) == 0 {
		return i, slotHere
	}
	return i, slotLeft
}

// lowerBound returns the first index whose key is >= target.
func lowerBound(keys [][]byte, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cmp(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// childIndex maps a findSlot result to the child to descend into.
func childIndex(i int, kind slotKind) int {
	if kind == slotRight {
		return i + 1
	}
	return i
}

// search walks from the root to the node holding key.
func (t *BStarTree) search(key []byte) (*Node, int, bool, error) {
	n := t.root
	for {
		i, kind := t.findSlot(n, key)
		if kind == slotHere {
			return n, i, true, nil
		}
		if n.isLeaf || kind == slotNone {
			return nil, 0, false, nil
		}
		child, err := t.loadChild(n, childIndex(i, kind))
		if err != nil {
			return nil, 0, false, err
		}
		n = child
	}
}

// Find returns a copy of the value stored under key.
func (t *BStarTree) Find(key []byte) ([]byte, bool, error) {
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}
	if err := t.lockRead(); err != nil {
		return nil, false, err
	}
	defer t.mu.RUnlock()

	n, i, ok, err := t.search(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return append([]byte{}, n.vals[i]...), true, nil
}

// Contains reports whether key is stored.
func (t *BStarTree) Contains(key []byte) (bool, error) {
	_, ok, err := t.Find(key)
	return ok, err
}
