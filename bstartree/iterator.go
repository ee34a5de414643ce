package bstar

// Cursor is a position in the in-order sequence of records. Internal nodes
// hold records too, so a cursor may sit on any node.
//
// A cursor remembers the key it sits on. When the tree has been mutated or
// evicted since the cursor moved, the position is found again by key.
type Cursor struct {
	tree    *BStarTree
	node    *Node
	slot    int
	key     []byte
	version uint64
	valid   bool
}

// Valid reports whether the cursor sits on a record.
func (c *Cursor) Valid() bool {
	return c != nil && c.valid
}

// Next moves the cursor forward. It returns false when exhausted.
func (c *Cursor) Next() (bool, error) {
	return c.tree.Advance(c, true)
}

// Prev moves the cursor backward. It returns false when exhausted.
func (c *Cursor) Prev() (bool, error) {
	return c.tree.Advance(c, false)
}

// Entry returns copies of the current key and value.
func (c *Cursor) Entry() ([]byte, []byte, bool, error) {
	return c.tree.Read(c)
}

// First positions a cursor on the smallest key.
func (t *BStarTree) First() (*Cursor, error) {
	if err := t.lockRead(); err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.first()
}

// Last positions a cursor on the largest key.
func (t *BStarTree) Last() (*Cursor, error) {
	if err := t.lockRead(); err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.last()
}

// Seek positions a cursor on the smallest key >= key.
func (t *BStarTree) Seek(key []byte) (*Cursor, error) {
	if len(key) == 0 {
		return t.First()
	}
	if err := t.lockRead(); err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.seek(key)
}

// Advance moves c one record forward or backward and reports whether it
// still sits on a record.
func (t *BStarTree) Advance(c *Cursor, forward bool) (bool, error) {
	if c == nil || c.tree != t {
		return false, ErrCursorInvalid
	}
	if !c.valid {
		return false, nil
	}
	if err := t.lockRead(); err != nil {
		return false, err
	}
	defer t.mu.RUnlock()
	return t.advance(c, forward)
}

// Read returns copies of the key and value under c. If that record was
// deleted since the cursor moved, the cursor moves on to the next key.
func (t *BStarTree) Read(c *Cursor) ([]byte, []byte, bool, error) {
	if c == nil || c.tree != t {
		return nil, nil, false, ErrCursorInvalid
	}
	if !c.valid {
		return nil, nil, false, nil
	}
	if err := t.lockRead(); err != nil {
		return nil, nil, false, err
	}
	defer t.mu.RUnlock()

	if c.version != t.version.Load() {
		fresh, err := t.seek(c.key)
		if err != nil {
			return nil, nil, false, err
		}
		*c = *fresh
		if !c.valid {
			return nil, nil, false, nil
		}
	}
	key := append([]byte{}, c.node.keys[c.slot]...)
	val := append([]byte{}, c.node.vals[c.slot]...)
	return key, val, true, nil
}

func (t *BStarTree) first() (*Cursor, error) {
	n := t.root
	for !n.isLeaf {
		c, err := t.loadChild(n, 0)
		if err != nil {
			return nil, err
		}
		n = c
	}
	return t.at(n, 0), nil
}

func (t *BStarTree) last() (*Cursor, error) {
	n := t.root
	for !n.isLeaf {
		c, err := t.loadChild(n, len(n.children)-1)
		if err != nil {
			return nil, err
		}
		n = c
	}
	return t.at(n, len(n.keys)-1), nil
}

// seek finds the lower bound of key. Going left of keys[i] on the way down
// makes keys[i] a candidate; the deepest candidate is the smallest.
func (t *BStarTree) seek(key []byte) (*Cursor, error) {
	var candNode *Node
	candSlot := 0

	n := t.root
	for {
		i, kind := t.findSlot(n, key)
		switch kind {
		case slotHere:
			return t.at(n, i), nil
		case slotLeft:
			candNode, candSlot = n, i
		}
		if n.isLeaf || kind == slotNone {
			if candNode == nil {
				return t.at(nil, 0), nil
			}
			return t.at(candNode, candSlot), nil
		}
		c, err := t.loadChild(n, childIndex(i, kind))
		if err != nil {
			return nil, err
		}
		n = c
	}
}

// at builds a cursor on n.keys[slot]; an out of range slot gives an
// exhausted cursor.
func (t *BStarTree) at(n *Node, slot int) *Cursor {
	c := &Cursor{tree: t, version: t.version.Load()}
	if n == nil || slot < 0 || slot >= len(n.keys) {
		return c
	}
	c.node, c.slot, c.key, c.valid = n, slot, n.keys[slot], true
	return c
}

func (t *BStarTree) advance(c *Cursor, forward bool) (bool, error) {
	if c.version != t.version.Load() {
		return t.resume(c, forward)
	}
	var next *Cursor
	var err error
	if forward {
		next, err = t.next(c.node, c.slot)
	} else {
		next, err = t.prev(c.node, c.slot)
	}
	if err != nil {
		return false, err
	}
	*c = *next
	return c.valid, nil
}

// resume re-derives a stale cursor from its key and then moves it.
func (t *BStarTree) resume(c *Cursor, forward bool) (bool, error) {
	fresh, err := t.seek(c.key)
	if err != nil {
		return false, err
	}
	exact := fresh.valid && t.cmp(fresh.key, c.key) == 0

	switch {
	case forward && !exact:
		// the lower bound already is the record after c.key
		*c = *fresh
		return c.valid, nil
	case !forward && !fresh.valid:
		// every key is below c.key
		last, err := t.last()
		if err != nil {
			return false, err
		}
		*c = *last
		return c.valid, nil
	}

	var next *Cursor
	if forward {
		next, err = t.next(fresh.node, fresh.slot)
	} else {
		next, err = t.prev(fresh.node, fresh.slot)
	}
	if err != nil {
		return false, err
	}
	*c = *next
	return c.valid, nil
}

func (t *BStarTree) next(n *Node, slot int) (*Cursor, error) {
	if !n.isLeaf {
		c, err := t.loadChild(n, slot+1)
		if err != nil {
			return nil, err
		}
		for !c.isLeaf {
			if c, err = t.loadChild(c, 0); err != nil {
				return nil, err
			}
		}
		return t.at(c, 0), nil
	}
	if slot+1 < len(n.keys) {
		return t.at(n, slot+1), nil
	}
	for n.parent != nil && n.childNo >= len(n.parent.keys) {
		n = n.parent
	}
	if n.parent == nil {
		return t.at(nil, 0), nil
	}
	return t.at(n.parent, n.childNo), nil
}

func (t *BStarTree) prev(n *Node, slot int) (*Cursor, error) {
	if !n.isLeaf {
		c, err := t.loadChild(n, slot)
		if err != nil {
			return nil, err
		}
		for !c.isLeaf {
			if c, err = t.loadChild(c, len(c.children)-1); err != nil {
				return nil, err
			}
		}
		return t.at(c, len(c.keys)-1), nil
	}
	if slot > 0 {
		return t.at(n, slot-1), nil
	}
	for n.parent != nil && n.childNo == 0 {
		n = n.parent
	}
	if n.parent == nil {
		return t.at(nil, 0), nil
	}
	return t.at(n.parent, n.childNo-1), nil
}
