package bstar

import "go.uber.org/zap"

// splitRoot grows the tree by one level: a new empty root adopts the old
// one, which is then split classically.
func (t *BStarTree) splitRoot() {
	old := t.root
	root := t.newNode(false)
	root.children = []*Node{old}
	old.parent = root
	old.childNo = 0
	t.root = root
	t.split(root, 0)
	t.log.Debug("root split", zap.Int64("root", root.fpos))
}

// split moves the upper half of the full child parent.children[ci] into a
// new right sibling and lifts the median into parent at ci.
func (t *BStarTree) split(parent *Node, ci int) {
	child := parent.children[ci]
	count := len(child.keys)
	leftCount := count / 2

	sib := t.newNode(child.isLeaf)
	sib.keys = append([][]byte{}, child.keys[leftCount+1:]...)
	sib.vals = append([][]byte{}, child.vals[leftCount+1:]...)
	if !child.isLeaf {
		sib.children = append([]*Node{}, child.children[leftCount+1:]...)
		child.children = child.children[:leftCount+1 : leftCount+1]
		adopt(sib, 0)
	}
	medKey, medVal := child.keys[leftCount], child.vals[leftCount]
	child.keys = child.keys[:leftCount:leftCount]
	child.vals = child.vals[:leftCount:leftCount]

	parent.keys = insertAt(parent.keys, ci, medKey)
	parent.vals = insertAt(parent.vals, ci, medVal)
	parent.children = insertAt(parent.children, ci+1, sib)
	adopt(parent, ci)

	child.dirty = true
	sib.dirty = true
	parent.dirty = true
}

// split3Leaf turns the two full leaves parent.children[s] and [s+1] and
// their separator into three leaves and two separators.
func (t *BStarTree) split3Leaf(parent *Node, s int) {
	a, b := parent.children[s], parent.children[s+1]
	f := t.fanout

	total := len(a.keys) + 1 + len(b.keys)
	keys := make([][]byte, 0, total)
	vals := make([][]byte, 0, total)
	keys = append(append(append(keys, a.keys...), parent.keys[s]), b.keys...)
	vals = append(append(append(vals, a.vals...), parent.vals[s]), b.vals...)

	count1 := 2 * f / 3
	count2 := f - f/3 - 1
	// count3 takes the rest: total - count1 - count2 - 2

	c := t.newNode(true)
	a.keys = append([][]byte{}, keys[:count1]...)
	a.vals = append([][]byte{}, vals[:count1]...)
	sep1 := count1
	b.keys = append([][]byte{}, keys[sep1+1:sep1+1+count2]...)
	b.vals = append([][]byte{}, vals[sep1+1:sep1+1+count2]...)
	sep2 := sep1 + 1 + count2
	c.keys = append([][]byte{}, keys[sep2+1:]...)
	c.vals = append([][]byte{}, vals[sep2+1:]...)

	parent.keys[s], parent.vals[s] = keys[sep1], vals[sep1]
	parent.keys = insertAt(parent.keys, s+1, keys[sep2])
	parent.vals = insertAt(parent.vals, s+1, vals[sep2])
	parent.children = insertAt(parent.children, s+2, c)
	adopt(parent, s)

	a.dirty = true
	b.dirty = true
	c.dirty = true
	parent.dirty = true
	t.log.Debug("three-way leaf split",
		zap.Int64("parent", parent.fpos),
		zap.Int("left", len(a.keys)), zap.Int("mid", len(b.keys)), zap.Int("right", len(c.keys)))
}

// adopt points children[from:] of n back at n with their new slots.
func adopt(n *Node, from int) {
	for i := from; i < len(n.children); i++ {
		n.children[i].parent = n
		n.children[i].childNo = i
	}
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}
