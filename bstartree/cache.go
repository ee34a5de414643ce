package bstar

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// prepareLocked makes sure the root is resident and the live node count is
// under the cache limit. Every public operation goes through it.
func (t *BStarTree) prepareLocked() error {
	if t.root == nil {
		root := &Node{fpos: t.header.RootOffset, childNo: -1}
		if err := t.loadNode(root); err != nil {
			return err
		}
		t.root = root
		t.activeNodes.Store(1)
	}
	if t.overCache() {
		return t.evictLocked()
	}
	return nil
}

func (t *BStarTree) overCache() bool {
	return t.cacheSize > 0 && t.activeNodes.Load() > int64(t.cacheSize)
}

// loadChild returns parent.children[i], reading it from disk if it is a stub.
func (t *BStarTree) loadChild(parent *Node, i int) (*Node, error) {
	t.loadMu.Lock()
	defer t.loadMu.Unlock()

	c := parent.children[i]
	if c.loaded {
		return c, nil
	}
	c.parent = parent
	c.childNo = i
	if err := t.loadNode(c); err != nil {
		return nil, err
	}
	t.activeNodes.Add(1)
	return c, nil
}

// stubOffset returns the file offset of parent.children[i] and whether it
// is still a stub.
func (t *BStarTree) stubOffset(parent *Node, i int) (int64, bool) {
	t.loadMu.Lock()
	defer t.loadMu.Unlock()
	c := parent.children[i]
	return c.fpos, !c.loaded
}

// subtreeCount counts the records under the on-disk node at off. Only first
// pages are read and nothing becomes resident.
func (t *BStarTree) subtreeCount(off int64) (int, error) {
	page, err := t.pager.ReadAt(off, t.pageSize)
	if err != nil {
		return 0, errors.Wrapf(err, "count node %d", off)
	}
	_, count, childOffs, _, err := peekNode(off, page, t.fanout)
	if err != nil {
		return 0, err
	}
	for _, c := range childOffs {
		n, err := t.subtreeCount(c)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}

func (t *BStarTree) loadNode(n *Node) error {
	page, err := t.pager.ReadAt(n.fpos, t.pageSize)
	if err != nil {
		return errors.Wrapf(err, "load node %d", n.fpos)
	}
	return decodeNode(n, page, t.fanout, func(addr int64, pages uint64) ([]byte, error) {
		return t.pager.ReadAt(addr, int(pages)*t.pageSize)
	})
}

// unload drops n and every loaded node below it. The offset is kept so the
// stub can be loaded again.
func (t *BStarTree) unload(n *Node) {
	if !n.loaded {
		return
	}
	for _, c := range n.children {
		t.unload(c)
	}
	n.keys = nil
	n.vals = nil
	n.children = nil
	n.parent = nil
	n.loaded = false
	t.activeNodes.Add(-1)
}

// evictLocked commits and unloads part of the graph. The root stays.
func (t *BStarTree) evictLocked() error {
	if err := t.commitLocked(); err != nil {
		return err
	}
	before := t.activeNodes.Load()

	switch t.policy {
	case EvictPartial:
		nodes := t.liveNodes()
		target := before / 2
		for i := len(nodes) - 1; i > 0 && t.activeNodes.Load() > target; i-- {
			t.unload(nodes[i])
		}
	default:
		for _, c := range t.root.children {
			t.unload(c)
		}
	}
	t.version.Add(1)

	t.log.Debug("evicted nodes",
		zap.String("policy", t.policy.String()),
		zap.Int64("before", before),
		zap.Int64("after", t.activeNodes.Load()))
	return nil
}

// liveNodes lists the loaded nodes breadth first, root first.
func (t *BStarTree) liveNodes() []*Node {
	if t.root == nil {
		return nil
	}
	nodes := []*Node{t.root}
	for i := 0; i < len(nodes); i++ {
		for _, c := range nodes[i].children {
			if c.loaded {
				nodes = append(nodes, c)
			}
		}
	}
	return nodes
}

// dropAll forgets the whole graph, root included.
func (t *BStarTree) dropAll() {
	if t.root != nil {
		t.unload(t.root)
	}
	t.root = nil
	t.activeNodes.Store(0)
	t.version.Add(1)
}
