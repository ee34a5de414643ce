package bstar

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// bulkBuilder lays out a tree of known size from records arriving in key
// order. Nodes are written as soon as they are complete, so only one path
// of the tree is in memory at a time.
type bulkBuilder struct {
	t    *BStarTree
	next func() ([]byte, []byte, error)
	caps []uint64 // caps[h-1] is the most records a subtree of height h holds
	seen uint64
}

// bulkLoadLocked replaces the empty store t with count records pulled from
// next. Every node is packed as full as the fill rules allow.
func (t *BStarTree) bulkLoadLocked(count uint64, next func() ([]byte, []byte, error)) error {
	if t.header.ItemCount != 0 {
		return errors.AssertionFailedf("bulk load into a store holding %d records", t.header.ItemCount)
	}
	if count == 0 {
		return nil
	}

	f := uint64(t.fanout)
	caps := []uint64{f}
	for caps[len(caps)-1] < count {
		caps = append(caps, f+(f+1)*caps[len(caps)-1])
	}

	// the empty root page is reused by the first leaf
	t.dropAll()
	t.header.NodePages = 0
	t.header.OverflowPages = 0

	b := &bulkBuilder{t: t, next: next, caps: caps}
	root, err := b.build(len(caps), count, true)
	if err != nil {
		return err
	}
	if b.seen != count {
		return errors.AssertionFailedf("bulk load consumed %d records, want %d", b.seen, count)
	}

	t.header.RootOffset = root.fpos
	t.header.ItemCount = count
	t.log.Debug("bulk loaded",
		zap.Uint64("items", count),
		zap.Int("height", len(caps)),
		zap.Uint64("nodePages", t.header.NodePages))
	return t.commitLocked()
}

// build writes a subtree of height h holding exactly n records and returns
// a stub for its root.
func (b *bulkBuilder) build(h int, n uint64, isRoot bool) (*Node, error) {
	t := b.t
	if h == 1 {
		leaf := t.newNode(true)
		for i := uint64(0); i < n; i++ {
			k, v, err := b.pull()
			if err != nil {
				return nil, err
			}
			leaf.keys = append(leaf.keys, k)
			leaf.vals = append(leaf.vals, v)
		}
		return b.seal(leaf)
	}

	// fewest children whose subtrees can hold the rest
	c := uint64(t.minKeys() + 1)
	if isRoot {
		c = 2
	}
	for c < uint64(t.fanout+1) && n-(c-1) > c*b.caps[h-2] {
		c++
	}
	body := n - (c - 1)
	base, extra := body/c, body%c

	var keys, vals [][]byte
	children := make([]*Node, 0, c)
	for j := uint64(0); j < c; j++ {
		share := base
		if j < extra {
			share++
		}
		child, err := b.build(h-1, share, false)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if j < c-1 {
			k, v, err := b.pull()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
	}

	node := t.newNode(false)
	node.keys, node.vals, node.children = keys, vals, children
	adopt(node, 0)
	return b.seal(node)
}

func (b *bulkBuilder) pull() ([]byte, []byte, error) {
	k, v, err := b.next()
	if err != nil {
		return nil, nil, err
	}
	b.seen++
	return k, v, nil
}

// seal writes n and swaps it for an unloaded stub.
func (b *bulkBuilder) seal(n *Node) (*Node, error) {
	if err := b.t.writeNode(n); err != nil {
		return nil, err
	}
	b.t.activeNodes.Add(-1)
	return &Node{fpos: n.fpos}, nil
}
