package bstar

import (
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Commit writes every dirty resident node, then the header. Offsets are
// written in ascending order and the header goes last, so a crash before
// the header write leaves the previous root authoritative.
func (t *BStarTree) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pager == nil {
		return ErrNotOpen
	}
	return t.commitLocked()
}

func (t *BStarTree) commitLocked() error {
	dirty := make(map[int64]*Node)
	for _, n := range t.liveNodes() {
		if n.dirty {
			dirty[n.fpos] = n
		}
	}
	offsets := make([]int64, 0, len(dirty))
	for off := range dirty {
		offsets = append(offsets, off)
	}
	slices.Sort(offsets)

	for _, off := range offsets {
		if err := t.writeNode(dirty[off]); err != nil {
			return errors.Wrap(err, "commit")
		}
	}

	if t.root != nil {
		t.header.RootOffset = t.root.fpos
	}
	if err := t.pager.WriteAt(0, t.header.encode()); err != nil {
		return errors.Wrap(err, "commit header")
	}
	if t.syncOnCommit {
		if err := t.pager.Sync(); err != nil {
			return errors.Wrap(err, "commit sync")
		}
	}
	if len(offsets) > 0 {
		t.log.Debug("committed",
			zap.Int("nodes", len(offsets)),
			zap.Uint64("items", t.header.ItemCount),
			zap.Uint64("overflowPages", t.header.OverflowPages))
	}
	return nil
}

// writeNode encodes n and writes its first page and, when it spills, its
// overflow run. A run too small for the node is abandoned for a fresh one at
// the end of the file. ovflPages records the run's capacity, not its use.
func (t *BStarTree) writeNode(n *Node) error {
	buf := encodeNode(n, t.pageSize)
	np := uint64(len(buf) / t.pageSize)
	if np > 1 {
		if n.ovflAddr <= 0 || n.ovflPages < np-1 {
			n.ovflAddr = t.allocOverflow(np - 1)
			n.ovflPages = np - 1
		}
		// a shrunk node keeps the whole run so it can grow back into it
		putOverflow(buf, n)
	}

	if err := t.pager.WriteAt(n.fpos, buf[:t.pageSize]); err != nil {
		return err
	}
	if np > 1 {
		if err := t.pager.WriteAt(n.ovflAddr, buf[t.pageSize:]); err != nil {
			return err
		}
	}
	n.dirty = false
	return nil
}

// Flush commits and drops the whole node graph, root included.
func (t *BStarTree) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pager == nil {
		return ErrNotOpen
	}
	if err := t.flushLocked(); err != nil {
		return err
	}
	return t.pager.Sync()
}

func (t *BStarTree) flushLocked() error {
	if err := t.commitLocked(); err != nil {
		return err
	}
	t.dropAll()
	return nil
}

// Optimize rewrites the store in key order into a fresh file, which drops
// abandoned pages and leaves nodes densely packed, then swaps it in.
func (t *BStarTree) Optimize() error {
	if err := t.lockWrite(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return t.optimizeLocked()
}

func (t *BStarTree) optimizeLocked() error {
	if err := t.commitLocked(); err != nil {
		return err
	}

	ofactor := 1.0
	if t.header.NodePages > 0 {
		ofactor = float64(t.header.OverflowPages)/float64(t.header.NodePages) + 1
	}
	pfactor := int(ofactor)

	fanout, pageSize, cacheSize := t.fanout, t.pageSize, t.cacheSize
	if pfactor > 1 && cacheSize > 0 {
		cacheSize = max(cacheSize/pfactor, 1)
	}
	if t.autoTune && t.header.OverflowPages > 0 {
		pageSize *= pfactor + 1
		fanout = max(int(float64(fanout)/(ofactor/float64(pfactor))), MinFanout)
	}

	swapName := t.fileName + ".swap"
	if err := os.Remove(swapName); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove stale %s", swapName)
	}

	swap := NewBStarTree(swapName, t.cmp)
	swap.SetLogger(t.log)
	swap.SetCacheSize(cacheSize)
	err := errors.CombineErrors(swap.SetFanout(fanout), swap.SetPageSize(pageSize))
	err = errors.CombineErrors(err, swap.SetDelaySplit(t.delaySplit))
	err = errors.CombineErrors(err, swap.SetEvictionPolicy(t.policy))
	err = errors.CombineErrors(err, swap.SetPageCacheBytes(0))
	err = errors.CombineErrors(err, swap.SetAutoTune(t.autoTune, 0))
	if err != nil {
		return errors.Wrap(err, "optimize: configure swap")
	}
	if err := swap.Open(); err != nil {
		return errors.Wrap(err, "optimize: open swap")
	}

	if err := t.dumpLocked(swap); err != nil {
		swap.Close()
		os.Remove(swapName)
		return errors.Wrap(err, "optimize: dump")
	}
	if err := swap.Close(); err != nil {
		os.Remove(swapName)
		return errors.Wrap(err, "optimize: close swap")
	}

	before := t.header.EstimatedFileSize()
	if err := t.closeLocked(); err != nil {
		return err
	}
	if err := os.Rename(swapName, t.fileName); err != nil {
		return errors.Wrapf(err, "optimize: rename %s", swapName)
	}
	t.cacheSize = cacheSize
	t.cacheSizeSet = false
	if err := t.openLocked(); err != nil {
		return err
	}
	if err := t.prepareLocked(); err != nil {
		return err
	}

	t.log.Info("optimized store",
		zap.String("file", t.fileName),
		zap.Int64("sizeBefore", before),
		zap.Int64("sizeAfter", t.header.EstimatedFileSize()),
		zap.Int("fanout", t.fanout),
		zap.Int("pageSize", t.pageSize))
	return nil
}

// dumpLocked streams every record of t, in key order, into the empty
// store dst.
func (t *BStarTree) dumpLocked(dst *BStarTree) error {
	c, err := t.first()
	if err != nil {
		return err
	}
	next := func() ([]byte, []byte, error) {
		if !c.valid {
			return nil, nil, errors.AssertionFailedf("store ran out of records during dump")
		}
		key, val := c.node.keys[c.slot], c.node.vals[c.slot]
		if err := t.prepareLocked(); err != nil {
			return nil, nil, err
		}
		if _, err := t.advance(c, true); err != nil {
			return nil, nil, err
		}
		return key, val, nil
	}

	dst.mu.Lock()
	defer dst.mu.Unlock()
	return dst.bulkLoadLocked(t.header.ItemCount, next)
}
