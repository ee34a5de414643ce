// Package bstar: store file inspection and consistency checks for debugging.
// Use InspectFile(path) to print a human-readable dump of a store file.

package bstar

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ReadHeader reads and validates the header of a store file without
// opening the tree.
func ReadHeader(path string) (FileHeader, error) {
	pager, err := NewOnDiskPager(path, 0)
	if err != nil {
		return FileHeader{}, err
	}
	defer pager.Close()

	buf, err := pager.ReadAt(0, HeaderSize)
	if err != nil {
		return FileHeader{}, err
	}
	return decodeHeader(buf)
}

// InspectFile opens a store file and prints its structure to stdout.
func InspectFile(path string) error {
	return InspectFileTo(os.Stdout, path, -1)
}

// InspectFileTo writes a human-readable dump of the store file to w: the
// header, then every node level by level. maxLevels < 0 dumps all levels.
func InspectFileTo(w io.Writer, path string, maxLevels int) error {
	return inspect(w, path, maxLevels, true)
}

// InspectNodesTo is InspectFileTo without the header summary.
func InspectNodesTo(w io.Writer, path string, maxLevels int) error {
	return inspect(w, path, maxLevels, false)
}

func inspect(w io.Writer, path string, maxLevels int, withHeader bool) error {
	pager, err := NewOnDiskPager(path, 0)
	if err != nil {
		return err
	}
	defer pager.Close()

	meta, err := pager.ReadAt(0, HeaderSize)
	if err != nil {
		return errors.Wrap(err, "read header")
	}
	h, err := decodeHeader(meta)
	if err != nil {
		return err
	}

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	if withHeader {
		p("Store file: %s\n", path)
		WriteHeaderSummary(w, h)
	}
	if h.ItemCount == 0 {
		pln("  (empty tree)")
		return nil
	}

	pln("\n  Nodes (BFS):")
	pln("  ---")

	pageSize := int(h.PageSize)
	readOverflow := func(addr int64, pages uint64) ([]byte, error) {
		return pager.ReadAt(addr, int(pages)*pageSize)
	}

	queue := []int64{h.RootOffset}
	for level := 0; len(queue) > 0 && (maxLevels < 0 || level < maxLevels); level++ {
		size := len(queue)
		p("  Level %d:\n", level)
		for _, off := range queue[:size] {
			page, err := pager.ReadAt(off, pageSize)
			if err != nil {
				p("    [node %d] read error: %v\n", off, err)
				continue
			}
			n := &Node{fpos: off}
			if err := decodeNode(n, page, int(h.Fanout), readOverflow); err != nil {
				p("    [node %d] decode error: %v\n", off, err)
				continue
			}

			kind := "LEAF"
			if !n.isLeaf {
				kind = "INTERNAL"
			}
			p("    [node %d] %s count=%d", off, kind, len(n.keys))
			if n.ovflPages > 0 {
				p(" overflow=%d+%d", n.ovflAddr, n.ovflPages)
			}
			pln("")
			for i, k := range n.keys {
				p("      %s -> %s\n", formatBytes(k), formatBytes(n.vals[i]))
			}
			for _, c := range n.children {
				queue = append(queue, c.fpos)
			}
		}
		pln("  ---")
		queue = queue[size:]
	}
	return nil
}

// WriteHeaderSummary prints the header fields and derived averages.
func WriteHeaderSummary(w io.Writer, h FileHeader) {
	fmt.Fprintf(w, "  magic=%#x fanout=%d pageSize=%d cacheSize=%d\n", h.Magic, h.Fanout, h.PageSize, h.CacheSize)
	fmt.Fprintf(w, "  items=%d root=%d nodePages=%d overflowPages=%d\n", h.ItemCount, h.RootOffset, h.NodePages, h.OverflowPages)
	fmt.Fprintf(w, "  fileSize~%d items/node=%.2f overflow/node=%.2f\n", h.EstimatedFileSize(), h.ItemsPerNode(), h.OverflowPerNode())
}

// formatBytes shows printable UTF-8 quoted, anything else as hex. Long
// values are cut.
func formatBytes(b []byte) string {
	const limit = 32
	cut := ""
	if len(b) > limit {
		b, cut = b[:limit], fmt.Sprintf("...(%d bytes)", len(b))
	}
	if utf8.Valid(b) {
		printable := true
		for _, r := range string(b) {
			if r < 0x20 || r == 0x7f {
				printable = false
				break
			}
		}
		if printable {
			return fmt.Sprintf("%q%s", string(b), cut)
		}
	}
	return fmt.Sprintf("%x%s", b, cut)
}

// Stats returns a snapshot of the tree's counters.
func (t *BStarTree) Stats() (Stats, error) {
	if err := t.lockRead(); err != nil {
		return Stats{}, err
	}
	defer t.mu.RUnlock()

	s := Stats{
		FileName:      t.fileName,
		Fanout:        t.fanout,
		PageSize:      t.pageSize,
		CacheSize:     t.cacheSize,
		Policy:        t.policy,
		ItemCount:     t.header.ItemCount,
		ActiveNodes:   t.activeNodes.Load(),
		NodePages:     t.header.NodePages,
		OverflowPages: t.header.OverflowPages,
	}
	for _, n := range t.liveNodes() {
		if n.dirty {
			s.DirtyNodes++
		}
	}
	size, err := t.pager.Size()
	if err != nil {
		return s, err
	}
	s.FileSize = size
	s.PageCacheHits, s.PageCacheMiss = t.pager.CacheCounters()
	return s, nil
}

// Verify walks the whole tree and checks key order, child counts, fill
// and leaf depth, and that the item count matches.
func (t *BStarTree) Verify() error {
	if err := t.lockRead(); err != nil {
		return err
	}
	defer t.mu.RUnlock()

	v := &verifier{t: t, leafDepth: -1}
	if err := v.check(t.root, nil, nil, 0); err != nil {
		return err
	}
	if v.count != t.header.ItemCount {
		return errors.Wrapf(ErrCorrupt, "counted %d records, header says %d", v.count, t.header.ItemCount)
	}
	return nil
}

type verifier struct {
	t         *BStarTree
	leafDepth int
	count     uint64
}

func (v *verifier) check(n *Node, lo, hi []byte, depth int) error {
	t := v.t
	if len(n.keys) > t.fanout {
		return errors.Wrapf(ErrCorrupt, "node %d holds %d records, fanout %d", n.fpos, len(n.keys), t.fanout)
	}
	if n != t.root && len(n.keys) < t.minKeys() {
		return errors.Wrapf(ErrCorrupt, "node %d holds %d records, minimum %d", n.fpos, len(n.keys), t.minKeys())
	}
	for i, k := range n.keys {
		if i > 0 && t.cmp(n.keys[i-1], k) >= 0 {
			return errors.Wrapf(ErrCorrupt, "node %d: keys out of order at %d", n.fpos, i)
		}
		if (lo != nil && t.cmp(k, lo) <= 0) || (hi != nil && t.cmp(k, hi) >= 0) {
			return errors.Wrapf(ErrCorrupt, "node %d: key %d outside parent bounds", n.fpos, i)
		}
	}
	v.count += uint64(len(n.keys))

	if n.isLeaf {
		if v.leafDepth < 0 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return errors.Wrapf(ErrCorrupt, "leaf %d at depth %d, others at %d", n.fpos, depth, v.leafDepth)
		}
		return nil
	}
	if len(n.children) != len(n.keys)+1 {
		return errors.Wrapf(ErrCorrupt, "node %d: %d children for %d keys", n.fpos, len(n.children), len(n.keys))
	}
	for i := range n.children {
		c, err := t.loadChild(n, i)
		if err != nil {
			return err
		}
		clo, chi := lo, hi
		if i > 0 {
			clo = n.keys[i-1]
		}
		if i < len(n.keys) {
			chi = n.keys[i]
		}
		if err := v.check(c, clo, chi, depth+1); err != nil {
			return err
		}
	}
	return nil
}
