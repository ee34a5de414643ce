package bstar

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Page layout (8-byte words, little endian):
//
//	leafFlag(1) | count(8) | [count+1 child offsets, internal only] |
//	overflowAddr(8) | overflowPages(8) | count x (keyLen(8) key valLen(8) val)
//
// Entries that do not fit in the first page continue in the overflow run.
// The word after the last entry of the first page stays zero: a zero keyLen
// tells the decoder to switch to the overflow run. Keys are never empty,
// so the sentinel cannot be confused with a real entry.
const (
	leafFlagSize   = 1
	wordSize       = 8
	nodeHeaderSize = leafFlagSize + wordSize // flag + count
	overflowFields = 2 * wordSize
)

func overflowFieldOffset(isLeaf bool, count int) int {
	if isLeaf {
		return nodeHeaderSize
	}
	return nodeHeaderSize + (count+1)*wordSize
}

// encodeNode serializes n. The result is a whole number of pages: the first
// page goes to n.fpos, the rest to the overflow run.
func encodeNode(n *Node, pageSize int) []byte {
	count := len(n.keys)
	buf := make([]byte, pageSize)

	if n.isLeaf {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint64(buf[leafFlagSize:], uint64(count))
	off := nodeHeaderSize
	if !n.isLeaf {
		for _, c := range n.children {
			binary.LittleEndian.PutUint64(buf[off:], uint64(c.fpos))
			off += wordSize
		}
	}
	putOverflow(buf, n)
	off += overflowFields

	limit := pageSize - wordSize // keep room for the sentinel
	spilled := false
	for i, key := range n.keys {
		val := n.vals[i]
		need := 2*wordSize + len(key) + len(val)
		if !spilled && off+need > limit {
			spilled = true
			off = pageSize
		}
		if off+need > len(buf) {
			grown := make([]byte, roundUp(off+need, pageSize))
			copy(grown, buf)
			buf = grown
		}
		binary.LittleEndian.PutUint64(buf[off:], uint64(len(key)))
		off += wordSize
		off += copy(buf[off:], key)
		binary.LittleEndian.PutUint64(buf[off:], uint64(len(val)))
		off += wordSize
		off += copy(buf[off:], val)
	}
	return buf
}

// putOverflow patches the overflow run fields of an encoded first page.
func putOverflow(buf []byte, n *Node) {
	off := overflowFieldOffset(n.isLeaf, len(n.keys))
	binary.LittleEndian.PutUint64(buf[off:], uint64(n.ovflAddr))
	binary.LittleEndian.PutUint64(buf[off+wordSize:], n.ovflPages)
}

// peekNode reads the leaf flag, record count and child offsets of a first
// page. off is where the overflow fields start.
func peekNode(fpos int64, page []byte, fanout int) (isLeaf bool, count int, childOffs []int64, off int, err error) {
	if len(page) < nodeHeaderSize+overflowFields {
		return false, 0, nil, 0, errors.Wrapf(ErrCorrupt, "node %d: page too short (%d bytes)", fpos, len(page))
	}
	if page[0] > 1 {
		return false, 0, nil, 0, errors.Wrapf(ErrCorrupt, "node %d: bad leaf flag %d", fpos, page[0])
	}
	isLeaf = page[0] == 1
	rawCount := binary.LittleEndian.Uint64(page[leafFlagSize:])
	if rawCount > uint64(fanout) {
		return false, 0, nil, 0, errors.Wrapf(ErrCorrupt, "node %d: count %d over fanout %d", fpos, rawCount, fanout)
	}
	count = int(rawCount)

	off = nodeHeaderSize
	if !isLeaf {
		if off+(count+1)*wordSize+overflowFields > len(page) {
			return false, 0, nil, 0, errors.Wrapf(ErrCorrupt, "node %d: child table overruns page", fpos)
		}
		childOffs = make([]int64, count+1)
		for i := range childOffs {
			childOffs[i] = int64(binary.LittleEndian.Uint64(page[off:]))
			off += wordSize
		}
	}
	return isLeaf, count, childOffs, off, nil
}

// decodeNode fills the stub n from its first page. readOverflow is called at
// most once, when the continuation sentinel is met.
func decodeNode(n *Node, page []byte, fanout int, readOverflow func(addr int64, pages uint64) ([]byte, error)) error {
	isLeaf, count, childOffs, off, err := peekNode(n.fpos, page, fanout)
	if err != nil {
		return err
	}
	ovflAddr := int64(binary.LittleEndian.Uint64(page[off:]))
	ovflPages := binary.LittleEndian.Uint64(page[off+wordSize:])
	off += overflowFields

	keys := make([][]byte, 0, count)
	vals := make([][]byte, 0, count)
	buf := page
	inOverflow := false
	for i := 0; i < count; i++ {
		if !inOverflow && (off+wordSize > len(buf) || binary.LittleEndian.Uint64(buf[off:]) == 0) {
			if ovflAddr <= 0 || ovflPages == 0 {
				return errors.Wrapf(ErrCorrupt, "node %d: entry %d continues in a missing overflow run", n.fpos, i)
			}
			run, err := readOverflow(ovflAddr, ovflPages)
			if err != nil {
				return errors.Wrapf(err, "node %d: read overflow run at %d", n.fpos, ovflAddr)
			}
			buf, off, inOverflow = run, 0, true
		}

		key, next, err := readField(buf, off)
		if err != nil || len(key) == 0 {
			return errors.Wrapf(ErrCorrupt, "node %d: bad key %d", n.fpos, i)
		}
		val, next, err := readField(buf, next)
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "node %d: bad value %d", n.fpos, i)
		}
		off = next
		keys = append(keys, key)
		vals = append(vals, val)
	}

	n.isLeaf = isLeaf
	n.keys = keys
	n.vals = vals
	n.children = nil
	if !isLeaf {
		n.children = make([]*Node, len(childOffs))
		for i, c := range childOffs {
			n.children[i] = &Node{fpos: c, childNo: i, parent: n}
		}
	}
	n.ovflAddr = ovflAddr
	n.ovflPages = ovflPages
	n.loaded = true
	n.dirty = false
	return nil
}

// readField reads one length-prefixed field and returns a copy of it.
func readField(buf []byte, off int) ([]byte, int, error) {
	if off+wordSize > len(buf) {
		return nil, off, errors.New("length overruns buffer")
	}
	ln := binary.LittleEndian.Uint64(buf[off:])
	off += wordSize
	if ln > uint64(len(buf)-off) {
		return nil, off, errors.New("field overruns buffer")
	}
	out := make([]byte, ln)
	copy(out, buf[off:off+int(ln)])
	return out, off + int(ln), nil
}

func roundUp(n, page int) int {
	return (n + page - 1) / page * page
}
