package heap

import "encoding/binary"

// getU64/setU64 read and write an 8-byte little-endian word at an
// absolute offset into a region's bytes. Every header word, free-list
// pointer, and control-block field is accessed through these two
// functions; nothing else in this package touches buf directly.
func getU64(buf []byte, off uint64) uint64 {
	return binary.LittleEndian.Uint64(buf[off : off+8])
}

func setU64(buf []byte, off uint64, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:off+8], v)
}

// makeHeader packs a header word: bit 0 allocated, bit 1 is-buddy,
// bits >= 2 the size class.
func makeHeader(class int, isBuddy, allocated bool) uint64 {
	h := uint64(class) << classShift
	if isBuddy {
		h |= flagBuddy
	}
	if allocated {
		h |= flagAllocated
	}
	return h
}

func headerClass(h uint64) int     { return int(h >> classShift) }
func headerIsBuddy(h uint64) bool  { return h&flagBuddy != 0 }
func headerAllocated(h uint64) bool { return h&flagAllocated != 0 }

// header/setHeader read and write the header word at a block's start
// address (the offset of its leading 8 bytes, i.e. payload-8).
func (a *Allocator) header(off uint64) uint64       { return getU64(a.buf, off) }
func (a *Allocator) setHeader(off uint64, h uint64) { setU64(a.buf, off, h) }

// buddyRoot and slabRoot return the absolute offset of a free-list
// sentinel root embedded in the control block.
func (a *Allocator) buddyRoot(k int) uint64 {
	return uint64(buddyRootsOffset + k*listNodeSize)
}

func (a *Allocator) slabRoot(p int) uint64 {
	return uint64(slabRootsOffset + p*listNodeSize)
}
