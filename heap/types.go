// Package heap implements a fixed-region hybrid allocator: a buddy
// allocator for 64 KiB blocks and larger, composed with a segregated
// slab allocator carved out of 64 KiB pages for requests at or below
// 32 KiB. The allocator owns no memory of its own — it operates over
// a single contiguous byte slice handed to it at Init/Attach time,
// typically the bytes of a memory-mapped file (see the region
// package), so that the heap built on top of it can survive a process
// restart.
//
// The allocator is not safe for concurrent use. Every call to
// Allocate/Free/CheckInvariants/Stats on the same *Allocator must be
// externally serialized by the caller.
package heap

const (
	headerSize    = 8  // bytes: one uint64 header word per block/item
	listNodeSize  = 16 // bytes: next(8) + prev(8) of a free-list node

	// BuddyClasses is the number of buddy size classes: class 0 is the
	// 64 KiB page, class 31 is 2^47 bytes.
	BuddyClasses = 32

	// SlabClasses is the number of slab size classes carved from 64 KiB
	// pages, covering item sizes (including header) from 32 to 32768
	// bytes.
	SlabClasses = 64

	// pageBlockSize is the size of one buddy class-0 block, and of one
	// slab page once it has been dedicated to a size class.
	pageBlockSize = 64 * 1024

	// MaxSlabSize is the largest normalized request size still served
	// from a slab page; anything larger is a direct buddy allocation.
	MaxSlabSize = 32768

	// MinRegionSize is the smallest region Init will accept: enough to
	// hold the control block plus at least one 64 KiB buddy block.
	MinRegionSize = 4 * 1024 * 1024

	// Header word bit layout: bit 0 allocated, bit 1 is-buddy, bits >= 2
	// the size-class index (k for buddy, p for slab).
	flagAllocated = uint64(1) << 0
	flagBuddy     = uint64(1) << 1
	classShift    = 2

	// Control block layout: a region-length word, then the buddy free
	// list roots, then the slab free list roots. Everything after this
	// is payload space.
	buddyRootsOffset = headerSize
	slabRootsOffset  = buddyRootsOffset + BuddyClasses*listNodeSize
	controlBlockSize = slabRootsOffset + SlabClasses*listNodeSize
)

// payloadBase is the first payload byte, and the logical offset-zero
// of the buddy XOR address space. The control block itself is never
// part of that space.
const payloadBase = uint64(controlBlockSize)

// Allocator is a handle over a region's bytes. Its zero value is not
// usable; obtain one via Init or Attach.
type Allocator struct {
	buf []byte
}

// Bytes returns the underlying region bytes the allocator operates
// over. Callers needing to flush a persistent backing (e.g. msync) use
// this to get at the raw slice.
func (a *Allocator) Bytes() []byte { return a.buf }
