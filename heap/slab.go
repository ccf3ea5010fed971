package heap

// Slab subsystem: equal-sized items carved from 64 KiB buddy pages,
// one free list per size class. Pages are taken from the buddy
// subsystem and never returned to it. See spec.md §4.4 step 8, §4.5
// step 2.

// allocateSlabPage grabs a fresh 64 KiB buddy page for slab class p,
// slices it into items of size pageToBytes(p), links every item but
// the first into p's free list, and returns the first item marked
// allocated. The first item reuses the page's own leading header word.
func (a *Allocator) allocateSlabPage(p int) (uint64, error) {
	r, err := a.allocateBuddy(0, false)
	if err != nil {
		return 0, err
	}

	itemSize := pageToBytes(p)
	pageEnd := r + pageBlockSize
	for i := r + itemSize; i+itemSize <= pageEnd; i += itemSize {
		a.setHeader(i-headerSize, makeHeader(p, false, false))
		a.linkHead(a.slabRoot(p), i)
	}
	a.setHeader(r-headerSize, makeHeader(p, false, true))
	return r, nil
}

// freeSlab links a freed item back into its size class's free list.
// Slab pages are never handed back to the buddy subsystem, even if
// every item on the page is subsequently freed (see spec.md §9).
func (a *Allocator) freeSlab(ptr uint64, p int) {
	a.linkHead(a.slabRoot(p), ptr)
}
