package heap

// Allocate returns an 8-byte-aligned pointer (an offset into Bytes())
// to at least size writable bytes, or ErrExhausted (ErrInvalidSize for
// a zero size). See spec.md §4.4.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, ErrInvalidSize
	}
	s := normalizeSize(size)

	if s <= MaxSlabSize {
		p := bytesToPage(s)
		root := a.slabRoot(p)
		if !a.isEmpty(root) {
			node := a.listHead(root)
			a.unlink(node)
			a.setHeader(node-headerSize, makeHeader(p, false, true))
			Debug("allocate %d bytes: slab class %d, reused item @%d", size, p, node)
			return node, nil
		}
		ptr, err := a.allocateSlabPage(p)
		if err != nil {
			return 0, err
		}
		Debug("allocate %d bytes: slab class %d, fresh page, item @%d", size, p, ptr)
		return ptr, nil
	}

	ptr, err := a.allocateBuddy(bytesToBuddy(s), true)
	if err != nil {
		return 0, err
	}
	Debug("allocate %d bytes: buddy class %d @%d", size, bytesToBuddy(s), ptr)
	return ptr, nil
}

// Free releases a pointer previously returned by Allocate on this
// allocator. Freeing an invalid or already-freed pointer is undefined
// behavior; see spec.md §7.
func (a *Allocator) Free(ptr uint64) {
	headerOff := ptr - headerSize
	h := a.header(headerOff) &^ flagAllocated
	a.setHeader(headerOff, h)

	if !headerIsBuddy(h) {
		p := headerClass(h)
		a.freeSlab(ptr, p)
		Debug("free %d: slab class %d", ptr, p)
		return
	}
	k := headerClass(h)
	a.freeBuddy(headerOff, k)
	Debug("free %d: buddy class %d", ptr, k)
}

// Stats summarizes how much of the region is free, per subsystem.
type Stats struct {
	TotalBytes      uint64
	PayloadBytes    uint64
	FreeBuddyBytes  uint64
	FreeSlabItems   [SlabClasses]int
	FreeBuddyBlocks [BuddyClasses]int
}

// Stats walks every free list once to report the region's current
// occupancy. It is a diagnostic, not a fast path.
func (a *Allocator) Stats() Stats {
	st := Stats{
		TotalBytes:   uint64(len(a.buf)),
		PayloadBytes: uint64(len(a.buf)) - payloadBase,
	}
	for k := 0; k < BuddyClasses; k++ {
		n := a.listLen(a.buddyRoot(k))
		st.FreeBuddyBlocks[k] = n
		st.FreeBuddyBytes += uint64(n) * buddyToBytes(k)
	}
	for p := 0; p < SlabClasses; p++ {
		st.FreeSlabItems[p] = a.listLen(a.slabRoot(p))
	}
	return st
}

func (a *Allocator) listLen(root uint64) int {
	n := 0
	for cur := a.listHead(root); cur != root; cur = a.listHead(cur) {
		n++
	}
	return n
}

// CheckInvariants walks every free list and verifies the header,
// offset, and linkage invariants spec.md §8 requires to hold after
// every Allocate/Free. It is the stable, callable equivalent of the
// original allocator's whitebox-test-only check_heap.
func (a *Allocator) CheckInvariants() error {
	for k := 0; k < BuddyClasses; k++ {
		root := a.buddyRoot(k)
		want := makeHeader(k, true, false)
		size := buddyToBytes(k)
		prev := root
		for cur := a.listHead(root); cur != root; cur = a.listHead(cur) {
			if a.header(cur-headerSize) != want {
				return ErrCorrupt
			}
			if (cur-headerSize-payloadBase)%size != 0 {
				return ErrCorrupt
			}
			if getU64(a.buf, cur+8) != prev {
				return ErrCorrupt
			}
			prev = cur
		}
		if getU64(a.buf, root+8) != prev {
			return ErrCorrupt
		}
	}
	for p := 0; p < SlabClasses; p++ {
		root := a.slabRoot(p)
		want := makeHeader(p, false, false)
		size := pageToBytes(p)
		prev := root
		for cur := a.listHead(root); cur != root; cur = a.listHead(cur) {
			if a.header(cur-headerSize) != want {
				return ErrCorrupt
			}
			if (cur-headerSize-payloadBase)%pageBlockSize%size != 0 {
				return ErrCorrupt
			}
			if getU64(a.buf, cur+8) != prev {
				return ErrCorrupt
			}
			prev = cur
		}
		if getU64(a.buf, root+8) != prev {
			return ErrCorrupt
		}
	}
	return nil
}
