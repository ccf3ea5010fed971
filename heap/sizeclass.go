package heap

import "math/bits"

// Size-class mapping: two monotone mappings from requested bytes to
// class index, and their inverses. See spec.md §4.1.
//
// bytesToPage/pageToBytes reproduce the three-branch ladder from the
// original C allocator this spec was distilled from
// (original_source/src/allocator/allocator.c), which resolves the
// boundary behavior spec.md's prose table only approximates (e.g. slab
// class 32 holds 1984-byte items, not 2048 — verified against the
// reference size_ladder in the original's whitebox test). bytesToBuddy
// deliberately does NOT reproduce the original's formula: tracing it
// (bytes_to_width(size-1)-15, which nests a second -1 inside
// bytes_to_width) shows it returns buddy class 2 for the first byte
// above a class-1 boundary instead of 1, off by one from the original's
// own stated invariant. spec.md §4.1 gives an unambiguous closed form,
// so we implement that directly; see DESIGN.md.

// normalizeSize rounds a caller-requested size up to include the
// 8-byte header and 8-byte alignment.
func normalizeSize(s uint64) uint64 {
	return (s + headerSize + 7) &^ 7
}

// bytesToBuddy returns the smallest buddy class k with
// buddyToBytes(k) >= s, for s > 65536. For s <= 65536 it returns 0.
func bytesToBuddy(s uint64) int {
	if s <= pageBlockSize {
		return 0
	}
	// ceil(log2 s) - 16; bits.Len64(s-1) == ceil(log2 s) for all s >= 1.
	return bits.Len64(s-1) - 16
}

// buddyToBytes returns the byte size of buddy class k.
func buddyToBytes(k int) uint64 {
	return uint64(1) << (uint(k) + 16)
}

// bytesToPage returns the smallest slab class p with
// pageToBytes(p) >= s, for 1 <= s <= 32768.
func bytesToPage(s uint64) int {
	switch {
	case s <= 96:
		return int((s+31)/32) - 1
	case s <= 1920:
		return int((s-65)/64) + 3
	default:
		return 65 - int(8192/((s+7)/8))
	}
}

// pageToBytes returns the item byte size (including its 8-byte header)
// of slab class p.
func pageToBytes(p int) uint64 {
	switch {
	case p <= 2:
		return uint64(32 * (p + 1))
	case p < 32:
		return uint64(64*(p-3) + 128)
	default:
		return uint64(8192/(65-p)) * 8
	}
}
