// Package heap error definitions
package heap

import "errors"

var (
	// ErrExhausted is returned when no free block of sufficient size
	// exists anywhere in the region, even after the upper-class search.
	// This is the only failure Allocate reports for a non-zero size; see
	// spec.md §7.
	ErrExhausted = errors.New("heap: region exhausted")

	// ErrRegionTooSmall is returned by Init when the supplied region is
	// shorter than MinRegionSize (4 MiB).
	ErrRegionTooSmall = errors.New("heap: region smaller than MinRegionSize")

	// ErrInvalidSize is returned by Allocate for a zero-byte request.
	ErrInvalidSize = errors.New("heap: requested size must be > 0")

	// ErrCorrupt is returned by CheckInvariants when a free-list node's
	// header or linkage does not match what its list requires.
	ErrCorrupt = errors.New("heap: free-list invariant violated")
)
