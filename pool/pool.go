// Package pool layers a size-tiered free-block cache on top of a
// heap.Allocator, trading a fixed pre-allocation cost for O(n-per-tier)
// reuse of recently-freed blocks instead of going through the
// allocator's own free lists on every call. It is meant for workloads
// that cycle through a stable set of block sizes repeatedly, the way
// the teacher's mpool package did for its stress-test driver.
package pool

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shenjiangwei/fixedheap/heap"
)

const (
	kb = 1024
	mb = 1024 * 1024

	// Tier size ranges. The medium and large maxes sit below the 1 MiB
	// and 4 MiB buddy boundaries; the small max is the 32 KiB slab
	// ceiling itself, so a request right at it is rounded past the slab
	// path into a 64 KiB buddy block.
	smallMinSize, smallMaxSize   = 4 * kb, 32 * kb
	mediumMinSize, mediumMaxSize = 128 * kb, 960 * kb
	largeMinSize, largeMaxSize   = 1 * mb, 3 * mb

	// Tier ratio, matching the teacher's mpool proportions
	// (20000:10000:5000 pre-allocated blocks = 4:2:1).
	smallRatio, mediumRatio, largeRatio = 4, 2, 1

	// perUnitWorstCaseBytes is the requested size of one "ratio unit" of
	// tiers (smallRatio small blocks + mediumRatio medium blocks +
	// largeRatio large blocks, every one at its tier's maximum size). It
	// counts requested bytes, not the larger power-of-two buddy blocks
	// those requests occupy once rounded up.
	perUnitWorstCaseBytes = smallRatio*smallMaxSize + mediumRatio*mediumMaxSize + largeRatio*largeMaxSize

	// poolBudgetNumerator/Denominator caps how much of the allocator's
	// payload capacity New is willing to commit to pre-allocated tiers,
	// so priming a pool never comes close to exhausting the region on
	// its own.
	poolBudgetNumerator, poolBudgetDenominator = 1, 2
)

// Stats reports how often Allocate/Free were served from the
// pre-allocated tiers versus falling through to the underlying
// allocator.
type Stats struct {
	TotalAllocations uint64
	Hits             uint64
	Misses           uint64
	TotalFrees       uint64
	FreeHits         uint64
	FreeMisses       uint64
}

type tier struct {
	blocks []uint64
	sizes  []uint64
	used   []bool
}

func newTier(a *heap.Allocator, count int, minSize, span uint64) (tier, error) {
	t := tier{
		blocks: make([]uint64, count),
		sizes:  make([]uint64, count),
		used:   make([]bool, count),
	}
	for i := 0; i < count; i++ {
		size := minSize + uint64(rand.Int63n(int64(span)))
		ptr, err := a.Allocate(size)
		if err != nil {
			return tier{}, fmt.Errorf("pre-allocate tier block %d: %w", i, err)
		}
		t.blocks[i] = ptr
		t.sizes[i] = size
	}
	return t, nil
}

func (t *tier) acquire(size uint64) (uint64, bool) {
	for i := range t.blocks {
		if !t.used[i] && t.sizes[i] >= size {
			t.used[i] = true
			return t.blocks[i], true
		}
	}
	return 0, false
}

func (t *tier) release(ptr uint64) bool {
	for i := range t.blocks {
		if t.blocks[i] == ptr {
			t.used[i] = false
			return true
		}
	}
	return false
}

// Pool wraps a heap.Allocator with small/medium/large pre-allocated
// tiers. A Pool is safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	allocator *heap.Allocator
	small     tier
	medium    tier
	large     tier
	stats     Stats
}

// ErrRegionTooSmall is returned by New when the allocator's region
// cannot hold even one ratio unit (smallRatio+mediumRatio+largeRatio
// blocks, one of each at its tier's maximum size) within the pool's
// budget.
var ErrRegionTooSmall = errors.New("pool: region too small to prime any tier")

// New sizes the small/medium/large tiers as a multiple of the teacher's
// 4:2:1 ratio, scaled to however many ratio units fit within half of
// allocator's payload capacity — so, unlike a fixed pre-allocation
// count, New's own pre-allocation can never itself exhaust the region
// it is handed, on any region size heap.Init accepts.
func New(allocator *heap.Allocator) (*Pool, error) {
	budget := allocator.Stats().PayloadBytes * poolBudgetNumerator / poolBudgetDenominator
	units := budget / perUnitWorstCaseBytes
	if units < 1 {
		return nil, ErrRegionTooSmall
	}

	smallCount := int(units * smallRatio)
	mediumCount := int(units * mediumRatio)
	largeCount := int(units * largeRatio)

	small, err := newTier(allocator, smallCount, smallMinSize, smallMaxSize-smallMinSize)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	medium, err := newTier(allocator, mediumCount, mediumMinSize, mediumMaxSize-mediumMinSize)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	large, err := newTier(allocator, largeCount, largeMinSize, largeMaxSize-largeMinSize)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	heap.Info("pool primed: %d ratio units (%d small, %d medium, %d large blocks)", units, smallCount, mediumCount, largeCount)
	return &Pool{allocator: allocator, small: small, medium: medium, large: large}, nil
}

func (p *Pool) tierFor(size uint64) *tier {
	switch {
	case size <= smallMaxSize:
		return &p.small
	case size <= mediumMaxSize:
		return &p.medium
	case size <= largeMaxSize:
		return &p.large
	default:
		return nil
	}
}

// Allocate returns a block of at least size bytes, preferring an
// unused pre-allocated block from the matching tier before falling
// through to the underlying allocator.
func (p *Pool) Allocate(size uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalAllocations++
	if t := p.tierFor(size); t != nil {
		if ptr, ok := t.acquire(size); ok {
			p.stats.Hits++
			return ptr, nil
		}
	}
	p.stats.Misses++
	return p.allocator.Allocate(size)
}

// Free returns a block to its tier if it was a pre-allocated block, or
// frees it through the underlying allocator otherwise.
func (p *Pool) Free(ptr uint64, size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalFrees++
	if t := p.tierFor(size); t != nil && t.release(ptr) {
		p.stats.FreeHits++
		return
	}
	p.stats.FreeMisses++
	p.allocator.Free(ptr)
}

// Stats returns a snapshot of the pool's hit/miss counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close frees every pre-allocated tier block back through the
// underlying allocator. The Pool must not be used afterward.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range []tier{p.small, p.medium, p.large} {
		for _, ptr := range t.blocks {
			p.allocator.Free(ptr)
		}
	}
	return nil
}
