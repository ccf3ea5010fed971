package heap

import "testing"

func TestBuddyMappingInverses(t *testing.T) {
	for k := 0; k <= 31; k++ {
		v := buddyToBytes(k)
		if got := bytesToBuddy(v); got != k {
			t.Errorf("bytesToBuddy(buddyToBytes(%d)=%d) = %d, want %d", k, v, got, k)
		}
		if got := bytesToBuddy(v + 1); got != k+1 {
			t.Errorf("bytesToBuddy(%d+1) = %d, want %d", v, got, k+1)
		}
		if k >= 1 {
			// v-1 > 65536 still needs a full class-k block.
			if got := bytesToBuddy(v - 1); got != k {
				t.Errorf("bytesToBuddy(%d-1) = %d, want %d", v, got, k)
			}
		}
	}
}

func TestSlabMappingInverses(t *testing.T) {
	for s := uint64(1); s <= 32768; s++ {
		p := bytesToPage(s)
		if p < 0 || p >= SlabClasses {
			t.Fatalf("bytesToPage(%d) = %d out of range", s, p)
		}
		if pageToBytes(p) < s {
			t.Fatalf("pageToBytes(bytesToPage(%d)=%d) = %d < %d", s, p, pageToBytes(p), s)
		}
		if p > 0 && pageToBytes(p-1) >= s {
			t.Fatalf("pageToBytes(bytesToPage(%d)-1=%d) = %d >= %d", s, p-1, pageToBytes(p-1), s)
		}
	}
}

func TestSlabLadderMatchesReferenceImplementation(t *testing.T) {
	// Reference ladder from the original C allocator's whitebox test
	// (allocator-test.c's size_ladder), reversed to index by class.
	want := []uint64{
		32, 64, 96, 128, 192, 256, 320, 384, 448, 512, 576, 640, 704, 768,
		832, 896, 960, 1024, 1088, 1152, 1216, 1280, 1344, 1408, 1472, 1536,
		1600, 1664, 1728, 1792, 1856, 1920, 1984, 2048, 2112, 2184, 2256,
		2336, 2424, 2520, 2616, 2728, 2848, 2976, 3120, 3272, 3448, 3640,
		3848, 4096, 4368, 4680, 5040, 5456, 5952, 6552, 7280, 8192, 9360,
		10920, 13104, 16384, 21840, 32768,
	}
	if len(want) != SlabClasses {
		t.Fatalf("reference ladder has %d entries, want %d", len(want), SlabClasses)
	}
	for p, size := range want {
		if got := pageToBytes(p); got != size {
			t.Errorf("pageToBytes(%d) = %d, want %d", p, got, size)
		}
	}
}

func TestNormalizeSize(t *testing.T) {
	cases := []struct {
		size uint64
		want uint64
	}{
		{1, 16},
		{8, 16},
		{9, 24},
		{100, 112},
		{32768, 32776},
	}
	for _, c := range cases {
		if got := normalizeSize(c.size); got != c.want {
			t.Errorf("normalizeSize(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
