package scratch

import (
	"testing"
	"unsafe"
)

func TestEnsure_NonPositiveReturnsNil(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	defer b.Release()

	for _, n := range []int{0, -1, -4096} {
		if p := b.Ensure(n, 8); p != nil {
			t.Fatalf("Ensure(%d) = %p, want nil", n, p)
		}
	}
	if b.Cap() != 0 {
		t.Fatalf("Cap() = %d after no-op ensures, want 0", b.Cap())
	}
}

func TestEnsure_StableUntilGrowth(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	defer b.Release()

	sizes := []int{64, 16, 64, 1, 200, 100, 200, 4096, 8, 4097}
	var prev unsafe.Pointer
	prevCap := 0
	for i, n := range sizes {
		p := b.Ensure(n, 8)
		if p == nil {
			t.Fatalf("Ensure(%d) returned nil", n)
		}
		grew := n > prevCap
		if i > 0 && !grew && p != prev {
			t.Fatalf("step %d: Ensure(%d) moved the buffer without growth (cap %d)", i, n, prevCap)
		}
		if grew {
			if b.Cap() != n {
				t.Fatalf("step %d: Cap() = %d, want exactly %d after growth", i, b.Cap(), n)
			}
		} else if b.Cap() != prevCap {
			t.Fatalf("step %d: Cap() changed from %d to %d without growth", i, prevCap, b.Cap())
		}
		if b.Cap() < prevCap {
			t.Fatalf("step %d: capacity decreased from %d to %d", i, prevCap, b.Cap())
		}
		prev = p
		prevCap = b.Cap()
	}
}

func TestEnsure_WritableAndAligned(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	defer b.Release()

	p := b.Ensure(128, 16)
	if uintptr(p)%16 != 0 {
		t.Fatalf("pointer %p not 16-byte aligned", p)
	}
	view := b.Bytes(128)
	for i := range view {
		view[i] = byte(i)
	}
	if got := *(*byte)(unsafe.Add(p, 127)); got != 127 {
		t.Fatalf("byte 127 = %d, want 127", got)
	}
}

func TestEnsure_GenerationAdvancesOnReuse(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	defer b.Release()

	b.Ensure(32, 8)
	g1 := b.Generation()
	b.Ensure(16, 8)
	g2 := b.Generation()
	if g2 == g1 {
		t.Fatalf("generation did not advance on reuse")
	}
	b.Ensure(0, 8)
	if b.Generation() != g2 {
		t.Fatalf("generation advanced on a no-op ensure")
	}
}

func TestEnsure_BadAlignmentPanics(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	defer b.Release()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for alignment 12")
		}
	}()
	b.Ensure(16, 12)
}

func TestRelease_AllowsReuse(t *testing.T) {
	b := NewBuffer(MmapAllocator{})
	b.Ensure(64, 8)
	b.Release()
	if b.Cap() != 0 {
		t.Fatalf("Cap() = %d after Release, want 0", b.Cap())
	}
	if p := b.Ensure(8, 8); p == nil {
		t.Fatalf("Ensure after Release returned nil")
	}
	b.Release()
}

func TestLibcAllocator(t *testing.T) {
	alloc, err := NewLibcAllocator()
	if err != nil {
		t.Skipf("libc not available: %v", err)
	}
	b := NewBuffer(alloc)
	defer b.Release()

	p := b.Ensure(24, 32)
	if p == nil || uintptr(p)%32 != 0 {
		t.Fatalf("Ensure(24, 32) = %p, want 32-byte aligned pointer", p)
	}
	// A stricter alignment than the current block forces a fresh block.
	if q := b.Ensure(8, 64); uintptr(q)%64 != 0 {
		t.Fatalf("Ensure(8, 64) = %p, want 64-byte aligned pointer", q)
	}
}

func TestAllocatorByName(t *testing.T) {
	if _, err := AllocatorByName("mmap"); err != nil {
		t.Fatalf("mmap: %v", err)
	}
	if _, err := AllocatorByName("bogus"); err == nil {
		t.Fatalf("expected error for unknown allocator")
	}
}
