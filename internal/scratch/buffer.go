// Package scratch provides grow-only, reusable raw memory regions that can be
// handed across the C boundary without a matching free call.
//
// Memory comes from an Allocator that hands out storage outside the Go heap,
// so the returned pointers are legal to pass to C and are never moved or
// collected. A pointer returned by Ensure stays valid only until the next
// Ensure on the same Buffer; callers on the far side must copy out before
// calling again.
package scratch

import (
	"fmt"
	"unsafe"
)

// Block is one allocation made by an Allocator.
type Block struct {
	Base  unsafe.Pointer
	Size  int
	Align int

	mem []byte // backing mapping for allocators that need it on release
}

// Allocator hands out raw storage outside the Go heap. Allocate panics if the
// request cannot be satisfied.
type Allocator interface {
	Allocate(size, align int) Block
	Release(b Block)
}

// Buffer is a grow-only scratch region owned by a single export. It is not
// safe for concurrent use; confine it to one thread or guard it externally.
type Buffer struct {
	alloc      Allocator
	block      Block
	generation uint64
}

// NewBuffer returns an empty buffer drawing storage from alloc.
func NewBuffer(alloc Allocator) *Buffer {
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	return &Buffer{alloc: alloc}
}

// Ensure guarantees at least byteCount writable bytes aligned to alignment and
// returns the base pointer, or nil when byteCount <= 0.
//
// Storage is replaced only when it is missing, too small, or not aligned to
// the requested alignment; the replacement is exactly byteCount bytes and the
// previous storage is released. Capacity never shrinks. Every successful call
// advances the generation, since the caller is about to overwrite the region.
func (b *Buffer) Ensure(byteCount, alignment int) unsafe.Pointer {
	if byteCount <= 0 {
		return nil
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		panic(fmt.Sprintf("scratch: alignment %d is not a power of two", alignment))
	}

	if b.block.Base == nil || b.block.Size < byteCount || uintptr(b.block.Base)%uintptr(alignment) != 0 {
		next := b.alloc.Allocate(byteCount, alignment)
		if b.block.Base != nil {
			b.alloc.Release(b.block)
		}
		b.block = next
	}

	b.generation++
	return b.block.Base
}

// Cap returns the current capacity in bytes.
func (b *Buffer) Cap() int {
	return b.block.Size
}

// Generation identifies the current contents. It changes whenever Ensure hands
// the region out again, so a holder of an older generation knows its view is
// stale.
func (b *Buffer) Generation() uint64 {
	return b.generation
}

// Bytes returns a Go view of the first n bytes of the current region.
// n must not exceed Cap.
func (b *Buffer) Bytes(n int) []byte {
	if n <= 0 || b.block.Base == nil {
		return nil
	}
	if n > b.block.Size {
		panic(fmt.Sprintf("scratch: view of %d bytes exceeds capacity %d", n, b.block.Size))
	}
	return unsafe.Slice((*byte)(b.block.Base), n)
}

// Release frees the storage. The buffer can be reused afterwards and will
// allocate again on the next Ensure.
func (b *Buffer) Release() {
	if b.block.Base == nil {
		return
	}
	b.alloc.Release(b.block)
	b.block = Block{}
	b.generation++
}
