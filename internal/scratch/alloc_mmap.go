//go:build unix

package scratch

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapAllocator backs blocks with private anonymous mappings. Mappings are
// page aligned, which covers any alignment up to the page size.
type MmapAllocator struct{}

var _ Allocator = MmapAllocator{}

func (MmapAllocator) Allocate(size, align int) Block {
	if align > os.Getpagesize() {
		panic(fmt.Sprintf("scratch: alignment %d exceeds page size", align))
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		panic(fmt.Sprintf("scratch: mmap %d bytes: %v", size, err))
	}
	return Block{
		Base:  unsafe.Pointer(unsafe.SliceData(mem)),
		Size:  size,
		Align: align,
		mem:   mem,
	}
}

func (MmapAllocator) Release(b Block) {
	if b.mem == nil {
		return
	}
	if err := unix.Munmap(b.mem); err != nil {
		panic(fmt.Sprintf("scratch: munmap: %v", err))
	}
}

// DefaultAllocator returns the allocator used when none is configured.
func DefaultAllocator() Allocator {
	return MmapAllocator{}
}
