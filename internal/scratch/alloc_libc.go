//go:build linux && (amd64 || arm64)

package scratch

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const libcName = "libc.so.6"

var (
	libcOnce sync.Once
	libcErr  error

	posixMemalign func(memptr *unsafe.Pointer, alignment, size uintptr) int32
	libcFree      func(ptr unsafe.Pointer)
)

func loadLibc() error {
	libcOnce.Do(func() {
		lib, err := purego.Dlopen(libcName, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libcErr = fmt.Errorf("scratch: loading %s: %w", libcName, err)
			return
		}
		purego.RegisterLibFunc(&posixMemalign, lib, "posix_memalign")
		purego.RegisterLibFunc(&libcFree, lib, "free")
	})
	return libcErr
}

// LibcAllocator obtains blocks from the C allocator, so a host that links the
// same libc sees ordinary malloc'd memory.
type LibcAllocator struct{}

var _ Allocator = LibcAllocator{}

// NewLibcAllocator loads libc and returns the allocator, or an error when the
// library cannot be opened.
func NewLibcAllocator() (LibcAllocator, error) {
	if err := loadLibc(); err != nil {
		return LibcAllocator{}, err
	}
	return LibcAllocator{}, nil
}

func (LibcAllocator) Allocate(size, align int) Block {
	if err := loadLibc(); err != nil {
		panic(err.Error())
	}
	// posix_memalign requires a multiple of sizeof(void*).
	a := align
	if word := int(unsafe.Sizeof(uintptr(0))); a < word {
		a = word
	}
	var p unsafe.Pointer
	if rc := posixMemalign(&p, uintptr(a), uintptr(size)); rc != 0 || p == nil {
		panic(fmt.Sprintf("scratch: posix_memalign(%d, %d) failed with %d", a, size, rc))
	}
	return Block{Base: p, Size: size, Align: a}
}

func (LibcAllocator) Release(b Block) {
	if b.Base == nil {
		return
	}
	libcFree(b.Base)
}

// AllocatorByName maps a configuration value to an allocator.
func AllocatorByName(name string) (Allocator, error) {
	switch name {
	case "", "mmap":
		return MmapAllocator{}, nil
	case "libc":
		return NewLibcAllocator()
	default:
		return nil, fmt.Errorf("scratch: unknown allocator %q", name)
	}
}
