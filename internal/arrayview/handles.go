package arrayview

import (
	"unsafe"

	"github.com/1broseidon/guibridge/internal/scratch"
)

// HandleArrayHeader is the C-visible header of a handle collection:
//
//	struct { int32_t count; int32_t reserved; uint64_t *items; }
//
// Items points at the first handle, which follows the header in the same
// buffer.
type HandleArrayHeader struct {
	Count    int32
	Reserved int32
	Items    uintptr
}

// FillHandles writes handles into buf as a HandleArrayHeader followed by the
// handle values and returns a pointer to the header. The result is valid until
// the next call using buf.
func FillHandles(buf *scratch.Buffer, handles []uint64) (unsafe.Pointer, bool) {
	v, ok := Make[HandleArrayHeader, uint64](len(handles), buf)
	if !ok {
		return nil, false
	}
	head := v.Head()
	head.Count = int32(len(handles))
	head.Reserved = 0
	head.Items = uintptr(v.Elements)
	copy(v.Items(), handles)
	return v.Header, true
}

// ReadHandles decodes a HandleArrayHeader produced by FillHandles into a Go
// slice. It is the reading side for Go hosts that load the library and receive
// the array pointer from guibridge_enumerate_windows or
// guibridge_enumerate_screens.
func ReadHandles(p unsafe.Pointer) []uint64 {
	if p == nil {
		return nil
	}
	head := (*HandleArrayHeader)(p)
	if head.Count <= 0 {
		return nil
	}
	items := unsafe.Slice((*uint64)(unsafe.Add(p, ElementOffset(LayoutOf[HandleArrayHeader](), LayoutOf[uint64]()))), head.Count)
	return append([]uint64(nil), items...)
}
