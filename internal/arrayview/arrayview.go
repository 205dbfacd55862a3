// Package arrayview lays out a fixed header followed by a contiguous run of
// elements inside a scratch buffer, the shape used to return collections
// across the C boundary.
package arrayview

import (
	"unsafe"

	"github.com/1broseidon/guibridge/internal/scratch"
)

// Layout is the size and alignment of a type as C sees it.
type Layout struct {
	Size  int
	Align int
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	var v T
	return Layout{Size: int(unsafe.Sizeof(v)), Align: int(unsafe.Alignof(v))}
}

// Region is a header plus count elements laid out in one buffer.
type Region struct {
	Header   unsafe.Pointer
	Elements unsafe.Pointer
	Count    int
	Size     int

	buf        *scratch.Buffer
	generation uint64
}

// Valid reports whether the region still refers to the buffer contents it was
// built for. Any later Ensure on the same buffer invalidates it.
func (r Region) Valid() bool {
	return r.buf != nil && r.buf.Generation() == r.generation
}

// ElementOffset returns the byte offset of the first element after a header.
func ElementOffset(header, element Layout) int {
	return alignUp(header.Size, element.Align)
}

// TotalSize returns the number of bytes needed for a header plus count
// elements. Negative counts are treated as zero.
func TotalSize(count int, header, element Layout) int {
	if count < 0 {
		count = 0
	}
	return ElementOffset(header, element) + count*element.Size
}

// Build reserves space in buf for a header followed by count elements and
// returns the region. Nothing is initialised. It reports false when there is
// nothing to lay out.
func Build(count int, header, element Layout, buf *scratch.Buffer) (Region, bool) {
	if count < 0 {
		count = 0
	}
	total := TotalSize(count, header, element)
	if total <= 0 {
		return Region{}, false
	}
	align := max(header.Align, element.Align, 1)

	base := buf.Ensure(total, align)
	if base == nil {
		return Region{}, false
	}
	return Region{
		Header:     base,
		Elements:   unsafe.Add(base, ElementOffset(header, element)),
		Count:      count,
		Size:       total,
		buf:        buf,
		generation: buf.Generation(),
	}, true
}

// View is a typed Region.
type View[H, E any] struct {
	Region
}

// Make builds a typed view for header H and count elements of E.
func Make[H, E any](count int, buf *scratch.Buffer) (View[H, E], bool) {
	r, ok := Build(count, LayoutOf[H](), LayoutOf[E](), buf)
	if !ok {
		return View[H, E]{}, false
	}
	return View[H, E]{Region: r}, true
}

// Head returns the header.
func (v View[H, E]) Head() *H {
	return (*H)(v.Header)
}

// Items returns the element slots. The slice aliases the scratch buffer.
func (v View[H, E]) Items() []E {
	if v.Count == 0 {
		return nil
	}
	return unsafe.Slice((*E)(v.Elements), v.Count)
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
