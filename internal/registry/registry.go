// Package registry maps opaque handles to live toolkit objects.
//
// There is no table of issued handles. A handle encodes a category and the
// toolkit's own object id, and every lookup scans a freshly enumerated live set,
// so a handle for an object that has gone away simply stops resolving.
package registry

import (
	"fmt"

	"github.com/1broseidon/guibridge/internal/fault"
)

// Category tags the kind of object a handle refers to.
type Category uint32

const (
	CategoryApp    Category = 1
	CategoryWindow Category = 2
	CategoryScreen Category = 3
)

func (c Category) String() string {
	switch c {
	case CategoryApp:
		return "app"
	case CategoryWindow:
		return "window"
	case CategoryScreen:
		return "screen"
	default:
		return fmt.Sprintf("category(%d)", uint32(c))
	}
}

// Handle is the opaque value handed to the host. Zero is never valid.
type Handle uint64

// Make builds the handle for object id within cat.
func Make(cat Category, id uint32) Handle {
	return Handle(uint64(cat)<<32 | uint64(id))
}

func (h Handle) Category() Category { return Category(h >> 32) }
func (h Handle) ObjectID() uint32   { return uint32(h) }

func (h Handle) String() string {
	return fmt.Sprintf("%s:%#x", h.Category(), h.ObjectID())
}

// Identified is implemented by anything that can appear in a live set.
type Identified interface {
	ObjectID() uint32
}

// Resolve returns the first member of live whose handle equals h.
func Resolve[T Identified](h Handle, cat Category, live []T) (T, bool) {
	var zero T
	if h == 0 || h.Category() != cat {
		return zero, false
	}
	for _, obj := range live {
		if Make(cat, obj.ObjectID()) == h {
			return obj, true
		}
	}
	return zero, false
}

// Handles returns the handles for every member of live, in order.
func Handles[T Identified](cat Category, live []T) []uint64 {
	out := make([]uint64, 0, len(live))
	for _, obj := range live {
		out = append(out, uint64(Make(cat, obj.ObjectID())))
	}
	return out
}

// Resolver pairs a category with the enumeration that produces its live set.
type Resolver[T Identified] struct {
	Category  Category
	Enumerate func() ([]T, error)
}

// Resolve enumerates the live set and resolves h against it. op names the
// calling operation in the returned error.
func (r Resolver[T]) Resolve(op string, h Handle) (T, error) {
	var zero T
	live, err := r.Enumerate()
	if err != nil {
		return zero, fault.Toolkit(op, err)
	}
	obj, ok := Resolve(h, r.Category, live)
	if !ok {
		return zero, fault.UnknownHandle(op, r.Category.String(), uint64(h))
	}
	return obj, nil
}
