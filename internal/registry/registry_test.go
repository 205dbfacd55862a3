package registry

import (
	"errors"
	"testing"

	"github.com/1broseidon/guibridge/internal/fault"
)

type obj struct {
	id   uint32
	name string
}

func (o obj) ObjectID() uint32 { return o.id }

func TestMake_RoundTrip(t *testing.T) {
	h := Make(CategoryWindow, 0x1c00007)
	if h.Category() != CategoryWindow {
		t.Fatalf("Category() = %v", h.Category())
	}
	if h.ObjectID() != 0x1c00007 {
		t.Fatalf("ObjectID() = %#x", h.ObjectID())
	}
	if Make(CategoryScreen, 0x1c00007) == h {
		t.Fatalf("same id in different categories produced equal handles")
	}
	if Make(CategoryApp, 0) == 0 {
		t.Fatalf("handle with zero object id must still be non-zero")
	}
}

func TestResolve(t *testing.T) {
	live := []obj{{1, "a"}, {2, "b"}, {2, "dup"}}

	got, ok := Resolve(Make(CategoryWindow, 2), CategoryWindow, live)
	if !ok || got.name != "b" {
		t.Fatalf("Resolve = %+v, %v; want first match b", got, ok)
	}
	if _, ok := Resolve(Make(CategoryWindow, 9), CategoryWindow, live); ok {
		t.Fatalf("resolved a handle absent from the live set")
	}
	if _, ok := Resolve(Make(CategoryScreen, 1), CategoryWindow, live); ok {
		t.Fatalf("resolved a handle from another category")
	}
	if _, ok := Resolve(0, CategoryWindow, live); ok {
		t.Fatalf("resolved the zero handle")
	}
	if _, ok := Resolve(Make(CategoryWindow, 1), CategoryWindow, []obj(nil)); ok {
		t.Fatalf("resolved against an empty live set")
	}
}

func TestHandles(t *testing.T) {
	got := Handles(CategoryScreen, []obj{{7, ""}, {8, ""}})
	want := []uint64{uint64(Make(CategoryScreen, 7)), uint64(Make(CategoryScreen, 8))}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Handles = %#x, want %#x", got, want)
	}
}

func TestResolver(t *testing.T) {
	live := []obj{{5, "five"}}
	r := Resolver[obj]{
		Category:  CategoryScreen,
		Enumerate: func() ([]obj, error) { return live, nil },
	}

	got, err := r.Resolve("screen_width", Make(CategoryScreen, 5))
	if err != nil || got.name != "five" {
		t.Fatalf("Resolve = %+v, %v", got, err)
	}

	_, err = r.Resolve("screen_width", Make(CategoryScreen, 6))
	if !errors.Is(err, fault.ErrUnknownHandle) {
		t.Fatalf("err = %v, want unknown handle", err)
	}

	live = nil
	if _, err := r.Resolve("screen_width", Make(CategoryScreen, 5)); !errors.Is(err, fault.ErrUnknownHandle) {
		t.Fatalf("handle kept resolving after its object left the live set: %v", err)
	}

	broken := Resolver[obj]{
		Category:  CategoryWindow,
		Enumerate: func() ([]obj, error) { return nil, errors.New("display gone") },
	}
	if _, err := broken.Resolve("set_window_title", Make(CategoryWindow, 1)); !errors.Is(err, fault.ErrToolkit) {
		t.Fatalf("err = %v, want toolkit error", err)
	}
}
