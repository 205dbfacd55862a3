// Package lasterror holds the single process-wide last-error slot read by the
// host after a boundary call returns its sentinel.
package lasterror

import (
	"sync"
	"unsafe"

	"github.com/1broseidon/guibridge/internal/cstr"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/scratch"
)

// Channel is a lock-protected single slot. The most recent Record wins,
// regardless of which thread recorded it.
type Channel struct {
	mu      sync.Mutex
	message string
	kind    fault.Kind
	set     bool
	buf     *scratch.Buffer
}

// New returns an empty channel whose encoded messages live in storage from
// alloc.
func New(alloc scratch.Allocator) *Channel {
	return &Channel{buf: scratch.NewBuffer(alloc)}
}

// Record stores err's message and kind. A nil err is ignored.
func (c *Channel) Record(err error) {
	if err == nil {
		return
	}
	c.RecordMessage(fault.KindOf(err), err.Error())
}

// RecordMessage stores message with an explicit kind.
func (c *Channel) RecordMessage(kind fault.Kind, message string) {
	c.mu.Lock()
	c.message = message
	c.kind = kind
	c.set = true
	c.mu.Unlock()
}

// Consume returns the stored message as a NUL-terminated string, or nil when
// the slot is empty. The pointer stays valid until the next Consume. The slot
// is not cleared, so repeated calls return the same text.
func (c *Channel) Consume() unsafe.Pointer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return nil
	}
	return cstr.Put(c.buf, c.message)
}

// Message returns the stored message.
func (c *Channel) Message() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message, c.set
}

// Kind returns the kind of the stored error, KindNone when empty.
func (c *Channel) Kind() fault.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return fault.KindNone
	}
	return c.kind
}

// Clear empties the slot.
func (c *Channel) Clear() {
	c.mu.Lock()
	c.message = ""
	c.kind = fault.KindNone
	c.set = false
	c.mu.Unlock()
}
