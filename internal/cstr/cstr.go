// Package cstr converts between Go strings and the NUL-terminated UTF-8 byte
// sequences exchanged with the host.
package cstr

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/1broseidon/guibridge/internal/scratch"
)

// MaxLen bounds how far GoString scans for a terminator.
const MaxLen = 1 << 20

var (
	// ErrNull is returned by GoString for a nil pointer.
	ErrNull = errors.New("cstr: null pointer")
	// ErrUnterminated is returned when no NUL appears within MaxLen bytes.
	ErrUnterminated = fmt.Errorf("cstr: no terminator within %d bytes", MaxLen)
)

// GoString copies the NUL-terminated string at p. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func GoString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", ErrNull
	}
	n := 0
	for ; n < MaxLen; n++ {
		if *(*byte)(unsafe.Add(p, n)) == 0 {
			break
		}
	}
	if n == MaxLen {
		return "", ErrUnterminated
	}
	return strings.ToValidUTF8(string(unsafe.Slice((*byte)(p), n)), "�"), nil
}

// Put writes s followed by a NUL into buf and returns the start of the copy,
// valid until the next call using buf. Embedded NULs truncate the string as the
// host will see it.
func Put(buf *scratch.Buffer, s string) unsafe.Pointer {
	p := buf.Ensure(len(s)+1, 1)
	dst := buf.Bytes(len(s) + 1)
	copy(dst, s)
	dst[len(s)] = 0
	return p
}
