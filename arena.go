// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The arena: a linearly growable memory region, modeled as a Go slice
// whose backing array is reserved up front so that growth never moves
// existing bytes. This is the sbrk-like collaborator spec.md describes as
// external and out of scope for the core; it is implemented here only
// because this module has no process or OS layer to delegate it to.

package salloc

import (
	"github.com/bytedance/gopkg/lang/dirtmake"
)

// DefaultCapacity is the arena's reserved backing capacity if the caller
// does not supply WithCapacity. It bounds how far the arena can extend
// over its lifetime; exhausting it is reported as ordinary allocation
// failure (a nil return), not a panic.
const DefaultCapacity = 64 << 20 // 64 MiB

// arena is a linear, contiguous byte region, monotonically extensible at
// the high end and never shrinking. Its backing array is allocated once,
// at its maximum capacity, so that extendBy never reallocates and never
// invalidates a previously computed block offset or unsafe.Pointer into
// the arena.
type arena struct {
	buf []byte // len == current size, cap == reserved capacity
}

// newArena reserves capacity bytes of backing storage and returns an
// empty arena (size 0). capacity must be large enough for the allocator's
// prologue/epilogue and at least one ChunkSize extension; NewAllocator
// validates that.
func newArena(capacity int) *arena {
	// dirtmake.Bytes skips the runtime's mandatory zero-fill: every byte
	// the allocator ever reads back is one it (or extendHeap's sentinel
	// writes) wrote first, so zeroing the reserved-but-unused tail is
	// wasted work for an arena that can be tens of megabytes.
	buf := dirtmake.Bytes(0, capacity)
	return &arena{buf: buf}
}

// size returns the current (logical) size of the arena in bytes.
func (a *arena) size() int { return len(a.buf) }

// capacity returns the arena's fixed reserved capacity.
func (a *arena) capacity() int { return cap(a.buf) }

// extendBy grows the arena by exactly n bytes, appended at the high end,
// and returns the offset of the first new byte. It fails (ok == false) if
// doing so would exceed the arena's reserved capacity — the allocator's
// only form of "out of memory".
func (a *arena) extendBy(n int) (base int, ok bool) {
	base = len(a.buf)
	newLen := base + n
	if newLen > cap(a.buf) {
		return 0, false
	}
	a.buf = a.buf[:newLen]
	return base, true
}

// low returns the lowest valid byte offset (0).
func (a *arena) low() int { return 0 }

// high returns the offset one past the last valid byte.
func (a *arena) high() int { return len(a.buf) }

// bytes returns n bytes of the arena starting at off, as a slice that
// aliases the backing array. Panics if the range extends past the
// reserved capacity; callers are expected to have validated off/n
// against the block chain already.
func (a *arena) bytes(off, n int) []byte {
	return a.buf[off : off+n : off+n]
}
