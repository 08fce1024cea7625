// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package salloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, opts ...Option) *Allocator {
	t.Helper()
	al, err := NewAllocator(opts...)
	require.NoError(t, err)
	return al
}

// requireAlloc fails the test if p is nil. unsafe.Pointer is compared
// directly rather than through testify's Nil/NotNil: those walk a
// reflect.Kind allowlist that, depending on the pinned testify version,
// may or may not include reflect.UnsafePointer, which would silently
// turn a nil-pointer check into a no-op.
func requireAlloc(t *testing.T, p unsafe.Pointer) {
	t.Helper()
	if p == nil {
		t.Fatal("expected a non-nil allocation")
	}
}

// S1: a minimal allocation is 8-aligned, rounds up to MinBlockSize, and
// freeing it leaves the arena in a state level-4 invariants accept.
func TestAllocMinimalRequest(t *testing.T) {
	al := newTestAllocator(t)

	p := al.Alloc(1)
	requireAlloc(t, p)
	assert.Zero(t, uintptr(p)%8, "payload must be 8-byte aligned")

	bp := al.blockOffsetOf(p)
	assert.Equal(t, MinBlockSize, al.a.blockSize(bp))

	al.Free(p)
	assert.NoError(t, al.CheckInvariants(4))
}

// S2: three same-size allocations, freed out of order, coalesce exactly
// as the four-case switch predicts.
func TestAllocFreeCoalescing(t *testing.T) {
	al := newTestAllocator(t)

	a := al.Alloc(16)
	b := al.Alloc(16)
	c := al.Alloc(16)
	requireAlloc(t, a)
	requireAlloc(t, b)
	requireAlloc(t, c)

	bpA := al.blockOffsetOf(a)
	bpB := al.blockOffsetOf(b)
	bpC := al.blockOffsetOf(c)

	al.Free(b)
	assert.Equal(t, MinBlockSize, al.a.blockSize(bpB))
	assert.True(t, al.a.blockAllocated(bpA))
	assert.True(t, al.a.blockAllocated(bpC))

	al.Free(a)
	// a absorbs its now-free right neighbor (the old b block): 24+24=48.
	assert.Equal(t, 2*MinBlockSize, al.a.blockSize(bpA))
	assert.False(t, al.a.blockAllocated(bpA))

	al.Free(c)
	assert.NoError(t, al.CheckInvariants(6))

	// Exactly one free block should remain below the epilogue.
	free := 0
	for bp := al.prologue; bp != al.epilogue; bp = al.a.nextBlock(bp) {
		if !al.a.blockAllocated(bp) {
			free++
		}
	}
	assert.Equal(t, 1, free)
}

// S3: a request larger than any existing free block forces a heap
// extension, and the resulting chain is still well-formed.
func TestAllocTriggersHeapExtension(t *testing.T) {
	al := newTestAllocator(t, WithChunkSize(168))

	before := al.a.size()
	p := al.Alloc(200)
	requireAlloc(t, p)
	assert.Greater(t, al.a.size(), before)

	bp := al.blockOffsetOf(p)
	assert.GreaterOrEqual(t, al.a.blockSize(bp), adjustedSize(200))
	assert.Equal(t, al.epilogue+wordSize, al.a.high())
	assert.NoError(t, al.CheckInvariants(6))
}

// S4: the splitter only splits when the remainder would itself be a
// legal block; otherwise it hands over the whole free block.
func TestPlaceSplitThreshold(t *testing.T) {
	al := newTestAllocator(t, WithChunkSize(168))
	p := al.Alloc(16)
	requireAlloc(t, p)
	bp := al.blockOffsetOf(p)
	assert.Equal(t, MinBlockSize, al.a.blockSize(bp))

	al2 := newTestAllocator(t, WithChunkSize(168))
	q := al2.Alloc(140)
	requireAlloc(t, q)
	bq := al2.blockOffsetOf(q)
	// adjustedSize(140) leaves a remainder under MinBlockSize against the
	// initial 168-byte chunk, so the whole block is consumed unsplit.
	assert.Equal(t, 168, al2.a.blockSize(bq))
}

// S5: shrinking in place returns the same pointer and produces a legal
// trailing free block when the remainder is large enough.
func TestReallocShrink(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Alloc(100)
	requireAlloc(t, p)
	bp := al.blockOffsetOf(p)
	oldSize := al.a.blockSize(bp)

	q := al.Realloc(p, 20)
	require.Equal(t, p, q)

	newSize := al.a.blockSize(bp)
	assert.Equal(t, adjustedSize(20), newSize)
	assert.Less(t, newSize, oldSize)
	assert.NoError(t, al.CheckInvariants(6))
}

// S6: growing past the current block's capacity copies the live payload
// byte-for-byte into the new location and frees the old one.
func TestReallocGrowCopies(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Alloc(100)
	requireAlloc(t, p)

	src := unsafe.Slice((*byte)(p), 100)
	for i := range src {
		src[i] = byte(i)
	}

	q := al.Realloc(p, 200)
	requireAlloc(t, q)
	assert.NotEqual(t, p, q)

	dst := unsafe.Slice((*byte)(q), 100)
	for i := range dst {
		assert.Equal(t, byte(i), dst[i], "byte %d", i)
	}

	bp := al.blockOffsetOf(p)
	assert.False(t, al.a.blockAllocated(bp), "old block should be freed")
	assert.NoError(t, al.CheckInvariants(6))
}

func TestReallocZeroSizeFreesAndReturnsNil(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Alloc(16)
	requireAlloc(t, p)
	bp := al.blockOffsetOf(p)

	got := al.Realloc(p, 0)
	if got != nil {
		t.Fatal("Realloc(p, 0) should return nil")
	}
	assert.False(t, al.a.blockAllocated(bp))
}

func TestReallocNilPointerAllocates(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Realloc(nil, 32)
	requireAlloc(t, p)
}

func TestReallocSameAdjustedSizeIsNoop(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Alloc(16)
	requireAlloc(t, p)
	q := al.Realloc(p, 16)
	assert.Equal(t, p, q)
}

func TestAllocZeroSizeReturnsNil(t *testing.T) {
	al := newTestAllocator(t)
	if al.Alloc(0) != nil {
		t.Fatal("Alloc(0) should return nil")
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	al := newTestAllocator(t)
	al.Free(nil) // must not panic
	assert.NoError(t, al.CheckInvariants(6))
}

func TestCallocZeroFills(t *testing.T) {
	al := newTestAllocator(t)
	p := al.Alloc(64)
	requireAlloc(t, p)
	b := unsafe.Slice((*byte)(p), 64)
	for i := range b {
		b[i] = 0xFF
	}
	al.Free(p)

	q := al.Calloc(8, 8)
	requireAlloc(t, q)
	out := unsafe.Slice((*byte)(q), 64)
	for i, v := range out {
		assert.Zerof(t, v, "byte %d not zeroed", i)
	}
}

func TestNewAllocatorRejectsTooSmallCapacity(t *testing.T) {
	_, err := NewAllocator(WithCapacity(32))
	assert.Error(t, err)
}

func TestAllocExhaustsCapacity(t *testing.T) {
	al := newTestAllocator(t, WithCapacity(4096), WithChunkSize(168))
	var ptrs []unsafe.Pointer
	for {
		p := al.Alloc(64)
		if p == nil {
			break
		}
		ptrs = append(ptrs, p)
	}
	assert.NotEmpty(t, ptrs, "should have allocated at least once before exhaustion")
	assert.NoError(t, al.CheckInvariants(6))
}
