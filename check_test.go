// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package salloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInvariantsHealthyAllocator(t *testing.T) {
	al := newTestAllocator(t)

	a := al.Alloc(16)
	b := al.Alloc(200)
	c := al.Alloc(8)
	requireAlloc(t, a)
	requireAlloc(t, b)
	requireAlloc(t, c)
	al.Free(b)

	for level := 1; level <= 6; level++ {
		assert.NoErrorf(t, al.CheckInvariants(level), "level %d", level)
	}
}

func TestCheckInvariantsLevelZeroIsNoop(t *testing.T) {
	al := newTestAllocator(t)
	assert.NoError(t, al.CheckInvariants(0))
	assert.NoError(t, al.CheckInvariants(-1))
}

func TestCheckInvariantsLevel2DumpsBucketHeads(t *testing.T) {
	var buf bytes.Buffer
	al := newTestAllocator(t, WithLogOutput(&buf))

	require.NoError(t, al.CheckInvariants(2))
	assert.Contains(t, buf.String(), "bucket heads")
}

func TestCheckInvariantsLevel5DumpsBlocks(t *testing.T) {
	var buf bytes.Buffer
	al := newTestAllocator(t, WithLogOutput(&buf))

	p := al.Alloc(16)
	requireAlloc(t, p)

	require.NoError(t, al.CheckInvariants(5))
	assert.NotEmpty(t, buf.String())
}

func TestCheckInvariantsDetectsAdjacentFreeCorruption(t *testing.T) {
	al := newTestAllocator(t)

	a := al.Alloc(16)
	b := al.Alloc(16)
	requireAlloc(t, a)
	requireAlloc(t, b)

	bpA := al.blockOffsetOf(a)
	bpB := al.blockOffsetOf(b)

	// Bypass Free's coalescer to fabricate two adjacent free blocks
	// directly, the way a hand-rolled corruption test has to.
	al.a.setBlock(bpA, al.a.blockSize(bpA), false)
	al.a.setBlock(bpB, al.a.blockSize(bpB), false)

	err := al.CheckInvariants(4)
	require.Error(t, err)
	var inv *ErrInvariant
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, CodeAdjacentFree, inv.Code)
}

func TestCheckInvariantsDetectsBadSize(t *testing.T) {
	al := newTestAllocator(t)

	p := al.Alloc(16)
	requireAlloc(t, p)
	bp := al.blockOffsetOf(p)

	al.a.setWord(bp, packWord(17, true)) // decodes as size 16, below MinBlockSize

	err := al.CheckInvariants(1)
	require.Error(t, err)
	var inv *ErrInvariant
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, CodeBadSize, inv.Code)
}
