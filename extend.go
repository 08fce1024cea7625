// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The heap extender: grows the arena through the Arena adapter, installs
// a new trailing free block where the old epilogue sat, re-establishes
// the epilogue, and coalesces the new block with its left neighbor.
// Grounded on the teacher's combination of Allocator.alloc's "must grow"
// path and mm_explicit.c's extend_heap.

package salloc

import "github.com/cznic/mathutil"

// extendHeap grows the arena by at least max(nbytes, ChunkSize), rounded
// up to a double-word multiple, and returns the offset of the resulting
// (coalesced) free block, or 0 if the arena's reserved capacity is
// exhausted.
func (al *Allocator) extendHeap(nbytes int) int {
	grow := alignUp8(mathutil.Max(nbytes, al.chunkSize))

	oldEpilogue := al.epilogue
	base, ok := al.a.extendBy(grow)
	if !ok {
		return 0
	}
	// extendBy hands back the old arena end, one word past the old
	// epilogue. The new free block starts at the old epilogue word, and
	// the new epilogue takes the last word of the grown region.
	_ = base

	al.a.setBlock(oldEpilogue, grow, false)
	al.epilogue = oldEpilogue + grow
	al.a.setWord(al.epilogue, packWord(0, true))

	bp := al.coalesce(oldEpilogue)
	al.insertFree(bp)
	return bp
}
