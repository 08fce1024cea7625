// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The coalescer: merges a free block with any immediately adjacent free
// neighbor(s). Grounded on the teacher's Allocator.free2, generalized
// from its on-disk four-case switch (isolated / right join / left join /
// middle join) to the in-memory header/footer model; the four cases are
// preserved.

package salloc

// coalesce merges the block at bp with its left and/or right neighbor if
// either is free, unlinking whichever neighbor(s) are merged from their
// bucket, and returns the offset of the resulting (possibly relocated,
// possibly unchanged) free block. bp's header/footer are rewritten with
// the merged size and allocated = 0; the caller is responsible for
// inserting the result into the registry. The prologue and epilogue are
// always allocated, so a scan in either direction terminates on them
// without an explicit bounds check.
func (al *Allocator) coalesce(bp int) int {
	prev := al.a.prevBlock(bp)
	next := al.a.nextBlock(bp)
	prevFree := !al.a.blockAllocated(prev)
	nextFree := !al.a.blockAllocated(next)
	size := al.a.blockSize(bp)

	switch {
	case !prevFree && !nextFree:
		// no merge
		al.a.setBlock(bp, size, false)
		return bp

	case !prevFree && nextFree:
		// remove next from its bucket; extend bp by next.size
		al.reg.remove(next)
		size += al.a.blockSize(next)
		al.a.setBlock(bp, size, false)
		return bp

	case prevFree && !nextFree:
		// remove prev from its bucket; move bp <- prev; extend by prev.size
		al.reg.remove(prev)
		size += al.a.blockSize(prev)
		al.a.setBlock(prev, size, false)
		return prev

	default: // prevFree && nextFree
		// remove both; move bp <- prev; extend by prev.size + next.size
		al.reg.remove(prev)
		al.reg.remove(next)
		size += al.a.blockSize(prev) + al.a.blockSize(next)
		al.a.setBlock(prev, size, false)
		return prev
	}
}

// insertFree is the pair to coalesce: it is handed a freshly coalesced
// block and threads it onto the head of its (possibly new, post-merge)
// bucket's list.
func (al *Allocator) insertFree(bp int) {
	al.reg.insert(bp)
}
