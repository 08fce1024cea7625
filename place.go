// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The splitter/placer: turns a free block found by findFit into an
// allocated block of at least the requested size, splitting off and
// re-registering any sufficiently large remainder. Grounded on the
// teacher's Allocator.alloc (split into a used head and a free tail when
// the leftover covers at least one more block) and mm_explicit.c's
// place().

package salloc

// place carves an allocated block of size s out of the free block at bp
// (whose size is c >= s), splitting off a free remainder when doing so
// would not leave a sub-MinBlockSize sliver.
func (al *Allocator) place(bp, s int) {
	c := al.a.blockSize(bp)
	al.reg.remove(bp)

	if c-s >= MinBlockSize {
		al.a.setBlock(bp, s, true)

		rem := bp + s
		al.a.setBlock(rem, c-s, false)
		// The remainder's right neighbor is whatever followed the
		// original free block — in the common case an allocated
		// block or the epilogue, never free (invariant 6), but
		// coalesce runs anyway so a future relaxation of that
		// invariant doesn't silently orphan a mergeable neighbor.
		al.insertFree(al.coalesce(rem))
		return
	}

	al.a.setBlock(bp, c, true)
}
