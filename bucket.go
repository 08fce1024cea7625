// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The size-class index and the segregated free-list registry. Modeled on
// the teacher's flt (free list table): there, a FLT is a caller-supplied
// table of named, independently persisted slots; here the table is fixed
// (the 14 buckets spec.md fixes by size) so it collapses to a plain
// array, but the shape — sorted thresholds, a binary search to find the
// owning slot, an owning head offset per slot — is the same.

package salloc

import "sort"

// numBuckets is N from spec.md's segregated free-list registry table.
const numBuckets = 14

// bucketMax[i] is the largest block size (in bytes) that belongs to
// bucket i; bucketMax[numBuckets-1] is unbounded.
var bucketMax = [numBuckets]int{
	24, 48, 72, 96, 120, 240, 480, 960, 1920, 3840, 7680, 15360, 30720,
	1<<62 - 1,
}

// bucketIndex maps a block (or request) size in bytes to its segregated
// free-list bucket, by the table in spec.md §3. A sorted-threshold binary
// search is used rather than a branch cascade; bucketMax is sorted by
// construction so sort.Search applies directly.
func bucketIndex(size int) int {
	return sort.Search(numBuckets, func(i int) bool { return bucketMax[i] >= size })
}

// freeListRegistry is the array of bucket heads: an owning arena-relative
// offset of each bucket's head free block, or 0 for empty. It is itself
// stored in the arena's reserved-but-logically-separate low region (see
// off, set by NewAllocator), not in a Go slice, so that its state is part of
// the single arena the invariant checker walks — mirroring the teacher's
// choice to keep the FLT's slot heads inside the same Filer it allocates
// from.
type freeListRegistry struct {
	a   *arena
	off int // arena offset of the first bucket-head slot
}

func (r *freeListRegistry) headSlot(bucket int) int { return r.off + bucket*dwordSize }

func (r *freeListRegistry) head(bucket int) int { return r.a.link(r.headSlot(bucket)) }

func (r *freeListRegistry) setHead(bucket, bp int) { r.a.setLink(r.headSlot(bucket), bp) }

// insert pushes a free block onto the head of its bucket's list (LIFO):
// O(1), and the most recently freed block — still warm in cache — is the
// first one Alloc's first-fit search will see.
func (r *freeListRegistry) insert(bp int) {
	bucket := bucketIndex(r.a.blockSize(bp))
	oldHead := r.head(bucket)

	r.a.setFreePrev(bp, 0)
	r.a.setFreeNext(bp, oldHead)
	if oldHead != 0 {
		r.a.setFreePrev(oldHead, bp)
	}
	r.setHead(bucket, bp)
}

// remove unlinks a free block from its bucket's list, patching up its
// neighbors (or the bucket head, if bp was the head).
func (r *freeListRegistry) remove(bp int) {
	bucket := bucketIndex(r.a.blockSize(bp))
	prev := r.a.freePrev(bp)
	next := r.a.freeNext(bp)

	if prev != 0 {
		r.a.setFreeNext(prev, next)
	} else {
		r.setHead(bucket, next)
	}
	if next != 0 {
		r.a.setFreePrev(next, prev)
	}
}

// registrySize is the number of bytes the registry occupies in the
// arena's low region.
const registrySize = numBuckets * dwordSize
