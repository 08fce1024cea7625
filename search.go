// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// First-fit search across the segregated free lists. Grounded on the
// teacher's flt.find: start at the bucket the requested size maps to and
// scan upward through larger buckets, taking the first list with a
// non-empty head. Unlike the teacher (whose buckets hold only a head
// pointer and rely on the caller to verify the head block is big enough),
// a bucket here can hold blocks spanning its whole size range, so every
// block of a bucket is walked until one is big enough, and the search
// moves on to the next larger bucket when none is.

package salloc

// findFit returns the offset of the first free block of size >= s,
// searching bucketIndex(s) and then every larger bucket in order, and
// within each bucket walking its list head-to-tail. Returns 0 (miss) if
// no block anywhere is big enough.
func (al *Allocator) findFit(s int) int {
	for bucket := bucketIndex(s); bucket < numBuckets; bucket++ {
		for bp := al.reg.head(bucket); bp != 0; bp = al.a.freeNext(bp) {
			if al.a.blockSize(bp) >= s {
				return bp
			}
		}
	}
	return 0
}
