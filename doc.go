// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package salloc implements a general purpose dynamic memory allocator over a
single, linearly growable arena.

The allocator partitions the arena into a chain of allocated and free
blocks. Every block carries an in-band header and footer word encoding its
size and allocation bit, so the chain can be walked in either direction
without any side table. Free blocks are additionally threaded into one of
14 size-segregated doubly linked lists, which turns Alloc's
"find a free block big enough" search into a bounded scan of a single
bucket in the common case instead of a scan of the whole arena.

Allocation policy

Alloc rounds the request up to the double-word-aligned, header/footer
inclusive block size, finds the smallest-index bucket whose size range can
hold it, and first-fits within that bucket and every larger one. A hit
that leaves a remainder of at least MinBlockSize bytes is split; the
remainder is coalesced (a no-op in practice, see Free) and reinserted. A
miss extends the arena by at least ChunkSize bytes and places the request
in the resulting (coalesced) free block, without searching the lists again.

Free coalesces the freed block with either immediately adjacent neighbor
that is itself free, then inserts the (possibly merged) result at the head
of its bucket's list.

Concurrency

salloc assumes a single mutator, as spec'd: no call synchronizes with any
other, and no call may run concurrently with another on the same
Allocator. See WithMutatorCheck for an optional debug-only guard
that turns a violation of that assumption into an error instead of silent
corruption.
*/
package salloc
