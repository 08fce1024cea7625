// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Block metadata: reading and writing the header/footer words and the
// free-list link slots. All unsafe access to block metadata is confined
// to this file; every other file operates on block offsets (plain ints)
// and the accessors below. The only other use of unsafe is in alloc.go,
// which converts between block offsets and client payload pointers and
// copies or clears payload bytes.

package salloc

import "unsafe"

const (
	wordSize  = 4 // header/footer word
	dwordSize = 8 // double word: alignment unit, free-list link slot width
	alignment = 8

	// MinBlockSize is the smallest possible block: header + prev_free +
	// next_free + footer, even though a tiny client request may need far
	// fewer payload bytes.
	MinBlockSize = wordSize + dwordSize + dwordSize + wordSize // 24

	allocBit = 0x1
	sizeMask = ^uintptr(0x7)
)

// word reads the 4-byte header/footer-shaped word at arena-relative
// offset off.
func (a *arena) word(off int) uint32 {
	return *(*uint32)(unsafe.Pointer(&a.buf[off]))
}

// setWord writes a 4-byte header/footer-shaped word at off.
func (a *arena) setWord(off int, w uint32) {
	*(*uint32)(unsafe.Pointer(&a.buf[off])) = w
}

// link reads an 8-byte free-list link (an arena-relative offset, or 0 for
// nil) at off.
func (a *arena) link(off int) int {
	return int(*(*int64)(unsafe.Pointer(&a.buf[off])))
}

// setLink writes an 8-byte free-list link at off.
func (a *arena) setLink(off int, v int) {
	*(*int64)(unsafe.Pointer(&a.buf[off])) = int64(v)
}

func packWord(size int, allocated bool) uint32 {
	w := uint32(size)
	if allocated {
		w |= allocBit
	}
	return w
}

func unpackWord(w uint32) (size int, allocated bool) {
	return int(uintptr(w) & sizeMask), w&allocBit != 0
}

// blockSize returns the size, in bytes, of the block starting at bp.
func (a *arena) blockSize(bp int) int {
	sz, _ := unpackWord(a.word(bp))
	return sz
}

// blockAllocated reports whether the block starting at bp is allocated.
func (a *arena) blockAllocated(bp int) bool {
	_, al := unpackWord(a.word(bp))
	return al
}

// footerOff returns the offset of a size-byte block's footer word, given
// its header offset.
func footerOff(bp, size int) int { return bp + size - wordSize }

// payloadOff returns the offset of the payload (or, for a free block, the
// prev_free slot) immediately following bp's header.
func payloadOff(bp int) int { return bp + wordSize }

// blockFromPayload recovers a block's header offset from a payload
// offset previously produced by payloadOff.
func blockFromPayload(p int) int { return p - wordSize }

// setBlock writes header and footer identically, encoding size and the
// allocation bit.
func (a *arena) setBlock(bp, size int, allocated bool) {
	w := packWord(size, allocated)
	a.setWord(bp, w)
	a.setWord(footerOff(bp, size), w)
}

// nextBlock returns the offset of the block immediately following bp.
// Terminates on the epilogue: its size is 0, so nextBlock(epilogue) ==
// epilogue, and callers always check allocated() before stepping further.
func (a *arena) nextBlock(bp int) int {
	return bp + a.blockSize(bp)
}

// prevBlock returns the offset of the block immediately preceding bp, by
// reading the size out of the word immediately before bp (that word is
// always the preceding block's footer, by construction).
func (a *arena) prevBlock(bp int) int {
	prevSize, _ := unpackWord(a.word(bp - wordSize))
	return bp - prevSize
}

// prevFreeSlot and nextFreeSlot are the offsets, within a free block, of
// the doubly linked free-list pointers. prevFreeSlot aliases payloadOff:
// an allocated block's payload and a free block's prev_free link occupy
// the same bytes, per the block layout.
func prevFreeSlot(bp int) int { return bp + wordSize }
func nextFreeSlot(bp int) int { return bp + wordSize + dwordSize }

func (a *arena) freePrev(bp int) int   { return a.link(prevFreeSlot(bp)) }
func (a *arena) freeNext(bp int) int   { return a.link(nextFreeSlot(bp)) }
func (a *arena) setFreePrev(bp, v int) { a.setLink(prevFreeSlot(bp), v) }
func (a *arena) setFreeNext(bp, v int) { a.setLink(nextFreeSlot(bp), v) }

// alignUp8 rounds n up to the next multiple of 8.
func alignUp8(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// adjustedSize computes the block size needed to satisfy a client request
// of n payload bytes: align_up(n + header+footer overhead), clamped to
// MinBlockSize. This is the single standardized formula spec.md §9 and
// §4.8 ask for (s = max(align_up(n+8), 24)), replacing the teacher
// source's two inconsistent variants.
func adjustedSize(n int) int {
	s := alignUp8(n + wordSize + wordSize)
	if s < MinBlockSize {
		s = MinBlockSize
	}
	return s
}
