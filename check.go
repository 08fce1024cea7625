// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The invariant checker: a diagnostic, not a hot-path dependency, that
// walks the arena and the registry looking for the structural problems
// spec.md §6 names. Grounded on the teacher's multi-phase Allocator.Verify
// (log func(error) bool, an AllocStats-shaped summary, a tag-by-tag
// sequential scan); the phase boundaries here are spec.md's six levels
// rather than the teacher's bitmap-reconciliation passes, since this
// allocator has no on-disk bitmap to reconcile against — the block chain
// and the registry are checked against each other instead.

package salloc

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// blockDump is the shape level 5 hands to spew.Fdump: enough to read a
// block's place in the chain and, if free, its registry linkage.
type blockDump struct {
	Off       int
	Size      int
	Allocated bool
	FreePrev  int `json:",omitempty"`
	FreeNext  int `json:",omitempty"`
}

// CheckInvariants walks the arena and the free-list registry looking for
// structural corruption, to the depth named by level (1 through 6;
// levels are cumulative — level 3 implies levels 1 and 2 also ran).
// Intended for tests and offline diagnosis, not the allocation hot path:
// it is O(n) in the arena size and, at level 5 and above, writes a dump
// of every block to the Allocator's log output (see WithLogOutput).
//
// It returns the first *ErrInvariant found, or nil if the arena is
// consistent to the requested level.
func (al *Allocator) CheckInvariants(level int) error {
	if level < 1 {
		return nil
	}

	// Level 1: sentinel shape, then an in-heap, 8-byte-aligned,
	// header/footer-consistent walk of the whole block chain from the
	// prologue to the epilogue.
	if err := al.checkChain(); err != nil {
		return err
	}
	if level < 2 {
		return nil
	}

	// Level 2: dump the registry's bucket heads.
	heads := make([]int, numBuckets)
	for b := 0; b < numBuckets; b++ {
		heads[b] = al.reg.head(b)
	}
	fmt.Fprintf(al.log, "salloc: bucket heads: %v\n", heads)
	if level < 3 {
		return nil
	}

	// Level 3: walk every bucket's list and confirm each member's size
	// actually falls within that bucket's range.
	fromBuckets := make(map[int]bool)
	for b := 0; b < numBuckets; b++ {
		for bp := al.reg.head(b); bp != 0; bp = al.a.freeNext(bp) {
			sz := al.a.blockSize(bp)
			if bucketIndex(sz) != b {
				return &ErrInvariant{Code: CodeBucketMismatch, Off: bp, Arg: int64(sz), Arg2: int64(b)}
			}
			fromBuckets[bp] = true
		}
	}
	if level < 4 {
		return nil
	}

	// Level 4: no two immediately adjacent blocks are both free — the
	// coalescer's central promise.
	if err := al.checkNoAdjacentFree(); err != nil {
		return err
	}
	if level < 5 {
		return nil
	}

	// Level 5: dump every block in the chain.
	var blocks []blockDump
	for bp := al.prologue; ; bp = al.a.nextBlock(bp) {
		d := blockDump{Off: bp, Size: al.a.blockSize(bp), Allocated: al.a.blockAllocated(bp)}
		if !d.Allocated {
			d.FreePrev = al.a.freePrev(bp)
			d.FreeNext = al.a.freeNext(bp)
		}
		blocks = append(blocks, d)
		if bp == al.epilogue {
			break
		}
	}
	spew.Fdump(al.log, blocks)
	if level < 6 {
		return nil
	}

	// Level 6: the block chain and the registry must agree on exactly
	// which blocks are free. Walking the chain gives one census; walking
	// every bucket (already collected as fromBuckets, above) gives the
	// other.
	fromChain := make(map[int]bool)
	for bp := al.prologue; bp != al.epilogue; bp = al.a.nextBlock(bp) {
		if !al.a.blockAllocated(bp) {
			fromChain[bp] = true
		}
	}
	for bp := range fromChain {
		if !fromBuckets[bp] {
			return &ErrInvariant{Code: CodeLostFreeBlock, Off: bp, Arg: 1}
		}
	}
	for bp := range fromBuckets {
		if !fromChain[bp] {
			return &ErrInvariant{Code: CodeLostFreeBlock, Off: bp, Arg: 0}
		}
	}
	if err := al.checkListLinks(); err != nil {
		return err
	}

	return nil
}

// checkChain checks the shape of the prologue and epilogue sentinels, then
// walks the block chain from the prologue to the epilogue, verifying each
// block's header/footer agree, its size is a properly aligned multiple no
// smaller than MinBlockSize, and that the walk lands exactly on the
// epilogue with no gap or overlap.
func (al *Allocator) checkChain() error {
	if al.a.blockSize(al.prologue) != 2*wordSize || !al.a.blockAllocated(al.prologue) {
		return &ErrInvariant{Code: CodeHeaderFooterMismatch, Off: al.prologue}
	}
	if al.a.word(al.epilogue) != packWord(0, true) {
		return &ErrInvariant{Code: CodeHeaderFooterMismatch, Off: al.epilogue}
	}

	for bp := al.a.nextBlock(al.prologue); ; bp = al.a.nextBlock(bp) {
		size := al.a.blockSize(bp)
		if bp == al.epilogue {
			break
		}

		if size < MinBlockSize || size%alignment != 0 {
			return &ErrInvariant{Code: CodeBadSize, Off: bp, Arg: int64(size)}
		}
		hdr := al.a.word(bp)
		ftr := al.a.word(footerOff(bp, size))
		if hdr != ftr {
			return &ErrInvariant{Code: CodeHeaderFooterMismatch, Off: bp, Arg: int64(hdr), Arg2: int64(ftr)}
		}
		if payloadOff(bp)%alignment != 0 {
			return &ErrInvariant{Code: CodeMisalignedPayload, Off: bp}
		}
		if next := bp + size; next > al.a.high() {
			return &ErrInvariant{Code: CodeChainGap, Off: bp, Arg: int64(next)}
		}
	}
	return nil
}

// checkNoAdjacentFree walks the chain once more, failing on the first
// pair of immediately adjacent free blocks.
func (al *Allocator) checkNoAdjacentFree() error {
	for bp := al.prologue; bp != al.epilogue; bp = al.a.nextBlock(bp) {
		if al.a.blockAllocated(bp) {
			continue
		}
		next := al.a.nextBlock(bp)
		if !al.a.blockAllocated(next) {
			return &ErrInvariant{Code: CodeAdjacentFree, Off: bp, Arg: int64(next)}
		}
	}
	return nil
}

// checkListLinks confirms every bucket's doubly linked list is
// internally consistent: walking forward from the head and back from
// each node's freeNext must return to that node via freePrev, and the
// head itself must have a nil freePrev.
func (al *Allocator) checkListLinks() error {
	for b := 0; b < numBuckets; b++ {
		head := al.reg.head(b)
		if head == 0 {
			continue
		}
		if al.a.freePrev(head) != 0 {
			return &ErrInvariant{Code: CodeListInconsistent, Off: head}
		}
		for bp := head; bp != 0; bp = al.a.freeNext(bp) {
			if next := al.a.freeNext(bp); next != 0 && al.a.freePrev(next) != bp {
				return &ErrInvariant{Code: CodeListInconsistent, Off: next, Arg: int64(bp)}
			}
		}
	}
	return nil
}
