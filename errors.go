// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package salloc

import "fmt"

// ErrINVAL reports an invalid argument caught at an API boundary, e.g. a
// capacity too small to hold the sentinels, or (with the mutator guard
// enabled) a call from a goroutine other than the Allocator's owner.
type ErrINVAL struct {
	Msg string
	Arg interface{}
}

func (e *ErrINVAL) Error() string {
	return fmt.Sprintf("salloc: invalid argument: %s (%v)", e.Msg, e.Arg)
}

// Code enumerates the kinds of structural problems CheckInvariants can
// find. It does not enumerate client misuse (double free, foreign pointer,
// use after free) — those are undefined behavior per spec and are, at
// best, only indirectly observable as one of the codes below.
type Code int

const (
	_ Code = iota

	// CodeHeaderFooterMismatch: a block's header and footer disagree on
	// size or allocation bit.
	CodeHeaderFooterMismatch

	// CodeBadSize: a block's size is not a positive multiple of 8, or is
	// smaller than MinBlockSize.
	CodeBadSize

	// CodeChainGap: walking the block chain from the prologue did not
	// land exactly on the epilogue.
	CodeChainGap

	// CodeMisalignedPayload: a returned or computed payload address is
	// not 8-byte aligned.
	CodeMisalignedPayload

	// CodeAdjacentFree: two immediately adjacent blocks are both free,
	// violating the coalescing invariant.
	CodeAdjacentFree

	// CodeBucketMismatch: a free block is linked into a bucket whose
	// size range does not contain it.
	CodeBucketMismatch

	// CodeListInconsistent: a free list's prev/next links do not agree
	// with each other, or a bucket head has a non-nil prev link. A block
	// linked into more than one list is not reported under this code.
	CodeListInconsistent

	// CodeLostFreeBlock: a block tagged free on the chain does not
	// appear in any bucket's list (or vice versa).
	CodeLostFreeBlock

	// CodeOther: a problem that fits none of the codes above.
	// CheckInvariants never returns it.
	CodeOther
)

func (c Code) String() string {
	switch c {
	case CodeHeaderFooterMismatch:
		return "header/footer mismatch"
	case CodeBadSize:
		return "invalid block size"
	case CodeChainGap:
		return "block chain gap or overlap"
	case CodeMisalignedPayload:
		return "misaligned payload"
	case CodeAdjacentFree:
		return "adjacent free blocks"
	case CodeBucketMismatch:
		return "free block in wrong bucket"
	case CodeListInconsistent:
		return "free list inconsistency"
	case CodeLostFreeBlock:
		return "lost free block"
	case CodeOther:
		return "other"
	default:
		return "unknown"
	}
}

// ErrInvariant reports a single structural problem found by
// Allocator.CheckInvariants. Off is the arena-relative byte offset of the
// offending block, where applicable.
type ErrInvariant struct {
	Code Code
	Off  int
	Arg  int64
	Arg2 int64
	More error
}

func (e *ErrInvariant) Error() string {
	if e.More != nil {
		return fmt.Sprintf("salloc: %s at offset %#x: %s", e.Code, e.Off, e.More)
	}
	return fmt.Sprintf("salloc: %s at offset %#x (%d, %d)", e.Code, e.Off, e.Arg, e.Arg2)
}

func (e *ErrInvariant) Unwrap() error { return e.More }
