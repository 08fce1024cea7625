// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The single-mutator debug guard. spec.md §5 scopes the core to one
// goroutine at a time and pushes any serialization above the Allocator;
// this is the opt-in check that catches a violation of that contract
// instead of silently corrupting the arena. Grounded on the teacher's
// goroutine-id tagging idiom in flier-goutil's internal/debug package,
// which stamps log lines with routine.Goid(); here the same id is used
// to compare "who bound this Allocator" against "who is calling it now".

package salloc

import "github.com/timandy/routine"

// mutatorGuard records the goroutine that initialized an Allocator and,
// once enabled, rejects calls arriving from any other goroutine. It is
// zero-cost when disabled (the default): bind and check both return
// immediately without touching routine.Goid.
type mutatorGuard struct {
	enabled bool
	owner   int64
}

// bind records the calling goroutine as the Allocator's owner. Called
// once, from NewAllocator.
func (g *mutatorGuard) bind() {
	if !g.enabled {
		return
	}
	g.owner = routine.Goid()
}

// check reports ErrINVAL if the guard is enabled and the calling
// goroutine differs from the one that called bind.
func (g *mutatorGuard) check() error {
	if !g.enabled {
		return nil
	}
	if id := routine.Goid(); id != g.owner {
		return &ErrINVAL{"allocator accessed from a goroutine other than its owner", id}
	}
	return nil
}
