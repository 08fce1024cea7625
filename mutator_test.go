// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package salloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestMutatorGuardDisabledByDefault(t *testing.T) {
	al := newTestAllocator(t)
	assert.False(t, al.mutator.enabled)
	assert.NoError(t, al.mutator.check())
}

func TestMutatorGuardSameGoroutineOK(t *testing.T) {
	al := newTestAllocator(t, WithMutatorCheck())
	p := al.Alloc(16)
	requireAlloc(t, p)
	al.Free(p)
}

func TestMutatorGuardCrossGoroutineRejected(t *testing.T) {
	al := newTestAllocator(t, WithMutatorCheck())

	var wg sync.WaitGroup
	var p unsafe.Pointer
	wg.Add(1)
	go func() {
		defer wg.Done()
		p = al.Alloc(16)
	}()
	wg.Wait()

	if p != nil {
		t.Fatal("Alloc from a non-owning goroutine must be rejected")
	}
}
