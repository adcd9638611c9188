// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package identity allocates client-side resource IDs.
//
// An ID packs a slot index in the low 32 bits and an epoch in the high 32
// bits. Freed indices are reused with the next epoch, so an ID never
// matches a live object other than the one it was allocated for.
// Index 0 is never handed out, keeping the zero ID reserved for "null".
package identity

import "sync"

// Allocator hands out IDs. The zero value is ready to use.
type Allocator struct {
	mu     sync.Mutex
	epochs []uint32 // epochs[i] is the current epoch of index i+1
	free   []uint32
	live   int
}

// Alloc returns a fresh ID.
func (a *Allocator) Alloc() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live++
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return Pack(index, a.epochs[index-1])
	}
	a.epochs = append(a.epochs, 1)
	return Pack(uint32(len(a.epochs)), 1)
}

// Free returns id to the allocator. Freeing an ID that is not live
// (already freed, never allocated or from an older epoch) is a no-op and
// reports false.
func (a *Allocator) Free(id uint64) bool {
	index, epoch := Unpack(id)
	a.mu.Lock()
	defer a.mu.Unlock()

	if index == 0 || int(index) > len(a.epochs) || a.epochs[index-1] != epoch {
		return false
	}
	a.epochs[index-1]++
	a.free = append(a.free, index)
	a.live--
	return true
}

// Live returns the number of allocated, not yet freed IDs.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Pack combines an index and an epoch into an ID.
func Pack(index, epoch uint32) uint64 {
	return uint64(epoch)<<32 | uint64(index)
}

// Unpack splits an ID into index and epoch.
func Unpack(id uint64) (index, epoch uint32) {
	return uint32(id), uint32(id >> 32)
}
