// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"runtime"
	"weak"

	"github.com/gogpu/bindlayout/internal/identity"
)

// tracked is a registry slot. The registry only holds a weak reference so it
// never keeps a handle alive on its own.
type tracked[T any] struct {
	ptr weak.Pointer[T]
	// remote reports whether the backend holds a resource for the ID.
	remote bool
}

// objectTable maps IDs of one resource kind to live objects.
// It is not safe for concurrent use; Device serializes access.
type objectTable[K ~uint64, T any] struct {
	ids   identity.Allocator
	items map[K]tracked[T]
}

func (t *objectTable[K, T]) alloc() K {
	return K(t.ids.Alloc())
}

func (t *objectTable[K, T]) insert(id K, obj *T) {
	if t.items == nil {
		t.items = make(map[K]tracked[T])
	}
	t.items[id] = tracked[T]{ptr: weak.Make(obj), remote: true}
}

func (t *objectTable[K, T]) markLocal(id K) {
	if it, ok := t.items[id]; ok {
		it.remote = false
		t.items[id] = it
	}
}

// get returns the live object for id. Objects already reclaimed by the
// garbage collector are reported as absent.
func (t *objectTable[K, T]) get(id K) (*T, bool) {
	it, ok := t.items[id]
	if !ok {
		return nil, false
	}
	v := it.ptr.Value()
	return v, v != nil
}

// remove drops id from the table and frees it for reuse.
func (t *objectTable[K, T]) remove(id K) (tracked[T], bool) {
	it, ok := t.items[id]
	if !ok {
		return tracked[T]{}, false
	}
	delete(t.items, id)
	t.ids.Free(uint64(id))
	return it, true
}

// drain removes every entry and returns them.
func (t *objectTable[K, T]) drain() map[K]tracked[T] {
	items := t.items
	t.items = nil
	for id := range items {
		t.ids.Free(uint64(id))
	}
	return items
}

// has reports whether id is still tracked, live or not.
func (t *objectTable[K, T]) has(id K) bool {
	_, ok := t.items[id]
	return ok
}

func (t *objectTable[K, T]) len() int {
	return len(t.items)
}

// releaseWhenCollected arranges for release to run after obj becomes
// unreachable. release must not reference obj.
func releaseWhenCollected[T, K any](obj *T, id K, release func(K)) {
	runtime.AddCleanup(obj, release, id)
}
