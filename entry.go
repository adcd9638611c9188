// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"iter"
	"maps"
	"slices"

	"github.com/gogpu/gputypes"
)

// BindingKind is the resource kind an entry declares.
type BindingKind uint8

// Binding kinds.
const (
	BindingKindNone BindingKind = iota
	BindingKindBuffer
	BindingKindSampler
	BindingKindTexture
	BindingKindStorageTexture
)

// String returns a short name for the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingKindBuffer:
		return "buffer"
	case BindingKindSampler:
		return "sampler"
	case BindingKindTexture:
		return "texture"
	case BindingKindStorageTexture:
		return "storage-texture"
	default:
		return "none"
	}
}

// KindOf reports the resource kind declared by e.
// KindOf does not detect entries that set more than one kind; use
// SubDescriptorCount for that.
func KindOf(e gputypes.BindGroupLayoutEntry) BindingKind {
	switch {
	case e.Buffer != nil:
		return BindingKindBuffer
	case e.Sampler != nil:
		return BindingKindSampler
	case e.Texture != nil:
		return BindingKindTexture
	case e.StorageTexture != nil:
		return BindingKindStorageTexture
	default:
		return BindingKindNone
	}
}

// SubDescriptorCount returns how many kind-specific sub-descriptors e sets.
// A well-formed entry sets exactly one.
func SubDescriptorCount(e gputypes.BindGroupLayoutEntry) int {
	n := 0
	if e.Buffer != nil {
		n++
	}
	if e.Sampler != nil {
		n++
	}
	if e.Texture != nil {
		n++
	}
	if e.StorageTexture != nil {
		n++
	}
	return n
}

// cloneEntry returns a copy of e that shares no memory with it.
// Sub-descriptors are flat structs, so copying the pointee is enough.
func cloneEntry(e gputypes.BindGroupLayoutEntry) gputypes.BindGroupLayoutEntry {
	if e.Buffer != nil {
		b := *e.Buffer
		e.Buffer = &b
	}
	if e.Sampler != nil {
		s := *e.Sampler
		e.Sampler = &s
	}
	if e.Texture != nil {
		t := *e.Texture
		e.Texture = &t
	}
	if e.StorageTexture != nil {
		st := *e.StorageTexture
		e.StorageTexture = &st
	}
	return e
}

// EntryMap is a read-only view of a layout's entries keyed by binding slot.
//
// The zero value is an empty map. An EntryMap never hands out memory it
// owns: every entry returned is a deep copy.
type EntryMap struct {
	entries  map[uint32]gputypes.BindGroupLayoutEntry
	bindings []uint32 // sorted
}

// NewEntryMap builds an EntryMap from m, copying every entry.
// The Binding field of each stored entry is set to its key.
func NewEntryMap(m map[uint32]gputypes.BindGroupLayoutEntry) EntryMap {
	if len(m) == 0 {
		return EntryMap{}
	}
	em := EntryMap{
		entries:  make(map[uint32]gputypes.BindGroupLayoutEntry, len(m)),
		bindings: slices.Sorted(maps.Keys(m)),
	}
	for binding, e := range m {
		c := cloneEntry(e)
		c.Binding = binding
		em.entries[binding] = c
	}
	return em
}

// entryMapFromSlice builds an EntryMap from descriptor entries.
// Later entries replace earlier ones with the same binding; the returned
// flag reports whether that happened.
func entryMapFromSlice(entries []gputypes.BindGroupLayoutEntry) (EntryMap, bool) {
	m := make(map[uint32]gputypes.BindGroupLayoutEntry, len(entries))
	dup := false
	for _, e := range entries {
		if _, ok := m[e.Binding]; ok {
			dup = true
		}
		m[e.Binding] = e
	}
	return NewEntryMap(m), dup
}

// Len returns the number of bindings.
func (m EntryMap) Len() int {
	return len(m.entries)
}

// Get returns the entry declared for binding. The second result is false if
// the layout declares no such binding.
func (m EntryMap) Get(binding uint32) (gputypes.BindGroupLayoutEntry, bool) {
	e, ok := m.entries[binding]
	if !ok {
		return gputypes.BindGroupLayoutEntry{}, false
	}
	return cloneEntry(e), true
}

// Has reports whether binding is declared.
func (m EntryMap) Has(binding uint32) bool {
	_, ok := m.entries[binding]
	return ok
}

// Kind returns the resource kind declared for binding, or BindingKindNone.
func (m EntryMap) Kind(binding uint32) BindingKind {
	e, ok := m.entries[binding]
	if !ok {
		return BindingKindNone
	}
	return KindOf(e)
}

// Bindings returns the declared binding slots in ascending order.
func (m EntryMap) Bindings() []uint32 {
	return slices.Clone(m.bindings)
}

// All iterates over entries in ascending binding order.
func (m EntryMap) All() iter.Seq2[uint32, gputypes.BindGroupLayoutEntry] {
	return func(yield func(uint32, gputypes.BindGroupLayoutEntry) bool) {
		for _, b := range m.bindings {
			if !yield(b, cloneEntry(m.entries[b])) {
				return
			}
		}
	}
}

// Slice returns the entries in ascending binding order, suitable for a
// backend descriptor.
func (m EntryMap) Slice() []gputypes.BindGroupLayoutEntry {
	out := make([]gputypes.BindGroupLayoutEntry, 0, len(m.bindings))
	for _, e := range m.All() {
		out = append(out, e)
	}
	return out
}

// Map returns a fresh map holding copies of every entry. Mutating it has no
// effect on the EntryMap.
func (m EntryMap) Map() map[uint32]gputypes.BindGroupLayoutEntry {
	out := make(map[uint32]gputypes.BindGroupLayoutEntry, len(m.entries))
	for b, e := range m.All() {
		out[b] = e
	}
	return out
}

// CloneEntries returns a deep copy of entries, preserving order and
// duplicates.
func CloneEntries(entries []gputypes.BindGroupLayoutEntry) []gputypes.BindGroupLayoutEntry {
	if entries == nil {
		return nil
	}
	out := make([]gputypes.BindGroupLayoutEntry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out
}
