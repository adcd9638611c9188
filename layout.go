// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "github.com/gogpu/gputypes"

// BindGroupLayout is the client-side handle to a backend bind group layout.
//
// It records the backend identity, an immutable copy of the declared entries
// and a validity flag. The handle performs no backend traffic and has no
// fallible methods: whoever negotiated creation with the backend decides the
// initial validity, and the owning Device invalidates it when the backend
// reports a failure.
//
// BindGroupLayout is safe for concurrent use.
type BindGroupLayout struct {
	objectBase

	id      LayoutID
	entries EntryMap
	channel Channel
}

// NewBindGroupLayout constructs a handle from already-resolved creation
// results. No validation is performed and it always succeeds.
//
// entries is deep-copied: later changes to the map or its sub-descriptors do
// not affect the handle. ch is shared, not owned; the handle never closes or
// replaces it.
func NewBindGroupLayout(ch Channel, id LayoutID, entries map[uint32]gputypes.BindGroupLayoutEntry, valid bool) *BindGroupLayout {
	return newBindGroupLayout(ch, id, NewEntryMap(entries), valid)
}

func newBindGroupLayout(ch Channel, id LayoutID, entries EntryMap, valid bool) *BindGroupLayout {
	l := &BindGroupLayout{
		id:      id,
		entries: entries,
		channel: ch,
	}
	l.init(valid)
	return l
}

// ID returns the backend correlation key. It never changes.
func (l *BindGroupLayout) ID() LayoutID {
	return l.id
}

// Entries returns the declared entries. The view is read-only.
func (l *BindGroupLayout) Entries() EntryMap {
	return l.entries
}

// Entry returns the entry declared for binding.
func (l *BindGroupLayout) Entry(binding uint32) (gputypes.BindGroupLayoutEntry, bool) {
	return l.entries.Get(binding)
}

// Channel returns the conduit requests for this layout are routed through.
func (l *BindGroupLayout) Channel() Channel {
	return l.channel
}

// String implements fmt.Stringer.
func (l *BindGroupLayout) String() string {
	return l.id.String()
}

// SameLayout reports whether a and b refer to the same backend layout.
// Equality is by identity: two layouts with identical entries but different
// IDs are distinct.
func SameLayout(a, b *BindGroupLayout) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.id == b.id && a.channel == b.channel
}
