// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "slices"

// BindGroupDesc describes a bind group in terms of client handles.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout the group conforms to.
	Layout *BindGroupLayout

	// Entries binds resources to layout slots.
	Entries []BindGroupEntry
}

// BindGroup is the client-side handle to a backend bind group.
//
// A bind group keeps its own validity: invalidating its layout afterwards
// does not invalidate the bind group.
type BindGroup struct {
	objectBase

	id      BindGroupID
	layout  *BindGroupLayout
	entries []BindGroupEntry
}

func newBindGroup(id BindGroupID, layout *BindGroupLayout, entries []BindGroupEntry, valid bool) *BindGroup {
	g := &BindGroup{
		id:      id,
		layout:  layout,
		entries: slices.Clone(entries),
	}
	g.init(valid)
	return g
}

// ID returns the backend correlation key.
func (g *BindGroup) ID() BindGroupID {
	return g.id
}

// Layout returns the layout the group was created against.
func (g *BindGroup) Layout() *BindGroupLayout {
	return g.layout
}

// Entries returns a copy of the bound resources.
func (g *BindGroup) Entries() []BindGroupEntry {
	return slices.Clone(g.entries)
}

// String implements fmt.Stringer.
func (g *BindGroup) String() string {
	return g.id.String()
}
