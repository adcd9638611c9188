// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "slices"

// PipelineLayoutDesc describes a pipeline layout in terms of client handles.
type PipelineLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// BindGroupLayouts lists the layout for each bind group index.
	BindGroupLayouts []*BindGroupLayout
}

// PipelineLayout is the client-side handle to a backend pipeline layout.
// It keeps the bind group layouts it was built from.
type PipelineLayout struct {
	objectBase

	id      PipelineLayoutID
	layouts []*BindGroupLayout
}

func newPipelineLayout(id PipelineLayoutID, layouts []*BindGroupLayout, valid bool) *PipelineLayout {
	p := &PipelineLayout{
		id:      id,
		layouts: slices.Clone(layouts),
	}
	p.init(valid)
	return p
}

// ID returns the backend correlation key.
func (p *PipelineLayout) ID() PipelineLayoutID {
	return p.id
}

// BindGroupLayouts returns the layouts by group index.
func (p *PipelineLayout) BindGroupLayouts() []*BindGroupLayout {
	return slices.Clone(p.layouts)
}

// BindGroupLayout returns the layout at group index.
func (p *PipelineLayout) BindGroupLayout(index int) (*BindGroupLayout, bool) {
	if index < 0 || index >= len(p.layouts) {
		return nil, false
	}
	return p.layouts[index], true
}

// String implements fmt.Stringer.
func (p *PipelineLayout) String() string {
	return p.id.String()
}
