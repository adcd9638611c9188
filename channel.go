// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "github.com/gogpu/gputypes"

// Channel is the conduit to the backend that owns the real GPU resources.
//
// IDs are allocated by the client and passed with every request. A Create
// call returning nil means the request was accepted: synchronous backends
// have finished creating the resource, asynchronous ones may still reject it
// later through ErrorReporter. Destroy calls are fire-and-forget.
//
// Implementations must be safe for concurrent use. Ordering and delivery of
// requests are the implementation's contract.
type Channel interface {
	// CreateBindGroupLayout creates the layout identified by id.
	CreateBindGroupLayout(id LayoutID, desc *BindGroupLayoutDescriptor) error

	// DestroyBindGroupLayout releases the layout identified by id.
	DestroyBindGroupLayout(id LayoutID)

	// CreatePipelineLayout creates a pipeline layout from existing
	// bind group layouts.
	CreatePipelineLayout(id PipelineLayoutID, desc *PipelineLayoutDescriptor) error

	// DestroyPipelineLayout releases the pipeline layout identified by id.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateBindGroup creates a bind group conforming to desc.Layout.
	CreateBindGroup(id BindGroupID, desc *BindGroupDescriptor) error

	// DestroyBindGroup releases the bind group identified by id.
	DestroyBindGroup(id BindGroupID)
}

// Report is an asynchronous failure notice from the backend.
type Report struct {
	Err  error
	ID   uint64
	Kind ResourceKind
}

// ErrorReporter is implemented by channels whose backend can fail after a
// request was accepted. The Device installs its callback at construction.
// The callback may be invoked from any goroutine.
type ErrorReporter interface {
	SetErrorCallback(fn func(Report))
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []gputypes.BindGroupLayoutEntry
}

// PipelineLayoutDescriptor describes a pipeline layout.
type PipelineLayoutDescriptor struct {
	// Label is an optional debug label.
	Label string

	// BindGroupLayouts lists the layout for each bind group index.
	BindGroupLayouts []LayoutID
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout the group conforms to.
	Layout LayoutID

	// Entries binds resources to layout slots.
	Entries []BindGroupEntry
}

// BindGroupEntry binds one resource to a binding slot.
// Exactly one of Buffer, Sampler and TextureView must be set.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind (for buffer bindings).
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64

	// Sampler is the sampler to bind (for sampler bindings).
	Sampler SamplerID

	// TextureView is the view to bind (for texture and storage texture bindings).
	TextureView TextureViewID
}

// Kind reports the resource kind the entry binds. Texture views satisfy both
// texture and storage texture slots; BindingKindTexture is returned for them.
func (e BindGroupEntry) Kind() BindingKind {
	switch {
	case e.Buffer != InvalidID:
		return BindingKindBuffer
	case e.Sampler != InvalidID:
		return BindingKindSampler
	case e.TextureView != InvalidID:
		return BindingKindTexture
	default:
		return BindingKindNone
	}
}

// resourceCount returns how many resources the entry sets.
func (e BindGroupEntry) resourceCount() int {
	n := 0
	if e.Buffer != InvalidID {
		n++
	}
	if e.Sampler != InvalidID {
		n++
	}
	if e.TextureView != InvalidID {
		n++
	}
	return n
}
