// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "fmt"

// Resource IDs
//
// These opaque IDs correlate client-side objects with backend resources.
// They are allocated by the Device and handed to the Channel with every
// request concerning the object. The zero value is never allocated.

// LayoutID is an opaque handle to a bind group layout.
type LayoutID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// BufferID is an opaque handle to a buffer known to the backend.
type BufferID uint64

// SamplerID is an opaque handle to a sampler known to the backend.
type SamplerID uint64

// TextureViewID is an opaque handle to a texture view known to the backend.
type TextureViewID uint64

// InvalidID is the zero value, representing a null resource.
const InvalidID = 0

func (id LayoutID) String() string         { return formatID("bgl", uint64(id)) }
func (id PipelineLayoutID) String() string { return formatID("pl", uint64(id)) }
func (id BindGroupID) String() string      { return formatID("bg", uint64(id)) }

// formatID renders index and epoch separately, matching the allocator's packing.
func formatID(prefix string, raw uint64) string {
	return fmt.Sprintf("%s#%d.%d", prefix, uint32(raw), uint32(raw>>32))
}

// ResourceKind names the type of object a Report or Error refers to.
type ResourceKind uint8

// Resource kinds.
const (
	ResourceBindGroupLayout ResourceKind = iota + 1
	ResourcePipelineLayout
	ResourceBindGroup
)

// String returns the WebGPU interface name of the kind.
func (k ResourceKind) String() string {
	switch k {
	case ResourceBindGroupLayout:
		return "GPUBindGroupLayout"
	case ResourcePipelineLayout:
		return "GPUPipelineLayout"
	case ResourceBindGroup:
		return "GPUBindGroup"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint8(k))
	}
}
