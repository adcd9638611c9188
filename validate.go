// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Limits bounds the descriptors a Device accepts.
type Limits struct {
	// MaxBindGroups is the maximum number of bind group layouts in a
	// pipeline layout.
	MaxBindGroups uint32

	// MaxBindingsPerBindGroup bounds binding indices: every binding must be
	// strictly below it.
	MaxBindingsPerBindGroup uint32
}

// DefaultLimits returns the WebGPU default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBindGroups:           4,
		MaxBindingsPerBindGroup: 1000,
	}
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

// ValidateBindGroupLayout checks desc against the layout rules:
// bindings are unique and below MaxBindingsPerBindGroup, every entry declares
// exactly one resource kind and at least one shader stage, and the vertex
// stage sees no writable storage buffer or storage texture.
func ValidateBindGroupLayout(desc *BindGroupLayoutDescriptor, limits Limits) error {
	if desc == nil {
		return validationError("nil bind group layout descriptor")
	}
	seen := make(map[uint32]struct{}, len(desc.Entries))
	for i, e := range desc.Entries {
		if _, dup := seen[e.Binding]; dup {
			return validationError("entries[%d]: duplicate binding %d", i, e.Binding)
		}
		seen[e.Binding] = struct{}{}

		if e.Binding >= limits.MaxBindingsPerBindGroup {
			return validationError("entries[%d]: binding %d exceeds limit %d", i, e.Binding, limits.MaxBindingsPerBindGroup)
		}
		if n := SubDescriptorCount(e); n != 1 {
			return validationError("entries[%d]: binding %d declares %d resource kinds, want 1", i, e.Binding, n)
		}
		if e.Visibility == 0 {
			return validationError("entries[%d]: binding %d is visible to no shader stage", i, e.Binding)
		}
		if e.Buffer != nil && e.Buffer.Type == gputypes.BufferBindingTypeStorage &&
			e.Visibility&gputypes.ShaderStageVertex != 0 {
			return validationError("entries[%d]: binding %d is a writable storage buffer visible to the vertex stage", i, e.Binding)
		}
		if e.StorageTexture != nil && e.StorageTexture.Access != gputypes.StorageTextureAccessReadOnly &&
			e.Visibility&gputypes.ShaderStageVertex != 0 {
			return validationError("entries[%d]: binding %d is a writable storage texture visible to the vertex stage", i, e.Binding)
		}
	}
	return nil
}

// ValidatePipelineLayout checks the number of bind groups against limits.
// Validity of the referenced layouts is checked by the caller.
func ValidatePipelineLayout(desc *PipelineLayoutDescriptor, limits Limits) error {
	if desc == nil {
		return validationError("nil pipeline layout descriptor")
	}
	if n := len(desc.BindGroupLayouts); n > int(limits.MaxBindGroups) {
		return validationError("%d bind group layouts exceed limit %d", n, limits.MaxBindGroups)
	}
	for i, id := range desc.BindGroupLayouts {
		if id == InvalidID {
			return validationError("bind group layout %d is null", i)
		}
	}
	return nil
}

// ValidateBindGroup checks that entries bind exactly the slots layout
// declares, with resources of the declared kind and large enough buffer
// ranges.
func ValidateBindGroup(layout EntryMap, entries []BindGroupEntry) error {
	seen := make(map[uint32]struct{}, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.Binding]; dup {
			return validationError("entries[%d]: duplicate binding %d", i, e.Binding)
		}
		seen[e.Binding] = struct{}{}

		decl, ok := layout.entries[e.Binding]
		if !ok {
			return validationError("entries[%d]: binding %d not declared by layout", i, e.Binding)
		}
		if n := e.resourceCount(); n != 1 {
			return validationError("entries[%d]: binding %d sets %d resources, want 1", i, e.Binding, n)
		}

		want := KindOf(decl)
		got := e.Kind()
		if got == BindingKindTexture && want == BindingKindStorageTexture {
			got = want
		}
		if got != want {
			return validationError("entries[%d]: binding %d is a %s slot, got %s", i, e.Binding, want, got)
		}

		if decl.Buffer != nil && decl.Buffer.MinBindingSize > 0 && e.Size != 0 && e.Size < decl.Buffer.MinBindingSize {
			return validationError("entries[%d]: binding %d size %d below minimum %d", i, e.Binding, e.Size, decl.Buffer.MinBindingSize)
		}
	}
	if len(seen) != layout.Len() {
		for _, b := range layout.bindings {
			if _, ok := seen[b]; !ok {
				return validationError("binding %d declared by layout is not bound", b)
			}
		}
	}
	return nil
}
