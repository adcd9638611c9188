// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bindlayout provides client-side handles for GPU bind group layouts
// whose real resources live in an isolated backend.
//
// # Overview
//
// A [BindGroupLayout] is a lightweight value that pairs an opaque backend
// identity ([LayoutID]) with an immutable copy of the layout's declared shape
// (an [EntryMap] of [gputypes.BindGroupLayoutEntry] keyed by binding slot)
// and a one-way validity flag. The backend resource itself is created,
// referenced and released through a [Channel].
//
// The handle never talks to the backend on its own and none of its methods
// can fail. Creation is negotiated by the owning [Device] before the handle
// exists; failures are recorded in the validity flag and reported as errors by
// whoever requested the work.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/bindlayout"
//	    "github.com/gogpu/bindlayout/backend/loopback"
//	    "github.com/gogpu/gputypes"
//	)
//
//	ch := loopback.New()
//	defer ch.Close()
//
//	dev := bindlayout.NewDevice(ch)
//	defer dev.Destroy()
//
//	layout, err := dev.CreateBindGroupLayout(&bindlayout.BindGroupLayoutDescriptor{
//	    Label: "particles",
//	    Entries: []gputypes.BindGroupLayoutEntry{{
//	        Binding:    0,
//	        Visibility: gputypes.ShaderStageCompute,
//	        Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
//	    }},
//	})
//	if err != nil {
//	    // layout is non-nil but invalid
//	}
//
// # Validity
//
// Validity only ever degrades. A layout is born invalid when the backend
// rejects its descriptor, and a valid layout becomes invalid when the backend
// later reports a failure for its identity. Dependent constructors
// ([Device.CreatePipelineLayout], [Device.CreateBindGroup]) refuse invalid
// layouts with an [ErrStaleUse] error. Objects already built from a layout
// keep their own validity when the layout is invalidated afterwards.
//
// # Concurrency
//
// Handles are safe for concurrent use. Readers never observe a partially
// written label and the validity flag never flickers back to true.
// Ordering of backend requests is the [Channel]'s responsibility.
//
// # Logging
//
// The package is silent by default. See [SetLogger].
package bindlayout
