// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"errors"
	"sync"
)

// Device is the owning context for client-side GPU objects created over one
// Channel. It allocates identities, validates descriptors, negotiates
// creation with the backend, tracks live objects and translates backend
// failures into validity changes.
//
// A Channel must not be shared between Devices: identities are unique only
// among the objects of one Device.
//
// Device is safe for concurrent use.
type Device struct {
	channel Channel
	opts    deviceOptions

	mu              sync.Mutex
	destroyed       bool
	lostErr         error
	lost            chan struct{}
	layouts         objectTable[LayoutID, BindGroupLayout]
	pipelineLayouts objectTable[PipelineLayoutID, PipelineLayout]
	bindGroups      objectTable[BindGroupID, BindGroup]
}

// NewDevice creates a Device that talks to the backend through ch.
// If ch implements ErrorReporter, the Device subscribes to its reports.
func NewDevice(ch Channel, opts ...DeviceOption) *Device {
	o := defaultDeviceOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		channel: ch,
		opts:    o,
		lost:    make(chan struct{}),
	}
	if r, ok := ch.(ErrorReporter); ok {
		r.SetErrorCallback(d.handleReport)
	}

	Logger().Info("bindlayout: device opened", "label", o.label)
	return d
}

// Channel returns the conduit the device sends requests through.
func (d *Device) Channel() Channel {
	return d.channel
}

// Limits returns the limits used for client-side validation.
func (d *Device) Limits() Limits {
	return d.opts.limits
}

// Lost returns a channel closed when the backend connection is lost.
func (d *Device) Lost() <-chan struct{} {
	return d.lost
}

// LostErr returns the error that caused the device to be lost, or nil.
func (d *Device) LostErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lostErr
}

// unusable returns the reason new objects cannot be created, or nil.
// Must be called with mu held.
func (d *Device) unusable() error {
	if d.lostErr != nil {
		return d.lostErr
	}
	if d.destroyed {
		return ErrDeviceClosed
	}
	return nil
}

// CreateBindGroupLayout creates a bind group layout.
//
// The returned layout is never nil. If client-side validation or the
// backend rejects desc, the layout is invalid and the error has kind
// KindCreationFailed. Asynchronous backends may still invalidate a layout
// returned without error; see WithUncapturedErrorHandler.
//
// Entries with duplicate bindings make the layout invalid; the entry map
// then holds the last entry for each binding.
func (d *Device) CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (*BindGroupLayout, error) {
	if desc == nil {
		desc = &BindGroupLayoutDescriptor{}
	}
	entries, _ := entryMapFromSlice(desc.Entries)

	d.mu.Lock()
	if err := d.unusable(); err != nil {
		d.mu.Unlock()
		l := newBindGroupLayout(d.channel, InvalidID, entries, false)
		setLabel(l, desc.Label)
		return l, newError(KindCreationFailed, ResourceBindGroupLayout, InvalidID, desc.Label, err)
	}
	id := d.layouts.alloc()
	l := newBindGroupLayout(d.channel, id, entries, true)
	setLabel(l, desc.Label)
	d.layouts.insert(id, l)
	d.mu.Unlock()

	track(d, l, id, d.collectBindGroupLayout)

	var cause error
	if err := ValidateBindGroupLayout(desc, d.opts.limits); err != nil {
		cause = err
	} else if err := d.channel.CreateBindGroupLayout(id, desc); err != nil {
		cause = err
	}
	if cause != nil {
		d.mu.Lock()
		d.layouts.markLocal(id)
		d.mu.Unlock()
		l.Invalidate()
		Logger().Debug("bindlayout: bind group layout rejected", "id", id, "label", desc.Label, "err", cause)
		return l, newError(KindCreationFailed, ResourceBindGroupLayout, uint64(id), desc.Label, cause)
	}

	if err := confirmCreated(d, &d.layouts, id, d.channel.DestroyBindGroupLayout); err != nil {
		l.Invalidate()
		return l, newError(KindCreationFailed, ResourceBindGroupLayout, uint64(id), desc.Label, err)
	}

	Logger().Debug("bindlayout: bind group layout created", "id", id, "label", desc.Label, "bindings", entries.Len())
	return l, nil
}

// CreatePipelineLayout creates a pipeline layout from bind group layouts.
//
// Every layout must be valid and belong to this device; an invalid layout
// yields an invalid pipeline layout and an error of kind KindStaleUse.
// The returned pipeline layout is never nil.
func (d *Device) CreatePipelineLayout(desc *PipelineLayoutDesc) (*PipelineLayout, error) {
	if desc == nil {
		desc = &PipelineLayoutDesc{}
	}
	wire := &PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: make([]LayoutID, len(desc.BindGroupLayouts)),
	}
	for i, l := range desc.BindGroupLayouts {
		if l != nil {
			wire.BindGroupLayouts[i] = l.ID()
		}
	}

	d.mu.Lock()
	if err := d.unusable(); err != nil {
		d.mu.Unlock()
		p := newPipelineLayout(InvalidID, desc.BindGroupLayouts, false)
		setLabel(p, desc.Label)
		return p, newError(KindCreationFailed, ResourcePipelineLayout, InvalidID, desc.Label, err)
	}
	id := d.pipelineLayouts.alloc()
	p := newPipelineLayout(id, desc.BindGroupLayouts, true)
	setLabel(p, desc.Label)
	d.pipelineLayouts.insert(id, p)
	d.mu.Unlock()

	track(d, p, id, d.collectPipelineLayout)

	fail := func(kind ErrorKind, cause error) (*PipelineLayout, error) {
		d.mu.Lock()
		d.pipelineLayouts.markLocal(id)
		d.mu.Unlock()
		p.Invalidate()
		Logger().Warn("bindlayout: pipeline layout rejected", "id", id, "label", desc.Label, "err", cause)
		return p, newError(kind, ResourcePipelineLayout, uint64(id), desc.Label, cause)
	}

	for i, l := range desc.BindGroupLayouts {
		if l == nil {
			return fail(KindCreationFailed, validationError("bind group layout %d is nil", i))
		}
		if l.Channel() != d.channel {
			return fail(KindCreationFailed, validationError("bind group layout %d (%s) belongs to another device", i, l.ID()))
		}
		if !l.IsValid() {
			return fail(KindStaleUse, newError(KindStaleUse, ResourceBindGroupLayout, uint64(l.ID()), l.labelOrEmpty(), nil))
		}
	}
	if err := ValidatePipelineLayout(wire, d.opts.limits); err != nil {
		return fail(KindCreationFailed, err)
	}
	if err := d.channel.CreatePipelineLayout(id, wire); err != nil {
		return fail(KindCreationFailed, err)
	}

	if err := confirmCreated(d, &d.pipelineLayouts, id, d.channel.DestroyPipelineLayout); err != nil {
		p.Invalidate()
		return p, newError(KindCreationFailed, ResourcePipelineLayout, uint64(id), desc.Label, err)
	}

	Logger().Debug("bindlayout: pipeline layout created", "id", id, "label", desc.Label, "groups", len(desc.BindGroupLayouts))
	return p, nil
}

// CreateBindGroup creates a bind group conforming to desc.Layout.
//
// An invalid layout yields an invalid bind group and an error of kind
// KindStaleUse. Entries must bind exactly the layout's slots with resources
// of the declared kinds. The returned bind group is never nil.
func (d *Device) CreateBindGroup(desc *BindGroupDesc) (*BindGroup, error) {
	if desc == nil {
		desc = &BindGroupDesc{}
	}

	d.mu.Lock()
	if err := d.unusable(); err != nil {
		d.mu.Unlock()
		g := newBindGroup(InvalidID, desc.Layout, desc.Entries, false)
		setLabel(g, desc.Label)
		return g, newError(KindCreationFailed, ResourceBindGroup, InvalidID, desc.Label, err)
	}
	id := d.bindGroups.alloc()
	g := newBindGroup(id, desc.Layout, desc.Entries, true)
	setLabel(g, desc.Label)
	d.bindGroups.insert(id, g)
	d.mu.Unlock()

	track(d, g, id, d.collectBindGroup)

	fail := func(kind ErrorKind, cause error) (*BindGroup, error) {
		d.mu.Lock()
		d.bindGroups.markLocal(id)
		d.mu.Unlock()
		g.Invalidate()
		Logger().Warn("bindlayout: bind group rejected", "id", id, "label", desc.Label, "err", cause)
		return g, newError(kind, ResourceBindGroup, uint64(id), desc.Label, cause)
	}

	l := desc.Layout
	switch {
	case l == nil:
		return fail(KindCreationFailed, validationError("nil bind group layout"))
	case l.Channel() != d.channel:
		return fail(KindCreationFailed, validationError("bind group layout %s belongs to another device", l.ID()))
	case !l.IsValid():
		return fail(KindStaleUse, newError(KindStaleUse, ResourceBindGroupLayout, uint64(l.ID()), l.labelOrEmpty(), nil))
	}
	if err := ValidateBindGroup(l.Entries(), desc.Entries); err != nil {
		return fail(KindCreationFailed, err)
	}
	wire := &BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  l.ID(),
		Entries: g.Entries(),
	}
	if err := d.channel.CreateBindGroup(id, wire); err != nil {
		return fail(KindCreationFailed, err)
	}

	if err := confirmCreated(d, &d.bindGroups, id, d.channel.DestroyBindGroup); err != nil {
		g.Invalidate()
		return g, newError(KindCreationFailed, ResourceBindGroup, uint64(id), desc.Label, err)
	}

	Logger().Debug("bindlayout: bind group created", "id", id, "label", desc.Label, "layout", l.ID())
	return g, nil
}

// Lookup returns the live layout with the given identity.
func (d *Device) Lookup(id LayoutID) (*BindGroupLayout, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layouts.get(id)
}

// LiveObjects returns the number of tracked layouts, pipeline layouts and
// bind groups.
func (d *Device) LiveObjects() (layouts, pipelineLayouts, bindGroups int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layouts.len(), d.pipelineLayouts.len(), d.bindGroups.len()
}

// ReleaseBindGroupLayout releases the backend layout and invalidates l.
// Releasing twice is a no-op.
func (d *Device) ReleaseBindGroupLayout(l *BindGroupLayout) {
	if l == nil {
		return
	}
	l.Invalidate()
	d.releaseBindGroupLayout(l.ID())
}

// ReleasePipelineLayout releases the backend pipeline layout and
// invalidates p. Releasing twice is a no-op.
func (d *Device) ReleasePipelineLayout(p *PipelineLayout) {
	if p == nil {
		return
	}
	p.Invalidate()
	d.releasePipelineLayout(p.ID())
}

// ReleaseBindGroup releases the backend bind group and invalidates g.
// Releasing twice is a no-op.
func (d *Device) ReleaseBindGroup(g *BindGroup) {
	if g == nil {
		return
	}
	g.Invalidate()
	d.releaseBindGroup(g.ID())
}

func (d *Device) releaseBindGroupLayout(id LayoutID) {
	d.mu.Lock()
	it, ok := d.layouts.remove(id)
	d.mu.Unlock()
	if ok && it.remote {
		d.channel.DestroyBindGroupLayout(id)
		Logger().Debug("bindlayout: bind group layout released", "id", id)
	}
}

func (d *Device) releasePipelineLayout(id PipelineLayoutID) {
	d.mu.Lock()
	it, ok := d.pipelineLayouts.remove(id)
	d.mu.Unlock()
	if ok && it.remote {
		d.channel.DestroyPipelineLayout(id)
		Logger().Debug("bindlayout: pipeline layout released", "id", id)
	}
}

func (d *Device) releaseBindGroup(id BindGroupID) {
	d.mu.Lock()
	it, ok := d.bindGroups.remove(id)
	d.mu.Unlock()
	if ok && it.remote {
		d.channel.DestroyBindGroup(id)
		Logger().Debug("bindlayout: bind group released", "id", id)
	}
}

// Destroy releases every object still tracked by the device and invalidates
// the live ones. Later create calls return invalid objects with
// ErrDeviceClosed as cause. Destroy does not close the Channel.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	groups := d.bindGroups.drain()
	pipelines := d.pipelineLayouts.drain()
	layouts := d.layouts.drain()
	d.mu.Unlock()

	// Dependents go first so the backend never sees a dangling reference.
	for id, it := range groups {
		if g := it.ptr.Value(); g != nil {
			g.Invalidate()
		}
		if it.remote {
			d.channel.DestroyBindGroup(id)
		}
	}
	for id, it := range pipelines {
		if p := it.ptr.Value(); p != nil {
			p.Invalidate()
		}
		if it.remote {
			d.channel.DestroyPipelineLayout(id)
		}
	}
	for id, it := range layouts {
		if l := it.ptr.Value(); l != nil {
			l.Invalidate()
		}
		if it.remote {
			d.channel.DestroyBindGroupLayout(id)
		}
	}

	Logger().Info("bindlayout: device destroyed", "label", d.opts.label,
		"bind_groups", len(groups), "pipeline_layouts", len(pipelines), "layouts", len(layouts))
}

// handleReport translates an asynchronous backend failure into validity
// changes. Objects already built from an invalidated layout keep their own
// validity.
func (d *Device) handleReport(r Report) {
	if r.Kind == 0 || errors.Is(r.Err, ErrDisconnected) {
		d.lose(r.Err)
		return
	}

	var obj interface {
		Invalidate() bool
		labelOrEmpty() string
	}
	d.mu.Lock()
	switch r.Kind {
	case ResourceBindGroupLayout:
		if l, ok := d.layouts.get(LayoutID(r.ID)); ok {
			obj = l
		}
	case ResourcePipelineLayout:
		if p, ok := d.pipelineLayouts.get(PipelineLayoutID(r.ID)); ok {
			obj = p
		}
	case ResourceBindGroup:
		if g, ok := d.bindGroups.get(BindGroupID(r.ID)); ok {
			obj = g
		}
	}
	d.mu.Unlock()

	label := ""
	if obj != nil {
		label = obj.labelOrEmpty()
		if obj.Invalidate() {
			Logger().Warn("bindlayout: backend invalidated object", "kind", r.Kind, "id", formatID("id", r.ID), "err", r.Err)
		}
	}
	d.uncaptured(newError(KindBackendInvalidated, r.Kind, r.ID, label, r.Err))
}

// lose marks the device lost and invalidates every live object.
func (d *Device) lose(cause error) {
	if cause == nil {
		cause = ErrDisconnected
	}
	d.mu.Lock()
	if d.lostErr != nil {
		d.mu.Unlock()
		return
	}
	d.lostErr = &Error{Kind: KindDisconnected, Detail: "device lost", Cause: cause}
	var objs []interface{ Invalidate() bool }
	for _, it := range d.layouts.items {
		if l := it.ptr.Value(); l != nil {
			objs = append(objs, l)
		}
	}
	for _, it := range d.pipelineLayouts.items {
		if p := it.ptr.Value(); p != nil {
			objs = append(objs, p)
		}
	}
	for _, it := range d.bindGroups.items {
		if g := it.ptr.Value(); g != nil {
			objs = append(objs, g)
		}
	}
	lostErr := d.lostErr
	close(d.lost)
	d.mu.Unlock()

	for _, o := range objs {
		o.Invalidate()
	}
	Logger().Warn("bindlayout: device lost", "label", d.opts.label, "err", cause)
	d.uncaptured(lostErr)
}

func (d *Device) uncaptured(err error) {
	if d.opts.onUncaptured != nil {
		d.opts.onUncaptured(err)
		return
	}
	Logger().Warn("bindlayout: uncaptured error", "err", err)
}

// confirmCreated re-checks the device once the backend accepted a create.
// A device destroyed in the meantime has already drained id from t, so the
// backend resource is released here. A lost device keeps id tracked; it is
// released with the rest on Release or Destroy.
func confirmCreated[K ~uint64, T any](d *Device, t *objectTable[K, T], id K, destroy func(K)) error {
	d.mu.Lock()
	err := d.unusable()
	tracked := t.has(id)
	d.mu.Unlock()
	if err == nil {
		return nil
	}
	if !tracked {
		destroy(id)
		Logger().Debug("bindlayout: released object created during shutdown", "id", formatID("id", uint64(id)))
	}
	return err
}

// track registers the garbage-collection release hook when enabled.
func track[T, K any](d *Device, obj *T, id K, release func(K)) {
	if d.opts.releaseOnCollect {
		releaseWhenCollected(obj, id, release)
	}
}

func (d *Device) collectBindGroupLayout(id LayoutID) {
	Logger().Debug("bindlayout: bind group layout collected", "id", id)
	d.releaseBindGroupLayout(id)
}

func (d *Device) collectPipelineLayout(id PipelineLayoutID) {
	Logger().Debug("bindlayout: pipeline layout collected", "id", id)
	d.releasePipelineLayout(id)
}

func (d *Device) collectBindGroup(id BindGroupID) {
	Logger().Debug("bindlayout: bind group collected", "id", id)
	d.releaseBindGroup(id)
}

func setLabel(obj Labeler, label string) {
	if label != "" {
		obj.SetLabel(label)
	}
}
