// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package loopback provides an in-process bindlayout backend that behaves
// like an isolated GPU process.
//
// Requests are queued and executed in order on a single worker goroutine
// that owns the backend resource table. Create calls return as soon as the
// request is queued; failures found by the worker are delivered later
// through the bindlayout.ErrorReporter callback, exactly like a remote
// backend that validates asynchronously.
//
//	ch := loopback.New()
//	defer ch.Close()
//	dev := bindlayout.NewDevice(ch)
package loopback

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/bindlayout"
	"github.com/gogpu/bindlayout/backend"
	"github.com/gogpu/gputypes"
)

// Package errors for the loopback backend.
var (
	// ErrClosed is returned by requests sent after Close.
	ErrClosed = fmt.Errorf("loopback: %w", bindlayout.ErrDisconnected)

	// ErrUnknownResource is reported when a request references an ID the
	// backend does not hold.
	ErrUnknownResource = errors.New("loopback: unknown resource")

	// ErrInvalidDependency is reported when a request references a resource
	// the backend previously rejected.
	ErrInvalidDependency = errors.New("loopback: dependency is invalid")

	// ErrIDInUse is logged when a create request reuses a live ID. The
	// request is dropped and the live resource is left untouched.
	ErrIDInUse = errors.New("loopback: id already in use")
)

const defaultQueueSize = 64

func init() {
	backend.Register(backend.BackendLoopback, func() (bindlayout.Channel, error) {
		return New(), nil
	})
}

// resource is a backend-side object. Failed creations are kept so later
// requests referencing them fail as dependencies.
type resource struct {
	entries bindlayout.EntryMap // layouts only
	label   string
	valid   bool
}

// Stats counts resources held by the backend.
type Stats struct {
	Layouts         int
	PipelineLayouts int
	BindGroups      int
	Failed          int
}

// Option configures a Backend.
type Option func(*Backend)

// WithQueueSize sets the request queue capacity.
func WithQueueSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithLimits sets the limits the backend validates against.
func WithLimits(limits bindlayout.Limits) Option {
	return func(b *Backend) {
		b.limits = limits
	}
}

// Backend is an asynchronous in-process backend. It implements
// bindlayout.Channel, bindlayout.ErrorReporter and io.Closer.
type Backend struct {
	limits    bindlayout.Limits
	queueSize int

	// sendMu orders sends against Close: senders hold it for reading.
	sendMu   sync.RWMutex
	closed   bool
	requests chan func()
	done     chan struct{}

	onError atomic.Pointer[func(bindlayout.Report)]

	// Owned by the worker goroutine.
	layouts         map[bindlayout.LayoutID]*resource
	pipelineLayouts map[bindlayout.PipelineLayoutID]*resource
	bindGroups      map[bindlayout.BindGroupID]*resource
}

// New starts a loopback backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		limits:          bindlayout.DefaultLimits(),
		queueSize:       defaultQueueSize,
		done:            make(chan struct{}),
		layouts:         make(map[bindlayout.LayoutID]*resource),
		pipelineLayouts: make(map[bindlayout.PipelineLayoutID]*resource),
		bindGroups:      make(map[bindlayout.BindGroupID]*resource),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.requests = make(chan func(), b.queueSize)
	go b.run()
	return b
}

func (b *Backend) run() {
	defer close(b.done)
	for req := range b.requests {
		req()
	}
}

// send queues req. It fails only after Close.
func (b *Backend) send(req func()) error {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	b.requests <- req
	return nil
}

// SetErrorCallback implements bindlayout.ErrorReporter.
func (b *Backend) SetErrorCallback(fn func(bindlayout.Report)) {
	b.onError.Store(&fn)
}

func (b *Backend) report(kind bindlayout.ResourceKind, id uint64, err error) {
	bindlayout.Logger().Debug("loopback: reporting failure", "kind", kind, "id", id, "err", err)
	if fn := b.onError.Load(); fn != nil && *fn != nil {
		(*fn)(bindlayout.Report{Kind: kind, ID: id, Err: err})
	}
}

// dropDuplicate runs on the worker. A report would name the live resource,
// so the request is only logged.
func dropDuplicate(kind bindlayout.ResourceKind, id uint64) {
	bindlayout.Logger().Warn("loopback: dropping create for live id", "kind", kind, "id", id, "err", ErrIDInUse)
}

// CreateBindGroupLayout implements bindlayout.Channel.
func (b *Backend) CreateBindGroupLayout(id bindlayout.LayoutID, desc *bindlayout.BindGroupLayoutDescriptor) error {
	label := desc.Label
	entries := bindlayout.CloneEntries(desc.Entries)
	return b.send(func() {
		if _, ok := b.layouts[id]; ok {
			dropDuplicate(bindlayout.ResourceBindGroupLayout, uint64(id))
			return
		}
		r := &resource{label: label, valid: true}
		b.layouts[id] = r

		err := bindlayout.ValidateBindGroupLayout(&bindlayout.BindGroupLayoutDescriptor{Label: label, Entries: entries}, b.limits)
		if err != nil {
			r.valid = false
			b.report(bindlayout.ResourceBindGroupLayout, uint64(id), err)
			return
		}
		m := make(map[uint32]gputypes.BindGroupLayoutEntry, len(entries))
		for _, e := range entries {
			m[e.Binding] = e
		}
		r.entries = bindlayout.NewEntryMap(m)
	})
}

// DestroyBindGroupLayout implements bindlayout.Channel.
func (b *Backend) DestroyBindGroupLayout(id bindlayout.LayoutID) {
	_ = b.send(func() { delete(b.layouts, id) })
}

// CreatePipelineLayout implements bindlayout.Channel.
func (b *Backend) CreatePipelineLayout(id bindlayout.PipelineLayoutID, desc *bindlayout.PipelineLayoutDescriptor) error {
	label := desc.Label
	layouts := slices.Clone(desc.BindGroupLayouts)
	return b.send(func() {
		if _, ok := b.pipelineLayouts[id]; ok {
			dropDuplicate(bindlayout.ResourcePipelineLayout, uint64(id))
			return
		}
		r := &resource{label: label, valid: true}
		b.pipelineLayouts[id] = r

		err := bindlayout.ValidatePipelineLayout(&bindlayout.PipelineLayoutDescriptor{Label: label, BindGroupLayouts: layouts}, b.limits)
		if err == nil {
			for _, lid := range layouts {
				if err = b.checkLayout(lid); err != nil {
					break
				}
			}
		}
		if err != nil {
			r.valid = false
			b.report(bindlayout.ResourcePipelineLayout, uint64(id), err)
		}
	})
}

// DestroyPipelineLayout implements bindlayout.Channel.
func (b *Backend) DestroyPipelineLayout(id bindlayout.PipelineLayoutID) {
	_ = b.send(func() { delete(b.pipelineLayouts, id) })
}

// CreateBindGroup implements bindlayout.Channel.
func (b *Backend) CreateBindGroup(id bindlayout.BindGroupID, desc *bindlayout.BindGroupDescriptor) error {
	label := desc.Label
	layout := desc.Layout
	entries := slices.Clone(desc.Entries)
	return b.send(func() {
		if _, ok := b.bindGroups[id]; ok {
			dropDuplicate(bindlayout.ResourceBindGroup, uint64(id))
			return
		}
		r := &resource{label: label, valid: true}
		b.bindGroups[id] = r

		err := b.checkLayout(layout)
		if err == nil {
			err = bindlayout.ValidateBindGroup(b.layouts[layout].entries, entries)
		}
		if err != nil {
			r.valid = false
			b.report(bindlayout.ResourceBindGroup, uint64(id), err)
		}
	})
}

// DestroyBindGroup implements bindlayout.Channel.
func (b *Backend) DestroyBindGroup(id bindlayout.BindGroupID) {
	_ = b.send(func() { delete(b.bindGroups, id) })
}

// checkLayout runs on the worker.
func (b *Backend) checkLayout(id bindlayout.LayoutID) error {
	r, ok := b.layouts[id]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	case !r.valid:
		return fmt.Errorf("%w: %s", ErrInvalidDependency, id)
	}
	return nil
}

// Inject simulates a backend fault for a live resource, such as an
// out-of-memory condition discovered after creation. The resource is marked
// invalid and err is reported. Unknown IDs are ignored.
func (b *Backend) Inject(kind bindlayout.ResourceKind, id uint64, err error) error {
	return b.send(func() {
		var r *resource
		switch kind {
		case bindlayout.ResourceBindGroupLayout:
			r = b.layouts[bindlayout.LayoutID(id)]
		case bindlayout.ResourcePipelineLayout:
			r = b.pipelineLayouts[bindlayout.PipelineLayoutID(id)]
		case bindlayout.ResourceBindGroup:
			r = b.bindGroups[bindlayout.BindGroupID(id)]
		}
		if r == nil {
			return
		}
		r.valid = false
		b.report(kind, id, err)
	})
}

// Sync blocks until every request queued before it has been processed.
func (b *Backend) Sync() error {
	done := make(chan struct{})
	if err := b.send(func() { close(done) }); err != nil {
		return err
	}
	<-done
	return nil
}

// Stats returns resource counts after processing all queued requests.
func (b *Backend) Stats() (Stats, error) {
	out := make(chan Stats, 1)
	err := b.send(func() {
		var s Stats
		s.Layouts = len(b.layouts)
		s.PipelineLayouts = len(b.pipelineLayouts)
		s.BindGroups = len(b.bindGroups)
		for _, r := range b.layouts {
			if !r.valid {
				s.Failed++
			}
		}
		for _, r := range b.pipelineLayouts {
			if !r.valid {
				s.Failed++
			}
		}
		for _, r := range b.bindGroups {
			if !r.valid {
				s.Failed++
			}
		}
		out <- s
	})
	if err != nil {
		return Stats{}, err
	}
	return <-out, nil
}

// Disconnect simulates losing the backend: a device-level report carrying
// cause is delivered, then the backend is closed.
func (b *Backend) Disconnect(cause error) error {
	if cause == nil {
		cause = errors.New("loopback: backend process exited")
	}
	err := b.send(func() {
		b.report(0, 0, fmt.Errorf("%w: %w", bindlayout.ErrDisconnected, cause))
	})
	if err != nil {
		return err
	}
	return b.Close()
}

// Close drains queued requests and stops the worker. Requests sent after
// Close fail with ErrClosed. Close is idempotent.
func (b *Backend) Close() error {
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		<-b.done
		return nil
	}
	b.closed = true
	close(b.requests)
	b.sendMu.Unlock()

	<-b.done
	bindlayout.Logger().Debug("loopback: closed")
	return nil
}
