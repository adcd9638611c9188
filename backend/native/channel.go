// Package native provides a bindlayout backend that creates real resources
// through the gogpu/wgpu hardware abstraction layer.
//
// The channel is synchronous: every Create call has finished talking to the
// HAL device when it returns, so failures surface as return values and the
// channel never reports asynchronously.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/bindlayout"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Channel implements bindlayout.Channel on top of a hal.Device.
//
// Thread Safety: Channel is safe for concurrent use from multiple goroutines.
// Resource maps are protected by a mutex; HAL calls are made outside it.
type Channel struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	closed bool

	// release tears down a device the channel opened itself.
	release func()

	nextBuffer atomic.Uint64

	buffers          map[bindlayout.BufferID]hal.Buffer
	ownedBuffers     map[bindlayout.BufferID]bool
	bindGroupLayouts map[bindlayout.LayoutID]hal.BindGroupLayout
	pipelineLayouts  map[bindlayout.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[bindlayout.BindGroupID]hal.BindGroup
}

// New creates a Channel that issues requests to device. The caller keeps
// ownership of device; Close releases only resources created through the
// channel.
func New(device hal.Device, queue hal.Queue) *Channel {
	return &Channel{
		device:           device,
		queue:            queue,
		buffers:          make(map[bindlayout.BufferID]hal.Buffer),
		ownedBuffers:     make(map[bindlayout.BufferID]bool),
		bindGroupLayouts: make(map[bindlayout.LayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[bindlayout.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[bindlayout.BindGroupID]hal.BindGroup),
	}
}

// FromProvider creates a Channel sharing the GPU device of provider.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Channel, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return New(device, queue), nil
}

// Device returns the underlying HAL device.
func (c *Channel) Device() hal.Device {
	return c.device
}

// Queue returns the underlying HAL queue.
func (c *Channel) Queue() hal.Queue {
	return c.queue
}

func (c *Channel) checkOpen() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}

// === Buffers ===

// ImportBuffer makes buf available to bind groups and returns its ID.
// The caller keeps ownership of buf.
func (c *Channel) ImportBuffer(buf hal.Buffer) (bindlayout.BufferID, error) {
	if buf == nil {
		return bindlayout.InvalidID, errors.New("native: nil buffer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return bindlayout.InvalidID, err
	}
	id := bindlayout.BufferID(c.nextBuffer.Add(1))
	c.buffers[id] = buf
	return id, nil
}

// CreateBuffer allocates a buffer on the device and returns its ID.
func (c *Channel) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (bindlayout.BufferID, error) {
	if size == 0 {
		return bindlayout.InvalidID, errors.New("native: buffer size must be positive")
	}
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return bindlayout.InvalidID, fmt.Errorf("native: create buffer: %w", err)
	}

	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		c.device.DestroyBuffer(buf)
		return bindlayout.InvalidID, err
	}
	id := bindlayout.BufferID(c.nextBuffer.Add(1))
	c.buffers[id] = buf
	c.ownedBuffers[id] = true
	c.mu.Unlock()
	return id, nil
}

// DestroyBuffer forgets the buffer and destroys it if the channel created it.
func (c *Channel) DestroyBuffer(id bindlayout.BufferID) {
	c.mu.Lock()
	buf, ok := c.buffers[id]
	owned := c.ownedBuffers[id]
	delete(c.buffers, id)
	delete(c.ownedBuffers, id)
	c.mu.Unlock()

	if ok && owned {
		c.device.DestroyBuffer(buf)
	}
}

// === Bind Group Layouts ===

// CreateBindGroupLayout implements bindlayout.Channel.
func (c *Channel) CreateBindGroupLayout(id bindlayout.LayoutID, desc *bindlayout.BindGroupLayoutDescriptor) error {
	c.mu.RLock()
	err := c.checkOpen()
	_, exists := c.bindGroupLayouts[id]
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrIDInUse, id)
	}

	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: bindlayout.CloneEntries(desc.Entries),
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout: %w", err)
	}

	c.mu.Lock()
	c.bindGroupLayouts[id] = layout
	c.mu.Unlock()
	return nil
}

// DestroyBindGroupLayout implements bindlayout.Channel.
func (c *Channel) DestroyBindGroupLayout(id bindlayout.LayoutID) {
	c.mu.Lock()
	layout, ok := c.bindGroupLayouts[id]
	delete(c.bindGroupLayouts, id)
	c.mu.Unlock()

	if ok {
		c.device.DestroyBindGroupLayout(layout)
	}
}

// === Pipeline Layouts ===

// CreatePipelineLayout implements bindlayout.Channel.
func (c *Channel) CreatePipelineLayout(id bindlayout.PipelineLayoutID, desc *bindlayout.PipelineLayoutDescriptor) error {
	halLayouts := make([]hal.BindGroupLayout, len(desc.BindGroupLayouts))

	c.mu.RLock()
	err := c.checkOpen()
	if err == nil {
		if _, exists := c.pipelineLayouts[id]; exists {
			err = fmt.Errorf("%w: %s", ErrIDInUse, id)
		}
	}
	if err == nil {
		for i, lid := range desc.BindGroupLayouts {
			layout, ok := c.bindGroupLayouts[lid]
			if !ok {
				err = fmt.Errorf("%w: %s", ErrUnknownResource, lid)
				break
			}
			halLayouts[i] = layout
		}
	}
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	pipelineLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}

	c.mu.Lock()
	c.pipelineLayouts[id] = pipelineLayout
	c.mu.Unlock()
	return nil
}

// DestroyPipelineLayout implements bindlayout.Channel.
func (c *Channel) DestroyPipelineLayout(id bindlayout.PipelineLayoutID) {
	c.mu.Lock()
	layout, ok := c.pipelineLayouts[id]
	delete(c.pipelineLayouts, id)
	c.mu.Unlock()

	if ok {
		c.device.DestroyPipelineLayout(layout)
	}
}

// === Bind Groups ===

// CreateBindGroup implements bindlayout.Channel.
//
// Only buffer bindings can be resolved; samplers and texture views are not
// managed by this channel and yield ErrUnsupportedResource.
func (c *Channel) CreateBindGroup(id bindlayout.BindGroupID, desc *bindlayout.BindGroupDescriptor) error {
	halEntries := make([]gputypes.BindGroupEntry, len(desc.Entries))

	c.mu.RLock()
	err := c.checkOpen()
	if err == nil {
		if _, exists := c.bindGroups[id]; exists {
			err = fmt.Errorf("%w: %s", ErrIDInUse, id)
		}
	}
	layout, ok := c.bindGroupLayouts[desc.Layout]
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownResource, desc.Layout)
	}
	if err == nil {
		for i, e := range desc.Entries {
			if halEntries[i], err = c.convertEntry(e); err != nil {
				break
			}
		}
	}
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: halEntries,
	})
	if err != nil {
		return fmt.Errorf("native: create bind group: %w", err)
	}

	c.mu.Lock()
	c.bindGroups[id] = group
	c.mu.Unlock()
	return nil
}

// convertEntry must be called with mu held.
func (c *Channel) convertEntry(e bindlayout.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	switch e.Kind() {
	case bindlayout.BindingKindBuffer:
		buf, ok := c.buffers[e.Buffer]
		if !ok {
			return gputypes.BindGroupEntry{}, fmt.Errorf("%w: buffer %d", ErrUnknownResource, e.Buffer)
		}
		return gputypes.BindGroupEntry{
			Binding: e.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size,
			},
		}, nil
	default:
		return gputypes.BindGroupEntry{}, fmt.Errorf("%w: binding %d is a %s", ErrUnsupportedResource, e.Binding, e.Kind())
	}
}

// DestroyBindGroup implements bindlayout.Channel.
func (c *Channel) DestroyBindGroup(id bindlayout.BindGroupID) {
	c.mu.Lock()
	group, ok := c.bindGroups[id]
	delete(c.bindGroups, id)
	c.mu.Unlock()

	if ok {
		c.device.DestroyBindGroup(group)
	}
}

// Counts returns the number of live layouts, pipeline layouts and bind
// groups held by the channel.
func (c *Channel) Counts() (layouts, pipelineLayouts, bindGroups int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bindGroupLayouts), len(c.pipelineLayouts), len(c.bindGroups)
}

// Close destroys every resource still held by the channel, dependents
// first. If the channel opened its own device, the device is destroyed too.
// Close is idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	groups := c.bindGroups
	pipelines := c.pipelineLayouts
	layouts := c.bindGroupLayouts
	buffers := c.buffers
	owned := c.ownedBuffers
	c.bindGroups = make(map[bindlayout.BindGroupID]hal.BindGroup)
	c.pipelineLayouts = make(map[bindlayout.PipelineLayoutID]hal.PipelineLayout)
	c.bindGroupLayouts = make(map[bindlayout.LayoutID]hal.BindGroupLayout)
	c.buffers = make(map[bindlayout.BufferID]hal.Buffer)
	c.ownedBuffers = make(map[bindlayout.BufferID]bool)
	release := c.release
	c.release = nil
	c.mu.Unlock()

	for _, g := range groups {
		c.device.DestroyBindGroup(g)
	}
	for _, p := range pipelines {
		c.device.DestroyPipelineLayout(p)
	}
	for _, l := range layouts {
		c.device.DestroyBindGroupLayout(l)
	}
	for id, b := range buffers {
		if owned[id] {
			c.device.DestroyBuffer(b)
		}
	}
	if release != nil {
		release()
	}

	bindlayout.Logger().Debug("native: channel closed",
		"bind_groups", len(groups), "pipeline_layouts", len(pipelines), "layouts", len(layouts))
	return nil
}
