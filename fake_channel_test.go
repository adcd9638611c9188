// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"sync"

	"github.com/gogpu/gputypes"
)

// fakeChannel records requests and fails the next create of a kind on demand.
type fakeChannel struct {
	mu        sync.Mutex
	failNext  map[ResourceKind]error
	created   map[ResourceKind][]uint64
	destroyed map[ResourceKind][]uint64
	live      map[ResourceKind]map[uint64]bool
	onError   func(Report)
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		failNext:  make(map[ResourceKind]error),
		created:   make(map[ResourceKind][]uint64),
		destroyed: make(map[ResourceKind][]uint64),
		live:      make(map[ResourceKind]map[uint64]bool),
	}
}

func (c *fakeChannel) create(kind ResourceKind, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failNext[kind]; err != nil {
		delete(c.failNext, kind)
		return err
	}
	c.created[kind] = append(c.created[kind], id)
	if c.live[kind] == nil {
		c.live[kind] = make(map[uint64]bool)
	}
	c.live[kind][id] = true
	return nil
}

func (c *fakeChannel) destroy(kind ResourceKind, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed[kind] = append(c.destroyed[kind], id)
	delete(c.live[kind], id)
}

func (c *fakeChannel) CreateBindGroupLayout(id LayoutID, _ *BindGroupLayoutDescriptor) error {
	return c.create(ResourceBindGroupLayout, uint64(id))
}

func (c *fakeChannel) DestroyBindGroupLayout(id LayoutID) {
	c.destroy(ResourceBindGroupLayout, uint64(id))
}

func (c *fakeChannel) CreatePipelineLayout(id PipelineLayoutID, _ *PipelineLayoutDescriptor) error {
	return c.create(ResourcePipelineLayout, uint64(id))
}

func (c *fakeChannel) DestroyPipelineLayout(id PipelineLayoutID) {
	c.destroy(ResourcePipelineLayout, uint64(id))
}

func (c *fakeChannel) CreateBindGroup(id BindGroupID, _ *BindGroupDescriptor) error {
	return c.create(ResourceBindGroup, uint64(id))
}

func (c *fakeChannel) DestroyBindGroup(id BindGroupID) {
	c.destroy(ResourceBindGroup, uint64(id))
}

func (c *fakeChannel) SetErrorCallback(fn func(Report)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

func (c *fakeChannel) fail(kind ResourceKind, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext[kind] = err
}

// report delivers an asynchronous failure the way a backend would.
func (c *fakeChannel) report(r Report) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

func (c *fakeChannel) createdIDs(kind ResourceKind) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.created[kind]...)
}

func (c *fakeChannel) destroyedIDs(kind ResourceKind) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.destroyed[kind]...)
}

// blockingChannel holds the first create of one kind until release is
// closed, after signalling entered.
type blockingChannel struct {
	*fakeChannel
	kind    ResourceKind
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingChannel(kind ResourceKind) *blockingChannel {
	return &blockingChannel{
		fakeChannel: newFakeChannel(),
		kind:        kind,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (c *blockingChannel) hold(kind ResourceKind) {
	if kind != c.kind {
		return
	}
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
}

func (c *blockingChannel) CreateBindGroupLayout(id LayoutID, desc *BindGroupLayoutDescriptor) error {
	c.hold(ResourceBindGroupLayout)
	return c.fakeChannel.CreateBindGroupLayout(id, desc)
}

func (c *blockingChannel) CreatePipelineLayout(id PipelineLayoutID, desc *PipelineLayoutDescriptor) error {
	c.hold(ResourcePipelineLayout)
	return c.fakeChannel.CreatePipelineLayout(id, desc)
}

func (c *blockingChannel) CreateBindGroup(id BindGroupID, desc *BindGroupDescriptor) error {
	c.hold(ResourceBindGroup)
	return c.fakeChannel.CreateBindGroup(id, desc)
}

// liveCount returns how many objects of kind the backend still holds.
// A destroy that arrives before its create does not count.
func (c *fakeChannel) liveCount(kind ResourceKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live[kind])
}

func uniformEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}
}

func samplerEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	}
}

func textureEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageFragment,
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	}
}

func storageTextureEntry(binding uint32, access gputypes.StorageTextureAccess) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		StorageTexture: &gputypes.StorageTextureBindingLayout{
			Access:        access,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	}
}
