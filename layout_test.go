// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"reflect"
	"testing"

	"github.com/gogpu/bindlayout/internal/identity"
	"github.com/gogpu/gputypes"
)

func TestNewBindGroupLayoutEntriesRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries map[uint32]gputypes.BindGroupLayoutEntry
	}{
		{"nil", nil},
		{"empty", map[uint32]gputypes.BindGroupLayoutEntry{}},
		{"single", map[uint32]gputypes.BindGroupLayoutEntry{0: storageEntry(0)}},
		{"mixed", map[uint32]gputypes.BindGroupLayoutEntry{
			0: uniformEntry(0),
			1: samplerEntry(1),
			4: textureEntry(4),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewBindGroupLayout(newFakeChannel(), 1, tt.entries, true)
			got := l.Entries().Map()
			if len(got) != len(tt.entries) {
				t.Fatalf("Entries() has %d entries, want %d", len(got), len(tt.entries))
			}
			for b, want := range tt.entries {
				if !reflect.DeepEqual(got[b], want) {
					t.Errorf("Entries()[%d] = %+v, want %+v", b, got[b], want)
				}
			}
		})
	}
}

func TestEntriesIsolatedFromSource(t *testing.T) {
	src := map[uint32]gputypes.BindGroupLayoutEntry{0: uniformEntry(0)}
	l := NewBindGroupLayout(newFakeChannel(), 1, src, true)

	// Mutating the caller's map and its sub-descriptors after construction.
	src[0].Buffer.Type = gputypes.BufferBindingTypeStorage
	src[1] = samplerEntry(1)
	delete(src, 0)

	e, ok := l.Entry(0)
	if !ok {
		t.Fatal("binding 0 missing after source mutation")
	}
	if e.Buffer.Type != gputypes.BufferBindingTypeUniform {
		t.Errorf("Buffer.Type = %v, want uniform", e.Buffer.Type)
	}
	if l.Entries().Has(1) {
		t.Error("binding 1 leaked in from source map")
	}
}

func TestEntriesViewHasNoWriteBack(t *testing.T) {
	l := NewBindGroupLayout(newFakeChannel(), 1, map[uint32]gputypes.BindGroupLayoutEntry{0: uniformEntry(0)}, true)

	e, _ := l.Entry(0)
	e.Buffer.Type = gputypes.BufferBindingTypeStorage
	e.Visibility = 0

	m := l.Entries().Map()
	m[0].Buffer.MinBindingSize = 1024
	delete(m, 0)

	for _, e := range l.Entries().All() {
		e.Buffer.Type = gputypes.BufferBindingTypeStorage
	}
	s := l.Entries().Slice()
	s[0].Buffer.Type = gputypes.BufferBindingTypeStorage

	got, ok := l.Entry(0)
	if !ok || !reflect.DeepEqual(got, uniformEntry(0)) {
		t.Errorf("Entry(0) = %+v, %v; want untouched uniform entry", got, ok)
	}
}

func TestAbsentVersusEmptyDescriptor(t *testing.T) {
	// Binding 2 is present with no sub-descriptor at all.
	l := NewBindGroupLayout(newFakeChannel(), 1, map[uint32]gputypes.BindGroupLayoutEntry{2: {}}, false)

	if _, ok := l.Entry(3); ok {
		t.Error("Entry(3) reported present")
	}
	e, ok := l.Entry(2)
	if !ok {
		t.Fatal("Entry(2) reported absent")
	}
	if KindOf(e) != BindingKindNone {
		t.Errorf("KindOf(Entry(2)) = %v, want none", KindOf(e))
	}
	if got := l.Entries().Kind(3); got != BindingKindNone {
		t.Errorf("Kind(3) = %v, want none", got)
	}
}

func TestIdentityIsStable(t *testing.T) {
	l := NewBindGroupLayout(newFakeChannel(), LayoutID(identity.Pack(7, 3)), nil, true)
	first := l.ID()
	for range 10 {
		if l.ID() != first {
			t.Fatalf("ID() changed from %v to %v", first, l.ID())
		}
	}
	l.Invalidate()
	l.SetLabel("renamed")
	if l.ID() != first {
		t.Errorf("ID() changed after invalidation and relabel")
	}
	if got, want := l.String(), "bgl#7.3"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestValidityIsMonotonic(t *testing.T) {
	l := NewBindGroupLayout(newFakeChannel(), 1, nil, true)
	if !l.IsValid() {
		t.Fatal("new layout invalid")
	}
	if !l.Invalidate() {
		t.Error("first Invalidate() = false, want true")
	}
	if l.Invalidate() {
		t.Error("second Invalidate() = true, want false")
	}

	// Nothing the handle exposes can restore validity.
	l.SetLabel("x")
	l.ClearLabel()
	_ = l.Entries()
	_ = l.ID()
	if l.IsValid() {
		t.Error("IsValid() = true after invalidation")
	}
}

func TestSameLayoutIsIdentityBased(t *testing.T) {
	ch := newFakeChannel()
	entries := map[uint32]gputypes.BindGroupLayoutEntry{0: uniformEntry(0)}
	a := NewBindGroupLayout(ch, 1, entries, true)
	b := NewBindGroupLayout(ch, 2, entries, true)
	a2 := NewBindGroupLayout(ch, 1, nil, false)
	other := NewBindGroupLayout(newFakeChannel(), 1, entries, true)

	tests := []struct {
		name string
		x, y *BindGroupLayout
		want bool
	}{
		{"same handle", a, a, true},
		{"same entries different id", a, b, false},
		{"same id different entries", a, a2, true},
		{"same id other channel", a, other, false},
		{"nil and handle", nil, a, false},
		{"both nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameLayout(tt.x, tt.y); got != tt.want {
				t.Errorf("SameLayout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelIsShared(t *testing.T) {
	ch := newFakeChannel()
	a := NewBindGroupLayout(ch, 1, nil, true)
	b := NewBindGroupLayout(ch, 2, nil, true)
	if a.Channel() != Channel(ch) || b.Channel() != a.Channel() {
		t.Error("layouts do not share the channel they were built with")
	}
}

func TestScenarioInvalidatedLayoutKeepsEntries(t *testing.T) {
	l := NewBindGroupLayout(newFakeChannel(), 1, map[uint32]gputypes.BindGroupLayoutEntry{0: storageEntry(0)}, true)
	if !l.IsValid() {
		t.Fatal("IsValid() = false, want true")
	}

	l.Invalidate()
	if l.IsValid() {
		t.Fatal("IsValid() = true after invalidation")
	}

	e, ok := l.Entry(0)
	if !ok || l.Entries().Len() != 1 {
		t.Fatalf("Entries() lost binding 0 after invalidation")
	}
	if e.Buffer == nil || e.Buffer.Type != gputypes.BufferBindingTypeReadOnlyStorage || e.Visibility != gputypes.ShaderStageCompute {
		t.Errorf("Entry(0) = %+v, want read-only storage visible to compute", e)
	}
}

func TestScenarioEmptyInvalidLayout(t *testing.T) {
	l := NewBindGroupLayout(newFakeChannel(), 1, map[uint32]gputypes.BindGroupLayoutEntry{}, false)
	if l == nil {
		t.Fatal("NewBindGroupLayout returned nil")
	}
	if n := l.Entries().Len(); n != 0 {
		t.Errorf("Entries().Len() = %d, want 0", n)
	}
	if len(l.Entries().Bindings()) != 0 {
		t.Error("Bindings() not empty")
	}
	if l.IsValid() {
		t.Error("IsValid() = true, want false")
	}
}
