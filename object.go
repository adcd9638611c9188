// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import "sync/atomic"

// objectBase holds the state every client-side GPU object shares: a cosmetic
// label and a one-way validity flag. Each field is swapped atomically, so
// concurrent readers see either the old or the new value, never a mix.
type objectBase struct {
	label atomic.Pointer[string]
	valid atomic.Bool
}

func (o *objectBase) init(valid bool) {
	o.valid.Store(valid)
}

// IsValid reports whether the backend object is usable.
// Once IsValid returns false it never returns true again.
func (o *objectBase) IsValid() bool {
	return o.valid.Load()
}

// Invalidate marks the object invalid. It is idempotent and reports whether
// this call performed the transition.
func (o *objectBase) Invalidate() bool {
	return o.valid.CompareAndSwap(true, false)
}

// Label returns the debug label and whether one is set.
func (o *objectBase) Label() (string, bool) {
	p := o.label.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetLabel stores a debug label. Labels have no effect on the backend.
func (o *objectBase) SetLabel(label string) {
	o.label.Store(&label)
}

// ClearLabel removes the debug label.
func (o *objectBase) ClearLabel() {
	o.label.Store(nil)
}

// labelOrEmpty is used for log and error messages.
func (o *objectBase) labelOrEmpty() string {
	l, _ := o.Label()
	return l
}

// Labeler is implemented by every GPU object in this package.
type Labeler interface {
	Label() (string, bool)
	SetLabel(label string)
	ClearLabel()
}

// ObjectBinding is the surface a script binding layer exposes for a GPU
// object: the label attribute and nothing else.
type ObjectBinding struct {
	obj Labeler
}

// Binding wraps obj for a script binding layer.
func Binding(obj Labeler) *ObjectBinding {
	return &ObjectBinding{obj: obj}
}

// GetLabel returns the label, or nil when unset.
func (b *ObjectBinding) GetLabel() *string {
	l, ok := b.obj.Label()
	if !ok {
		return nil
	}
	return &l
}

// SetLabel stores value, or clears the label when value is nil.
// The pointee is copied.
func (b *ObjectBinding) SetLabel(value *string) {
	if value == nil {
		b.obj.ClearLabel()
		return
	}
	b.obj.SetLabel(*value)
}
