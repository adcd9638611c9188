// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindlayout

import (
	"errors"
	"strings"
)

// ErrorKind categorizes failures surfaced by the Device and dependent
// constructors. Handles themselves never return errors.
type ErrorKind string

const (
	// KindCreationFailed means the backend or client-side validation rejected
	// a descriptor; the object was constructed invalid.
	KindCreationFailed ErrorKind = "creation_failed"

	// KindBackendInvalidated means the backend reported a failure for an
	// object that was previously valid.
	KindBackendInvalidated ErrorKind = "backend_invalidated"

	// KindStaleUse means an invalid object was used to build a dependent.
	KindStaleUse ErrorKind = "stale_use"

	// KindValidation means a descriptor broke a layout rule.
	KindValidation ErrorKind = "validation"

	// KindDisconnected means the channel to the backend is gone.
	KindDisconnected ErrorKind = "disconnected"
)

// Sentinel errors matched with errors.Is against any *Error of the same kind.
var (
	ErrCreationFailed     = &Error{Kind: KindCreationFailed}
	ErrBackendInvalidated = &Error{Kind: KindBackendInvalidated}
	ErrStaleUse           = &Error{Kind: KindStaleUse}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrDisconnected       = &Error{Kind: KindDisconnected}
)

// ErrDeviceClosed is returned for work submitted after Device.Destroy.
var ErrDeviceClosed = errors.New("bindlayout: device closed")

// Error is the structured error produced by a Device.
type Error struct {
	Cause    error
	Label    string
	Detail   string
	Kind     ErrorKind
	ID       uint64
	Resource ResourceKind
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("bindlayout: ")
	b.WriteString(string(e.Kind))

	if e.Resource != 0 {
		b.WriteString(" ")
		b.WriteString(e.Resource.String())
		if e.ID != InvalidID {
			b.WriteString(" ")
			b.WriteString(formatID("id", e.ID))
		}
		if e.Label != "" {
			b.WriteString(" \"")
			b.WriteString(e.Label)
			b.WriteString("\"")
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind ErrorKind, res ResourceKind, id uint64, label string, cause error) *Error {
	return &Error{Kind: kind, Resource: res, ID: id, Label: label, Cause: cause}
}
