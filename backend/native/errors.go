package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/bindlayout"
)

// Package errors for the native backend.
var (
	// ErrClosed is returned by requests sent after Close.
	ErrClosed = fmt.Errorf("native: %w", bindlayout.ErrDisconnected)

	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL types")

	// ErrUnknownResource is returned when a request references an ID the
	// channel does not hold.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrUnsupportedResource is returned for bind group resources the
	// channel cannot resolve.
	ErrUnsupportedResource = errors.New("native: unsupported binding resource")

	// ErrIDInUse is returned when a create request reuses a live ID.
	ErrIDInUse = errors.New("native: id already in use")
)
