package backend

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/gogpu/bindlayout"
)

// Backend names.
const (
	BackendNative   = "native"
	BackendLoopback = "loopback"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory opens a new channel. The returned channel should also implement
// io.Closer when it holds resources.
type Factory func() (bindlayout.Channel, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendNative, BackendLoopback}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a channel using the backend registered under name.
func Open(name string) (bindlayout.Channel, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	ch, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	bindlayout.Logger().Info("backend: opened", "name", name)
	return ch, nil
}

// Default opens the best available backend based on priority and returns
// its name. Backends whose factory fails are skipped.
func Default() (bindlayout.Channel, string, error) {
	registryMu.RLock()
	names := make([]string, 0, len(factories))
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	for name := range factories {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	registryMu.RUnlock()

	var errs []error
	for _, name := range names {
		ch, err := Open(name)
		if err == nil {
			return ch, name, nil
		}
		bindlayout.Logger().Warn("backend: skipping", "name", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, "", ErrBackendNotAvailable
	}
	return nil, "", errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}

// Close closes ch if it implements io.Closer.
func Close(ch bindlayout.Channel) error {
	if c, ok := ch.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
