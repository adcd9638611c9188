// Package backend provides a registry of named bindlayout channel backends.
//
// Backends register a factory from an init() function and are opened by
// name at runtime, so applications can pick a backend from configuration
// without importing its package directly:
//
//	import (
//	    "github.com/gogpu/bindlayout/backend"
//	    _ "github.com/gogpu/bindlayout/backend/loopback"
//	    _ "github.com/gogpu/bindlayout/backend/native"
//	)
//
//	ch, err := backend.Open("loopback")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Available Backends
//
//   - "native": synchronous channel over a gogpu/wgpu HAL device. The
//     registered factory opens Vulkan and falls back to the noop HAL; use
//     native.New or native.FromProvider to share an existing device.
//   - "loopback": asynchronous in-process backend that validates requests
//     on a worker goroutine and reports failures after the fact.
//
// Default opens the first available backend in priority order.
package backend
