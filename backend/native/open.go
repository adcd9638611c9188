package native

import (
	"fmt"

	"github.com/gogpu/bindlayout"
	"github.com/gogpu/bindlayout/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.BackendNative, func() (bindlayout.Channel, error) {
		return OpenDefault()
	})
}

// OpenVulkan creates a Vulkan HAL instance, opens its preferred adapter and
// returns a Channel owning the resulting device.
func OpenVulkan() (*Channel, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend not available")
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	return openInstance(instance)
}

// OpenNoop returns a Channel backed by the no-op HAL device. Every request
// succeeds without touching a GPU.
func OpenNoop() (*Channel, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("native: create noop instance: %w", err)
	}
	return openInstance(instance)
}

// OpenDefault opens the Vulkan backend, falling back to the no-op device
// when no GPU is usable.
func OpenDefault() (*Channel, error) {
	ch, err := OpenVulkan()
	if err == nil {
		return ch, nil
	}
	bindlayout.Logger().Warn("native: GPU unavailable, using noop device", "err", err)
	return OpenNoop()
}

func openInstance(instance hal.Instance) (*Channel, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	ch := New(openDev.Device, openDev.Queue)
	ch.release = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	bindlayout.Logger().Info("native: device opened", "adapter", selected.Info.Name)
	return ch, nil
}
