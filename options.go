package bindlayout

// DeviceOption configures a Device during creation.
//
// Example:
//
//	dev := bindlayout.NewDevice(ch,
//	    bindlayout.WithLabel("main"),
//	    bindlayout.WithUncapturedErrorHandler(func(err error) { log.Print(err) }),
//	)
type DeviceOption func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	label            string
	limits           Limits
	onUncaptured     func(error)
	releaseOnCollect bool
}

// defaultDeviceOptions returns the default device options.
func defaultDeviceOptions() deviceOptions {
	return deviceOptions{
		limits:           DefaultLimits(),
		releaseOnCollect: true,
	}
}

// WithLabel sets the device's debug label, used in log output.
func WithLabel(label string) DeviceOption {
	return func(o *deviceOptions) {
		o.label = label
	}
}

// WithLimits replaces the default limits used for client-side validation.
// Zero fields keep their defaults.
func WithLimits(limits Limits) DeviceOption {
	return func(o *deviceOptions) {
		if limits.MaxBindGroups != 0 {
			o.limits.MaxBindGroups = limits.MaxBindGroups
		}
		if limits.MaxBindingsPerBindGroup != 0 {
			o.limits.MaxBindingsPerBindGroup = limits.MaxBindingsPerBindGroup
		}
	}
}

// WithUncapturedErrorHandler sets the function called for backend failures
// that no caller is waiting on, such as asynchronous invalidations.
// The handler may be called from any goroutine. By default such errors are
// logged at warn level.
func WithUncapturedErrorHandler(fn func(error)) DeviceOption {
	return func(o *deviceOptions) {
		o.onUncaptured = fn
	}
}

// WithReleaseOnCollect controls whether the backend resource of an object
// is released when the garbage collector reclaims the object. It is enabled
// by default. When disabled, unreleased objects are released by
// Device.Destroy.
func WithReleaseOnCollect(enabled bool) DeviceOption {
	return func(o *deviceOptions) {
		o.releaseOnCollect = enabled
	}
}
