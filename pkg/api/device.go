package api

// DeviceConfigBuilder turns keyed configuration parameters into the opaque
// device-specific config blob carried by a pipeline push. Implemented per
// device family; the client core depends only on this interface.
type DeviceConfigBuilder interface {
	BuildDeviceConfig(params map[string]any) ([]byte, error)
}

// DeviceConfigBuilderFunc adapts a function to the interface.
type DeviceConfigBuilderFunc func(params map[string]any) ([]byte, error)

func (f DeviceConfigBuilderFunc) BuildDeviceConfig(params map[string]any) ([]byte, error) {
	return f(params)
}
