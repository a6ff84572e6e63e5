package p4

// WriteRequest mutates device state. Every update is applied under the
// authority of the election id.
type WriteRequest struct {
	DeviceID   uint64    `json:"device_id"`
	ElectionID Uint128   `json:"election_id"`
	Updates    []*Update `json:"updates,omitempty"`
}

// WriteResponse is empty; a write either succeeds or fails as a whole.
type WriteResponse struct{}

// Update is one mutation of a WriteRequest.
type Update struct {
	Type   UpdateType `json:"type"`
	Entity *Entity    `json:"entity"`
}

// ReadRequest asks the device to stream back every entity matching the
// listed entity filters. Zero-valued ids inside a filter act as wildcards.
type ReadRequest struct {
	DeviceID uint64    `json:"device_id"`
	Entities []*Entity `json:"entities,omitempty"`
}

// ReadResponse is one chunk of a streamed read result.
type ReadResponse struct {
	Entities []*Entity `json:"entities,omitempty"`
}

// ForwardingPipelineConfig bundles the pipeline description with the opaque
// device-specific config blob produced by a DeviceConfigBuilder.
type ForwardingPipelineConfig struct {
	P4Info         []byte `json:"p4info,omitempty"`
	P4DeviceConfig []byte `json:"p4_device_config,omitempty"`
}

// SetForwardingPipelineConfigRequest installs a pipeline on a device.
type SetForwardingPipelineConfigRequest struct {
	DeviceID   uint64                    `json:"device_id"`
	ElectionID Uint128                   `json:"election_id"`
	Action     ConfigAction              `json:"action"`
	Config     *ForwardingPipelineConfig `json:"config,omitempty"`
}

// SetForwardingPipelineConfigResponse is empty.
type SetForwardingPipelineConfigResponse struct{}
