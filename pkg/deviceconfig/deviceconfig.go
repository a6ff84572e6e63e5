// Package deviceconfig provides a generic device-config builder for device
// families that accept a self-describing key/value blob. Families with a
// bespoke binary format implement api.DeviceConfigBuilder themselves.
package deviceconfig

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4/codec"
)

type generic struct {
	enc codec.Codec
}

// Generic returns a builder that encodes the keyed parameters as a
// deterministic protobuf struct. Parameter values must be JSON-compatible
// (bool, number, string, list, map).
func Generic() api.DeviceConfigBuilder {
	return generic{enc: codec.Proto()}
}

func (g generic) BuildDeviceConfig(params map[string]any) ([]byte, error) {
	if len(params) == 0 {
		return nil, nil
	}
	s, err := structpb.NewStruct(params)
	if err != nil {
		return nil, fmt.Errorf("device config params: %w", err)
	}
	return g.enc.Marshal(s)
}
