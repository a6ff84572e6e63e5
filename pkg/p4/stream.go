package p4

// StreamMessageRequest is one client-to-device message on the duplex stream.
// At most one field is set.
type StreamMessageRequest struct {
	Arbitration *MasterArbitrationUpdate `json:"arbitration,omitempty"`
	Packet      *PacketOut               `json:"packet,omitempty"`
}

// StreamMessageResponse is one device-to-client message on the duplex stream.
// Exactly one field is set on a well-formed message; Variant reports which.
type StreamMessageResponse struct {
	Arbitration *MasterArbitrationUpdate `json:"arbitration,omitempty"`
	Packet      *PacketIn                `json:"packet,omitempty"`
	IdleTimeout *IdleTimeoutNotification `json:"idle_timeout,omitempty"`
	Error       *StreamError             `json:"error,omitempty"`
}

// Variant tags the populated arm of a StreamMessageResponse.
type Variant int

const (
	// VariantNone marks a message with no recognized arm set. It is a
	// protocol anomaly, handled explicitly by the dispatcher rather than
	// falling through.
	VariantNone Variant = iota
	VariantArbitration
	VariantPacketIn
	VariantIdleTimeout
	VariantError
)

func (v Variant) String() string {
	switch v {
	case VariantArbitration:
		return "arbitration"
	case VariantPacketIn:
		return "packet-in"
	case VariantIdleTimeout:
		return "idle-timeout"
	case VariantError:
		return "error"
	default:
		return "none"
	}
}

// Variant reports which arm of the response is populated. When several arms
// are set the first in declaration order wins, mirroring how the device is
// expected to populate the union.
func (m *StreamMessageResponse) Variant() Variant {
	switch {
	case m.Arbitration != nil:
		return VariantArbitration
	case m.Packet != nil:
		return VariantPacketIn
	case m.IdleTimeout != nil:
		return VariantIdleTimeout
	case m.Error != nil:
		return VariantError
	default:
		return VariantNone
	}
}

// MasterArbitrationUpdate announces or refreshes this client's write
// authority over a device. The device echoes it back with a Status.
type MasterArbitrationUpdate struct {
	DeviceID   uint64  `json:"device_id"`
	ElectionID Uint128 `json:"election_id"`
	Status     *Status `json:"status,omitempty"`
}

// PacketOut injects a packet into the device data plane. Metadata ids are
// assigned sequentially from 1 in the order the caller supplied the fields.
type PacketOut struct {
	Payload  []byte            `json:"payload"`
	Metadata []*PacketMetadata `json:"metadata,omitempty"`
}

// PacketIn is a packet punted from the device data plane to this client.
type PacketIn struct {
	Payload  []byte            `json:"payload"`
	Metadata []*PacketMetadata `json:"metadata,omitempty"`
}

// PacketMetadata is one fixed-width big-endian metadata value attached to a
// packet-in or packet-out.
type PacketMetadata struct {
	MetadataID uint32 `json:"metadata_id"`
	Value      []byte `json:"value"`
}

// IdleTimeoutNotification reports table entries whose idle timer expired.
type IdleTimeoutNotification struct {
	TableEntries []*TableEntry `json:"table_entries,omitempty"`
	TimestampNs  int64         `json:"timestamp_ns,omitempty"`
}

// StreamError reports a stream-delivered failure for a previous request.
type StreamError struct {
	CanonicalCode int32  `json:"canonical_code"`
	Code          int32  `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
	Space         string `json:"space,omitempty"`
}
