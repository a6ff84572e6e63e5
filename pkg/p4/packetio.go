package p4

import "fmt"

// PacketOutField is one caller-supplied packet-out metadata value. Bitwidth
// is the declared width of the header field in bits; the encoded value
// occupies the smallest whole number of bytes covering that width.
type PacketOutField struct {
	Value    uint64
	Bitwidth int
}

// EncodeMetadataValue renders v as a fixed-width big-endian byte string for
// a field declared bitwidth bits wide. A value that does not fit in the
// declared width is an error, never a silent truncation.
func EncodeMetadataValue(v uint64, bitwidth int) ([]byte, error) {
	if bitwidth <= 0 || bitwidth > 64 {
		return nil, fmt.Errorf("p4: invalid metadata bitwidth %d", bitwidth)
	}
	if bitwidth < 64 && v >= 1<<uint(bitwidth) {
		return nil, fmt.Errorf("p4: metadata value %d exceeds %d-bit width", v, bitwidth)
	}
	n := (bitwidth + 7) / 8
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out, nil
}

// NewPacketOut builds a packet-out message from a payload and ordered
// metadata fields. Metadata ids are assigned sequentially starting at 1 in
// the order the fields were supplied.
func NewPacketOut(payload []byte, fields []PacketOutField) (*PacketOut, error) {
	pkt := &PacketOut{Payload: payload}
	for i, f := range fields {
		val, err := EncodeMetadataValue(f.Value, f.Bitwidth)
		if err != nil {
			return nil, fmt.Errorf("metadata %d: %w", i+1, err)
		}
		pkt.Metadata = append(pkt.Metadata, &PacketMetadata{
			MetadataID: uint32(i + 1),
			Value:      val,
		})
	}
	return pkt, nil
}
