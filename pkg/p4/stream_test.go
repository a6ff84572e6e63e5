package p4

import "testing"

func TestResponseVariant(t *testing.T) {
	cases := []struct {
		msg  StreamMessageResponse
		want Variant
	}{
		{StreamMessageResponse{Arbitration: &MasterArbitrationUpdate{}}, VariantArbitration},
		{StreamMessageResponse{Packet: &PacketIn{}}, VariantPacketIn},
		{StreamMessageResponse{IdleTimeout: &IdleTimeoutNotification{}}, VariantIdleTimeout},
		{StreamMessageResponse{Error: &StreamError{}}, VariantError},
		{StreamMessageResponse{}, VariantNone},
	}
	for _, c := range cases {
		if got := c.msg.Variant(); got != c.want {
			t.Fatalf("variant: got %s want %s", got, c.want)
		}
	}
}
