package memgw

import (
	"context"
	"errors"
	"io"
	"testing"

	"p4ctl/pkg/p4"
)

func TestDeviceAnswersArbitration(t *testing.T) {
	dev := NewDevice(1)
	s, err := dev.StreamChannel(context.Background())
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	err = s.Send(&p4.StreamMessageRequest{Arbitration: &p4.MasterArbitrationUpdate{
		DeviceID:   1,
		ElectionID: p4.Uint128{Low: 1},
	}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	m, err := s.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if m.Variant() != p4.VariantArbitration || m.Arbitration.Status == nil {
		t.Fatalf("unexpected reply: %+v", m)
	}
}

func TestDeviceStreamEndsAfterCloseSend(t *testing.T) {
	dev := NewDevice(1)
	s, _ := dev.StreamChannel(context.Background())
	if err := s.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
	if _, err := s.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("want EOF after close, got %v", err)
	}
	// Injection into a finished stream is dropped, not a panic.
	dev.InjectPacketIn(&p4.PacketIn{})
}

func TestDeviceRejectsWrongDeviceID(t *testing.T) {
	dev := NewDevice(1)
	err := dev.Write(context.Background(), &p4.WriteRequest{DeviceID: 99})
	if err == nil {
		t.Fatalf("expected unknown-device error")
	}
}

func TestDeviceWriteReadRoundtrip(t *testing.T) {
	dev := NewDevice(1)
	ctx := context.Background()
	entry := &p4.TableEntry{TableID: 2, Match: []*p4.FieldMatch{{FieldID: 1, Exact: []byte{9}}}}
	err := dev.Write(ctx, &p4.WriteRequest{DeviceID: 1, Updates: []*p4.Update{
		{Type: p4.UpdateInsert, Entity: &p4.Entity{TableEntry: entry}},
	}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	rs, err := dev.Read(ctx, &p4.ReadRequest{DeviceID: 1, Entities: []*p4.Entity{
		{TableEntry: &p4.TableEntry{TableID: 0}},
	}})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	resp, err := rs.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if resp.Entities[0].TableEntry.TableID != 2 {
		t.Fatalf("read back wrong entry: %+v", resp.Entities[0])
	}
	if _, err := rs.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("want EOF, got %v", err)
	}
}
