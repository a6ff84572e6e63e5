package rpclog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	memgw "p4ctl/pkg/gateway/mem"
	"p4ctl/pkg/p4"
)

func TestNewTruncatesSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	if err := os.WriteFile(path, []byte("stale content"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := New(path); err != nil {
		t.Fatalf("new: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(b) != 0 {
		t.Fatalf("sink not truncated: %q", b)
	}
}

func TestLogRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	l, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Log("Write", &p4.WriteRequest{DeviceID: 3})

	b, _ := os.ReadFile(path)
	out := string(b)
	if !strings.Contains(out, "Write") {
		t.Fatalf("method name missing: %q", out)
	}
	if !strings.Contains(out, `"device_id":3`) {
		t.Fatalf("rendered body missing: %q", out)
	}
	if strings.Count(out, "---") != 2 {
		t.Fatalf("record delimiters missing: %q", out)
	}
}

func TestLogElidesLongBodies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	l, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Log("Write", &p4.WriteRequest{
		Updates: []*p4.Update{{Entity: &p4.Entity{TableEntry: &p4.TableEntry{
			Match: []*p4.FieldMatch{{Exact: make([]byte, 4096)}},
		}}}},
	})

	b, _ := os.ReadFile(path)
	out := string(b)
	if !strings.Contains(out, "Message too long") {
		t.Fatalf("long body not elided: %d bytes written", len(out))
	}
	if strings.Contains(out, `"table_id"`) {
		t.Fatalf("elided record still carries the body")
	}
}

func TestWrapLogsSynchronousCallsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	l, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dev := memgw.NewDevice(1)
	tr := Wrap(dev, l)
	ctx := context.Background()

	stream, err := tr.StreamChannel(ctx)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if err := stream.Send(&p4.StreamMessageRequest{Arbitration: &p4.MasterArbitrationUpdate{DeviceID: 1}}); err != nil {
		t.Fatalf("stream send: %v", err)
	}
	if err := tr.Write(ctx, &p4.WriteRequest{DeviceID: 1, Updates: []*p4.Update{{
		Type:   p4.UpdateInsert,
		Entity: &p4.Entity{TableEntry: &p4.TableEntry{TableID: 4}},
	}}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, _ := os.ReadFile(path)
	out := string(b)
	if strings.Count(out, "] Write") != 1 {
		t.Fatalf("expected exactly one Write record: %q", out)
	}
	if strings.Contains(out, "arbitration") {
		t.Fatalf("stream traffic must not be logged: %q", out)
	}
}
