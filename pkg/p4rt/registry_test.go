package p4rt

import (
	"context"
	"errors"
	"testing"
	"time"

	memgw "p4ctl/pkg/gateway/mem"
)

type failingConn struct{ calls int }

func (f *failingConn) Shutdown() error {
	f.calls++
	return errors.New("shutdown exploded")
}

func TestShutdownAllIsolatesFailures(t *testing.T) {
	reg := NewRegistry()

	devA := memgw.NewDevice(1)
	connA, err := Connect(context.Background(), devA, Options{Name: "a", DeviceID: 1, Registry: reg})
	if err != nil {
		t.Fatalf("connect a: %v", err)
	}
	bad := &failingConn{}
	reg.Register(bad)
	devB := memgw.NewDevice(2)
	connB, err := Connect(context.Background(), devB, Options{Name: "b", DeviceID: 2, Registry: reg})
	if err != nil {
		t.Fatalf("connect b: %v", err)
	}

	err = reg.ShutdownAll()
	if err == nil {
		t.Fatalf("expected joined error from failing connection")
	}
	if bad.calls != 1 {
		t.Fatalf("failing connection shut down %d times", bad.calls)
	}
	for _, c := range []*Connection{connA, connB} {
		select {
		case <-c.dispatcher.Done():
		case <-time.After(time.Second):
			t.Fatalf("connection %s not stopped despite sibling failure", c.Name())
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	dev := memgw.NewDevice(9)
	conn, err := Connect(context.Background(), dev, Options{Name: "d", DeviceID: 9})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := ShutdownAll(); err != nil {
		t.Fatalf("default shutdown-all: %v", err)
	}
	select {
	case <-conn.dispatcher.Done():
	case <-time.After(time.Second):
		t.Fatalf("default registry did not stop the connection")
	}
}
