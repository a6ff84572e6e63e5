package p4rt

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	"p4ctl/pkg/p4"
)

// stubStream feeds a fixed inbound sequence to the dispatcher.
type stubStream struct {
	in chan *p4.StreamMessageResponse
}

func newStubStream() *stubStream {
	return &stubStream{in: make(chan *p4.StreamMessageResponse, 1024)}
}

func (s *stubStream) Send(*p4.StreamMessageRequest) error { return nil }

func (s *stubStream) Recv() (*p4.StreamMessageResponse, error) {
	m, ok := <-s.in
	if !ok {
		return nil, io.EOF
	}
	return m, nil
}

func (s *stubStream) CloseSend() error { return nil }

func TestDispatcherDemux(t *testing.T) {
	s := newStubStream()
	d := NewStreamDispatcher(s)

	rng := rand.New(rand.NewSource(1))
	const n = 200
	var wantArb, wantPkt, wantIdle, wantErr []int
	for i := 0; i < n; i++ {
		switch rng.Intn(4) {
		case 0:
			wantArb = append(wantArb, i)
			s.in <- &p4.StreamMessageResponse{Arbitration: &p4.MasterArbitrationUpdate{DeviceID: uint64(i)}}
		case 1:
			wantPkt = append(wantPkt, i)
			s.in <- &p4.StreamMessageResponse{Packet: &p4.PacketIn{Payload: []byte{byte(i)}}}
		case 2:
			wantIdle = append(wantIdle, i)
			s.in <- &p4.StreamMessageResponse{IdleTimeout: &p4.IdleTimeoutNotification{TimestampNs: int64(i)}}
		case 3:
			wantErr = append(wantErr, i)
			s.in <- &p4.StreamMessageResponse{Error: &p4.StreamError{Code: int32(i)}}
		}
	}
	close(s.in)
	<-d.Done()

	ctx := context.Background()
	for _, want := range wantArb {
		m, err := d.PullArbitration(ctx)
		if err != nil {
			t.Fatalf("pull arbitration: %v", err)
		}
		if m.DeviceID != uint64(want) {
			t.Fatalf("arbitration order: got %d want %d", m.DeviceID, want)
		}
	}
	for _, want := range wantPkt {
		m, err := d.PullPacketIn(ctx)
		if err != nil {
			t.Fatalf("pull packet: %v", err)
		}
		if m.Payload[0] != byte(want) {
			t.Fatalf("packet order: got %d want %d", m.Payload[0], want)
		}
	}
	for _, want := range wantIdle {
		m, err := d.PullIdleTimeout(ctx)
		if err != nil {
			t.Fatalf("pull idle: %v", err)
		}
		if m.TimestampNs != int64(want) {
			t.Fatalf("idle order: got %d want %d", m.TimestampNs, want)
		}
	}
	for _, want := range wantErr {
		m, err := d.PullError(ctx)
		if err != nil {
			t.Fatalf("pull error: %v", err)
		}
		if m.Code != int32(want) {
			t.Fatalf("error order: got %d want %d", m.Code, want)
		}
	}
}

func TestDispatcherDropsEmptyMessages(t *testing.T) {
	s := newStubStream()
	d := NewStreamDispatcher(s)

	s.in <- &p4.StreamMessageResponse{} // no variant set
	s.in <- &p4.StreamMessageResponse{Packet: &p4.PacketIn{Payload: []byte("after")}}
	close(s.in)
	<-d.Done()

	if got := d.packets.len(); got != 1 {
		t.Fatalf("packet queue size: got %d want 1", got)
	}
	if d.arbitration.len() != 0 || d.timeouts.len() != 0 || d.errors.len() != 0 {
		t.Fatalf("anomaly leaked into a delivery queue")
	}
	m, err := d.PullPacketIn(context.Background())
	if err != nil {
		t.Fatalf("pull after anomaly: %v", err)
	}
	if string(m.Payload) != "after" {
		t.Fatalf("wrong payload after anomaly: %q", m.Payload)
	}
}

func TestDispatcherStreamEndFailsBlockedPulls(t *testing.T) {
	s := newStubStream()
	d := NewStreamDispatcher(s)

	errCh := make(chan error, 1)
	go func() {
		_, err := d.PullPacketIn(context.Background())
		errCh <- err
	}()

	close(s.in)
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Fatalf("blocked pull got %v, want ErrConnectionClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("pull still blocked after stream end")
	}
}

func TestDispatcherStop(t *testing.T) {
	s := newStubStream()
	d := NewStreamDispatcher(s)

	d.Stop()
	d.Stop() // idempotent
	// A message already in flight may still be routed; the loop exits on
	// the next iteration.
	s.in <- &p4.StreamMessageResponse{Packet: &p4.PacketIn{}}
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatalf("dispatch loop did not stop")
	}
}

func TestPullContextCancel(t *testing.T) {
	s := newStubStream()
	d := NewStreamDispatcher(s)
	defer close(s.in)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := d.PullArbitration(ctx)
		errCh <- err
	}()
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("pull ignored cancellation")
	}
}
