// Package memgw is an in-process device simulator implementing the
// transport boundary. Useful for tests and local runs without a real
// forwarding device: it stores written entries, answers arbitration, and
// can loop packet-outs back as packet-ins.
package memgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4"
)

// Device simulates one forwarding device behind an api.Transport.
type Device struct {
	deviceID uint64

	mu       sync.Mutex
	tables   map[string]*p4.TableEntry
	pre      map[string]*p4.PacketReplicationEngineEntry
	counters map[uint32]map[int64]*p4.CounterData
	pipeline *p4.ForwardingPipelineConfig
	loopback bool
	failNext error

	streamMu sync.Mutex
	stream   *deviceStream
}

var _ api.Transport = (*Device)(nil)

func NewDevice(deviceID uint64) *Device {
	return &Device{
		deviceID: deviceID,
		tables:   make(map[string]*p4.TableEntry),
		pre:      make(map[string]*p4.PacketReplicationEngineEntry),
		counters: make(map[uint32]map[int64]*p4.CounterData),
	}
}

// SetLoopback makes every packet-out reappear as a packet-in.
func (d *Device) SetLoopback(on bool) {
	d.mu.Lock()
	d.loopback = on
	d.mu.Unlock()
}

// FailNext makes the next synchronous call fail with err.
func (d *Device) FailNext(err error) {
	d.mu.Lock()
	d.failNext = err
	d.mu.Unlock()
}

// SetCounter seeds one counter cell.
func (d *Device) SetCounter(counterID uint32, index int64, data *p4.CounterData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cells := d.counters[counterID]
	if cells == nil {
		cells = make(map[int64]*p4.CounterData)
		d.counters[counterID] = cells
	}
	cells[index] = data
}

// Pipeline returns the last committed pipeline config, nil if none.
func (d *Device) Pipeline() *p4.ForwardingPipelineConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipeline
}

// TableEntryCount reports how many table entries are installed.
func (d *Device) TableEntryCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tables)
}

// Inject pushes an arbitrary message onto the open stream, anomalies
// included. No-op when no stream is open.
func (d *Device) Inject(m *p4.StreamMessageResponse) {
	d.streamMu.Lock()
	s := d.stream
	d.streamMu.Unlock()
	if s != nil {
		s.emit(m)
	}
}

// InjectPacketIn punts one packet to the client.
func (d *Device) InjectPacketIn(p *p4.PacketIn) {
	d.Inject(&p4.StreamMessageResponse{Packet: p})
}

// InjectIdleTimeout delivers an idle-timeout notification.
func (d *Device) InjectIdleTimeout(n *p4.IdleTimeoutNotification) {
	d.Inject(&p4.StreamMessageResponse{IdleTimeout: n})
}

// InjectError delivers a stream error.
func (d *Device) InjectError(e *p4.StreamError) {
	d.Inject(&p4.StreamMessageResponse{Error: e})
}

// StreamChannel opens the duplex stream. One stream at a time; a second
// call replaces the injectable stream handle but leaves the old stream
// functional for its client.
func (d *Device) StreamChannel(ctx context.Context) (api.StreamClient, error) {
	s := &deviceStream{dev: d, out: make(chan *p4.StreamMessageResponse, 256)}
	d.streamMu.Lock()
	d.stream = s
	d.streamMu.Unlock()
	return s, nil
}

func (d *Device) Write(ctx context.Context, req *p4.WriteRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return err
	}
	if req.DeviceID != d.deviceID {
		return fmt.Errorf("memgw: unknown device %d", req.DeviceID)
	}
	for _, u := range req.Updates {
		if err := d.applyUpdate(u); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) applyUpdate(u *p4.Update) error {
	switch {
	case u.Entity == nil:
		return errors.New("memgw: update without entity")
	case u.Entity.TableEntry != nil:
		key := entityKey(u.Entity.TableEntry)
		switch u.Type {
		case p4.UpdateInsert:
			if _, ok := d.tables[key]; ok {
				return fmt.Errorf("memgw: duplicate table entry %s", key)
			}
			d.tables[key] = u.Entity.TableEntry
		case p4.UpdateModify:
			d.tables[key] = u.Entity.TableEntry
		case p4.UpdateDelete:
			if _, ok := d.tables[key]; !ok {
				return fmt.Errorf("memgw: no such table entry %s", key)
			}
			delete(d.tables, key)
		default:
			return fmt.Errorf("memgw: unsupported update type %s", u.Type)
		}
		return nil
	case u.Entity.PacketReplicationEngineEntry != nil:
		key := entityKey(u.Entity.PacketReplicationEngineEntry)
		switch u.Type {
		case p4.UpdateInsert, p4.UpdateModify:
			d.pre[key] = u.Entity.PacketReplicationEngineEntry
		case p4.UpdateDelete:
			delete(d.pre, key)
		default:
			return fmt.Errorf("memgw: unsupported update type %s", u.Type)
		}
		return nil
	default:
		return errors.New("memgw: unsupported entity")
	}
}

// Read answers with one chunk per matched entity so callers observe a
// genuinely streamed result.
func (d *Device) Read(ctx context.Context, req *p4.ReadRequest) (api.ReadStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	var chunks []*p4.ReadResponse
	for _, filter := range req.Entities {
		for _, e := range d.matchEntities(filter) {
			chunks = append(chunks, &p4.ReadResponse{Entities: []*p4.Entity{e}})
		}
	}
	return &memReadStream{chunks: chunks}, nil
}

func (d *Device) matchEntities(filter *p4.Entity) []*p4.Entity {
	var out []*p4.Entity
	switch {
	case filter.TableEntry != nil:
		want := filter.TableEntry.TableID
		for _, e := range d.tables {
			if want == 0 || e.TableID == want {
				out = append(out, &p4.Entity{TableEntry: e})
			}
		}
	case filter.CounterEntry != nil:
		want := filter.CounterEntry.CounterID
		for id, cells := range d.counters {
			if want != 0 && id != want {
				continue
			}
			for idx, data := range cells {
				if filter.CounterEntry.Index != nil && filter.CounterEntry.Index.Index != idx {
					continue
				}
				out = append(out, &p4.Entity{CounterEntry: &p4.CounterEntry{
					CounterID: id,
					Index:     &p4.CounterIndex{Index: idx},
					Data:      data,
				}})
			}
		}
	}
	return out
}

func (d *Device) SetForwardingPipelineConfig(ctx context.Context, req *p4.SetForwardingPipelineConfigRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return err
	}
	if req.Action != p4.ConfigVerifyAndCommit {
		return fmt.Errorf("memgw: unsupported config action %s", req.Action)
	}
	d.pipeline = req.Config
	return nil
}

func (d *Device) Close() error {
	d.streamMu.Lock()
	s := d.stream
	d.stream = nil
	d.streamMu.Unlock()
	if s != nil {
		s.closeOut()
	}
	return nil
}

// takeFailure consumes a pending injected failure. Caller holds d.mu.
func (d *Device) takeFailure() error {
	err := d.failNext
	d.failNext = nil
	return err
}

// entityKey renders a stable identity for a stored entity.
func entityKey(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// deviceStream is the device side of one duplex stream.
type deviceStream struct {
	dev    *Device
	mu     sync.Mutex
	out    chan *p4.StreamMessageResponse
	closed bool
}

func (s *deviceStream) Send(req *p4.StreamMessageRequest) error {
	switch {
	case req.Arbitration != nil:
		resp := &p4.MasterArbitrationUpdate{
			DeviceID:   req.Arbitration.DeviceID,
			ElectionID: req.Arbitration.ElectionID,
			Status:     &p4.Status{Code: 0, Message: "is master"},
		}
		s.emit(&p4.StreamMessageResponse{Arbitration: resp})
	case req.Packet != nil:
		s.dev.mu.Lock()
		loop := s.dev.loopback
		s.dev.mu.Unlock()
		if loop {
			s.emit(&p4.StreamMessageResponse{Packet: &p4.PacketIn{
				Payload:  req.Packet.Payload,
				Metadata: req.Packet.Metadata,
			}})
		}
	}
	return nil
}

func (s *deviceStream) Recv() (*p4.StreamMessageResponse, error) {
	m, ok := <-s.out
	if !ok {
		return nil, io.EOF
	}
	return m, nil
}

// CloseSend ends the client's outbound half; the simulated device answers
// by finishing its inbound half, so Recv drains and returns io.EOF.
func (s *deviceStream) CloseSend() error {
	s.closeOut()
	return nil
}

func (s *deviceStream) emit(m *p4.StreamMessageResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- m:
	default:
		// Slow consumer; a simulator may drop rather than block the device.
	}
}

func (s *deviceStream) closeOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// memReadStream yields pre-built chunks one Recv at a time.
type memReadStream struct {
	chunks []*p4.ReadResponse
}

func (r *memReadStream) Recv() (*p4.ReadResponse, error) {
	if len(r.chunks) == 0 {
		return nil, io.EOF
	}
	head := r.chunks[0]
	r.chunks = r.chunks[1:]
	return head, nil
}

func (r *memReadStream) Close() error {
	r.chunks = nil
	return nil
}
