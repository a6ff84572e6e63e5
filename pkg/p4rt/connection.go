package p4rt

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4"
)

// electionLow is the fixed election id used for every operation: a
// single-controller deployment, no contention handling.
const electionLow = 1

// Options configures a Connection.
type Options struct {
	// Name is a logical device name used in logs.
	Name string
	// DeviceID scopes every operation to one device.
	DeviceID uint64
	// ConfigBuilder produces the opaque device-config blob for pipeline
	// pushes. Optional; a nil builder pushes an empty blob.
	ConfigBuilder api.DeviceConfigBuilder
	// Registry receives the connection for bulk shutdown. Default when nil.
	Registry *Registry
}

// Connection binds the outbound queue, the stream dispatcher and a transport
// into the device operation surface. It is live from Connect until Shutdown.
type Connection struct {
	name       string
	deviceID   uint64
	electionID p4.Uint128
	transport  api.Transport
	builder    api.DeviceConfigBuilder

	outbound   *OutboundQueue
	dispatcher *StreamDispatcher

	shutdownOnce sync.Once
}

// Connect opens the duplex stream, starts the dispatch loop and the outbound
// pump, and registers the connection for bulk shutdown. The connection is
// fully running when Connect returns.
func Connect(ctx context.Context, t api.Transport, opts Options) (*Connection, error) {
	stream, err := t.StreamChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("open stream channel: %w", err)
	}
	c := &Connection{
		name:       opts.Name,
		deviceID:   opts.DeviceID,
		electionID: p4.Uint128{Low: electionLow},
		transport:  t,
		builder:    opts.ConfigBuilder,
		outbound:   NewOutboundQueue(),
		dispatcher: NewStreamDispatcher(stream),
	}
	go c.pumpOutbound(stream)

	reg := opts.Registry
	if reg == nil {
		reg = Default
	}
	reg.Register(c)
	zap.L().Info("device connected",
		zap.String("device", c.name), zap.Uint64("device_id", c.deviceID))
	return c, nil
}

// pumpOutbound drains the outbound queue into the stream in FIFO order and
// half-closes the stream once the queue's close sentinel is reached.
func (c *Connection) pumpOutbound(stream api.StreamClient) {
	for {
		msg, ok := c.outbound.Next()
		if !ok {
			_ = stream.CloseSend()
			return
		}
		if err := stream.Send(msg); err != nil {
			zap.L().Warn("stream send failed",
				zap.String("device", c.name), zap.Error(err))
			return
		}
	}
}

// Name returns the logical device name.
func (c *Connection) Name() string { return c.name }

// DeviceID returns the device id every operation is scoped to.
func (c *Connection) DeviceID() uint64 { return c.deviceID }

func (c *Connection) logDryRun(op string, req any) {
	zap.L().Info("dry run",
		zap.String("device", c.name), zap.String("op", op), zap.Any("request", req))
}

// MasterArbitrationUpdate sends an arbitration request and blocks for the
// device's arbitration reply. The caller owns retry policy; establishing or
// refreshing mastership is its concern.
func (c *Connection) MasterArbitrationUpdate(ctx context.Context, dryRun bool) (*p4.MasterArbitrationUpdate, error) {
	req := &p4.StreamMessageRequest{Arbitration: &p4.MasterArbitrationUpdate{
		DeviceID:   c.deviceID,
		ElectionID: c.electionID,
	}}
	if dryRun {
		c.logDryRun("MasterArbitrationUpdate", req)
		return nil, nil
	}
	c.outbound.Put(req)
	return c.dispatcher.PullArbitration(ctx)
}

// SetForwardingPipelineConfig pushes a pipeline with verify-and-commit. The
// device-config blob is built from params by the configured builder.
func (c *Connection) SetForwardingPipelineConfig(ctx context.Context, p4info []byte, params map[string]any, dryRun bool) error {
	var deviceConfig []byte
	if c.builder != nil {
		var err error
		deviceConfig, err = c.builder.BuildDeviceConfig(params)
		if err != nil {
			return fmt.Errorf("build device config: %w", err)
		}
	}
	req := &p4.SetForwardingPipelineConfigRequest{
		DeviceID:   c.deviceID,
		ElectionID: c.electionID,
		Action:     p4.ConfigVerifyAndCommit,
		Config: &p4.ForwardingPipelineConfig{
			P4Info:         p4info,
			P4DeviceConfig: deviceConfig,
		},
	}
	if dryRun {
		c.logDryRun("SetForwardingPipelineConfig", req)
		return nil
	}
	return c.transport.SetForwardingPipelineConfig(ctx, req)
}

// WriteTableEntry installs a table entry: modify when the entry overwrites
// the default action, insert otherwise.
func (c *Connection) WriteTableEntry(ctx context.Context, entry *p4.TableEntry, dryRun bool) error {
	typ := p4.UpdateInsert
	if entry.IsDefaultAction {
		typ = p4.UpdateModify
	}
	return c.write(ctx, "WriteTableEntry", &p4.Update{
		Type:   typ,
		Entity: &p4.Entity{TableEntry: entry},
	}, dryRun)
}

// DeleteTableEntry removes a table entry.
func (c *Connection) DeleteTableEntry(ctx context.Context, entry *p4.TableEntry, dryRun bool) error {
	return c.write(ctx, "DeleteTableEntry", &p4.Update{
		Type:   p4.UpdateDelete,
		Entity: &p4.Entity{TableEntry: entry},
	}, dryRun)
}

// WritePREEntry installs a packet replication engine entry.
func (c *Connection) WritePREEntry(ctx context.Context, entry *p4.PacketReplicationEngineEntry, dryRun bool) error {
	return c.write(ctx, "WritePREEntry", &p4.Update{
		Type:   p4.UpdateInsert,
		Entity: &p4.Entity{PacketReplicationEngineEntry: entry},
	}, dryRun)
}

// write issues a single-update write request. No batching, no replay;
// transport errors propagate unchanged.
func (c *Connection) write(ctx context.Context, op string, update *p4.Update, dryRun bool) error {
	req := &p4.WriteRequest{
		DeviceID:   c.deviceID,
		ElectionID: c.electionID,
		Updates:    []*p4.Update{update},
	}
	if dryRun {
		c.logDryRun(op, req)
		return nil
	}
	return c.transport.Write(ctx, req)
}

// ReadTableEntries reads entries of one table as a lazy chunk stream.
// TableID zero is a wildcard matching every table, not an absent filter.
func (c *Connection) ReadTableEntries(ctx context.Context, tableID uint32, dryRun bool) (api.ReadStream, error) {
	req := &p4.ReadRequest{
		DeviceID: c.deviceID,
		Entities: []*p4.Entity{{TableEntry: &p4.TableEntry{TableID: tableID}}},
	}
	if dryRun {
		c.logDryRun("ReadTableEntries", req)
		return nil, nil
	}
	return c.transport.Read(ctx, req)
}

// ReadCounters reads counter cells as a lazy chunk stream. CounterID zero is
// a wildcard; a nil index selects every cell.
func (c *Connection) ReadCounters(ctx context.Context, counterID uint32, index *int64, dryRun bool) (api.ReadStream, error) {
	entry := &p4.CounterEntry{CounterID: counterID}
	if index != nil {
		entry.Index = &p4.CounterIndex{Index: *index}
	}
	req := &p4.ReadRequest{
		DeviceID: c.deviceID,
		Entities: []*p4.Entity{{CounterEntry: entry}},
	}
	if dryRun {
		c.logDryRun("ReadCounters", req)
		return nil, nil
	}
	return c.transport.Read(ctx, req)
}

// PacketOut injects a packet, fire-and-forget. A metadata value wider than
// its declared field width fails the whole operation before anything is
// enqueued.
func (c *Connection) PacketOut(payload []byte, fields []p4.PacketOutField, dryRun bool) error {
	pkt, err := p4.NewPacketOut(payload, fields)
	if err != nil {
		return err
	}
	req := &p4.StreamMessageRequest{Packet: pkt}
	if dryRun {
		c.logDryRun("PacketOut", req)
		return nil
	}
	c.outbound.Put(req)
	return nil
}

// PacketIn blocks for the next punted packet.
func (c *Connection) PacketIn(ctx context.Context) (*p4.PacketIn, error) {
	return c.dispatcher.PullPacketIn(ctx)
}

// IdleTimeoutNotification blocks for the next idle-timeout notification.
func (c *Connection) IdleTimeoutNotification(ctx context.Context) (*p4.IdleTimeoutNotification, error) {
	return c.dispatcher.PullIdleTimeout(ctx)
}

// StreamError blocks for the next stream-delivered error.
func (c *Connection) StreamError(ctx context.Context) (*p4.StreamError, error) {
	return c.dispatcher.PullError(ctx)
}

// Shutdown closes the outbound queue, ending the outbound half once queued
// messages drain, and stops the dispatch loop. Safe to call more than once.
// The transport handle stays open; whoever dialed it owns its lifecycle.
func (c *Connection) Shutdown() error {
	c.shutdownOnce.Do(func() {
		c.outbound.Close()
		c.dispatcher.Stop()
		zap.L().Info("device connection shut down", zap.String("device", c.name))
	})
	return nil
}
