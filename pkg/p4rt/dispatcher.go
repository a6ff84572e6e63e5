package p4rt

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4"
)

// StreamDispatcher owns the inbound half of the duplex stream. Its dispatch
// loop starts in the constructor and routes every device message into the
// delivery queue matching its variant. Exactly one loop reads the stream;
// ordering within one queue is the arrival order of that variant.
type StreamDispatcher struct {
	stream  api.StreamClient
	stopped atomic.Bool
	done    chan struct{}

	arbitration *deliveryQueue[*p4.MasterArbitrationUpdate]
	packets     *deliveryQueue[*p4.PacketIn]
	timeouts    *deliveryQueue[*p4.IdleTimeoutNotification]
	errors      *deliveryQueue[*p4.StreamError]
}

// NewStreamDispatcher starts the dispatch loop immediately; the dispatcher
// is running before the constructor returns.
func NewStreamDispatcher(stream api.StreamClient) *StreamDispatcher {
	d := &StreamDispatcher{
		stream:      stream,
		done:        make(chan struct{}),
		arbitration: newDeliveryQueue[*p4.MasterArbitrationUpdate](),
		packets:     newDeliveryQueue[*p4.PacketIn](),
		timeouts:    newDeliveryQueue[*p4.IdleTimeoutNotification](),
		errors:      newDeliveryQueue[*p4.StreamError](),
	}
	go d.dispatchLoop()
	return d
}

func (d *StreamDispatcher) dispatchLoop() {
	defer func() {
		// Stream is gone either way; fail blocked pulls instead of
		// leaving them stuck forever.
		d.arbitration.close()
		d.packets.close()
		d.timeouts.close()
		d.errors.close()
		close(d.done)
	}()
	for {
		if d.stopped.Load() {
			return
		}
		msg, err := d.stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && !d.stopped.Load() {
				zap.L().Warn("stream receive failed", zap.Error(err))
			}
			return
		}
		// A message already pulled when stop was requested is still routed
		// whole; the loop exits on the next iteration.
		switch msg.Variant() {
		case p4.VariantArbitration:
			d.arbitration.push(msg.Arbitration)
		case p4.VariantPacketIn:
			d.packets.push(msg.Packet)
		case p4.VariantIdleTimeout:
			d.timeouts.push(msg.IdleTimeout)
		case p4.VariantError:
			d.errors.push(msg.Error)
		case p4.VariantNone:
			zap.L().Warn("dropping stream message with no variant set")
		}
	}
}

// Stop requests cooperative termination. It is non-blocking and idempotent.
// A loop blocked inside the transport's own read is not interrupted; it
// terminates when the transport itself closes.
func (d *StreamDispatcher) Stop() {
	d.stopped.Store(true)
}

// Done is closed once the dispatch loop has exited.
func (d *StreamDispatcher) Done() <-chan struct{} { return d.done }

// PullArbitration blocks for the next arbitration update.
func (d *StreamDispatcher) PullArbitration(ctx context.Context) (*p4.MasterArbitrationUpdate, error) {
	return d.arbitration.pull(ctx)
}

// PullPacketIn blocks for the next punted packet.
func (d *StreamDispatcher) PullPacketIn(ctx context.Context) (*p4.PacketIn, error) {
	return d.packets.pull(ctx)
}

// PullIdleTimeout blocks for the next idle-timeout notification.
func (d *StreamDispatcher) PullIdleTimeout(ctx context.Context) (*p4.IdleTimeoutNotification, error) {
	return d.timeouts.pull(ctx)
}

// PullError blocks for the next stream-delivered error.
func (d *StreamDispatcher) PullError(ctx context.Context) (*p4.StreamError, error) {
	return d.errors.pull(ctx)
}
