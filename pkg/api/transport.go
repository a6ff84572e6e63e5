package api

import (
	"context"

	"p4ctl/pkg/p4"
)

// StreamClient is the client half of the duplex management stream. Exactly
// one reader goroutine (the dispatcher) and one writer goroutine (the
// outbound pump) are expected.
type StreamClient interface {
	Send(*p4.StreamMessageRequest) error
	// Recv blocks for the next device message and returns io.EOF (or a
	// transport error) when the stream ends.
	Recv() (*p4.StreamMessageResponse, error)
	// CloseSend ends the outbound half without tearing down the inbound one.
	CloseSend() error
}

// ReadStream yields read-result chunks lazily as the device streams them
// back. Recv returns io.EOF after the final chunk. The sequence is finite
// and cannot be restarted.
type ReadStream interface {
	Recv() (*p4.ReadResponse, error)
	Close() error
}

// Transport is the channel to one device: a duplex stream for arbitration
// and packet I/O plus independent synchronous calls for config, writes and
// reads. Unary call errors are propagated to the caller unchanged.
type Transport interface {
	StreamChannel(ctx context.Context) (StreamClient, error)
	Write(ctx context.Context, req *p4.WriteRequest) error
	Read(ctx context.Context, req *p4.ReadRequest) (ReadStream, error)
	SetForwardingPipelineConfig(ctx context.Context, req *p4.SetForwardingPipelineConfigRequest) error
	Close() error
}
