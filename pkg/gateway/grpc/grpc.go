// Package grpcgw carries the device management protocol over a gRPC
// channel: one bidirectional stream for arbitration and packet I/O, unary
// calls for writes and pipeline pushes, a server stream for reads.
// Messages are framed with the canonical CBOR codec.
package grpcgw

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4"
	"p4ctl/pkg/p4/codec"
)

const (
	methodStreamChannel = "/p4.Device/StreamChannel"
	methodWrite         = "/p4.Device/Write"
	methodRead          = "/p4.Device/Read"
	methodSetPipeline   = "/p4.Device/SetForwardingPipelineConfig"
)

var (
	streamChannelDesc = &grpc.StreamDesc{
		StreamName:    "StreamChannel",
		ClientStreams: true,
		ServerStreams: true,
	}
	readDesc = &grpc.StreamDesc{
		StreamName:    "Read",
		ServerStreams: true,
	}
)

// wireCodec adapts the CBOR codec to grpc message framing.
type wireCodec struct{ c codec.Codec }

func (w wireCodec) Name() string                       { return "cbor" }
func (w wireCodec) Marshal(v any) ([]byte, error)      { return w.c.Marshal(v) }
func (w wireCodec) Unmarshal(data []byte, v any) error { return w.c.Unmarshal(data, v) }

// Transport implements api.Transport over one gRPC client connection.
type Transport struct {
	cc    *grpc.ClientConn
	codec wireCodec
}

var _ api.Transport = (*Transport)(nil)

// Dial opens a plaintext client connection to a device management endpoint.
// TLS and auth are out of scope here; run this inside a trusted fabric.
func Dial(target string, opts ...grpc.DialOption) (*Transport, error) {
	c, err := codec.CBOR()
	if err != nil {
		return nil, err
	}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Transport{cc: cc, codec: wireCodec{c: c}}, nil
}

// StreamChannel opens the duplex management stream.
func (t *Transport) StreamChannel(ctx context.Context) (api.StreamClient, error) {
	cs, err := t.cc.NewStream(ctx, streamChannelDesc, methodStreamChannel, grpc.ForceCodec(t.codec))
	if err != nil {
		return nil, err
	}
	return &streamClient{cs: cs}, nil
}

func (t *Transport) Write(ctx context.Context, req *p4.WriteRequest) error {
	return t.cc.Invoke(ctx, methodWrite, req, new(p4.WriteResponse), grpc.ForceCodec(t.codec))
}

func (t *Transport) SetForwardingPipelineConfig(ctx context.Context, req *p4.SetForwardingPipelineConfigRequest) error {
	return t.cc.Invoke(ctx, methodSetPipeline, req, new(p4.SetForwardingPipelineConfigResponse), grpc.ForceCodec(t.codec))
}

// Read issues the request and returns the lazily streamed result chunks.
func (t *Transport) Read(ctx context.Context, req *p4.ReadRequest) (api.ReadStream, error) {
	cs, err := t.cc.NewStream(ctx, readDesc, methodRead, grpc.ForceCodec(t.codec))
	if err != nil {
		return nil, err
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return &readStream{cs: cs}, nil
}

func (t *Transport) Close() error { return t.cc.Close() }

// streamClient wraps a raw grpc.ClientStream as the duplex StreamClient.
type streamClient struct {
	cs grpc.ClientStream
}

func (s *streamClient) Send(msg *p4.StreamMessageRequest) error {
	return s.cs.SendMsg(msg)
}

func (s *streamClient) Recv() (*p4.StreamMessageResponse, error) {
	m := new(p4.StreamMessageResponse)
	if err := s.cs.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *streamClient) CloseSend() error { return s.cs.CloseSend() }

// readStream wraps a server stream of read-result chunks.
type readStream struct {
	cs grpc.ClientStream
}

func (s *readStream) Recv() (*p4.ReadResponse, error) {
	m := new(p4.ReadResponse)
	if err := s.cs.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Close discards the rest of the stream. The underlying call ends when the
// server finishes or the context is cancelled.
func (s *readStream) Close() error { return nil }
