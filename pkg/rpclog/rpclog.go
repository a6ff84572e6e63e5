// Package rpclog writes human-readable copies of outbound synchronous
// requests to a dump file for diagnostics. It decorates a transport; the
// streamed arbitration and packet traffic is never logged.
package rpclog

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"p4ctl/pkg/api"
	"p4ctl/pkg/p4"
	"p4ctl/pkg/p4/codec"
)

// maxRenderedLen bounds the rendered request body; longer bodies are elided
// with a placeholder.
const maxRenderedLen = 1024

// Logger appends one timestamped text record per call to its dump file.
type Logger struct {
	mu   sync.Mutex
	path string
	enc  codec.Codec
}

// New creates a logger writing to path. The file is truncated once here;
// every record afterwards appends.
func New(path string) (*Logger, error) {
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}
	return &Logger{path: path, enc: codec.JSON()}, nil
}

// Log appends one record for an outbound call. Failures to render or write
// are swallowed; diagnostics must never fail the call they describe.
func (l *Logger) Log(method string, req any) {
	body := l.render(req)
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	ts := time.Now().UTC().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(f, "\n[%s] %s\n---\n", ts, method)
	if len(body) < maxRenderedLen {
		fmt.Fprintln(f, body)
	} else {
		fmt.Fprintf(f, "Message too long (%d bytes)! Skipping log...\n", len(body))
	}
	fmt.Fprintln(f, "---")
}

func (l *Logger) render(req any) string {
	b, err := l.enc.Marshal(req)
	if err != nil {
		return fmt.Sprintf("%+v", req)
	}
	return string(b)
}

// Transport wraps an inner transport, logging each synchronous call before
// passing it through unchanged.
type Transport struct {
	inner api.Transport
	log   *Logger
}

var _ api.Transport = (*Transport)(nil)

// Wrap decorates t with request logging.
func Wrap(t api.Transport, l *Logger) *Transport {
	return &Transport{inner: t, log: l}
}

// StreamChannel passes through; stream traffic is not logged.
func (t *Transport) StreamChannel(ctx context.Context) (api.StreamClient, error) {
	return t.inner.StreamChannel(ctx)
}

func (t *Transport) Write(ctx context.Context, req *p4.WriteRequest) error {
	t.log.Log("Write", req)
	return t.inner.Write(ctx, req)
}

func (t *Transport) Read(ctx context.Context, req *p4.ReadRequest) (api.ReadStream, error) {
	t.log.Log("Read", req)
	return t.inner.Read(ctx, req)
}

func (t *Transport) SetForwardingPipelineConfig(ctx context.Context, req *p4.SetForwardingPipelineConfigRequest) error {
	t.log.Log("SetForwardingPipelineConfig", req)
	return t.inner.SetForwardingPipelineConfig(ctx, req)
}

func (t *Transport) Close() error { return t.inner.Close() }
