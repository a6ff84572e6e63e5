package p4rt

import (
	"context"
	"errors"
	"sync"
)

// ErrConnectionClosed is returned by blocking pulls after the inbound stream
// ended or the dispatcher was stopped. Surfacing closure instead of blocking
// forever lets callers distinguish a dead connection from a quiet one.
var ErrConnectionClosed = errors.New("p4rt: connection closed")

// deliveryQueue is the unbounded per-variant FIFO filled by the dispatch
// loop and drained by caller pulls. The dispatcher is the only writer;
// multiple pullers may race safely against the queue's own lock.
type deliveryQueue[T any] struct {
	mu     sync.Mutex
	wake   chan struct{}
	items  []T
	closed bool
}

func newDeliveryQueue[T any]() *deliveryQueue[T] {
	return &deliveryQueue[T]{wake: make(chan struct{}, 1)}
}

// push appends one payload. Items pushed after close are dropped, matching
// the stopped-dispatcher contract.
func (q *deliveryQueue[T]) push(v T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
}

// close marks the queue dead. Pending items remain pullable; once drained,
// pulls fail with ErrConnectionClosed.
func (q *deliveryQueue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// pull blocks until a payload is available, the queue is closed and drained,
// or ctx is done.
func (q *deliveryQueue[T]) pull(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			head := q.items[0]
			q.items = q.items[1:]
			more := len(q.items) > 0 || q.closed
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return head, nil
		}
		if q.closed {
			q.mu.Unlock()
			q.signal()
			return zero, ErrConnectionClosed
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (q *deliveryQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *deliveryQueue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
