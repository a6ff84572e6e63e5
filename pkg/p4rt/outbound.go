package p4rt

import (
	"sync"

	"p4ctl/pkg/p4"
)

// closeSentinel terminates outbound iteration. Compared by pointer identity,
// so it can never collide with a caller-built message.
var closeSentinel = new(p4.StreamMessageRequest)

// OutboundQueue is the unbounded FIFO of pending stream requests. Producers
// Put without blocking; the transport pump drains it with Next until the
// close sentinel is reached. Close only guarantees eventual termination:
// messages queued before it are still delivered.
type OutboundQueue struct {
	mu    sync.Mutex
	wake  chan struct{}
	items []*p4.StreamMessageRequest
}

func NewOutboundQueue() *OutboundQueue {
	return &OutboundQueue{wake: make(chan struct{}, 1)}
}

// Put enqueues one request. It never blocks.
func (q *OutboundQueue) Put(msg *p4.StreamMessageRequest) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.signal()
}

// Close enqueues the sentinel. The sentinel itself is never yielded by Next;
// it is left at the head so repeated Next calls keep reporting end-of-queue.
func (q *OutboundQueue) Close() {
	q.Put(closeSentinel)
}

// Next blocks until a request is available and returns it in FIFO order.
// It returns ok=false once the sentinel is dequeued, signaling end-of-stream
// to the transport.
func (q *OutboundQueue) Next() (*p4.StreamMessageRequest, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			head := q.items[0]
			if head == closeSentinel {
				q.mu.Unlock()
				q.signal() // let any other waiter observe the close
				return nil, false
			}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return head, true
		}
		q.mu.Unlock()
		<-q.wake
	}
}

func (q *OutboundQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
