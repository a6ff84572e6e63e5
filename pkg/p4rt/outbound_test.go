package p4rt

import (
	"sync"
	"testing"
	"time"

	"p4ctl/pkg/p4"
)

func TestOutboundQueueFIFO(t *testing.T) {
	q := NewOutboundQueue()
	msgs := make([]*p4.StreamMessageRequest, 10)
	for i := range msgs {
		msgs[i] = &p4.StreamMessageRequest{Packet: &p4.PacketOut{Payload: []byte{byte(i)}}}
		q.Put(msgs[i])
	}
	q.Close()

	for i := range msgs {
		got, ok := q.Next()
		if !ok {
			t.Fatalf("queue ended early at %d", i)
		}
		if got != msgs[i] {
			t.Fatalf("out of order at %d", i)
		}
	}
	if _, ok := q.Next(); ok {
		t.Fatalf("sentinel leaked past close")
	}
	// Repeated Next after close keeps reporting end-of-queue.
	if _, ok := q.Next(); ok {
		t.Fatalf("queue restarted after close")
	}
}

func TestOutboundQueueBlocksUntilPut(t *testing.T) {
	q := NewOutboundQueue()
	done := make(chan *p4.StreamMessageRequest, 1)
	go func() {
		m, _ := q.Next()
		done <- m
	}()
	select {
	case <-done:
		t.Fatalf("Next returned with empty queue")
	case <-time.After(20 * time.Millisecond):
	}
	want := &p4.StreamMessageRequest{}
	q.Put(want)
	select {
	case got := <-done:
		if got != want {
			t.Fatalf("wrong message delivered")
		}
	case <-time.After(time.Second):
		t.Fatalf("Next never woke up")
	}
}

func TestOutboundQueueConcurrentClose(t *testing.T) {
	q := NewOutboundQueue()
	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(&p4.StreamMessageRequest{})
			}
		}()
	}
	wg.Wait()
	go q.Close()

	count := 0
	for {
		msg, ok := q.Next()
		if !ok {
			break
		}
		if msg == nil {
			t.Fatalf("nil message yielded")
		}
		count++
	}
	// Close came after every Put, so every message drains first.
	if count != producers*perProducer {
		t.Fatalf("drained %d messages, want %d", count, producers*perProducer)
	}
}
