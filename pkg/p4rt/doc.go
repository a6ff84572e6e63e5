// Package p4rt implements the client core for the device management
// protocol: a Connection per device that pairs an outbound request queue
// with a stream dispatcher demultiplexing the four inbound message kinds
// (arbitration, packet-in, idle-timeout, error) into per-kind delivery
// queues, plus a registry for bulk shutdown.
//
// Key concepts:
//   - OutboundQueue: unbounded FIFO drained by the transport; closing it
//     ends the outbound half of the duplex stream after the queue drains
//   - StreamDispatcher: one goroutine per connection reading the inbound
//     stream and routing each message by its populated variant
//   - Connection: the protocol operation surface; every state-changing
//     operation supports a dry-run mode that builds and logs the request
//     without touching the transport
//   - Registry: tracks live connections so the process can shut them all
//     down; per-connection failures never abort the sweep
package p4rt
