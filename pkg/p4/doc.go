// Package p4 defines the control-plane message taxonomy exchanged with a
// programmable forwarding device: the duplex stream messages (arbitration,
// packet I/O, idle-timeout notifications, stream errors) and the unary
// write/read/pipeline-config requests.
//
// The types are plain Go structs. How they are framed on the wire is a
// gateway concern (see pkg/gateway); the client core only builds and
// inspects them.
package p4
