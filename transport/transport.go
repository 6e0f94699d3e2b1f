// File: transport/transport.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package transport adapts net.Conn to the async-completion style the
// connection core expects: AsyncReadSome/AsyncWriteAll hand work to a
// goroutine and invoke a callback when the operation finishes, with the
// runtime scheduler playing the role of a shared completion pool. Each
// call spawns exactly one goroutine; the core serializes its own reads
// and writes so there is never more than one read and one write in
// flight per connection.

package transport

import "net"

// ReadCallback receives the result of an AsyncReadSome call: n bytes were
// placed into the buffer passed to AsyncReadSome, or err is set. Both
// callback types are aliases so a Transport also satisfies narrower
// single-method interfaces (writequeue.Writer) without a wrapper.
type ReadCallback = func(n int, err error)

// WriteCallback receives the result of an AsyncWriteAll call.
type WriteCallback = func(n int, err error)

// Transport is the connection core's sole dependency on the network. It is
// satisfied by TCPTransport and TLSTransport.
type Transport interface {
	// AsyncReadSome reads at least one byte into buf and invokes cb from a
	// new goroutine. It never blocks the caller.
	AsyncReadSome(buf []byte, cb ReadCallback)

	// AsyncWriteAll writes the entirety of buf and invokes cb from a new
	// goroutine. It never blocks the caller.
	AsyncWriteAll(buf []byte, cb WriteCallback)

	// ShutdownBoth shuts down both halves of the connection without
	// releasing OS resources, so the peer sees a FIN before Close: it
	// unblocks any goroutine parked in AsyncReadSome/AsyncWriteAll. A
	// TCPTransport whose conn is not a *net.TCPConn (a TLSTransport among
	// them) has no half-close and falls back to a full Close.
	ShutdownBoth() error

	// Close releases the underlying file descriptor. Safe to call after
	// ShutdownBoth or on its own.
	Close() error

	RemoteAddr() net.Addr
	LocalAddr() net.Addr
}
