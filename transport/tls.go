// File: transport/tls.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"crypto/tls"
	"net"
)

// HandshakeCallback receives the result of an AsyncHandshake call.
type HandshakeCallback func(err error)

// TLSTransport wraps a *tls.Conn. The TLS handshake is not implicit in the
// first read the way net.Conn normally does it: the core drives it
// explicitly via AsyncHandshake and starts reading only after it succeeds.
type TLSTransport struct {
	*TCPTransport
	tlsConn *tls.Conn
}

// NewTLSTransport wraps conn (already accepted) with serverConfig and
// returns a transport whose handshake has not yet run.
func NewTLSTransport(conn net.Conn, serverConfig *tls.Config) *TLSTransport {
	tlsConn := tls.Server(conn, serverConfig)
	return &TLSTransport{
		TCPTransport: NewTCPTransport(tlsConn),
		tlsConn:      tlsConn,
	}
}

// AsyncHandshake runs the TLS handshake on a goroutine and invokes cb with
// its result. The core must not call AsyncReadSome/AsyncWriteAll until cb
// fires.
func (t *TLSTransport) AsyncHandshake(cb HandshakeCallback) {
	go func() {
		cb(t.tlsConn.HandshakeContext(context.Background()))
	}()
}

// ConnectionState exposes the negotiated TLS state of the wrapped
// connection.
func (t *TLSTransport) ConnectionState() tls.ConnectionState {
	return t.tlsConn.ConnectionState()
}
