// File: transport/tcp.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"net"
	"sync"
)

// TCPTransport wraps a plain net.TCPConn (or any net.Conn obtained from a
// net.Listener) with the async-completion shape Transport requires.
type TCPTransport struct {
	conn net.Conn

	// closeOnce guards against ShutdownBoth/Close racing a goroutine that
	// is mid-read or mid-write on the same fd.
	closeOnce sync.Once
	closeErr  error
}

// NewTCPTransport takes ownership of conn.
func NewTCPTransport(conn net.Conn) *TCPTransport {
	return &TCPTransport{conn: conn}
}

func (t *TCPTransport) AsyncReadSome(buf []byte, cb ReadCallback) {
	go func() {
		n, err := t.conn.Read(buf)
		cb(n, err)
	}()
}

func (t *TCPTransport) AsyncWriteAll(buf []byte, cb WriteCallback) {
	go func() {
		written := 0
		var err error
		for written < len(buf) {
			var n int
			n, err = t.conn.Write(buf[written:])
			written += n
			if err != nil {
				break
			}
		}
		cb(written, err)
	}()
}

func (t *TCPTransport) ShutdownBoth() error {
	if tc, ok := t.conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
		return tc.CloseWrite()
	}
	// Fall back to a full close; most non-TCPConn implementations (e.g.
	// net.Pipe in tests) have no half-close.
	return t.Close()
}

func (t *TCPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *TCPTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
func (t *TCPTransport) LocalAddr() net.Addr  { return t.conn.LocalAddr() }
