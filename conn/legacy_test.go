package conn

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/hioload/connd/connmgr"
	"github.com/hioload/connd/timer"
	"github.com/hioload/connd/transport"
)

// The single-timer timeout path predates the split read/abandoned pair
// and is kept for compatibility: an HTTP connection is closed outright,
// a WebSocket gets a Ping.

func TestLegacyTimeoutClosesHTTPConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	mgr := connmgr.NewManager()
	c := New(transport.NewTCPTransport(server), mgr, okHandler("x"), time.Minute, quietLogger())

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, err := client.Read(buf)
		if err != io.EOF {
			t.Errorf("expected EOF, got %v", err)
		}
		close(done)
	}()

	c.handleTimeout(nil)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never saw the close")
	}
}

func TestLegacyTimeoutIgnoresCancellation(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	mgr := connmgr.NewManager()
	c := New(transport.NewTCPTransport(server), mgr, okHandler("x"), time.Minute, quietLogger())

	c.handleTimeout(timer.ErrTimerCancelled{})

	// the transport must still be usable
	go c.tr.AsyncWriteAll([]byte("ok"), func(n int, err error) {
		if err != nil {
			t.Errorf("write after cancelled timeout: %v", err)
		}
	})
	buf := make([]byte, 2)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
}
