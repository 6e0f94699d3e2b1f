// File: conn/connection.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package conn is the per-connection state machine: it owns one
// transport, drives reads and writes through their async completions,
// parses HTTP requests, orchestrates the WebSocket upgrade and frame
// pumping, and enforces the read and abandoned timeouts. All terminal
// paths funnel through the connection manager, which makes Stop
// idempotent; the connection itself never frees anything twice.

package conn

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hioload/connd/api"
	"github.com/hioload/connd/connmgr"
	"github.com/hioload/connd/filesend"
	"github.com/hioload/connd/httpproto"
	"github.com/hioload/connd/logging"
	"github.com/hioload/connd/pool"
	"github.com/hioload/connd/timer"
	"github.com/hioload/connd/transport"
	"github.com/hioload/connd/writequeue"
	"github.com/hioload/connd/wsproto"
)

// Status is the connection's lifecycle phase.
type Status int32

const (
	Initializing Status = iota
	WaitingHandshake
	EndingHandshake
	WaitingRead
	Reading
	WaitingWrite
	EndingWrite
)

// Kind is the protocol the connection currently speaks. The transitions
// Http -> Websocket and Websocket -> WebsocketClosing are one-way.
type Kind int32

const (
	KindHTTP Kind = iota
	KindWebsocket
	KindWebsocketClosing
)

const (
	// readChunkSize is how much each async read may deliver at once.
	readChunkSize = 4096

	// DefaultAbandonedTimeout bounds total idle between activity events,
	// independent of the shorter per-read timeout.
	DefaultAbandonedTimeout = 20 * time.Minute

	// DefaultMaxRequests is advertised in the Keep-Alive header.
	DefaultMaxRequests = 20
)

var readChunkPool = pool.NewBytePool(readChunkSize)

// Handshaker is the extra capability a TLS transport exposes; a plain
// transport does not implement it.
type Handshaker interface {
	AsyncHandshake(cb transport.HandshakeCallback)
}

// Connection owns one peer session.
type Connection struct {
	tr      transport.Transport
	secure  bool
	manager *connmgr.Manager
	handler api.RequestHandler
	log     *logging.Logger

	remoteAddr string
	remotePort string
	localAddr  string
	localPort  string

	status atomic.Int32
	kind   atomic.Int32

	keepaliveMu sync.Mutex
	keepalive   bool

	readBuf   []byte
	readChunk []byte
	parser    *httpproto.Parser

	writeQ *writequeue.Queue

	timers           *timer.Pair
	readTimeout      time.Duration
	abandonedTimeout time.Duration
	maxRequests      int

	wsSession *wsproto.Session
	sender    *filesend.Sender

	lastRequestURI string
}

// Option tweaks a Connection at construction.
type Option func(*Connection)

// WithAbandonedTimeout overrides the 20 minute default.
func WithAbandonedTimeout(d time.Duration) Option {
	return func(c *Connection) { c.abandonedTimeout = d }
}

// WithMaxRequests overrides the advertised keep-alive request budget.
func WithMaxRequests(n int) Option {
	return func(c *Connection) { c.maxRequests = n }
}

// WithWSMessageHandler installs the handler that consumes inbound
// WebSocket messages after an upgrade.
func WithWSMessageHandler(h wsproto.MessageHandler) Option {
	return func(c *Connection) {
		c.wsSession = wsproto.NewSession(c.myWrite, h)
	}
}

// New builds a connection around an accepted transport. The connection
// is inert until the manager calls Start.
func New(tr transport.Transport, manager *connmgr.Manager, handler api.RequestHandler,
	readTimeout time.Duration, log *logging.Logger, opts ...Option) *Connection {

	c := &Connection{
		tr:               tr,
		manager:          manager,
		handler:          handler,
		log:              log,
		parser:           httpproto.NewParser(),
		readTimeout:      readTimeout,
		abandonedTimeout: DefaultAbandonedTimeout,
		maxRequests:      DefaultMaxRequests,
		timers:           timer.NewPair(),
	}
	_, c.secure = tr.(Handshaker)
	c.status.Store(int32(Initializing))
	c.kind.Store(int32(KindHTTP))
	c.writeQ = writequeue.New(tr, func(err error) { c.manager.Stop(c) })
	c.wsSession = wsproto.NewSession(c.myWrite, nil)
	for _, o := range opts {
		o(c)
	}
	c.sender = filesend.NewSender(tr, log, func() { c.manager.Stop(c) })
	return c
}

// Status returns the current lifecycle phase.
func (c *Connection) Status() Status { return Status(c.status.Load()) }

// Kind returns the protocol the connection currently speaks.
func (c *Connection) Kind() Kind { return Kind(c.kind.Load()) }

// Secure reports whether the transport is TLS-wrapped.
func (c *Connection) Secure() bool { return c.secure }

// LastRequestURI returns the most recent request URI, for diagnostics.
func (c *Connection) LastRequestURI() string { return c.lastRequestURI }

// RemoteAddress returns the captured peer address.
func (c *Connection) RemoteAddress() string { return c.remoteAddr }

func (c *Connection) setStatus(s Status) { c.status.Store(int32(s)) }
func (c *Connection) setKind(k Kind)     { c.kind.Store(int32(k)) }

func (c *Connection) keepAlive() bool {
	c.keepaliveMu.Lock()
	defer c.keepaliveMu.Unlock()
	return c.keepalive
}

func (c *Connection) setKeepAlive(v bool) {
	c.keepaliveMu.Lock()
	c.keepalive = v
	c.keepaliveMu.Unlock()
}

// Start captures the endpoints, arms the abandoned timer, and either
// begins the TLS handshake or the first read.
func (c *Connection) Start() {
	remote := c.tr.RemoteAddr()
	if remote == nil {
		c.log.Log(logging.LevelError, "Getting error while getting remote endpoint in connection start")
		c.manager.Stop(c)
		return
	}
	local := c.tr.LocalAddr()
	if local == nil {
		c.log.Log(logging.LevelError, "Getting error while getting local endpoint in connection start")
		c.manager.Stop(c)
		return
	}
	c.remoteAddr, c.remotePort = splitEndpoint(remote)
	c.localAddr, c.localPort = splitEndpoint(local)

	c.resetAbandonedTimeout()

	if hs, ok := c.tr.(Handshaker); ok {
		c.setStatus(WaitingHandshake)
		hs.AsyncHandshake(func(err error) { c.handleHandshake(err) })
		return
	}
	c.readMore()
}

// Stop tears the connection down: WS parser stopped, both timers
// cancelled, transport shut down then closed. Only the manager calls
// this, exactly once.
func (c *Connection) Stop() {
	switch c.Kind() {
	case KindWebsocket, KindWebsocketClosing:
		c.wsSession.Stop()
	}
	c.timers.CancelAll()
	c.writeQ.Stop()

	_ = c.tr.ShutdownBoth()
	_ = c.tr.Close()
}

func (c *Connection) handleHandshake(err error) {
	c.setStatus(EndingHandshake)
	if err != nil {
		c.log.Debug(logging.DebugWebserver, "connection handshake error: %s", err.Error())
		c.manager.Stop(c)
		return
	}
	c.readMore()
}

// readMore arms the read timer and submits the next async read. At most
// one read is outstanding at any time: this is only called from Start,
// handleHandshake, and the tail of handleRead.
func (c *Connection) readMore() {
	c.setStatus(WaitingRead)

	if c.readChunk == nil {
		c.readChunk = readChunkPool.Get()
	}

	c.resetReadTimeout()

	c.tr.AsyncReadSome(c.readChunk, func(n int, err error) { c.handleRead(n, err) })
}

// handleRead is the FSM's hub: commit the bytes, then dispatch by kind.
func (c *Connection) handleRead(n int, err error) {
	c.setStatus(Reading)

	// data read, no need for the read timeout; the cancel may race an
	// in-flight fire, which the timer callback detects itself
	c.cancelReadTimeout()

	switch {
	case err == nil && n > 0:
		c.readBuf = append(c.readBuf, c.readChunk[:n]...)
		switch c.Kind() {
		case KindHTTP:
			c.handleHTTPRead()
		case KindWebsocket, KindWebsocketClosing:
			c.handleWebsocketRead()
		}
	case isCancelled(err):
		// a deliberate cancellation occurred, the stop path owns cleanup
	default:
		// EOF and every other error are terminal
		c.releaseReadChunk()
		c.manager.Stop(c)
	}
}

func (c *Connection) handleHTTPRead() {
	req := &httpproto.Request{}
	rep := &httpproto.Reply{}

	c.parser.Reset()
	result, cursor := c.parser.Parse(req, c.readBuf)

	switch result {
	case httpproto.Complete:
		var aclfTS httpproto.ACLFTimestamp
		aclfEnabled := c.log.IsACLFEnabled()
		if aclfEnabled {
			// record the timestamp before processing starts
			aclfTS = httpproto.ACLFNow()
		}

		// the tail past the cursor is a possible next pipelined request
		c.readBuf = c.readBuf[cursor:]

		rep.Reset()
		c.setKeepAlive(req.WantsKeepAlive())
		req.KeepAlive = c.keepAlive()
		req.RemoteAddress = stripIPv4Mapped(c.remoteAddr)
		req.LocalAddress = stripIPv4Mapped(c.localAddr)
		req.RemotePort = c.remotePort
		req.LocalPort = c.localPort
		c.lastRequestURI = req.URI

		c.handler.HandleRequest(req, rep)

		if aclfEnabled {
			c.log.ACLFLog("%s", httpproto.AccessLogLine(req, rep, aclfTS))
		}

		upgrading := rep.Status == httpproto.SwitchingProtocols
		if upgrading {
			// from now on we are a persistent connection
			c.setKeepAlive(true)
		} else if rep.Status == httpproto.DownloadFile {
			content := string(rep.Content)
			sep := strings.Index(content, "\r\n")
			if sep < 0 {
				rep.SetStockReply(httpproto.InternalServerError)
			} else {
				path := content[:sep]
				attachment := content[sep+2:]
				if c.sender.SendFile(path, attachment, rep) {
					return
				}
			}
		}

		if req.KeepAlive && (rep.Status == httpproto.OK || rep.Status == httpproto.NoContent || rep.Status == httpproto.NotModified) {
			// the handler may override these, but it should not
			rep.AddHeaderIfAbsent("Connection", "Keep-Alive")
			rep.AddHeaderIfAbsent("Keep-Alive", keepAliveParams(c.maxRequests, c.readTimeout))
		}

		c.myWrite(rep.Bytes(req.Method))
		if upgrading {
			// kind flips only after the write is queued so the 101
			// serializes as HTTP
			c.setKind(KindWebsocket)
			c.wsSession.Start()
			if store, ok := c.handler.(api.SessionStore); ok {
				c.wsSession.SetSessionID(store.StoreSessionID(req, rep))
			}
		}

		if c.keepAlive() {
			c.readMore()
		}
		c.setStatus(WaitingWrite)

	case httpproto.Malformed:
		c.log.Log(logging.LevelError, "Error parsing http request address: %s", c.remoteAddr)
		if c.log.IsDebugLevelEnabled(logging.DebugWebserver) {
			// dump the rejected bytes as one atomic log line
			c.log.BeginSequence()
			c.log.SequenceAdd("rejected request from " + c.remoteAddr + ":")
			c.log.SequenceAddNoLF(printablePreview(c.readBuf, 256))
			c.log.EndSequence(logging.LevelDebug)
		}
		c.setKeepAlive(false)
		rep.SetStockReply(httpproto.BadRequest)
		c.myWrite(rep.Bytes(req.Method))

	case httpproto.Indeterminate:
		c.readMore()
	}
}

func (c *Connection) handleWebsocketRead() {
	complete, consumed, keepalive := c.wsSession.Parse(c.readBuf)
	c.readBuf = c.readBuf[consumed:]
	if !complete && !keepalive {
		// the first pending frame is undecodable (oversized or malformed)
		c.releaseReadChunk()
		c.manager.Stop(c)
		return
	}
	if complete && !keepalive {
		// a connection close control packet was received; the close
		// reply drains through the write queue before the socket dies
		c.setKind(KindWebsocketClosing)
		c.setKeepAlive(false)
		c.releaseReadChunk()
		return
	}
	c.readMore()
}

// releaseReadChunk recycles the 4 KiB read region once no further read
// will be scheduled. Never called with a read outstanding.
func (c *Connection) releaseReadChunk() {
	if c.readChunk != nil {
		readChunkPool.Put(c.readChunk)
		c.readChunk = nil
	}
}

// myWrite queues buf on the connection's write serializer. WebSocket
// frames from push traffic arrive here too, already framed.
func (c *Connection) myWrite(buf []byte) {
	switch c.Kind() {
	case KindHTTP, KindWebsocket:
		c.writeQ.Enqueue(buf, c.handleWrite)
	}
	// nothing is sent anymore in the websocket closing state
}

// handleWrite runs after each queued buffer hits the wire. The write
// queue has already popped the next buffer if there is one; Idle tells
// us whether this completion drained the queue.
func (c *Connection) handleWrite(buf []byte, err error) {
	if err != nil {
		// the queue's stop hook funnels the terminal path; nothing here
		return
	}
	if !c.writeQ.Idle() {
		if c.keepAlive() {
			c.resetAbandonedTimeout()
		}
		return
	}
	if c.keepAlive() {
		c.setStatus(EndingWrite)
		c.resetAbandonedTimeout()
		return
	}
	// everything has been sent, close the connection
	c.manager.Stop(c)
}

// resetReadTimeout (re)arms the read timer for the next read cycle.
func (c *Connection) resetReadTimeout() {
	c.timers.ArmRead(c.readTimeout, func(err error) { c.handleReadTimeout(err) })
}

func (c *Connection) cancelReadTimeout() {
	c.timers.CancelRead()
}

// handleReadTimeout stops an idle HTTP connection; an idle keep-alive
// WebSocket gets a server-side Ping instead.
func (c *Connection) handleReadTimeout(err error) {
	if err == nil && c.keepAlive() && c.Kind() == KindWebsocket {
		c.wsSession.SendPing()
		return
	}
	if err == nil {
		c.manager.Stop(c)
		return
	}
	if !isCancelled(err) {
		c.log.Log(logging.LevelError, "connection read timeout error: %s", err.Error())
		c.manager.Stop(c)
	}
}

// resetAbandonedTimeout (re)arms the abandoned timer, done at Start and
// after every completed write on a keep-alive connection.
func (c *Connection) resetAbandonedTimeout() {
	c.timers.ArmAbandoned(c.abandonedTimeout, func(err error) { c.handleAbandonedTimeout(err) })
}

func (c *Connection) handleAbandonedTimeout(err error) {
	if !isCancelled(err) {
		c.log.Log(logging.LevelStatus, "%s -> handle abandoned timeout (status=%d)", c.remoteAddr, c.Status())
		c.manager.Stop(c)
	}
}

// handleTimeout is the legacy single-timer path, kept for compatibility:
// HTTP connections are closed outright, WebSockets get a Ping.
func (c *Connection) handleTimeout(err error) {
	if isCancelled(err) {
		return
	}
	switch c.Kind() {
	case KindHTTP:
		c.timers.CancelAll()
		_ = c.tr.ShutdownBoth()
		_ = c.tr.Close()
	case KindWebsocket:
		c.wsSession.SendPing()
	}
}

// WSSession exposes the WebSocket session for push traffic after an
// upgrade.
func (c *Connection) WSSession() *wsproto.Session { return c.wsSession }

// isCancelled reports whether err marks a deliberate cancellation: a
// timer cancelled under a completed read, or a transport operation
// unblocked by our own Close.
func isCancelled(err error) bool {
	if _, ok := err.(timer.ErrTimerCancelled); ok {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}

func keepAliveParams(maxRequests int, readTimeout time.Duration) string {
	return fmt.Sprintf("max=%d, timeout=%d", maxRequests, int(readTimeout/time.Second))
}

// splitEndpoint renders a net.Addr into address and port strings.
func splitEndpoint(addr net.Addr) (host, port string) {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}
	return host, port
}

// stripIPv4Mapped drops the ::ffff: prefix IPv4 peers pick up on a
// dual-stack listener.
func stripIPv4Mapped(addr string) string {
	return strings.TrimPrefix(addr, "::ffff:")
}

// printablePreview renders up to max bytes of buf with control bytes
// replaced, for diagnostic dumps of rejected requests.
func printablePreview(buf []byte, max int) string {
	if len(buf) > max {
		buf = buf[:max]
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		if b >= 32 && b < 127 {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
