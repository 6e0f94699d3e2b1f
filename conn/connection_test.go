package conn

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hioload/connd/api"
	"github.com/hioload/connd/connmgr"
	"github.com/hioload/connd/httpproto"
	"github.com/hioload/connd/logging"
	"github.com/hioload/connd/transport"
	"github.com/hioload/connd/wsproto"
)

func quietLogger() *logging.Logger {
	l := logging.New()
	l.SetDaemon(true)
	return l
}

// startServer accepts exactly one connection on a loopback listener and
// runs it through the FSM with the given handler.
func startServer(t *testing.T, handler api.RequestHandler, readTimeout time.Duration, opts ...Option) (addr string, mgr *connmgr.Manager) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	mgr = connmgr.NewManager()
	go func() {
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		c := New(transport.NewTCPTransport(raw), mgr, handler, readTimeout, quietLogger(), opts...)
		mgr.Start(c)
	}()
	return ln.Addr().String(), mgr
}

func okHandler(body string) api.RequestHandlerFunc {
	return func(req *httpproto.Request, rep *httpproto.Reply) {
		rep.Status = httpproto.OK
		rep.Content = []byte(body)
		rep.AddHeader("Content-Length", strconv.Itoa(len(body)))
		rep.AddContentTypeHeader("text/plain")
	}
}

func TestPlainGETAndClose(t *testing.T) {
	addr, _ := startServer(t, okHandler("abc"), 5*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	io.WriteString(client, "GET /x HTTP/1.1\r\nHost: h\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	wire, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	resp := string(wire)
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line: %q", resp)
	}
	if !strings.HasSuffix(resp, "\r\n\r\nabc") {
		t.Fatalf("body: %q", resp)
	}
	if strings.Contains(resp, "Keep-Alive") {
		t.Fatalf("keep-alive headers on a close connection: %q", resp)
	}
	// ReadAll returning nil error means the server closed the socket
}

func TestKeepAlivePipelined(t *testing.T) {
	addr, _ := startServer(t, okHandler("abc"), 7*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	rd := bufio.NewReader(client)

	for i := 0; i < 2; i++ {
		io.WriteString(client, "GET /x HTTP/1.1\r\nHost: h\r\nConnection: Keep-Alive\r\n\r\n")
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		headers, body := readResponse(t, rd)
		if !strings.Contains(headers, "Connection: Keep-Alive") {
			t.Fatalf("request %d missing Connection header: %q", i, headers)
		}
		if !strings.Contains(headers, "Keep-Alive: max=20, timeout=7") {
			t.Fatalf("request %d keep-alive params: %q", i, headers)
		}
		if body != "abc" {
			t.Fatalf("request %d body %q", i, body)
		}
	}
}

// readResponse consumes one response whose length is governed by
// Content-Length.
func readResponse(t *testing.T, rd *bufio.Reader) (headers, body string) {
	t.Helper()
	var hb strings.Builder
	contentLength := 0
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		hb.WriteString(line)
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(strings.ToLower(trimmed), "content-length:") {
			v := strings.TrimSpace(trimmed[len("content-length:"):])
			contentLength, _ = strconv.Atoi(v)
		}
		if trimmed == "" {
			break
		}
	}
	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(rd, buf); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return hb.String(), string(buf)
}

func TestMalformedRequestGets400(t *testing.T) {
	addr, _ := startServer(t, okHandler("abc"), 5*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	io.WriteString(client, "NOT HTTP\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	wire, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(wire), "HTTP/1.1 400 Bad Request\r\n") {
		t.Fatalf("got %q", wire)
	}
}

type upgradeHandler struct{ sessionID string }

func (h *upgradeHandler) HandleRequest(req *httpproto.Request, rep *httpproto.Reply) {
	key, err := wsproto.Validate(req.LowerHeaders())
	if err != nil {
		rep.SetStockReply(httpproto.BadRequest)
		return
	}
	rep.Status = httpproto.SwitchingProtocols
	for _, hdr := range wsproto.AcceptHeaders(key) {
		rep.AddHeader(hdr[0], hdr[1])
	}
}

func (h *upgradeHandler) StoreSessionID(req *httpproto.Request, rep *httpproto.Reply) string {
	h.sessionID = req.RemoteAddress + ":" + req.RemotePort
	return h.sessionID
}

func wsUpgrade(t *testing.T, client net.Conn, rd *bufio.Reader) {
	t.Helper()
	io.WriteString(client, "GET /ws HTTP/1.1\r\nHost: h\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read 101: %v", err)
		}
		if strings.HasPrefix(line, "HTTP/1.1") && !strings.Contains(line, "101 Switching Protocols") {
			t.Fatalf("status line: %q", line)
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return
		}
	}
}

// maskedClientFrame builds a masked client frame for the test peer.
func maskedClientFrame(opcode byte, payload []byte) []byte {
	mask := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	out := []byte{0x80 | opcode, 0x80 | byte(len(payload))}
	out = append(out, mask[:]...)
	for i, c := range payload {
		out = append(out, c^mask[i%4])
	}
	return out
}

func readFrame(t *testing.T, rd *bufio.Reader) *wsproto.Frame {
	t.Helper()
	var raw []byte
	for {
		b, err := rd.ReadByte()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		raw = append(raw, b)
		f, n, err := wsproto.DecodeFrame(raw)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if f != nil && n == len(raw) {
			return f
		}
	}
}

func TestWebsocketUpgradeAndEcho(t *testing.T) {
	h := &upgradeHandler{}
	echo := wsproto.MessageHandlerFunc(func(s *wsproto.Session, opcode byte, payload []byte) {
		s.SendText(payload)
	})
	addr, _ := startServer(t, h, 5*time.Second, WithWSMessageHandler(echo))

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	rd := bufio.NewReader(client)

	wsUpgrade(t, client, rd)

	client.Write(maskedClientFrame(wsproto.OpcodeText, []byte("ping me")))
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	f := readFrame(t, rd)
	if f.Opcode != wsproto.OpcodeText || !bytes.Equal(f.Payload, []byte("ping me")) {
		t.Fatalf("echo frame: opcode %x payload %q", f.Opcode, f.Payload)
	}
	// the echo round trip orders this check after the upgrade completed
	if h.sessionID == "" {
		t.Fatal("session id not stored at upgrade")
	}
}

func TestWebsocketReadTimeoutSendsPing(t *testing.T) {
	h := &upgradeHandler{}
	addr, _ := startServer(t, h, 300*time.Millisecond)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	rd := bufio.NewReader(client)

	wsUpgrade(t, client, rd)

	// stay idle; the read timer should probe with a Ping instead of
	// closing
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	f := readFrame(t, rd)
	if f.Opcode != wsproto.OpcodePing {
		t.Fatalf("opcode %x want Ping", f.Opcode)
	}
}

func TestHTTPReadTimeoutCloses(t *testing.T) {
	addr, _ := startServer(t, okHandler("abc"), 200*time.Millisecond)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	// send nothing; the read timer should close the connection
	client.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1)
	_, err = client.Read(buf)
	if err != io.EOF {
		t.Fatalf("expected EOF after read timeout, got %v", err)
	}
}

func TestDownloadFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/a.bin"
	payload := bytes.Repeat([]byte{0x42}, 70000)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	handler := api.RequestHandlerFunc(func(req *httpproto.Request, rep *httpproto.Reply) {
		rep.Status = httpproto.DownloadFile
		rep.Content = []byte(path + "\r\nreport.bin")
	})
	addr, _ := startServer(t, handler, 5*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	io.WriteString(client, "GET /download HTTP/1.1\r\nHost: h\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(3 * time.Second))
	wire, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	sep := bytes.Index(wire, []byte("\r\n\r\n"))
	if sep < 0 {
		t.Fatal("no header block")
	}
	headers := string(wire[:sep])
	if !strings.Contains(headers, "Content-Disposition: attachment; filename=\"report.bin\"") {
		t.Fatalf("attachment header missing: %q", headers)
	}
	if !strings.Contains(headers, "Content-Length: 70000") {
		t.Fatalf("content length missing: %q", headers)
	}
	if !bytes.Equal(wire[sep+4:], payload) {
		t.Fatalf("body: %d bytes want %d", len(wire)-sep-4, len(payload))
	}
}

func TestDownloadFileMissingSeparatorIs500(t *testing.T) {
	handler := api.RequestHandlerFunc(func(req *httpproto.Request, rep *httpproto.Reply) {
		rep.Status = httpproto.DownloadFile
		rep.Content = []byte("/no/separator/here")
	})
	addr, _ := startServer(t, handler, 5*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	io.WriteString(client, "GET /d HTTP/1.1\r\nHost: h\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	wire, _ := io.ReadAll(client)
	if !strings.HasPrefix(string(wire), "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Fatalf("got %q", wire)
	}
}

func TestKeepAliveNotAdvertisedForNon200(t *testing.T) {
	handler := api.RequestHandlerFunc(func(req *httpproto.Request, rep *httpproto.Reply) {
		rep.SetStockReply(httpproto.NotFound)
	})
	addr, _ := startServer(t, handler, 5*time.Second)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	rd := bufio.NewReader(client)

	io.WriteString(client, "GET /x HTTP/1.1\r\nHost: h\r\nConnection: Keep-Alive\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	headers, _ := readResponse(t, rd)
	if strings.Contains(headers, "Keep-Alive: max=") {
		t.Fatalf("keep-alive advertised for 404: %q", headers)
	}
}

func TestStripIPv4Mapped(t *testing.T) {
	if got := stripIPv4Mapped("::ffff:192.168.1.7"); got != "192.168.1.7" {
		t.Fatalf("got %q", got)
	}
	if got := stripIPv4Mapped("2001:db8::1"); got != "2001:db8::1" {
		t.Fatalf("got %q", got)
	}
}
