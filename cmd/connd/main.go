// File: cmd/connd/main.go
// Example binary exercising the whole stack: an embedded HTTP/1.1 +
// WebSocket server with a demo handler that serves a page, offers a file
// download through the in-band DownloadFile reply, and upgrades /ws to a
// WebSocket echo session.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hioload/connd/api"
	"github.com/hioload/connd/control"
	"github.com/hioload/connd/httpproto"
	"github.com/hioload/connd/logging"
	"github.com/hioload/connd/tlsconf"
	"github.com/hioload/connd/wserver"
	"github.com/hioload/connd/wsproto"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "listen address")
		logFlags    = flag.String("log-flags", "status,error", "log level flags (all,normal,status,error,debug)")
		debugFlags  = flag.String("debug-flags", "", "debug category flags (all,normal,hardware,received,webserver,eventsystem,python,thread_id,sql,auth)")
		logFile     = flag.String("log-file", "", "output log file")
		aclfTarget  = flag.String("aclf", "", "access log target (path or syslog:)")
		useSyslog   = flag.Bool("syslog", false, "send logs to syslog")
		daemon      = flag.Bool("daemon", false, "suppress console output")
		certFile    = flag.String("cert", "", "TLS certificate PEM")
		keyFile     = flag.String("key", "", "TLS key PEM")
		readTimeout = flag.Duration("read-timeout", 30*time.Second, "per-connection read timeout")
		influxURL   = flag.String("influx-url", "", "InfluxDB base URL for metrics push")
		influxDB    = flag.String("influx-db", "connd", "InfluxDB database name")
		influxEvery = flag.Duration("influx-interval", time.Minute, "metrics push interval")
	)
	flag.Parse()

	log := logging.Default()
	if *logFile != "" {
		log.SetOutputFile(*logFile)
	}
	log.EnableSyslog(*useSyslog)
	log.SetDaemon(*daemon)
	defer log.Close()

	// runtime knobs live in the config store; the server applies the
	// logging keys at construction and re-applies them on every update
	store := control.NewConfigStore()
	settings := map[string]any{
		control.KeyLogFlags:    *logFlags,
		control.KeyReadTimeout: int(*readTimeout / time.Second),
	}
	if *debugFlags != "" {
		settings[control.KeyDebugFlags] = *debugFlags
	}
	if *aclfTarget != "" {
		settings[control.KeyACLFTarget] = *aclfTarget
	}
	store.SetConfig(settings)

	cfg := wserver.Config{
		Addr:        *addr,
		ReadTimeout: *readTimeout,
	}
	if *certFile != "" {
		tlsCfg, err := tlsconf.ServerConfig(*certFile, *keyFile)
		if err != nil {
			log.Log(logging.LevelError, "TLS setup failed: %s", err.Error())
			os.Exit(1)
		}
		cfg.TLS = tlsCfg
	}
	if *influxURL != "" {
		cfg.MetricsInterval = *influxEvery
		cfg.MetricsSink = &control.InfluxHTTPSink{URL: *influxURL, Database: *influxDB}
	}

	srv := wserver.New(cfg, &demoHandler{},
		wserver.WithConfigStore(store),
		wserver.WithWSMessageHandler(wsproto.MessageHandlerFunc(echoMessage)))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Log(logging.LevelStatus, "Shutting down...")
		srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Log(logging.LevelError, "server: %s", err.Error())
		os.Exit(1)
	}
}

// demoHandler routes three paths: / (a static page), /download (streams
// /etc/hostname as hostname.txt via the DownloadFile side channel), and
// /ws (WebSocket upgrade).
type demoHandler struct{}

func (h *demoHandler) HandleRequest(req *httpproto.Request, rep *httpproto.Reply) {
	switch req.URI {
	case "/":
		body := "<html><body><h1>connd</h1></body></html>"
		rep.Status = httpproto.OK
		rep.Content = []byte(body)
		rep.AddHeader("Content-Length", strconv.Itoa(len(body)))
		rep.AddContentTypeHeader("text/html")
	case "/download":
		rep.Status = httpproto.DownloadFile
		rep.Content = []byte("/etc/hostname\r\nhostname.txt")
	case "/ws":
		key, err := wsproto.Validate(req.LowerHeaders())
		if err != nil {
			rep.SetStockReply(httpproto.BadRequest)
			return
		}
		rep.Status = httpproto.SwitchingProtocols
		for _, hdr := range wsproto.AcceptHeaders(key) {
			rep.AddHeader(hdr[0], hdr[1])
		}
	default:
		rep.SetStockReply(httpproto.NotFound)
	}
}

// StoreSessionID implements api.SessionStore with a trivial id derived
// from the peer endpoint.
func (h *demoHandler) StoreSessionID(req *httpproto.Request, rep *httpproto.Reply) string {
	return fmt.Sprintf("%s:%s", req.RemoteAddress, req.RemotePort)
}

var _ api.SessionStore = (*demoHandler)(nil)

func echoMessage(s *wsproto.Session, opcode byte, payload []byte) {
	if opcode == wsproto.OpcodeText {
		s.SendText(payload)
	} else {
		s.SendBinary(payload)
	}
}
