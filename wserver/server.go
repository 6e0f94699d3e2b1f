// File: wserver/server.go
// Package wserver wires the connection core into a runnable embedded
// server: a TCP (optionally TLS) accept loop, the connection registry,
// the application handler, the process logger, the runtime config
// store, and a periodic metrics push. The per-connection protocol work
// all lives in the conn package; this layer only accepts, registers,
// and tears down.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wserver

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hioload/connd/api"
	"github.com/hioload/connd/conn"
	"github.com/hioload/connd/connmgr"
	"github.com/hioload/connd/control"
	"github.com/hioload/connd/logging"
	"github.com/hioload/connd/transport"
	"github.com/hioload/connd/wsproto"
)

// Config carries the knobs a server needs at construction. ReadTimeout
// is a construction-time default; the live read timeout and keep-alive
// request budget come from the config store and can be changed at runtime.
type Config struct {
	Addr        string
	TLS         *tls.Config // nil for a plain listener
	ReadTimeout time.Duration

	// MetricsInterval enables the periodic metrics push when nonzero.
	MetricsInterval time.Duration
	MetricsSink     control.MetricsSink
}

// Server is the embedded HTTP/1.1 + WebSocket server facade.
type Server struct {
	cfg     Config
	log     *logging.Logger
	handler api.RequestHandler
	wsh     wsproto.MessageHandler

	manager *connmgr.Manager
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	config  *control.ConfigStore

	// structured debug emitters, gated on their categories by the logger
	hwDiag   *zap.Logger
	recvDiag *zap.Logger

	mu         sync.Mutex
	listener   net.Listener
	shutdownCh chan struct{}
	stopOnce   sync.Once
	done       sync.WaitGroup
}

// Option customizes server initialization.
type Option func(*Server)

// WithLogger overrides the process-wide default logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithWSMessageHandler installs the handler for inbound WebSocket
// messages on upgraded connections.
func WithWSMessageHandler(h wsproto.MessageHandler) Option {
	return func(s *Server) { s.wsh = h }
}

// WithConfigStore installs a pre-populated config store, so the caller
// can push settings before construction and retune them at runtime.
func WithConfigStore(cs *control.ConfigStore) Option {
	return func(s *Server) { s.config = cs }
}

// New builds a Server. Nothing listens until Run. Log and debug flags
// present in the config store are applied immediately and re-applied on
// every store update or hot-reload trigger.
func New(cfg Config, handler api.RequestHandler, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		log:        logging.Default(),
		handler:    handler,
		manager:    connmgr.NewManager(),
		metrics:    control.NewMetricsRegistry(),
		probes:     control.NewDebugProbes(),
		shutdownCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.config == nil {
		s.config = control.NewConfigStore()
	}
	s.hwDiag = s.log.ZapDebug(logging.DebugHardware)
	s.recvDiag = s.log.ZapDebug(logging.DebugReceived)

	s.applyLogConfig()
	s.config.OnReload(s.applyLogConfig)
	control.RegisterReloadHook(s.applyLogConfig)

	control.RegisterPlatformProbes(s.probes)
	s.probes.RegisterProbe("server.connections_active", func() any { return s.manager.Count() })
	s.probes.RegisterProbe("server.config", func() any { return s.config.GetSnapshot() })
	return s
}

// applyLogConfig pushes the store's logging keys into the logger. Keys
// that were never set leave the logger untouched.
func (s *Server) applyLogConfig() {
	if flags := s.config.GetString(control.KeyLogFlags, ""); flags != "" {
		s.log.SetLogFlags(flags)
	}
	if flags := s.config.GetString(control.KeyDebugFlags, ""); flags != "" {
		s.log.SetDebugFlags(flags)
	}
	if target := s.config.GetString(control.KeyACLFTarget, ""); target != "" && !s.log.IsACLFEnabled() {
		s.log.SetACLFOutputFile(target)
	}
}

// readTimeout resolves the live per-connection read timeout.
func (s *Server) readTimeout() time.Duration {
	return s.config.GetDuration(control.KeyReadTimeout, s.cfg.ReadTimeout)
}

// maxRequests resolves the live keep-alive request budget.
func (s *Server) maxRequests() int {
	return s.config.GetInt(control.KeyMaxRequests, conn.DefaultMaxRequests)
}

// Metrics exposes the server's registry so the application can add its
// own gauges next to the built-in connection counters.
func (s *Server) Metrics() *control.MetricsRegistry { return s.metrics }

// Manager exposes the connection registry, mainly for tests and
// diagnostics probes.
func (s *Server) Manager() *connmgr.Manager { return s.manager }

// Probes exposes the diagnostics probe registry.
func (s *Server) Probes() *control.DebugProbes { return s.probes }

// ConfigStore exposes the runtime configuration store; SetConfig on it
// retunes logging and the per-connection knobs for connections accepted
// afterwards.
func (s *Server) ConfigStore() *control.ConfigStore { return s.config }

// Addr returns the bound listener address once Run has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds the listener and serves until Shutdown. It returns once the
// accept loop has exited and every connection is stopped.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return api.NewError(api.ErrCodeInternal, "listen: "+err.Error()).WithContext("addr", s.cfg.Addr)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Log(logging.LevelStatus, "Webserver listening on %s", ln.Addr().String())

	if s.cfg.MetricsInterval > 0 && s.cfg.MetricsSink != nil {
		s.done.Add(1)
		go s.pushMetricsLoop()
	}

	s.done.Add(1)
	go s.acceptLoop(ln)

	<-s.shutdownCh
	ln.Close()
	s.manager.StopAll()
	s.done.Wait()
	return nil
}

// Shutdown stops the accept loop and tears down every live connection.
// Safe to call more than once; Run unblocks when teardown completes.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() { close(s.shutdownCh) })
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.done.Done()
	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
			default:
				s.log.Log(logging.LevelError, "accept error: %s", err.Error())
			}
			return
		}

		var tr transport.Transport
		if s.cfg.TLS != nil {
			tr = transport.NewTLSTransport(raw, s.cfg.TLS)
		} else {
			tr = transport.NewTCPTransport(raw)
		}

		s.metrics.Add("connections_accepted", 1)
		s.metrics.Set("connections_active", s.manager.Count()+1)
		s.recvDiag.Info("connection accepted",
			zap.String("remote", raw.RemoteAddr().String()),
			zap.Bool("tls", s.cfg.TLS != nil),
			zap.Int("active", s.manager.Count()+1))

		opts := []conn.Option{conn.WithMaxRequests(s.maxRequests())}
		if s.wsh != nil {
			opts = append(opts, conn.WithWSMessageHandler(s.wsh))
		}
		c := conn.New(tr, s.manager, s.handler, s.readTimeout(), s.log, opts...)
		s.manager.Start(c)
	}
}

func (s *Server) pushMetricsLoop() {
	defer s.done.Done()
	ticker := time.NewTicker(s.cfg.MetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.shutdownCh:
			return
		case <-ticker.C:
			s.metrics.Set("connections_active", s.manager.Count())
			lines := control.EncodeLineProtocol("connd_", s.metrics.GetSnapshot(), time.Now())
			if err := s.cfg.MetricsSink.Push(lines); err != nil {
				s.hwDiag.Info("metrics push failed",
					zap.Error(err),
					zap.Int("batch_bytes", len(lines)))
			}
		}
	}
}
