// File: wsproto/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session is the connection core's WebSocket collaborator after the 101
// upgrade: it consumes raw inbound bytes, assembles fragmented messages,
// answers pings, echoes the peer's close, and frames outbound messages
// through the write function the core supplies (which feeds the
// connection's write queue, so frame ordering rides the same serializer
// as HTTP replies).

package wsproto

import "sync"

// WriteFunc ships one fully framed WebSocket frame; the connection core
// binds it to its write queue.
type WriteFunc func(frame []byte)

// MessageHandler consumes complete inbound data messages. Responses go
// out via the Session's Send methods, not a return value, because a
// single inbound message may fan out to zero or many outbound frames.
type MessageHandler interface {
	OnMessage(s *Session, opcode byte, payload []byte)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(s *Session, opcode byte, payload []byte)

// OnMessage implements MessageHandler.
func (f MessageHandlerFunc) OnMessage(s *Session, opcode byte, payload []byte) {
	f(s, opcode, payload)
}

// Session drives one upgraded connection's frame traffic. It is driven
// from the connection's single read cycle, so Parse needs no internal
// locking; the Send methods may be called from any goroutine (push
// traffic) and only touch the write function, which is thread-safe.
type Session struct {
	write   WriteFunc
	handler MessageHandler

	mu        sync.Mutex
	sessionID string
	started   bool
	closeSent bool

	fragOpcode byte
	fragment   []byte
}

// NewSession binds a session to its outbound write path and message
// handler. The session is inert until Start.
func NewSession(write WriteFunc, handler MessageHandler) *Session {
	return &Session{write: write, handler: handler}
}

// Start marks the session live. Called by the core right after the 101
// reply is queued.
func (s *Session) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

// Stop marks the session dead; subsequent Send calls are dropped.
func (s *Session) Stop() {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

// SetSessionID stashes the opaque id the handler issued at upgrade.
func (s *Session) SetSessionID(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
}

// SessionID returns the id stored at upgrade, or "".
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Parse consumes as many complete frames from data as it holds. It
// returns whether at least one frame was handled, how many bytes were
// consumed, and whether the connection should keep reading — false once
// a close control frame was seen.
func (s *Session) Parse(data []byte) (complete bool, consumed int, keepalive bool) {
	keepalive = true
	for {
		frame, n, err := DecodeFrame(data[consumed:])
		if err != nil {
			// oversized or otherwise unusable frame: drop the connection
			return complete, consumed, false
		}
		if frame == nil {
			return complete, consumed, keepalive
		}
		consumed += n
		complete = true
		if !s.handleFrame(frame) {
			keepalive = false
			return complete, consumed, keepalive
		}
	}
}

// handleFrame reports false when the frame was a close and reading
// should end.
func (s *Session) handleFrame(f *Frame) bool {
	switch f.Opcode {
	case OpcodePing:
		if pong, err := EncodePong(f.Payload); err == nil {
			s.send(pong)
		}
	case OpcodePong:
		// liveness answer to our ping, nothing to do
	case OpcodeClose:
		s.sendClose(f.Payload)
		return false
	case OpcodeText, OpcodeBinary:
		if !f.IsFinal {
			s.fragOpcode = f.Opcode
			s.fragment = append(s.fragment[:0], f.Payload...)
			return true
		}
		s.deliver(f.Opcode, f.Payload)
	case OpcodeContinuation:
		s.fragment = append(s.fragment, f.Payload...)
		if f.IsFinal {
			payload := s.fragment
			s.fragment = nil
			s.deliver(s.fragOpcode, payload)
		}
	}
	return true
}

func (s *Session) deliver(opcode byte, payload []byte) {
	if s.handler != nil {
		s.handler.OnMessage(s, opcode, payload)
	}
}

// SendText frames msg as a TEXT message and queues it.
func (s *Session) SendText(msg []byte) {
	if frame, err := EncodeServerFrame(OpcodeText, msg, true); err == nil {
		s.send(frame)
	}
}

// SendBinary frames msg as a BINARY message and queues it.
func (s *Session) SendBinary(msg []byte) {
	if frame, err := EncodeServerFrame(OpcodeBinary, msg, true); err == nil {
		s.send(frame)
	}
}

// SendPing queues a server Ping, used by the read timer to probe an idle
// keep-alive peer.
func (s *Session) SendPing() {
	if frame, err := EncodePing(nil); err == nil {
		s.send(frame)
	}
}

// SendClose queues a close frame once; repeats are dropped.
func (s *Session) SendClose(payload []byte) {
	s.sendClose(payload)
}

func (s *Session) sendClose(payload []byte) {
	s.mu.Lock()
	alreadySent := s.closeSent
	s.closeSent = true
	s.mu.Unlock()
	if alreadySent {
		return
	}
	if frame, err := EncodeClose(payload); err == nil {
		s.send(frame)
	}
}

func (s *Session) send(frame []byte) {
	s.mu.Lock()
	live := s.started
	s.mu.Unlock()
	if live && s.write != nil {
		s.write(frame)
	}
}
