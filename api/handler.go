// File: api/handler.go
// Package api defines the interfaces the connection core is parameterized
// over: the application request handler and the optional session store
// consulted at WebSocket upgrade time.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "github.com/hioload/connd/httpproto"

// RequestHandler is the external application router. The core hands it a
// fully parsed request and a zeroed reply; the handler fills the reply,
// including the in-band SwitchingProtocols and DownloadFile statuses that
// steer the core's upgrade and file-download paths.
type RequestHandler interface {
	HandleRequest(req *httpproto.Request, rep *httpproto.Reply)
}

// RequestHandlerFunc adapts a function to RequestHandler.
type RequestHandlerFunc func(req *httpproto.Request, rep *httpproto.Reply)

// HandleRequest implements RequestHandler.
func (f RequestHandlerFunc) HandleRequest(req *httpproto.Request, rep *httpproto.Reply) {
	f(req, rep)
}

// SessionStore is implemented by handlers that attach an opaque session
// id to a WebSocket connection at upgrade time. The core consults it via
// type assertion right after the 101 reply is queued.
type SessionStore interface {
	StoreSessionID(req *httpproto.Request, rep *httpproto.Reply) string
}
