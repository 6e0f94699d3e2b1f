// File: httpproto/request.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package httpproto is the connection core's HTTP/1.1 collaborator: an
// incremental request parser with a ternary done/malformed/more result, a
// Reply value with stock responses and wire serialization, HTTP-date
// helpers, and the Apache Combined Log Format line builder. It never
// touches the network; the core feeds it bytes and ships the bytes it
// produces.

package httpproto

import "strings"

// Header is one name/value pair. Order is preserved on both requests and
// replies because some clients care about it.
type Header struct {
	Name  string
	Value string
}

// Request is one parsed inbound request plus the endpoint bookkeeping the
// core attaches before dispatch.
type Request struct {
	Method           string
	URI              string
	HTTPVersionMajor int
	HTTPVersionMinor int
	Headers          []Header
	Content          []byte

	// Set by the connection core, not the parser.
	KeepAlive     bool
	RemoteAddress string
	RemotePort    string
	LocalAddress  string
	LocalPort     string
}

// Header returns the value of the first header matching name,
// case-insensitively, and whether it was present at all.
func (r *Request) Header(name string) (string, bool) {
	for i := range r.Headers {
		if strings.EqualFold(r.Headers[i].Name, name) {
			return r.Headers[i].Value, true
		}
	}
	return "", false
}

// LowerHeaders returns all headers as a lower-cased-name map, the shape
// the wsproto handshake validator consumes. Duplicate names keep the
// first occurrence.
func (r *Request) LowerHeaders() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for i := range r.Headers {
		k := strings.ToLower(r.Headers[i].Name)
		if _, dup := m[k]; !dup {
			m[k] = r.Headers[i].Value
		}
	}
	return m
}

// WantsKeepAlive reports whether the client asked for a persistent
// connection: a Connection header case-insensitively equal to Keep-Alive.
func (r *Request) WantsKeepAlive() bool {
	v, ok := r.Header("Connection")
	return ok && strings.EqualFold(v, "Keep-Alive")
}
