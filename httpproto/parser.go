// File: httpproto/parser.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import (
	"strconv"
	"strings"
)

// ParseResult is the ternary outcome every Parse call produces. The
// connection core branches on all three: Complete dispatches, Malformed
// answers 400, Indeterminate schedules another read.
type ParseResult int

const (
	Indeterminate ParseResult = iota
	Complete
	Malformed
)

type parserState int

const (
	stateMethodStart parserState = iota
	stateMethod
	stateURI
	stateVersionH
	stateVersionT1
	stateVersionT2
	stateVersionP
	stateVersionSlash
	stateVersionMajor
	stateVersionMinor
	stateExpectNewline1
	stateHeaderLineStart
	stateHeaderName
	stateSpaceBeforeValue
	stateHeaderValue
	stateExpectNewline2
	stateExpectNewline3
	stateBody
)

// Parser consumes request bytes one at a time and fills in a Request. It
// is a restartable state machine: Reset() prepares it for the next
// request on a keep-alive connection. Not safe for concurrent use; each
// connection owns exactly one.
type Parser struct {
	state        parserState
	name         strings.Builder
	value        strings.Builder
	versionDigit strings.Builder
	contentLeft  int
}

// NewParser returns a Parser ready for the first request.
func NewParser() *Parser {
	return &Parser{state: stateMethodStart}
}

// Reset prepares the parser for a fresh request.
func (p *Parser) Reset() {
	p.state = stateMethodStart
	p.name.Reset()
	p.value.Reset()
	p.versionDigit.Reset()
	p.contentLeft = 0
}

// Parse feeds data into the state machine, filling req as it goes. It
// returns the ternary result plus how many bytes were consumed; on
// Indeterminate the caller appends more bytes and calls Parse again with
// only the unconsumed tail. On Complete the unconsumed remainder is a
// possible next pipelined request and must stay in the caller's buffer.
func (p *Parser) Parse(req *Request, data []byte) (ParseResult, int) {
	for i := 0; i < len(data); i++ {
		result := p.consume(req, data[i])
		if result != Indeterminate {
			return result, i + 1
		}
	}
	return Indeterminate, len(data)
}

func (p *Parser) consume(req *Request, c byte) ParseResult {
	switch p.state {
	case stateMethodStart:
		if !isTokenChar(c) {
			return Malformed
		}
		p.state = stateMethod
		req.Method = string(c)
	case stateMethod:
		if c == ' ' {
			p.state = stateURI
			return Indeterminate
		}
		if !isTokenChar(c) {
			return Malformed
		}
		req.Method += string(c)
	case stateURI:
		if c == ' ' {
			p.state = stateVersionH
			return Indeterminate
		}
		if isCtl(c) {
			return Malformed
		}
		req.URI += string(c)
	case stateVersionH:
		return p.expect(c, 'H', stateVersionT1)
	case stateVersionT1:
		return p.expect(c, 'T', stateVersionT2)
	case stateVersionT2:
		return p.expect(c, 'T', stateVersionP)
	case stateVersionP:
		return p.expect(c, 'P', stateVersionSlash)
	case stateVersionSlash:
		return p.expect(c, '/', stateVersionMajor)
	case stateVersionMajor:
		switch {
		case c == '.':
			if p.versionDigit.Len() == 0 {
				return Malformed
			}
			req.HTTPVersionMajor, _ = strconv.Atoi(p.versionDigit.String())
			p.versionDigit.Reset()
			p.state = stateVersionMinor
		case isDigit(c):
			p.versionDigit.WriteByte(c)
		default:
			return Malformed
		}
	case stateVersionMinor:
		switch {
		case c == '\r':
			if p.versionDigit.Len() == 0 {
				return Malformed
			}
			req.HTTPVersionMinor, _ = strconv.Atoi(p.versionDigit.String())
			p.versionDigit.Reset()
			p.state = stateExpectNewline1
		case isDigit(c):
			p.versionDigit.WriteByte(c)
		default:
			return Malformed
		}
	case stateExpectNewline1:
		return p.expect(c, '\n', stateHeaderLineStart)
	case stateHeaderLineStart:
		switch {
		case c == '\r':
			p.state = stateExpectNewline3
		case isTokenChar(c):
			p.name.Reset()
			p.name.WriteByte(c)
			p.state = stateHeaderName
		default:
			return Malformed
		}
	case stateHeaderName:
		switch {
		case c == ':':
			p.state = stateSpaceBeforeValue
		case isTokenChar(c):
			p.name.WriteByte(c)
		default:
			return Malformed
		}
	case stateSpaceBeforeValue:
		if c == ' ' {
			p.value.Reset()
			p.state = stateHeaderValue
			return Indeterminate
		}
		// value starts without the customary space
		if isCtl(c) {
			return Malformed
		}
		p.value.Reset()
		p.value.WriteByte(c)
		p.state = stateHeaderValue
	case stateHeaderValue:
		switch {
		case c == '\r':
			req.Headers = append(req.Headers, Header{Name: p.name.String(), Value: p.value.String()})
			p.state = stateExpectNewline2
		case isCtl(c):
			return Malformed
		default:
			p.value.WriteByte(c)
		}
	case stateExpectNewline2:
		return p.expect(c, '\n', stateHeaderLineStart)
	case stateExpectNewline3:
		if c != '\n' {
			return Malformed
		}
		p.contentLeft = contentLength(req)
		if p.contentLeft < 0 {
			return Malformed
		}
		if p.contentLeft == 0 {
			return Complete
		}
		p.state = stateBody
	case stateBody:
		req.Content = append(req.Content, c)
		p.contentLeft--
		if p.contentLeft == 0 {
			return Complete
		}
	}
	return Indeterminate
}

func (p *Parser) expect(c, want byte, next parserState) ParseResult {
	if c != want {
		return Malformed
	}
	p.state = next
	return Indeterminate
}

func contentLength(req *Request) int {
	v, ok := req.Header("Content-Length")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func isTokenChar(c byte) bool {
	if c < 32 || c == 127 {
		return false
	}
	switch c {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}', ' ', '\t':
		return false
	}
	return true
}

func isCtl(c byte) bool { return c < 32 || c == 127 }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
