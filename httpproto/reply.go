// File: httpproto/reply.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Status is an HTTP response status plus the two in-band markers the
// handler uses to steer the connection core. SwitchingProtocols is a real
// wire status (101); DownloadFile never reaches the wire — it tells the
// core to hand Content ("<path>\r\n<attachment>") to the FileSender.
type Status int

const (
	SwitchingProtocols  Status = 101
	OK                  Status = 200
	Created             Status = 201
	Accepted            Status = 202
	NoContent           Status = 204
	MultipleChoices     Status = 300
	MovedPermanently    Status = 301
	MovedTemporarily    Status = 302
	NotModified         Status = 304
	BadRequest          Status = 400
	Unauthorized        Status = 401
	Forbidden           Status = 403
	NotFound            Status = 404
	InternalServerError Status = 500
	NotImplemented      Status = 501
	BadGateway          Status = 502
	ServiceUnavailable  Status = 503

	// DownloadFile is strictly internal; serializing a Reply that still
	// carries it is a caller bug and renders as a 500.
	DownloadFile Status = 1000
)

var statusLines = map[Status]string{
	SwitchingProtocols:  "HTTP/1.1 101 Switching Protocols\r\n",
	OK:                  "HTTP/1.1 200 OK\r\n",
	Created:             "HTTP/1.1 201 Created\r\n",
	Accepted:            "HTTP/1.1 202 Accepted\r\n",
	NoContent:           "HTTP/1.1 204 No Content\r\n",
	MultipleChoices:     "HTTP/1.1 300 Multiple Choices\r\n",
	MovedPermanently:    "HTTP/1.1 301 Moved Permanently\r\n",
	MovedTemporarily:    "HTTP/1.1 302 Moved Temporarily\r\n",
	NotModified:         "HTTP/1.1 304 Not Modified\r\n",
	BadRequest:          "HTTP/1.1 400 Bad Request\r\n",
	Unauthorized:        "HTTP/1.1 401 Unauthorized\r\n",
	Forbidden:           "HTTP/1.1 403 Forbidden\r\n",
	NotFound:            "HTTP/1.1 404 Not Found\r\n",
	InternalServerError: "HTTP/1.1 500 Internal Server Error\r\n",
	NotImplemented:      "HTTP/1.1 501 Not Implemented\r\n",
	BadGateway:          "HTTP/1.1 502 Bad Gateway\r\n",
	ServiceUnavailable:  "HTTP/1.1 503 Service Unavailable\r\n",
}

var stockBodies = map[Status]string{
	OK:                  "",
	Created:             "<html><head><title>Created</title></head><body><h1>201 Created</h1></body></html>",
	Accepted:            "<html><head><title>Accepted</title></head><body><h1>202 Accepted</h1></body></html>",
	NoContent:           "",
	MultipleChoices:     "<html><head><title>Multiple Choices</title></head><body><h1>300 Multiple Choices</h1></body></html>",
	MovedPermanently:    "<html><head><title>Moved Permanently</title></head><body><h1>301 Moved Permanently</h1></body></html>",
	MovedTemporarily:    "<html><head><title>Moved Temporarily</title></head><body><h1>302 Moved Temporarily</h1></body></html>",
	NotModified:         "",
	BadRequest:          "<html><head><title>Bad Request</title></head><body><h1>400 Bad Request</h1></body></html>",
	Unauthorized:        "<html><head><title>Unauthorized</title></head><body><h1>401 Unauthorized</h1></body></html>",
	Forbidden:           "<html><head><title>Forbidden</title></head><body><h1>403 Forbidden</h1></body></html>",
	NotFound:            "<html><head><title>Not Found</title></head><body><h1>404 Not Found</h1></body></html>",
	InternalServerError: "<html><head><title>Internal Server Error</title></head><body><h1>500 Internal Server Error</h1></body></html>",
	NotImplemented:      "<html><head><title>Not Implemented</title></head><body><h1>501 Not Implemented</h1></body></html>",
	BadGateway:          "<html><head><title>Bad Gateway</title></head><body><h1>502 Bad Gateway</h1></body></html>",
	ServiceUnavailable:  "<html><head><title>Service Unavailable</title></head><body><h1>503 Service Unavailable</h1></body></html>",
}

// Reply is the handler-produced response. OriginHost, when set, replaces
// the remote address in the ACLF access log line.
type Reply struct {
	Status     Status
	Headers    []Header
	Content    []byte
	OriginHost string
}

// Reset clears the reply for reuse across keep-alive requests.
func (r *Reply) Reset() {
	r.Status = 0
	r.Headers = r.Headers[:0]
	r.Content = nil
	r.OriginHost = ""
}

// StockReply builds the canned response for a status: its conventional
// HTML body, Content-Length, and Content-Type.
func StockReply(s Status) *Reply {
	body, ok := stockBodies[s]
	if !ok {
		return StockReply(InternalServerError)
	}
	r := &Reply{Status: s, Content: []byte(body)}
	r.AddHeader("Content-Length", strconv.Itoa(len(body)))
	r.AddHeader("Content-Type", "text/html")
	return r
}

// SetStockReply rewrites r in place as the stock reply for s, keeping the
// caller's Reply allocation.
func (r *Reply) SetStockReply(s Status) {
	stock := StockReply(s)
	r.Status = stock.Status
	r.Headers = append(r.Headers[:0], stock.Headers...)
	r.Content = stock.Content
	r.OriginHost = ""
}

// AddHeader appends a header unconditionally.
func (r *Reply) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// AddHeaderIfAbsent appends a header unless one with the same name (case-
// insensitive) is already present, so the handler can override what the
// core would add.
func (r *Reply) AddHeaderIfAbsent(name, value string) {
	if _, present := r.Header(name); present {
		return
	}
	r.AddHeader(name, value)
}

// Header returns the first header matching name case-insensitively.
func (r *Reply) Header(name string) (string, bool) {
	for i := range r.Headers {
		if strings.EqualFold(r.Headers[i].Name, name) {
			return r.Headers[i].Value, true
		}
	}
	return "", false
}

// AddAttachmentHeader marks the reply as a download with the given
// client-visible filename.
func (r *Reply) AddAttachmentHeader(attachmentName string) {
	r.AddHeader("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", attachmentName))
}

// AddContentTypeHeader sets the reply's Content-Type.
func (r *Reply) AddContentTypeHeader(mimeType string) {
	r.AddHeader("Content-Type", mimeType)
}

// Bytes serializes the reply for the wire: status line, headers, blank
// line, then the body — omitted when the request method was HEAD. An
// unknown or internal-only status serializes as the stock 500.
func (r *Reply) Bytes(method string) []byte {
	statusLine, ok := statusLines[r.Status]
	if !ok {
		return StockReply(InternalServerError).Bytes(method)
	}
	var b bytes.Buffer
	b.WriteString(statusLine)
	for i := range r.Headers {
		b.WriteString(r.Headers[i].Name)
		b.WriteString(": ")
		b.WriteString(r.Headers[i].Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	if method != "HEAD" {
		b.Write(r.Content)
	}
	return b.Bytes()
}
