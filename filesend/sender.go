// File: filesend/sender.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package filesend streams a file to the peer as an attachment download:
// response headers first, then the file body in fixed-size chunks, each
// chunk written only after the previous one completed. It writes to the
// transport directly rather than through the write queue — the request
// that triggered the download is the only traffic on the connection, and
// the connection is closed when the transfer ends.

package filesend

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hioload/connd/httpproto"
	"github.com/hioload/connd/logging"
	"github.com/hioload/connd/mimetype"
	"github.com/hioload/connd/pool"
	"github.com/hioload/connd/transport"
)

// FileSendBufferSize is the chunk size for file streaming. The chunk
// buffer is pooled and only held while a transfer is active.
const FileSendBufferSize = 64 * 1024

// ServerHeader is sent verbatim on download responses.
const ServerHeader = "Apache/2.2.22"

var chunkPool = pool.NewBytePool(FileSendBufferSize)

// timeNow is swapped in tests to pin the Date header.
var timeNow = time.Now

// Sender streams at most one file at a time over one connection.
type Sender struct {
	tr     transport.Transport
	log    *logging.Logger
	onDone func()

	file *os.File
	buf  []byte
}

// NewSender binds a sender to a connection's transport. onDone runs when
// a transfer finishes or dies, and is expected to stop the connection.
func NewSender(tr transport.Transport, log *logging.Logger, onDone func()) *Sender {
	return &Sender{tr: tr, log: log, onDone: onDone}
}

// SendFile opens path and begins streaming it as an attachment named
// attachmentName. On success it rewrites rep with the headers it sent
// and returns true; the caller must not write rep itself. On open
// failure it rewrites rep as the stock 404 and returns false so the
// caller replies normally.
func (s *Sender) SendFile(path, attachmentName string, rep *httpproto.Reply) bool {
	rep.SetStockReply(httpproto.OK)

	f, err := os.Open(path)
	if err != nil {
		rep.SetStockReply(httpproto.NotFound)
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		rep.SetStockReply(httpproto.NotFound)
		return false
	}
	s.file = f

	rep.AddHeader("Cache-Control", "max-age=0, private")
	rep.AddHeader("Accept-Ranges", "bytes")
	rep.AddHeader("Date", httpproto.MakeWebTime(timeNow()))
	rep.AddHeader("Last-Modified", httpproto.MakeWebTime(fi.ModTime()))
	rep.AddHeader("Server", ServerHeader)
	rep.AddContentTypeHeader(mimetype.ForPath(path))
	rep.AddAttachmentHeader(attachmentName)
	rep.AddHeader("Content-Length", strconv.FormatInt(fi.Size(), 10))

	headers := rep.Bytes("GET")
	s.tr.AsyncWriteAll(headers, s.handleWriteFile)
	return true
}

// handleWriteFile is the chunk loop: each completed write schedules the
// next chunk through the same handler until EOF or error.
func (s *Sender) handleWriteFile(n int, err error) {
	if err == nil && s.file != nil {
		if s.buf == nil {
			s.buf = chunkPool.Get()
		}
		bread, rerr := s.file.Read(s.buf)
		if bread > 0 {
			s.tr.AsyncWriteAll(s.buf[:bread], s.handleWriteFile)
			return
		}
		if rerr != nil && rerr != io.EOF {
			s.log.Log(logging.LevelError, "Error reading file during download: %s", rerr.Error())
		}
	}

	s.finish()
}

func (s *Sender) finish() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.buf != nil {
		chunkPool.Put(s.buf)
		s.buf = nil
	}
	if s.onDone != nil {
		s.onDone()
	}
}
