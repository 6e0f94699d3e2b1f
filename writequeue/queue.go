// File: writequeue/queue.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package writequeue serializes writes onto a single in-flight Transport
// write plus a FIFO tail of pending buffers. Only one write is ever
// outstanding on the wire at a time; Enqueue either starts that write
// directly or appends to the tail, and the completion path pops the next
// tail entry once the current write finishes.

package writequeue

import (
	"sync"

	"github.com/eapache/queue"
)

// Writer is the subset of transport.Transport the queue needs: one async
// write primitive. Kept minimal so writequeue has no import-time
// dependency on the transport package.
type Writer interface {
	AsyncWriteAll(buf []byte, cb func(n int, err error))
}

// CompletionFunc is invoked once for every buffer that was actually handed
// to the transport, in submission order, after the transport's write
// completes (successfully or not).
type CompletionFunc func(buf []byte, err error)

// StopFunc is whatever the caller wants run when a write fails; the queue
// never calls it while holding its own lock, so StopFunc is free to call
// back into Enqueue or otherwise interact with the queue without
// deadlocking.
type StopFunc func(err error)

type pendingWrite struct {
	buf      []byte
	complete CompletionFunc
}

// Queue is a single connection's outbound write serializer.
type Queue struct {
	mu       sync.Mutex
	writer   Writer
	onStop   StopFunc
	pending  *queue.Queue
	inFlight bool
	stopped  bool
}

// New creates a Queue bound to writer. onStop is invoked (outside the
// queue's lock) each time a write fails.
func New(writer Writer, onStop StopFunc) *Queue {
	return &Queue{
		writer:  writer,
		onStop:  onStop,
		pending: queue.New(),
	}
}

// Enqueue submits buf for writing. If no write is currently in flight, buf
// is handed to the transport immediately; otherwise it joins the pending
// tail and will be written once earlier buffers complete.
func (q *Queue) Enqueue(buf []byte, complete CompletionFunc) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		if complete != nil {
			complete(buf, errQueueStopped{})
		}
		return
	}
	if q.inFlight {
		q.pending.Add(&pendingWrite{buf: buf, complete: complete})
		q.mu.Unlock()
		return
	}
	q.inFlight = true
	q.mu.Unlock()
	q.startWrite(buf, complete)
}

func (q *Queue) startWrite(buf []byte, complete CompletionFunc) {
	q.writer.AsyncWriteAll(buf, func(n int, err error) {
		q.onWriteComplete(buf, n, err, complete)
	})
}

// onWriteComplete pops the next pending buffer (if any) under the lock,
// then releases the lock before invoking either the completion callback
// or onStop — calling either while still holding the lock risks deadlock
// if the callback reenters Enqueue or Stop.
func (q *Queue) onWriteComplete(buf []byte, n int, err error, complete CompletionFunc) {
	q.mu.Lock()
	var next *pendingWrite
	if err == nil && q.pending.Length() > 0 {
		next = q.pending.Remove().(*pendingWrite)
	} else {
		q.inFlight = false
	}
	q.mu.Unlock()

	if complete != nil {
		complete(buf, err)
	}

	if err != nil {
		if q.onStop != nil {
			q.onStop(err)
		}
		return
	}

	if next != nil {
		q.startWrite(next.buf, next.complete)
	}
}

// Idle reports whether the queue has neither a write in flight nor
// pending buffers. When called from inside a CompletionFunc it reflects
// the state after that buffer's completion was accounted, so the
// connection core can distinguish "drained" from "more to write".
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.inFlight && q.pending.Length() == 0
}

// Stop marks the queue as stopped; buffers enqueued afterward are
// rejected immediately via their completion callback instead of being
// written. It does not cancel a write already in flight — that write's
// own completion callback still runs.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	drained := make([]*pendingWrite, 0, q.pending.Length())
	for q.pending.Length() > 0 {
		drained = append(drained, q.pending.Remove().(*pendingWrite))
	}
	q.mu.Unlock()

	for _, pw := range drained {
		if pw.complete != nil {
			pw.complete(pw.buf, errQueueStopped{})
		}
	}
}

type errQueueStopped struct{}

func (errQueueStopped) Error() string { return "writequeue: queue stopped" }
