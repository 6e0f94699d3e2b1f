// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
//
// Fixed-size []byte pooling backed by sync.Pool. Used for the FileSender's
// chunk buffer and the Connection's 4 KiB read region, so repeated
// request/response cycles on a keep-alive connection don't churn the
// allocator.

package pool

import "sync"

// BytePool hands out []byte slices of a fixed size and recycles them.
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool creates a pool whose Get always returns slices of len==size.
func NewBytePool(size int) *BytePool {
	b := &BytePool{size: size}
	b.pool.New = func() any {
		return make([]byte, b.size)
	}
	return b
}

// Get returns a slice of exactly b.size bytes. Contents are not zeroed.
func (b *BytePool) Get() []byte {
	return b.pool.Get().([]byte)
}

// Put returns buf to the pool. buf must have been obtained from Get and not
// be referenced again by the caller afterwards.
func (b *BytePool) Put(buf []byte) {
	if cap(buf) != b.size {
		return // foreign slice, let GC reclaim it
	}
	b.pool.Put(buf[:b.size])
}
