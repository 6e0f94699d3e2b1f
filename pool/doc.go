// Package pool provides fixed-size []byte pooling for the connection core's
// hot paths: FileSender's chunk buffer and the per-connection read region.
// See bytepool.go for the implementation.
package pool
