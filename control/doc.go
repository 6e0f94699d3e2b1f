// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control surface for the embedded server: a hot-reloadable
// configuration store, the metrics registry the connection core feeds
// and the Influx push encodes, and debug probes for live introspection
// of connection state.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload of logging and timeout knobs
//   - Connection and traffic counters with snapshot export
//   - Probe registration for live diagnostics dumps
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
