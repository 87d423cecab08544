// Package connectors groups corpus access implementations. A
// connector knows how to enumerate a document corpus and, where the
// medium supports it, watch it for changes.
//
// The filesystem connector is the only one today; the package level
// exists so network-backed corpora can slot in beside it.
package connectors
