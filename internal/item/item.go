// Package item defines the payload types moving through the upload pipeline:
// Binary (a raw payload waiting for upload) and Resolved (the hosting
// service's confirmation record for one Binary).
package item

import "sync/atomic"

var handleSeq atomic.Uint64

// Binary is an opaque payload submitted for upload. Two binaries with
// identical bytes are still distinct items: every Binary gets a unique
// handle at construction, and all transient bookkeeping (classification,
// buffering) keys on that handle, never on pointer identity or content.
type Binary struct {
	handle uint64
	Name   string
	Data   []byte
}

// NewBinary wraps a payload and assigns it the next free handle.
func NewBinary(name string, data []byte) *Binary {
	return &Binary{handle: handleSeq.Add(1), Name: name, Data: data}
}

// Handle returns the item's stable identity.
func (b *Binary) Handle() uint64 {
	return b.handle
}

// Resolved is the upload backend's output for one Binary. It is immutable
// once produced; derived display strings live elsewhere.
type Resolved struct {
	// PID is the persistent identifier assigned by the hosting service.
	PID string
	// MimeType is the declared media type of the payload.
	MimeType string
	// Width and Height are the pixel dimensions, zero when unknown.
	Width  int
	Height int
	// Source points back to the Binary this record was produced from.
	Source *Binary
}
