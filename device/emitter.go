package device

import (
	"encoding/binary"

	"github.com/nimblebus/usbcore/pkg"
)

// DescriptorWriter appends descriptor bytes into a caller-supplied,
// fixed-capacity buffer and tracks how many interface descriptors have
// been written so the configuration descriptor's interface-count field can
// be patched after every class has contributed.
type DescriptorWriter struct {
	buf        []byte
	n          int
	interfaces int
}

// NewDescriptorWriter wraps buf for descriptor emission. buf's full
// capacity is the emission budget; Write returns pkg.ErrBufferOverflow
// once exhausted.
func NewDescriptorWriter(buf []byte) *DescriptorWriter {
	return &DescriptorWriter{buf: buf}
}

// Write appends p, treating it as one complete descriptor: if p looks like
// an interface descriptor (byte 1 == DescriptorTypeInterface), the
// interface counter is incremented. Implements io.Writer.
func (w *DescriptorWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.n+len(p) > len(w.buf) {
		return 0, pkg.ErrBufferOverflow
	}
	copy(w.buf[w.n:], p)
	if len(p) >= 2 && p[1] == DescriptorTypeInterface {
		w.interfaces++
	}
	w.n += len(p)
	return len(p), nil
}

// Len returns the number of bytes written so far.
func (w *DescriptorWriter) Len() int { return w.n }

// NumInterfaces returns the number of interface descriptors observed.
func (w *DescriptorWriter) NumInterfaces() int { return w.interfaces }

// Bytes returns the emitted bytes.
func (w *DescriptorWriter) Bytes() []byte { return w.buf[:w.n] }

// PatchUint16At overwrites a little-endian uint16 already written at
// offset, used to backfill the configuration descriptor's total-length
// field once emission completes.
func (w *DescriptorWriter) PatchUint16At(offset int, v uint16) error {
	if offset < 0 || offset+2 > len(w.buf) {
		return pkg.ErrBufferOverflow
	}
	binary.LittleEndian.PutUint16(w.buf[offset:offset+2], v)
	return nil
}

// PatchByteAt overwrites a single byte already written at offset, used to
// backfill the configuration descriptor's interface-count field.
func (w *DescriptorWriter) PatchByteAt(offset int, v byte) error {
	if offset < 0 || offset >= len(w.buf) {
		return pkg.ErrBufferOverflow
	}
	w.buf[offset] = v
	return nil
}
