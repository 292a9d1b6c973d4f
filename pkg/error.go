package pkg

import "errors"

// Sentinel errors for the USB device core.
//
// The set mirrors the error kinds distinguished by the core's error-handling
// design: non-fatal conditions a poll loop simply retries (NoData, Busy),
// a condition local to SETUP parsing that collapses to a protocol stall
// (InvalidSetupPacket), fatal construction-time errors expected to cause the
// device to refuse to come up (BufferOverflow, EndpointOverflow, SizeOverflow,
// InvalidEndpoint, EndpointTaken), and errors surfaced to class callers of
// endpoint APIs (Unsupported, InvalidState).
var (
	// ErrNoData indicates a non-blocking read found nothing pending.
	// Non-fatal: the caller retries on the next poll.
	ErrNoData = errors.New("no data available")

	// ErrBusy indicates a non-blocking bus operation could not make
	// progress right now. Non-fatal: the caller retries on the next poll.
	ErrBusy = errors.New("bus busy")

	// ErrInvalidSetupPacket indicates a SETUP packet that failed to parse
	// or violates the chapter 9 wire format.
	ErrInvalidSetupPacket = errors.New("invalid setup packet")

	// ErrBufferOverflow indicates a caller-supplied buffer could not hold
	// the data a descriptor or control transfer needed to emit.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrEndpointOverflow indicates the peripheral has exhausted endpoints
	// of the requested direction.
	ErrEndpointOverflow = errors.New("endpoint overflow")

	// ErrSizeOverflow indicates a requested size falls outside what the
	// peripheral or wire format can represent.
	ErrSizeOverflow = errors.New("size overflow")

	// ErrInvalidEndpoint indicates an endpoint address that is out of
	// range or was never allocated.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEndpointTaken indicates the requested endpoint address is already
	// allocated to another handle.
	ErrEndpointTaken = errors.New("endpoint already allocated")

	// ErrUnsupported indicates an operation the bus or class does not
	// implement.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrInvalidState indicates an operation was attempted in a device or
	// transfer state that does not permit it.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidRequest indicates a well-formed but unrecognized or
	// disallowed standard request; surfaces as a control stall.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyBuilt indicates an attempt to use an allocator, register a
	// class, or call Build again after the device it belongs to has already
	// been built. Allocation is only
	// valid before the device starts enumerating; this is a programmer
	// error and is expected to abort.
	ErrAlreadyBuilt = errors.New("allocator already frozen")

	// ErrTooManyClasses indicates a registration attempt beyond the fixed
	// class-table capacity.
	ErrTooManyClasses = errors.New("too many classes registered")

	// ErrDescriptorTooShort indicates descriptor bytes shorter than their
	// fixed-format header.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates a descriptor's type byte does not
	// match what the caller expected to parse.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")
)
