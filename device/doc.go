// Package device implements a pure-Go USB 2.0 device-side stack for
// resource-constrained microcontrollers.
//
// It is platform-agnostic and interacts with hardware via the [bus.Bus]
// interface defined in the [github.com/nimblebus/usbcore/bus] package. The
// bus contract exposes non-blocking, cooperative operations for endpoint
// allocation, data I/O, stall control, and event polling, letting platform
// vendors supply concrete peripheral drivers without touching the stack
// above them.
//
// # Architecture
//
// The stack is organized around four cooperating components:
//
//   - The control-transfer engine (control.go) drives the state machine
//     on endpoint zero: SETUP parsing, data-stage chunking (including the
//     zero-length-packet termination rule), and the status stage.
//   - The standard-request handler (standard.go) answers chapter-9
//     requests — GET_STATUS, SET_ADDRESS, GET/SET_CONFIGURATION,
//     GET_DESCRIPTOR — synthesizing descriptors on demand rather than
//     holding them pre-built.
//   - The class-dispatch fabric ([ClassTable]) offers every setup request
//     to registered classes, in registration order, before falling back to
//     the standard handler. String-descriptor queries reach classes only
//     for indices beyond the language list and the three identity strings,
//     which the standard handler answers itself.
//   - [Allocator] vends interface numbers, string indices, and endpoint
//     handles during construction, then freezes so no further allocation
//     can occur once the device is running.
//
// [Builder] ties these together: register classes against it, then call
// Build to obtain a running [Device].
//
// # Concurrency model
//
// There are no goroutines and no locks. [Device.Poll] is meant to be
// called from a single thread of control in a tight loop; every
// operation it performs is non-blocking, including bus reads and writes
// ([pkg.ErrNoData] / [pkg.ErrBusy] signal "try again next poll" rather
// than blocking the caller).
//
// # Zero-allocation design
//
// The stack avoids heap allocation on every hot path:
//
//   - Serialization via MarshalTo(buf) instead of allocating Bytes()
//   - Parse functions with output parameters instead of returning pointers
//   - Fixed-size arrays for the class table and the control buffer
//   - Caller-provided buffers for descriptor and string generation
//
// # Class drivers
//
// The [ClassDriver] interface enables USB class implementations; its eight
// methods each default to a no-op via embedding [BaseClassDriver], so a
// concrete class only overrides what it needs.
package device
