// Package bus defines the contract between the USB device core and a
// hardware-specific peripheral driver.
//
// A Bus implementation owns the actual register-level conversation with the
// USB peripheral. Every method is non-blocking: if an operation cannot make
// progress right now it returns a distinguished busy/no-data error rather
// than waiting, so the core's single-threaded poll loop never stalls on
// hardware. The core calls Poll at least once every 10ms and reacts to
// whatever event it reports; it never spawns goroutines of its own to wait
// on the bus.
package bus

import "github.com/nimblebus/usbcore/pkg"

// Direction distinguishes IN (device-to-host) from OUT (host-to-device)
// endpoints. It matches bit 7 of a USB endpoint address.
type Direction uint8

// Endpoint directions (USB 2.0 Spec Table 9-13 address encoding).
const (
	DirectionOut Direction = 0x00
	DirectionIn  Direction = 0x80
)

// TransferType is the endpoint transfer type (USB 2.0 Spec Table 9-13).
// Isochronous is represented for descriptor-encoding completeness only;
// the core never allocates or drives an isochronous endpoint.
type TransferType uint8

// Endpoint transfer types.
const (
	TransferControl     TransferType = 0x00
	TransferIsochronous TransferType = 0x01
	TransferBulk        TransferType = 0x02
	TransferInterrupt   TransferType = 0x03
)

// EndpointConfig describes an endpoint allocation request.
type EndpointConfig struct {
	Direction Direction
	// PreferredAddress requests a specific endpoint number (not including
	// the direction bit); zero means "driver's choice".
	PreferredAddress uint8
	Type             TransferType
	MaxPacketSize    uint16
	Interval         uint8
}

// EventKind identifies what Poll observed.
type EventKind uint8

// Event kinds reported by Poll.
const (
	EventNone EventKind = iota
	EventReset
	EventData
	EventSuspend
	EventResume
)

// Event is a single snapshot of pending bus conditions, returned by Poll.
// For EventData, HasSetup reports whether a SETUP packet arrived on
// endpoint zero this poll; OutBitmap and InCompleteBitmap are bit i set for
// endpoint index i with a pending OUT or completed IN respectively (bit 0
// always refers to endpoint zero).
type Event struct {
	Kind             EventKind
	Setup            [8]byte
	HasSetup         bool
	OutBitmap        uint16
	InCompleteBitmap uint16
}

// Bus is the peripheral driver contract the core consumes. Implementations
// are expected to be re-entrant with respect to whatever interrupt context
// signals Poll's underlying state; the core itself is single-threaded and
// applies no locking of its own around Bus calls.
type Bus interface {
	// AllocEndpoint reserves an endpoint of the given configuration and
	// returns its address (direction bit set per cfg.Direction). Returns
	// pkg.ErrEndpointOverflow if no endpoint of the requested kind remains,
	// pkg.ErrEndpointTaken if PreferredAddress is already allocated, or
	// pkg.ErrInvalidEndpoint if PreferredAddress is out of range.
	AllocEndpoint(cfg EndpointConfig) (address uint8, err error)

	// Enable brings the peripheral onto the bus. Called exactly once,
	// after all endpoint allocation is complete.
	Enable()

	// Reset reinitializes peripheral state. Called once at construction
	// and again every time Poll reports EventReset.
	Reset()

	// SetDeviceAddress commits a host-assigned address to hardware.
	// Called at most once per accepted SET_ADDRESS request, after that
	// request's status stage has completed.
	SetDeviceAddress(address uint8)

	// Write queues bytes for transmission on an IN endpoint. Returns the
	// number of bytes accepted (always len(data) or an error), or
	// pkg.ErrBusy if the endpoint's transmit side is still occupied by a
	// prior packet, or pkg.ErrInvalidEndpoint if address was never
	// allocated.
	Write(address uint8, data []byte) (n int, err error)

	// Read drains at most len(buf) bytes received on an OUT endpoint.
	// Returns pkg.ErrNoData if nothing is pending, pkg.ErrBufferOverflow
	// if the received packet does not fit in buf, or
	// pkg.ErrInvalidEndpoint if address was never allocated. A received
	// zero-length packet yields (0, nil).
	Read(address uint8, buf []byte) (n int, err error)

	// SetStalled stalls or unstalls an endpoint.
	SetStalled(address uint8, stalled bool)

	// IsStalled reports whether an endpoint is currently stalled.
	IsStalled(address uint8) bool

	// Suspend and Resume notify the peripheral of bus suspend/resume so it
	// can adjust power state; the core does not gate any logic on these
	// beyond forwarding remote-wakeup advertisement.
	Suspend()
	Resume()

	// Poll reports the next pending condition without blocking. Returns
	// EventNone when nothing is pending.
	Poll() Event
}

// EndpointAddress composes a direction and index into a wire endpoint
// address: bit 7 is direction, bits 0..3 are the index.
func EndpointAddress(dir Direction, index uint8) uint8 {
	return uint8(dir) | (index & 0x0F)
}

// EndpointIndex extracts the index (bits 0..3) from a wire endpoint address.
func EndpointIndex(address uint8) uint8 {
	return address & 0x0F
}

// EndpointDirection extracts the direction bit from a wire endpoint address.
func EndpointDirection(address uint8) Direction {
	if address&0x80 != 0 {
		return DirectionIn
	}
	return DirectionOut
}

// ValidateIndex reports pkg.ErrInvalidEndpoint if index falls outside the
// range the core ever addresses.
func ValidateIndex(index uint8, bound uint8) error {
	if index >= bound {
		return pkg.ErrInvalidEndpoint
	}
	return nil
}
