package device

import (
	"github.com/nimblebus/usbcore/bus"
)

// endpoint holds the descriptor fields and bus handle shared by InEndpoint
// and OutEndpoint. It is never constructed directly by callers; the
// allocator vends the two direction-typed wrappers below so that a handle
// obtained as OUT cannot be used to write and vice versa.
type endpoint struct {
	bus           bus.Bus
	address       uint8
	transferType  bus.TransferType
	maxPacketSize uint16
	interval      uint8
}

// Address returns the wire endpoint address, direction bit included.
func (e *endpoint) Address() uint8 { return e.address }

// Number returns the endpoint index, direction bit excluded.
func (e *endpoint) Number() uint8 { return bus.EndpointIndex(e.address) }

// TransferType returns the endpoint's transfer type.
func (e *endpoint) TransferType() bus.TransferType { return e.transferType }

// MaxPacketSize returns the endpoint's maximum packet size.
func (e *endpoint) MaxPacketSize() uint16 { return e.maxPacketSize }

// Interval returns the endpoint's polling interval.
func (e *endpoint) Interval() uint8 { return e.interval }

// Descriptor returns the USB endpoint descriptor for this endpoint.
func (e *endpoint) Descriptor() EndpointDescriptor {
	return EndpointDescriptor{
		Length:          EndpointDescriptorSize,
		DescriptorType:  DescriptorTypeEndpoint,
		EndpointAddress: e.address,
		Attributes:      uint8(e.transferType),
		MaxPacketSize:   e.maxPacketSize,
		Interval:        e.interval,
	}
}

// InEndpoint is a write-only, device-to-host endpoint handle.
type InEndpoint struct{ endpoint }

// newInEndpoint builds an InEndpoint; unexported so only the allocator can
// mint one bound to an address it actually reserved on the bus.
func newInEndpoint(b bus.Bus, address uint8, cfg bus.EndpointConfig) InEndpoint {
	return InEndpoint{endpoint{bus: b, address: address, transferType: cfg.Type, maxPacketSize: cfg.MaxPacketSize, interval: cfg.Interval}}
}

// Write transmits a single packet. Returns pkg.ErrBusy if the bus cannot
// accept it right now; the caller (typically a class's poll-driven logic)
// retries on a later poll.
func (e InEndpoint) Write(data []byte) (int, error) {
	return e.bus.Write(e.address, data)
}

// SetStalled stalls or unstalls this endpoint.
func (e InEndpoint) SetStalled(stalled bool) { e.bus.SetStalled(e.address, stalled) }

// IsStalled reports whether this endpoint is stalled.
func (e InEndpoint) IsStalled() bool { return e.bus.IsStalled(e.address) }

// OutEndpoint is a read-only, host-to-device endpoint handle.
type OutEndpoint struct{ endpoint }

// newOutEndpoint builds an OutEndpoint; unexported so only the allocator
// can mint one bound to an address it actually reserved on the bus.
func newOutEndpoint(b bus.Bus, address uint8, cfg bus.EndpointConfig) OutEndpoint {
	return OutEndpoint{endpoint{bus: b, address: address, transferType: cfg.Type, maxPacketSize: cfg.MaxPacketSize, interval: cfg.Interval}}
}

// Read drains a single pending packet into buf. Returns pkg.ErrNoData if
// nothing is pending.
func (e OutEndpoint) Read(buf []byte) (int, error) {
	return e.bus.Read(e.address, buf)
}

// SetStalled stalls or unstalls this endpoint.
func (e OutEndpoint) SetStalled(stalled bool) { e.bus.SetStalled(e.address, stalled) }

// IsStalled reports whether this endpoint is stalled.
func (e OutEndpoint) IsStalled() bool { return e.bus.IsStalled(e.address) }
