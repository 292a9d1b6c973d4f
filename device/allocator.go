package device

import (
	"github.com/nimblebus/usbcore/bus"
	"github.com/nimblebus/usbcore/pkg"
)

// Allocator vends interface numbers, string indices, and endpoint handles
// during device construction. It is the only component with
// build-time exclusive mutation; once the owning builder calls Build, the
// allocator is frozen and every further allocation call aborts with
// pkg.ErrAlreadyBuilt rather than silently misbehaving, since a builder
// handle retained past Build is a programmer error.
type Allocator struct {
	bus           bus.Bus
	nextInterface uint8
	nextString    uint8
	frozen        bool
}

// newAllocator constructs an Allocator bound to b, with string indices
// starting after the reserved identity slots.
func newAllocator(b bus.Bus) *Allocator {
	return &Allocator{bus: b, nextString: FirstStringIndex}
}

// AllocInterface vends the next interface number, starting at 0.
func (a *Allocator) AllocInterface() (uint8, error) {
	if a.frozen {
		return 0, pkg.ErrAlreadyBuilt
	}
	n := a.nextInterface
	a.nextInterface++
	return n, nil
}

// AllocString vends the next string index, starting at FirstStringIndex.
func (a *Allocator) AllocString() (uint8, error) {
	if a.frozen {
		return 0, pkg.ErrAlreadyBuilt
	}
	if int(a.nextString) >= 256 {
		return 0, pkg.ErrSizeOverflow
	}
	n := a.nextString
	a.nextString++
	return n, nil
}

// AllocIn reserves an IN endpoint on the bus and returns its handle.
func (a *Allocator) AllocIn(transferType bus.TransferType, maxPacketSize uint16, interval uint8) (InEndpoint, error) {
	if a.frozen {
		return InEndpoint{}, pkg.ErrAlreadyBuilt
	}
	cfg := bus.EndpointConfig{Direction: bus.DirectionIn, Type: transferType, MaxPacketSize: maxPacketSize, Interval: interval}
	addr, err := a.bus.AllocEndpoint(cfg)
	if err != nil {
		return InEndpoint{}, err
	}
	return newInEndpoint(a.bus, addr, cfg), nil
}

// AllocOut reserves an OUT endpoint on the bus and returns its handle.
func (a *Allocator) AllocOut(transferType bus.TransferType, maxPacketSize uint16, interval uint8) (OutEndpoint, error) {
	if a.frozen {
		return OutEndpoint{}, pkg.ErrAlreadyBuilt
	}
	cfg := bus.EndpointConfig{Direction: bus.DirectionOut, Type: transferType, MaxPacketSize: maxPacketSize, Interval: interval}
	addr, err := a.bus.AllocEndpoint(cfg)
	if err != nil {
		return OutEndpoint{}, err
	}
	return newOutEndpoint(a.bus, addr, cfg), nil
}

// freeze inhibits further allocation. Called once by Build.
func (a *Allocator) freeze() { a.frozen = true }
