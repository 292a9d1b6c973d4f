// Package fake provides an in-memory, non-blocking Bus implementation for
// unit tests. It has no relationship to any real peripheral; a test drives
// it directly by queuing events with Bus.QueueEvent and inspecting writes
// with Bus.Written.
package fake

import (
	"github.com/nimblebus/usbcore/bus"
	"github.com/nimblebus/usbcore/pkg"
)

const maxEndpoints = 16

type endpointState struct {
	allocated bool
	cfg       bus.EndpointConfig
	stalled   bool
	rxPending []byte // bytes waiting to be drained by Read, nil if none
	rxIsZLP   bool
}

// Bus is a scriptable, non-blocking fake peripheral driver.
type Bus struct {
	in  [maxEndpoints]endpointState
	out [maxEndpoints]endpointState

	address   uint8
	enabled   bool
	resets    int
	events    []bus.Event
	written   map[uint8][][]byte
	busyWrite map[uint8]int // remaining Busy responses before a write succeeds
}

// New returns a Bus with endpoint zero pre-allocated in both directions, as
// every real peripheral does implicitly.
func New() *Bus {
	b := &Bus{written: make(map[uint8][][]byte), busyWrite: make(map[uint8]int)}
	b.in[0] = endpointState{allocated: true, cfg: bus.EndpointConfig{Direction: bus.DirectionIn, Type: bus.TransferControl, MaxPacketSize: 64}}
	b.out[0] = endpointState{allocated: true, cfg: bus.EndpointConfig{Direction: bus.DirectionOut, Type: bus.TransferControl, MaxPacketSize: 64}}
	return b
}

// QueueEvent appends an event to be returned by a future Poll call, in
// FIFO order.
func (b *Bus) QueueEvent(e bus.Event) {
	b.events = append(b.events, e)
}

// QueueSetup is a convenience for QueueEvent(EventData) carrying only a
// SETUP packet.
func (b *Bus) QueueSetup(setup [8]byte) {
	b.QueueEvent(bus.Event{Kind: bus.EventData, Setup: setup, HasSetup: true})
}

// QueueOut queues data for endpoint index to be drained by the next Read,
// and an EventData reporting it pending.
func (b *Bus) QueueOut(index uint8, data []byte) {
	cp := append([]byte(nil), data...)
	b.out[index].rxPending = cp
	b.out[index].rxIsZLP = len(cp) == 0
	b.QueueEvent(bus.Event{Kind: bus.EventData, OutBitmap: 1 << index})
}

// QueueInComplete queues an EventData reporting endpoint index's IN packet
// as transmitted.
func (b *Bus) QueueInComplete(index uint8) {
	b.QueueEvent(bus.Event{Kind: bus.EventData, InCompleteBitmap: 1 << index})
}

// FailNextWrites makes the next n Write calls on address return ErrBusy.
func (b *Bus) FailNextWrites(address uint8, n int) {
	b.busyWrite[address] = n
}

// Written returns every byte slice ever accepted by Write on address, in
// call order.
func (b *Bus) Written(address uint8) [][]byte {
	return b.written[address]
}

// Address returns the address last committed via SetDeviceAddress.
func (b *Bus) Address() uint8 { return b.address }

// Enabled reports whether Enable has been called.
func (b *Bus) Enabled() bool { return b.enabled }

// Resets returns the number of times Reset has been called.
func (b *Bus) Resets() int { return b.resets }

func dirState(d *Bus, dir bus.Direction) *[maxEndpoints]endpointState {
	if dir == bus.DirectionIn {
		return &d.in
	}
	return &d.out
}

// AllocEndpoint implements bus.Bus.
func (b *Bus) AllocEndpoint(cfg bus.EndpointConfig) (uint8, error) {
	states := dirState(b, cfg.Direction)
	if cfg.PreferredAddress != 0 {
		if cfg.PreferredAddress >= maxEndpoints {
			return 0, pkg.ErrInvalidEndpoint
		}
		if states[cfg.PreferredAddress].allocated {
			return 0, pkg.ErrEndpointTaken
		}
		states[cfg.PreferredAddress] = endpointState{allocated: true, cfg: cfg}
		return bus.EndpointAddress(cfg.Direction, cfg.PreferredAddress), nil
	}
	for i := uint8(1); i < maxEndpoints; i++ {
		if !states[i].allocated {
			states[i] = endpointState{allocated: true, cfg: cfg}
			return bus.EndpointAddress(cfg.Direction, i), nil
		}
	}
	return 0, pkg.ErrEndpointOverflow
}

// Enable implements bus.Bus.
func (b *Bus) Enable() { b.enabled = true }

// Reset implements bus.Bus.
func (b *Bus) Reset() {
	b.resets++
	for i := range b.in {
		b.in[i].stalled = false
	}
	for i := range b.out {
		b.out[i].stalled = false
		b.out[i].rxPending = nil
	}
}

// SetDeviceAddress implements bus.Bus.
func (b *Bus) SetDeviceAddress(address uint8) { b.address = address }

// Write implements bus.Bus.
func (b *Bus) Write(address uint8, data []byte) (int, error) {
	index := bus.EndpointIndex(address)
	if index >= maxEndpoints || !b.in[index].allocated {
		return 0, pkg.ErrInvalidEndpoint
	}
	if n := b.busyWrite[address]; n > 0 {
		b.busyWrite[address] = n - 1
		return 0, pkg.ErrBusy
	}
	cp := append([]byte(nil), data...)
	b.written[address] = append(b.written[address], cp)
	return len(data), nil
}

// Read implements bus.Bus.
func (b *Bus) Read(address uint8, buf []byte) (int, error) {
	index := bus.EndpointIndex(address)
	if index >= maxEndpoints || !b.out[index].allocated {
		return 0, pkg.ErrInvalidEndpoint
	}
	st := &b.out[index]
	if st.rxPending == nil && !st.rxIsZLP {
		return 0, pkg.ErrNoData
	}
	n := len(st.rxPending)
	if n > len(buf) {
		return 0, pkg.ErrBufferOverflow
	}
	copy(buf, st.rxPending)
	st.rxPending = nil
	st.rxIsZLP = false
	return n, nil
}

// SetStalled implements bus.Bus.
func (b *Bus) SetStalled(address uint8, stalled bool) {
	index := bus.EndpointIndex(address)
	if bus.EndpointDirection(address) == bus.DirectionIn {
		if index < maxEndpoints {
			b.in[index].stalled = stalled
		}
		return
	}
	if index < maxEndpoints {
		b.out[index].stalled = stalled
	}
}

// IsStalled implements bus.Bus.
func (b *Bus) IsStalled(address uint8) bool {
	index := bus.EndpointIndex(address)
	if bus.EndpointDirection(address) == bus.DirectionIn {
		return index < maxEndpoints && b.in[index].stalled
	}
	return index < maxEndpoints && b.out[index].stalled
}

// Suspend implements bus.Bus.
func (b *Bus) Suspend() {}

// Resume implements bus.Bus.
func (b *Bus) Resume() {}

// Poll implements bus.Bus.
func (b *Bus) Poll() bus.Event {
	if len(b.events) == 0 {
		return bus.Event{Kind: bus.EventNone}
	}
	e := b.events[0]
	b.events = b.events[1:]
	return e
}
