package device

import (
	"github.com/nimblebus/usbcore/bus"
	"github.com/nimblebus/usbcore/pkg"
)

// Identity is the fixed, immutable-after-construction description of a
// device: everything that goes into the device descriptor, the
// configuration descriptor's power/attribute fields, and the three
// identity string descriptors.
type Identity struct {
	VendorID      uint16
	ProductID     uint16
	DeviceRelease uint16 // BCD, e.g. 0x0100 for v1.00

	DeviceClass    uint8
	DeviceSubClass uint8
	DeviceProtocol uint8

	// MaxPacketSize0 is the control endpoint's max packet size: 8, 16, 32,
	// or 64 depending on speed and peripheral.
	MaxPacketSize0 uint8

	Manufacturer string
	Product      string
	SerialNumber string

	SelfPowered         bool
	RemoteWakeupCapable bool

	// MaxPowerUnits is the configuration descriptor's bMaxPower field, in
	// 2mA units. Power management beyond this static advertisement (e.g.
	// host-directed suspend current negotiation) is out of scope.
	MaxPowerUnits uint8
}

// Builder assembles a Device: it owns the Allocator and class table during
// construction and consumes itself into a runtime Device via Build,
// freezing the allocator so that no further endpoint, interface, or
// string allocation can occur once the device is running.
type Builder struct {
	identity  Identity
	bus       bus.Bus
	allocator *Allocator
	classes   ClassTable
	built     bool
}

// NewBuilder begins constructing a device bound to b with the given
// identity.
func NewBuilder(b bus.Bus, identity Identity) *Builder {
	return &Builder{
		identity:  identity,
		bus:       b,
		allocator: newAllocator(b),
	}
}

// Allocator returns the builder's allocator, for classes that need to
// reserve interface numbers, string indices, or endpoints during setup.
func (b *Builder) Allocator() *Allocator {
	return b.allocator
}

// RegisterClass adds a class to the device's dispatch table, in call
// order. Returns pkg.ErrTooManyClasses past capacity and pkg.ErrAlreadyBuilt
// if called after Build.
func (b *Builder) RegisterClass(c ClassDriver) error {
	if b.built {
		return pkg.ErrAlreadyBuilt
	}
	return b.classes.Register(c)
}

// Build freezes the allocator and returns the runtime Device. The builder
// must not be used afterward.
func (b *Builder) Build() (*Device, error) {
	if b.built {
		return nil, pkg.ErrAlreadyBuilt
	}
	b.built = true
	b.allocator.freeze()

	d := &Device{
		identity:       b.identity,
		bus:            b.bus,
		classes:        b.classes,
		state:          StateDefault,
		maxPacketSize0: uint16(b.identity.MaxPacketSize0),
	}
	d.bus.Reset()
	d.bus.Enable()

	pkg.LogInfo(pkg.ComponentDevice, "device built",
		"vendor_id", d.identity.VendorID,
		"product_id", d.identity.ProductID,
		"classes", d.classes.Count())

	return d, nil
}

// Device is a running USB device: identity, enumeration state, the
// control-transfer engine, and the class-dispatch fabric.
type Device struct {
	identity Identity
	bus      bus.Bus
	classes  ClassTable

	state               State
	address             uint8
	pendingAddress      uint8
	pendingAddressSet   bool
	remoteWakeupEnabled bool
	suspended           bool
	maxPacketSize0      uint16

	ctrl controlTransfer
}

// Poll drives one non-blocking step of the device: it reads exactly one
// event from the bus and reacts to it. Callers are expected to call
// Poll from a single thread of control in a tight loop; there is no
// internal locking.
func (d *Device) Poll() {
	d.poll()
}

// State returns the current chapter-9 enumeration state.
func (d *Device) State() State {
	return d.state
}

// Address returns the device's currently committed bus address (0 until
// SET_ADDRESS's status stage completes).
func (d *Device) Address() uint8 {
	return d.address
}

// Suspended reports whether the device is in the suspended state.
func (d *Device) Suspended() bool {
	return d.suspended
}

// RemoteWakeupEnabled reports whether the host has enabled the device
// remote-wakeup feature.
func (d *Device) RemoteWakeupEnabled() bool {
	return d.remoteWakeupEnabled
}

// Identity returns the device's immutable identity.
func (d *Device) Identity() Identity {
	return d.identity
}

// ClassCount returns the number of registered classes.
func (d *Device) ClassCount() int {
	return d.classes.Count()
}
