package device

import (
	"github.com/nimblebus/usbcore/bus"
	"github.com/nimblebus/usbcore/pkg"
)

// controlStage is a state of the control-transfer engine.
type controlStage uint8

const (
	stageIdle controlStage = iota
	stageDataIn
	stageDataInZlp
	stageDataInLast
	stageStatusOut
	stageDataOut
	stageStatusIn
	stageError
)

// controlTransfer is the record of whatever control transfer is currently
// in flight on endpoint zero. It exists in full even when Idle; the
// zero value is a valid Idle record.
type controlTransfer struct {
	stage controlStage
	setup SetupPacket
	buf   [ControlBufferSize]byte

	writeIndex int  // DataOut: bytes received so far
	respLength int  // DataIn: total response bytes deposited by a handler
	sentIndex  int  // DataIn: bytes of the response already transmitted
	needsZLP   bool // DataIn: whether a terminating ZLP follows the data

	pendingWrite     bool
	pendingStart     int
	pendingLen       int
	pendingNextStage controlStage
}

func ep0InAddr() uint8  { return bus.EndpointAddress(bus.DirectionIn, 0) }
func ep0OutAddr() uint8 { return bus.EndpointAddress(bus.DirectionOut, 0) }

// poll advances the control engine by one non-blocking step, reacting to
// whatever the bus reports. It never blocks.
func (d *Device) poll() {
	ev := d.bus.Poll()
	switch ev.Kind {
	case bus.EventReset:
		d.onReset()
	case bus.EventSuspend:
		d.bus.Suspend()
		d.suspended = true
	case bus.EventResume:
		d.bus.Resume()
		d.suspended = false
	case bus.EventData:
		if ev.HasSetup {
			d.onSetup(ev.Setup)
		}
		d.onOutBitmap(ev.OutBitmap)
		d.onInCompleteBitmap(ev.InCompleteBitmap)
	}
	d.retryPendingWrite()
}

// onReset implements the only cancellation mechanism: it unconditionally
// resets the control record to Idle, clears the pending address, and
// notifies every class exactly once.
func (d *Device) onReset() {
	d.ctrl = controlTransfer{}
	d.pendingAddressSet = false
	d.address = 0
	d.state = StateDefault
	d.suspended = false
	d.bus.Reset()
	d.classes.broadcastReset()
}

// onSetup re-enters Idle and processes a freshly arrived SETUP packet,
// regardless of whatever stage the engine was previously in — the host may
// restart a transfer at any time.
func (d *Device) onSetup(raw [8]byte) {
	d.bus.SetStalled(ep0InAddr(), false)
	d.bus.SetStalled(ep0OutAddr(), false)

	var sp SetupPacket
	if err := ParseSetupPacket(raw[:], &sp); err != nil {
		d.ctrl = controlTransfer{}
		d.enterError()
		return
	}
	d.ctrl = controlTransfer{setup: sp, stage: stageIdle}

	if sp.IsHostToDevice() {
		if sp.Length == 0 {
			result := d.dispatchOut(&sp, nil)
			if result.Outcome == Ok {
				d.beginStatusIn()
			} else {
				d.enterError()
			}
			return
		}
		if int(sp.Length) > ControlBufferSize {
			d.enterError()
			return
		}
		d.ctrl.stage = stageDataOut
		return
	}

	result := d.dispatchIn(&sp, d.ctrl.buf[:])
	if result.Outcome != Ok {
		d.enterError()
		return
	}
	respLength := result.Length
	if respLength > int(sp.Length) {
		respLength = int(sp.Length)
	}
	if respLength < 0 {
		respLength = 0
	}
	d.startDataIn(respLength)
}

// onOutBitmap routes endpoint-zero OUT activity into the control engine
// and broadcasts non-zero endpoint OUT activity to classes. SETUP handling
// has already run by the time this is called, preserving setup-before-OUT
// ordering within a single poll.
func (d *Device) onOutBitmap(bitmap uint16) {
	if bitmap&1 != 0 {
		d.onEP0Out()
	}
	for i := uint8(1); i < MaxEndpointIndex; i++ {
		if bitmap&(1<<i) != 0 {
			d.classes.broadcastEndpointOut(bus.EndpointAddress(bus.DirectionOut, i))
		}
	}
}

// onInCompleteBitmap routes endpoint-zero IN-complete activity into the
// control engine and broadcasts non-zero endpoint IN-complete activity to
// classes, after OUT handling within the same poll.
func (d *Device) onInCompleteBitmap(bitmap uint16) {
	if bitmap&1 != 0 {
		d.onEP0InComplete()
	}
	for i := uint8(1); i < MaxEndpointIndex; i++ {
		if bitmap&(1<<i) != 0 {
			d.classes.broadcastEndpointInComplete(bus.EndpointAddress(bus.DirectionIn, i))
		}
	}
}

func (d *Device) onEP0Out() {
	switch d.ctrl.stage {
	case stageDataOut:
		want := int(d.ctrl.setup.Length) - d.ctrl.writeIndex
		n, err := d.bus.Read(ep0OutAddr(), d.ctrl.buf[d.ctrl.writeIndex:d.ctrl.writeIndex+want])
		if err == pkg.ErrNoData {
			return
		}
		if err != nil {
			d.enterError()
			return
		}
		d.ctrl.writeIndex += n
		if d.ctrl.writeIndex < int(d.ctrl.setup.Length) {
			return
		}
		result := d.dispatchOut(&d.ctrl.setup, d.ctrl.buf[:d.ctrl.writeIndex])
		if result.Outcome == Ok {
			d.beginStatusIn()
		} else {
			d.enterError()
		}
	case stageStatusOut:
		_, err := d.bus.Read(ep0OutAddr(), d.ctrl.buf[:0])
		if err == pkg.ErrNoData {
			return
		}
		if err != nil {
			d.enterError()
			return
		}
		d.completeTransfer()
	}
}

func (d *Device) onEP0InComplete() {
	if d.ctrl.pendingWrite {
		return
	}
	switch d.ctrl.stage {
	case stageStatusIn:
		d.completeTransfer()
	case stageDataIn:
		d.sendNextDataChunk()
	case stageDataInZlp:
		d.writeChunk(0, 0, stageDataInLast)
	case stageDataInLast:
		d.beginStatusOut()
	}
}

// startDataIn begins the DataIn family of states after a handler has
// deposited respLength bytes into the control buffer.
func (d *Device) startDataIn(respLength int) {
	d.ctrl.respLength = respLength
	d.ctrl.sentIndex = 0
	m := int(d.maxPacketSize0)
	d.ctrl.needsZLP = respLength > 0 && respLength%m == 0
	d.sendNextDataChunk()
}

func (d *Device) sendNextDataChunk() {
	m := int(d.maxPacketSize0)
	remaining := d.ctrl.respLength - d.ctrl.sentIndex
	chunk := remaining
	if chunk > m {
		chunk = m
	}
	remainingAfter := remaining - chunk

	var next controlStage
	switch {
	case remainingAfter > 0:
		next = stageDataIn
	case chunk == m && d.ctrl.needsZLP:
		next = stageDataInZlp
	default:
		next = stageDataInLast
	}
	d.writeChunk(d.ctrl.sentIndex, chunk, next)
}

func (d *Device) beginStatusIn() {
	d.writeChunk(0, 0, stageStatusIn)
}

func (d *Device) beginStatusOut() {
	d.ctrl.stage = stageStatusOut
	d.bus.SetStalled(ep0OutAddr(), false)
}

// completeTransfer returns the engine to Idle, committing a pending
// SET_ADDRESS if one is latched.
func (d *Device) completeTransfer() {
	if d.pendingAddressSet {
		d.bus.SetDeviceAddress(d.pendingAddress)
		d.address = d.pendingAddress
		d.pendingAddressSet = false
		if d.pendingAddress != 0 && d.state == StateDefault {
			d.state = StateAddressed
		}
	}
	d.ctrl.stage = stageIdle
}

// enterError transitions to Error and stalls both endpoint-zero
// directions; the stall remains until the next SETUP.
func (d *Device) enterError() {
	d.ctrl.stage = stageError
	d.ctrl.pendingWrite = false
	d.bus.SetStalled(ep0InAddr(), true)
	d.bus.SetStalled(ep0OutAddr(), true)
}

// writeChunk attempts to transmit buf[start:start+length] on endpoint
// zero's IN side. On success the engine advances to next; on pkg.ErrBusy
// the attempt is remembered for retryPendingWrite to retry on a later
// poll without losing the destination stage.
func (d *Device) writeChunk(start, length int, next controlStage) {
	n, err := d.bus.Write(ep0InAddr(), d.ctrl.buf[start:start+length])
	if err == pkg.ErrBusy {
		d.ctrl.pendingWrite = true
		d.ctrl.pendingStart = start
		d.ctrl.pendingLen = length
		d.ctrl.pendingNextStage = next
		return
	}
	if err != nil {
		d.enterError()
		return
	}
	d.ctrl.sentIndex += n
	d.ctrl.stage = next
	d.ctrl.pendingWrite = false
}

func (d *Device) retryPendingWrite() {
	if !d.ctrl.pendingWrite {
		return
	}
	start, length, next := d.ctrl.pendingStart, d.ctrl.pendingLen, d.ctrl.pendingNextStage
	d.ctrl.pendingWrite = false
	d.writeChunk(start, length, next)
}

// dispatchOut implements the handler invocation order for a host-to-device
// request: classes first, in registration order; the standard
// handler if every class ignored it and the request is Standard; a stall
// otherwise.
func (d *Device) dispatchOut(sp *SetupPacket, data []byte) ControlResult {
	if r := d.classes.dispatchControlOut(sp, data); r.Outcome != Ignore {
		return r
	}
	if sp.IsStandard() {
		return d.handleStandardOut(sp, data)
	}
	return ResultErr()
}

// dispatchIn mirrors dispatchOut for device-to-host requests.
func (d *Device) dispatchIn(sp *SetupPacket, buf []byte) ControlResult {
	if r := d.classes.dispatchControlIn(sp, buf); r.Outcome != Ignore {
		return r
	}
	if sp.IsStandard() {
		return d.handleStandardIn(sp, buf)
	}
	return ResultErr()
}
