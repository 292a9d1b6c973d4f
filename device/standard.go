package device

// handleStandardOut implements the accepted host-to-device standard
// requests: feature selectors for device remote-wakeup and endpoint
// halt, SET_ADDRESS, SET_CONFIGURATION(1), and SET_INTERFACE(0). Everything
// else is rejected.
func (d *Device) handleStandardOut(sp *SetupPacket, data []byte) ControlResult {
	switch {
	case sp.Request == RequestClearFeature && sp.IsDeviceRecipient() && sp.Value == FeatureDeviceRemoteWakeup:
		d.remoteWakeupEnabled = false
		return ResultOk(0)

	case sp.Request == RequestClearFeature && sp.IsEndpointRecipient() && sp.Value == FeatureEndpointHalt:
		d.bus.SetStalled(sp.EndpointAddress(), false)
		return ResultOk(0)

	case sp.Request == RequestSetFeature && sp.IsDeviceRecipient() && sp.Value == FeatureDeviceRemoteWakeup:
		d.remoteWakeupEnabled = true
		return ResultOk(0)

	case sp.Request == RequestSetFeature && sp.IsEndpointRecipient() && sp.Value == FeatureEndpointHalt:
		d.bus.SetStalled(sp.EndpointAddress(), true)
		return ResultOk(0)

	case sp.Request == RequestSetAddress && sp.IsDeviceRecipient():
		if sp.Value == 0 || sp.Value > 127 {
			return ResultErr()
		}
		d.pendingAddress = uint8(sp.Value)
		d.pendingAddressSet = true
		return ResultOk(0)

	case sp.Request == RequestSetConfiguration && sp.IsDeviceRecipient():
		if sp.Value != 1 {
			return ResultErr()
		}
		d.state = StateConfigured
		return ResultOk(0)

	case sp.Request == RequestSetInterface && sp.IsInterfaceRecipient():
		if sp.Value != 0 {
			return ResultErr()
		}
		return ResultOk(0)

	default:
		return ResultErr()
	}
}

// handleStandardIn implements the accepted device-to-host standard
// requests: GET_STATUS for device/interface/endpoint recipients,
// GET_CONFIGURATION, GET_INTERFACE, and GET_DESCRIPTOR.
func (d *Device) handleStandardIn(sp *SetupPacket, buf []byte) ControlResult {
	switch {
	case sp.Request == RequestGetStatus && sp.IsDeviceRecipient():
		if len(buf) < 2 {
			return ResultErr()
		}
		var status uint8
		if d.identity.SelfPowered {
			status |= 0x01
		}
		if d.remoteWakeupEnabled {
			status |= 0x02
		}
		buf[0], buf[1] = status, 0
		return ResultOk(2)

	case sp.Request == RequestGetStatus && sp.IsInterfaceRecipient():
		if len(buf) < 2 {
			return ResultErr()
		}
		buf[0], buf[1] = 0, 0
		return ResultOk(2)

	case sp.Request == RequestGetStatus && sp.IsEndpointRecipient():
		if len(buf) < 2 {
			return ResultErr()
		}
		var status uint8
		if d.bus.IsStalled(sp.EndpointAddress()) {
			status = 0x01
		}
		buf[0], buf[1] = status, 0
		return ResultOk(2)

	case sp.Request == RequestGetConfiguration && sp.IsDeviceRecipient():
		if len(buf) < 1 {
			return ResultErr()
		}
		if d.state == StateConfigured {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		return ResultOk(1)

	case sp.Request == RequestGetInterface && sp.IsInterfaceRecipient():
		if len(buf) < 1 {
			return ResultErr()
		}
		buf[0] = 0
		return ResultOk(1)

	case sp.Request == RequestGetDescriptor && sp.IsDeviceRecipient():
		return d.getDescriptor(sp, buf)

	default:
		return ResultErr()
	}
}

// getDescriptor synthesizes DEVICE, CONFIGURATION, and STRING descriptors
// on demand; nothing is held pre-built.
func (d *Device) getDescriptor(sp *SetupPacket, buf []byte) ControlResult {
	switch sp.DescriptorType() {
	case DescriptorTypeDevice:
		dd := DeviceDescriptor{
			USBVersion:        0x0200,
			DeviceClass:       d.identity.DeviceClass,
			DeviceSubClass:    d.identity.DeviceSubClass,
			DeviceProtocol:    d.identity.DeviceProtocol,
			MaxPacketSize0:    d.identity.MaxPacketSize0,
			VendorID:          d.identity.VendorID,
			ProductID:         d.identity.ProductID,
			DeviceVersion:     d.identity.DeviceRelease,
			ManufacturerIndex: 1,
			ProductIndex:      2,
			SerialNumberIndex: 3,
			NumConfigurations: 1,
		}
		n := dd.MarshalTo(buf)
		if n == 0 {
			return ResultErr()
		}
		return ResultOk(n)

	case DescriptorTypeConfiguration:
		return d.getConfigurationDescriptor(buf)

	case DescriptorTypeString:
		return d.getStringDescriptor(sp.DescriptorIndex(), sp.Index, buf)

	default:
		return ResultErr()
	}
}

// getConfigurationDescriptor emits the single supported configuration:
// the configuration header followed by every class's interface/endpoint
// descriptors, with the total-length and interface-count fields backfilled
// once emission completes.
func (d *Device) getConfigurationDescriptor(buf []byte) ControlResult {
	w := NewDescriptorWriter(buf)

	hdr := ConfigurationDescriptor{
		ConfigurationValue: 1,
		ConfigurationIndex: 0,
		Attributes:         d.configurationAttributes(),
		MaxPower:           d.identity.MaxPowerUnits,
	}
	var hdrBuf [ConfigurationDescriptorSize]byte
	hdr.MarshalTo(hdrBuf[:])
	if _, err := w.Write(hdrBuf[:]); err != nil {
		return ResultErr()
	}

	if err := d.classes.emitConfigurationDescriptors(w); err != nil {
		return ResultErr()
	}

	if err := w.PatchUint16At(2, uint16(w.Len())); err != nil {
		return ResultErr()
	}
	if err := w.PatchByteAt(4, byte(w.NumInterfaces())); err != nil {
		return ResultErr()
	}
	return ResultOk(w.Len())
}

func (d *Device) configurationAttributes() uint8 {
	attr := uint8(ConfigAttrBusPowered)
	if d.identity.SelfPowered {
		attr |= ConfigAttrSelfPowered
	}
	if d.identity.RemoteWakeupCapable {
		attr |= ConfigAttrRemoteWakeup
	}
	return attr
}

// getStringDescriptor resolves the language, manufacturer, product, and
// serial-number string descriptors directly; indices beyond the reserved
// identity slots are offered to classes in registration order.
func (d *Device) getStringDescriptor(index uint8, langID uint16, buf []byte) ControlResult {
	switch index {
	case 0:
		n := LanguageDescriptorTo(buf, LangIDUSEnglish)
		if n == 0 {
			return ResultErr()
		}
		return ResultOk(n)
	case 1:
		n := StringDescriptorTo(buf, d.identity.Manufacturer)
		if n == 0 {
			return ResultErr()
		}
		return ResultOk(n)
	case 2:
		n := StringDescriptorTo(buf, d.identity.Product)
		if n == 0 {
			return ResultErr()
		}
		return ResultOk(n)
	case 3:
		n := StringDescriptorTo(buf, d.identity.SerialNumber)
		if n == 0 {
			return ResultErr()
		}
		return ResultOk(n)
	default:
		n, ok := d.classes.dispatchGetString(index, langID, buf)
		if !ok {
			return ResultErr()
		}
		return ResultOk(n)
	}
}
