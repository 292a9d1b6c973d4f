package device

import "testing"

type descriptorStubClass struct {
	BaseClassDriver
	ifaceNum  uint8
	stringIdx uint8
	stringVal string
}

func (s *descriptorStubClass) GetConfigurationDescriptors(w *DescriptorWriter) error {
	iface := InterfaceDescriptor{
		InterfaceNumber: s.ifaceNum,
		NumEndpoints:    1,
		InterfaceClass:  ClassVendor,
	}
	var ifaceBuf [InterfaceDescriptorSize]byte
	iface.MarshalTo(ifaceBuf[:])
	if _, err := w.Write(ifaceBuf[:]); err != nil {
		return err
	}
	ep := EndpointDescriptor{
		EndpointAddress: 0x81,
		Attributes:      0x02, // bulk
		MaxPacketSize:   64,
	}
	var epBuf [EndpointDescriptorSize]byte
	ep.MarshalTo(epBuf[:])
	_, err := w.Write(epBuf[:])
	return err
}

func (s *descriptorStubClass) GetString(index uint8, langID uint16, buf []byte) (int, bool) {
	if index != s.stringIdx {
		return 0, false
	}
	return StringDescriptorTo(buf, s.stringVal), true
}

func TestHandleStandardOut_SetConfigurationRejectsUnknownValue(t *testing.T) {
	dev, _ := newTestDevice(t, testIdentity())
	var sp SetupPacket
	GetSetConfigurationSetup(&sp, 2)
	if r := dev.handleStandardOut(&sp, nil); r.Outcome != Err {
		t.Errorf("SET_CONFIGURATION(2) outcome = %v, want Err", r.Outcome)
	}
}

func TestHandleStandardOut_SetInterfaceRejectsNonZeroAlternate(t *testing.T) {
	dev, _ := newTestDevice(t, testIdentity())
	var sp SetupPacket
	GetSetInterfaceSetup(&sp, 0, 1)
	if r := dev.handleStandardOut(&sp, nil); r.Outcome != Err {
		t.Errorf("SET_INTERFACE with alternate=1 outcome = %v, want Err", r.Outcome)
	}
}

func TestHandleStandardOut_UnrecognizedCombinationRejected(t *testing.T) {
	dev, _ := newTestDevice(t, testIdentity())
	sp := SetupPacket{
		RequestType: RequestDirectionHostToDevice | RequestTypeStandard | RequestRecipientOther,
		Request:     RequestSynchFrame,
	}
	if r := dev.handleStandardOut(&sp, nil); r.Outcome != Err {
		t.Errorf("outcome = %v, want Err", r.Outcome)
	}
}

func TestHandleStandardIn_GetStatusDevice(t *testing.T) {
	identity := testIdentity()
	identity.SelfPowered = true
	dev, _ := newTestDevice(t, identity)

	var sp SetupPacket
	GetStatusSetup(&sp, RequestRecipientDevice, 0)
	var buf [2]byte
	r := dev.handleStandardIn(&sp, buf[:])
	if r.Outcome != Ok || r.Length != 2 {
		t.Fatalf("result = %+v, want Ok/2", r)
	}
	if buf[0]&0x01 == 0 {
		t.Error("self-powered bit not set")
	}
	if buf[0]&0x02 != 0 {
		t.Error("remote-wakeup bit should be clear until enabled")
	}
}

func TestHandleStandardIn_GetStatusEndpointReflectsStall(t *testing.T) {
	dev, fb := newTestDevice(t, testIdentity())
	const addr = 0x83
	fb.SetStalled(addr, true)

	var sp SetupPacket
	GetStatusSetup(&sp, RequestRecipientEndpoint, uint16(addr))
	var buf [2]byte
	r := dev.handleStandardIn(&sp, buf[:])
	if r.Outcome != Ok || buf[0]&0x01 == 0 {
		t.Errorf("expected halt bit set, got %+v buf=%v", r, buf)
	}
}

func TestGetDescriptor_Device(t *testing.T) {
	identity := testIdentity()
	identity.DeviceClass = ClassVendor
	dev, _ := newTestDevice(t, identity)

	var sp SetupPacket
	GetDescriptorSetup(&sp, DescriptorTypeDevice, 0, 64)
	buf := make([]byte, 64)
	r := dev.getDescriptor(&sp, buf)
	if r.Outcome != Ok || r.Length != DeviceDescriptorSize {
		t.Fatalf("result = %+v, want Ok/%d", r, DeviceDescriptorSize)
	}

	var dd DeviceDescriptor
	if err := ParseDeviceDescriptor(buf[:r.Length], &dd); err != nil {
		t.Fatalf("ParseDeviceDescriptor() error = %v", err)
	}
	if dd.DeviceClass != ClassVendor {
		t.Errorf("DeviceClass = %#x, want %#x", dd.DeviceClass, ClassVendor)
	}
	if dd.ManufacturerIndex != 1 || dd.ProductIndex != 2 || dd.SerialNumberIndex != 3 {
		t.Errorf("string indices = %d/%d/%d, want 1/2/3",
			dd.ManufacturerIndex, dd.ProductIndex, dd.SerialNumberIndex)
	}
}

func TestGetConfigurationDescriptor_BackfillsTotalLengthAndInterfaceCount(t *testing.T) {
	stub := &descriptorStubClass{ifaceNum: 0}
	dev, _ := newTestDevice(t, testIdentity(), stub)

	buf := make([]byte, 64)
	r := dev.getConfigurationDescriptor(buf)
	if r.Outcome != Ok {
		t.Fatalf("outcome = %v, want Ok", r.Outcome)
	}
	wantLen := ConfigurationDescriptorSize + InterfaceDescriptorSize + EndpointDescriptorSize
	if r.Length != wantLen {
		t.Fatalf("Length = %d, want %d", r.Length, wantLen)
	}

	var cfg ConfigurationDescriptor
	if err := ParseConfigurationDescriptor(buf[:ConfigurationDescriptorSize], &cfg); err != nil {
		t.Fatalf("ParseConfigurationDescriptor() error = %v", err)
	}
	if int(cfg.TotalLength) != wantLen {
		t.Errorf("TotalLength = %d, want %d", cfg.TotalLength, wantLen)
	}
	if cfg.NumInterfaces != 1 {
		t.Errorf("NumInterfaces = %d, want 1", cfg.NumInterfaces)
	}
}

func TestGetConfigurationDescriptor_AttributesReflectIdentity(t *testing.T) {
	identity := testIdentity()
	identity.SelfPowered = true
	identity.RemoteWakeupCapable = true
	dev, _ := newTestDevice(t, identity)

	buf := make([]byte, 64)
	dev.getConfigurationDescriptor(buf)

	var cfg ConfigurationDescriptor
	if err := ParseConfigurationDescriptor(buf[:ConfigurationDescriptorSize], &cfg); err != nil {
		t.Fatalf("ParseConfigurationDescriptor() error = %v", err)
	}
	want := uint8(ConfigAttrBusPowered | ConfigAttrSelfPowered | ConfigAttrRemoteWakeup)
	if cfg.Attributes != want {
		t.Errorf("Attributes = %#x, want %#x", cfg.Attributes, want)
	}
}

func TestGetStringDescriptor_IdentityAndLanguage(t *testing.T) {
	identity := testIdentity()
	dev, _ := newTestDevice(t, identity)
	buf := make([]byte, 64)

	if r := dev.getStringDescriptor(0, 0, buf); r.Outcome != Ok {
		t.Errorf("language descriptor outcome = %v, want Ok", r.Outcome)
	}
	if r := dev.getStringDescriptor(1, LangIDUSEnglish, buf); r.Outcome != Ok {
		t.Errorf("manufacturer descriptor outcome = %v, want Ok", r.Outcome)
	}
	if r := dev.getStringDescriptor(2, LangIDUSEnglish, buf); r.Outcome != Ok {
		t.Errorf("product descriptor outcome = %v, want Ok", r.Outcome)
	}
	if r := dev.getStringDescriptor(3, LangIDUSEnglish, buf); r.Outcome != Ok {
		t.Errorf("serial descriptor outcome = %v, want Ok", r.Outcome)
	}
}

func TestGetStringDescriptor_FallsThroughToClass(t *testing.T) {
	stub := &descriptorStubClass{stringIdx: 4, stringVal: "vendor string"}
	dev, _ := newTestDevice(t, testIdentity(), stub)
	buf := make([]byte, 64)

	r := dev.getStringDescriptor(4, LangIDUSEnglish, buf)
	if r.Outcome != Ok {
		t.Fatalf("outcome = %v, want Ok", r.Outcome)
	}

	r2 := dev.getStringDescriptor(5, LangIDUSEnglish, buf)
	if r2.Outcome != Err {
		t.Errorf("unrecognized string index outcome = %v, want Err", r2.Outcome)
	}
}
