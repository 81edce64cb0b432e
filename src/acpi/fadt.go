package acpi

import "encoding/binary"

// FADT is the Fixed ACPI Description Table. Only the fields platform
// init actually consults are decoded: the DSDT pointer (preferring the
// 64-bit XDsdt when present, since every Hadron boot protocol is
// 64-bit), the SCI interrupt and SMI command port, the PM timer block,
// and the flags platform init or a future ACPI power-management layer
// would need. The many legacy power-state fields ACPI also defines
// (P_LVL2_LAT, duty cycle, GPE blocks, ...) aren't consumed by anything
// in scope and aren't decoded.
type FADT struct {
	Header        SDTHeader
	FirmwareCtrl  uint32
	Dsdt          uint32
	SCIInterrupt  uint16
	SMICommand    uint32
	PMTimerBlock  uint32
	PMTimerLength uint8
	Century       uint8
	BootArchFlags uint16
	Flags         uint32
	XFirmwareCtrl uint64
	XDsdt         uint64
}

// DSDTAddress returns the physical address of the DSDT, preferring the
// 64-bit extended pointer X_DSDT whenever it is nonzero.
func (f FADT) DSDTAddress() uint64 {
	if f.XDsdt != 0 {
		return f.XDsdt
	}
	return uint64(f.Dsdt)
}

const (
	fadtMinSize  = 80  // body-relative: through the legacy Flags field, every ACPI 1.0+ FADT has at least this
	fadtXDsdtEnd = 112 // body-relative: through X_DSDT, present on ACPI 2.0+
)

// ParseFADT decodes the FADT.
func ParseFADT(data []byte) (FADT, error) {
	header, err := parseHeader(data)
	if err != nil {
		return FADT{}, err
	}
	if header.SignatureString() != "FACP" {
		return FADT{}, BadSignature{Want: "FACP", Got: header.SignatureString()}
	}
	body := data[sdtHeaderSize:header.Length]
	if len(body) < fadtMinSize {
		return FADT{}, Truncated{Table: "FADT"}
	}

	f := FADT{
		Header:        header,
		FirmwareCtrl:  binary.LittleEndian.Uint32(body[0:4]),
		Dsdt:          binary.LittleEndian.Uint32(body[4:8]),
		SCIInterrupt:  binary.LittleEndian.Uint16(body[10:12]),
		SMICommand:    binary.LittleEndian.Uint32(body[12:16]),
		PMTimerBlock:  binary.LittleEndian.Uint32(body[40:44]),
		PMTimerLength: body[55],
		Century:       body[72],
		BootArchFlags: binary.LittleEndian.Uint16(body[73:75]),
		Flags:         binary.LittleEndian.Uint32(body[76:80]),
	}
	if len(body) >= fadtXDsdtEnd {
		f.XFirmwareCtrl = binary.LittleEndian.Uint64(body[96:104])
		f.XDsdt = binary.LittleEndian.Uint64(body[104:112])
	}
	return f, nil
}
