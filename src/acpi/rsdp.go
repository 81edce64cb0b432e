package acpi

import "encoding/binary"

const (
	rsdpV1Size = 20
	rsdpV2Size = 36

	rsdpSignature = "RSD PTR "
)

// RSDP is the Root System Description Pointer, the boot-info-supplied
// entry point into the ACPI table graph (spec.md §4.G step 1). Only
// ACPI 2.0+ (64-bit, XSDT-bearing) revisions are recognized, matching
// every boot protocol Hadron supports.
type RSDP struct {
	OEMID        [6]byte
	Revision     uint8
	RSDTAddress  uint32
	Length       uint32
	XSDTAddress  uint64
	ExtChecksum  uint8
}

// OEMIDString returns the sanitized, NUL-trimmed OEM ID.
func (r RSDP) OEMIDString() string { return sanitizeFixed(trimNUL(r.OEMID[:])) }

// ParseRSDP validates and decodes the Root System Description Pointer
// structure found at data.
func ParseRSDP(data []byte) (RSDP, error) {
	if len(data) < rsdpV1Size {
		return RSDP{}, Truncated{Table: "RSDP"}
	}
	if string(data[0:8]) != rsdpSignature {
		return RSDP{}, BadSignature{Want: rsdpSignature, Got: string(data[0:8])}
	}
	if !checksumOK(data[:rsdpV1Size]) {
		return RSDP{}, BadChecksum{Table: "RSDP"}
	}

	var r RSDP
	copy(r.OEMID[:], data[9:15])
	r.Revision = data[15]
	r.RSDTAddress = binary.LittleEndian.Uint32(data[16:20])

	if r.Revision < 2 {
		return RSDP{}, UnsupportedVersion{Revision: r.Revision}
	}
	if len(data) < rsdpV2Size {
		return RSDP{}, Truncated{Table: "RSDP"}
	}
	r.Length = binary.LittleEndian.Uint32(data[20:24])
	r.XSDTAddress = binary.LittleEndian.Uint64(data[24:32])
	r.ExtChecksum = data[32]
	if int(r.Length) > len(data) || !checksumOK(data[:r.Length]) {
		return RSDP{}, BadChecksum{Table: "RSDP"}
	}
	return r, nil
}
