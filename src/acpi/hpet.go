package acpi

import "encoding/binary"

// GenericAddress is the ACPI Generic Address Structure: an
// address-space-tagged MMIO or port-I/O location, used by HPET and
// FADT to point at hardware registers.
type GenericAddress struct {
	AddressSpaceID uint8
	RegisterWidth  uint8
	RegisterOffset uint8
	AccessSize     uint8
	Address        uint64
}

const (
	AddressSpaceSystemMemory uint8 = 0
	AddressSpaceSystemIO     uint8 = 1
)

func parseGenericAddress(data []byte) GenericAddress {
	return GenericAddress{
		AddressSpaceID: data[0],
		RegisterWidth:  data[1],
		RegisterOffset: data[2],
		AccessSize:     data[3],
		Address:        binary.LittleEndian.Uint64(data[4:12]),
	}
}

// HPET is the High Precision Event Timer description table: a monotonic
// counter plus comparators, registered as the boot-time monotonic clock
// when present (spec.md §4.G step 9).
type HPET struct {
	Header          SDTHeader
	EventTimerID    uint32
	BaseAddress     GenericAddress
	HPETNumber      uint8
	MinimumTick     uint16
	PageProtection  uint8
}

// ParseHPET decodes the HPET table.
func ParseHPET(data []byte) (HPET, error) {
	header, err := parseHeader(data)
	if err != nil {
		return HPET{}, err
	}
	if header.SignatureString() != "HPET" {
		return HPET{}, BadSignature{Want: "HPET", Got: header.SignatureString()}
	}
	body := data[sdtHeaderSize:header.Length]
	if len(body) < 4+12+1+2+1 {
		return HPET{}, Truncated{Table: "HPET"}
	}
	return HPET{
		Header:         header,
		EventTimerID:   binary.LittleEndian.Uint32(body[0:4]),
		BaseAddress:    parseGenericAddress(body[4:16]),
		HPETNumber:     body[16],
		MinimumTick:    binary.LittleEndian.Uint16(body[17:19]),
		PageProtection: body[19],
	}, nil
}
