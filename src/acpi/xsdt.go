package acpi

import "encoding/binary"

// ParseXSDT parses an XSDT: a header followed by a packed array of
// 64-bit physical pointers to every other top-level table.
func ParseXSDT(data []byte) (SDTHeader, []uint64, error) {
	header, err := parseHeader(data)
	if err != nil {
		return SDTHeader{}, nil, err
	}
	if header.SignatureString() != "XSDT" {
		return SDTHeader{}, nil, BadSignature{Want: "XSDT", Got: header.SignatureString()}
	}
	body := data[sdtHeaderSize:header.Length]
	if len(body)%8 != 0 {
		return header, nil, InvalidOffset{Table: "XSDT"}
	}
	entries := make([]uint64, len(body)/8)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	return header, entries, nil
}

// ParseRSDT parses the legacy 32-bit-pointer RSDT. ParseRSDP accepts only
// revision 2+ RSDPs, so this is reached as the fallback when the XSDT
// cannot be read or parsed, not for ACPI 1.0-only firmware. Pointers are widened to uint64 so
// callers have one entry type regardless of which root table was found.
func ParseRSDT(data []byte) (SDTHeader, []uint64, error) {
	header, err := parseHeader(data)
	if err != nil {
		return SDTHeader{}, nil, err
	}
	if header.SignatureString() != "RSDT" {
		return SDTHeader{}, nil, BadSignature{Want: "RSDT", Got: header.SignatureString()}
	}
	body := data[sdtHeaderSize:header.Length]
	if len(body)%4 != 0 {
		return header, nil, InvalidOffset{Table: "RSDT"}
	}
	entries := make([]uint64, len(body)/4)
	for i := range entries {
		entries[i] = uint64(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return header, entries, nil
}
