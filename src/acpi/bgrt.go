package acpi

import "encoding/binary"

// BGRT is the Boot Graphics Resource Table: the boot splash image the
// firmware displayed, if any. Platform init recognizes it but doesn't
// act on it (spec.md §4.G step 3 lists it among the optional tables).
type BGRT struct {
	Header      SDTHeader
	Version     uint16
	Status      uint8
	ImageType   uint8
	ImageAddr   uint64
	ImageOffX   uint32
	ImageOffY   uint32
}

// ParseBGRT decodes the BGRT.
func ParseBGRT(data []byte) (BGRT, error) {
	header, err := parseHeader(data)
	if err != nil {
		return BGRT{}, err
	}
	if header.SignatureString() != "BGRT" {
		return BGRT{}, BadSignature{Want: "BGRT", Got: header.SignatureString()}
	}
	body := data[sdtHeaderSize:header.Length]
	if len(body) < 20 {
		return BGRT{}, Truncated{Table: "BGRT"}
	}
	return BGRT{
		Header:    header,
		Version:   binary.LittleEndian.Uint16(body[0:2]),
		Status:    body[2],
		ImageType: body[3],
		ImageAddr: binary.LittleEndian.Uint64(body[4:12]),
		ImageOffX: binary.LittleEndian.Uint32(body[12:16]),
		ImageOffY: binary.LittleEndian.Uint32(body[16:20]),
	}, nil
}
