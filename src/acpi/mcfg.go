package acpi

import "encoding/binary"

const mcfgEntrySize = 16

// MCFGEntry describes one PCI Express ECAM (enhanced configuration
// access mechanism) region: a flat MMIO window mapping every device's
// configuration space for the bus range [StartBus, EndBus] on one PCI
// segment group.
type MCFGEntry struct {
	BaseAddress     uint64
	SegmentGroup    uint16
	StartBus        uint8
	EndBus          uint8
}

// ParseMCFG decodes the MCFG table's ECAM region array.
func ParseMCFG(data []byte) (SDTHeader, []MCFGEntry, error) {
	header, err := parseHeader(data)
	if err != nil {
		return SDTHeader{}, nil, err
	}
	if header.SignatureString() != "MCFG" {
		return SDTHeader{}, nil, BadSignature{Want: "MCFG", Got: header.SignatureString()}
	}
	const reservedSize = 8
	body := data[sdtHeaderSize:header.Length]
	if len(body) < reservedSize {
		return header, nil, Truncated{Table: "MCFG"}
	}
	body = body[reservedSize:]
	if len(body)%mcfgEntrySize != 0 {
		return header, nil, InvalidOffset{Table: "MCFG"}
	}
	entries := make([]MCFGEntry, len(body)/mcfgEntrySize)
	for i := range entries {
		e := body[i*mcfgEntrySize:]
		entries[i] = MCFGEntry{
			BaseAddress:  binary.LittleEndian.Uint64(e[0:8]),
			SegmentGroup: binary.LittleEndian.Uint16(e[8:10]),
			StartBus:     e[10],
			EndBus:       e[11],
		}
	}
	return header, entries, nil
}
