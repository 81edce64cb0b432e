package acpi

import "encoding/binary"

const sratHeaderExtra = 12 // reserved(4) + reserved(8), per the ACPI spec's SRAT header padding

// SRATEntryType identifies the kind of a typed SRAT entry.
type SRATEntryType uint8

const (
	SRATLocalAPICAffinity  SRATEntryType = 0
	SRATMemoryAffinity     SRATEntryType = 1
	SRATLocalX2APICAffinity SRATEntryType = 2
)

// SRAT is the System Resource Affinity Table: NUMA locality hints
// relating CPUs and memory ranges to proximity domains. Walked with the
// same typed-entry-stream idiom as MADT.
type SRAT struct {
	Header  SDTHeader
	entries []byte
}

// ParseSRAT decodes the SRAT header and positions the entry stream for
// Entries to walk.
func ParseSRAT(data []byte) (*SRAT, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if header.SignatureString() != "SRAT" {
		return nil, BadSignature{Want: "SRAT", Got: header.SignatureString()}
	}
	if int(header.Length) < sdtHeaderSize+sratHeaderExtra {
		return nil, Truncated{Table: "SRAT"}
	}
	return &SRAT{Header: header, entries: data[sdtHeaderSize+sratHeaderExtra : header.Length]}, nil
}

// RawSRATEntry is an undecoded SRAT entry.
type RawSRATEntry struct {
	Type    SRATEntryType
	Payload []byte
}

// Entries walks the SRAT's typed entry stream.
func (s *SRAT) Entries(visit func(RawSRATEntry) error) error {
	data := s.entries
	pos := 0
	for pos < len(data) {
		if pos+2 > len(data) {
			return InvalidOffset{Table: "SRAT"}
		}
		typ := SRATEntryType(data[pos])
		length := int(data[pos+1])
		if length < 2 || pos+length > len(data) {
			return InvalidOffset{Table: "SRAT"}
		}
		if err := visit(RawSRATEntry{Type: typ, Payload: data[pos+2 : pos+length]}); err != nil {
			return err
		}
		pos += length
	}
	return nil
}

// MemoryAffinityEntry is SRAT entry type 1: a physical memory range's
// NUMA proximity domain.
type MemoryAffinityEntry struct {
	ProximityDomain uint32
	BaseAddress     uint64
	Length          uint64
	Enabled         bool
}

// MemoryAffinity decodes a type-1 entry. Layout (payload, after the
// 2-byte type/length header): domain(4) reserved(2) base-lo(4)
// base-hi(4) len-lo(4) len-hi(4) reserved(4) flags(4) reserved(8).
func (e RawSRATEntry) MemoryAffinity() (MemoryAffinityEntry, error) {
	if len(e.Payload) < 30 {
		return MemoryAffinityEntry{}, Truncated{Table: "SRAT memory affinity"}
	}
	baseLo := binary.LittleEndian.Uint32(e.Payload[6:10])
	baseHi := binary.LittleEndian.Uint32(e.Payload[10:14])
	lenLo := binary.LittleEndian.Uint32(e.Payload[14:18])
	lenHi := binary.LittleEndian.Uint32(e.Payload[18:22])
	flags := binary.LittleEndian.Uint32(e.Payload[26:30])
	return MemoryAffinityEntry{
		ProximityDomain: binary.LittleEndian.Uint32(e.Payload[0:4]),
		BaseAddress:     uint64(baseLo) | uint64(baseHi)<<32,
		Length:          uint64(lenLo) | uint64(lenHi)<<32,
		Enabled:         flags&1 != 0,
	}, nil
}
