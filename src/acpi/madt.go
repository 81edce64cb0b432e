package acpi

import "encoding/binary"

const madtHeaderExtra = 8 // local_apic_address u32 + flags u32, after the SDT header

// MADTEntryType identifies the kind of a typed MADT entry.
type MADTEntryType uint8

const (
	MADTLocalAPIC              MADTEntryType = 0
	MADTIOAPIC                 MADTEntryType = 1
	MADTInterruptSourceOverride MADTEntryType = 2
	MADTNMISource              MADTEntryType = 3
	MADTLocalAPICNMI           MADTEntryType = 4
	MADTLocalAPICAddrOverride  MADTEntryType = 5
	MADTLocalX2APIC            MADTEntryType = 9
)

// MADT is the Multiple APIC Description Table header plus its local
// APIC address and platform flags (spec.md §6). The typed entry stream
// following it is walked incrementally via Entries rather than
// collected eagerly, mirroring the aml package's single-pass walker.
type MADT struct {
	Header            SDTHeader
	LocalAPICAddress  uint32
	Flags             uint32
	entries           []byte
}

// LocalAPICEntry is MADT entry type 0: a processor's Local APIC.
type LocalAPICEntry struct {
	ProcessorID uint8
	APICID      uint8
	Flags       uint32 // bit 0: enabled, bit 1: online-capable
}

// Enabled reports whether the CPU described by this entry should be
// brought up.
func (e LocalAPICEntry) Enabled() bool { return e.Flags&1 != 0 }

// IOAPICEntry is MADT entry type 1: an I/O APIC and the GSI range it
// covers starting at GSIBase.
type IOAPICEntry struct {
	IOAPICID  uint8
	Address   uint32
	GSIBase   uint32
}

// InterruptSourceOverrideEntry is MADT entry type 2: a legacy ISA
// interrupt remapped to a different GSI, polarity, or trigger mode than
// the identity default.
type InterruptSourceOverrideEntry struct {
	Bus    uint8
	Source uint8
	GSI    uint32
	Flags  uint16 // bits 0-1: polarity, bits 2-3: trigger mode
}

// Polarity values decoded from InterruptSourceOverrideEntry.Flags bits 0-1.
type Polarity uint8

const (
	PolarityBusDefault Polarity = 0
	PolarityActiveHigh Polarity = 1
	PolarityActiveLow  Polarity = 3
)

// Polarity decodes the override's polarity field.
func (e InterruptSourceOverrideEntry) Polarity() Polarity { return Polarity(e.Flags & 0x3) }

// TriggerMode values decoded from InterruptSourceOverrideEntry.Flags bits 2-3.
type TriggerMode uint8

const (
	TriggerBusDefault TriggerMode = 0
	TriggerEdge       TriggerMode = 1
	TriggerLevel      TriggerMode = 3
)

// Trigger decodes the override's trigger-mode field.
func (e InterruptSourceOverrideEntry) Trigger() TriggerMode { return TriggerMode((e.Flags >> 2) & 0x3) }

// LocalAPICNMIEntry is MADT entry type 4: a CPU's NMI-wired LINT pin.
type LocalAPICNMIEntry struct {
	ProcessorID uint8 // 0xFF means "all processors"
	Flags       uint16
	LINT        uint8
}

// LocalX2APICEntry is MADT entry type 9, used for APIC IDs that don't
// fit in the 8-bit xAPIC ID field.
type LocalX2APICEntry struct {
	X2APICID          uint32
	Flags             uint32
	ACPIProcessorUID  uint32
}

// Enabled reports whether the CPU described by this entry should be
// brought up.
func (e LocalX2APICEntry) Enabled() bool { return e.Flags&1 != 0 }

// ParseMADT decodes the MADT-specific header fields and returns an MADT
// ready for Entries to walk the typed entry stream.
func ParseMADT(data []byte) (*MADT, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if header.SignatureString() != "APIC" {
		return nil, BadSignature{Want: "APIC", Got: header.SignatureString()}
	}
	if int(header.Length) < sdtHeaderSize+madtHeaderExtra {
		return nil, Truncated{Table: "MADT"}
	}
	return &MADT{
		Header:           header,
		LocalAPICAddress: binary.LittleEndian.Uint32(data[sdtHeaderSize:]),
		Flags:            binary.LittleEndian.Uint32(data[sdtHeaderSize+4:]),
		entries:          data[sdtHeaderSize+madtHeaderExtra : header.Length],
	}, nil
}

// RawMADTEntry is an undecoded MADT entry: its type, length, and the
// type-specific bytes following the 2-byte type/length pair.
type RawMADTEntry struct {
	Type    MADTEntryType
	Payload []byte
}

// Entries walks the MADT's typed entry stream, calling visit once per
// entry. A malformed entry (length field too short, or running past the
// table end) stops the walk and returns InvalidOffset rather than
// panicking — one corrupt entry doesn't cost the entries already
// visited.
func (m *MADT) Entries(visit func(RawMADTEntry) error) error {
	data := m.entries
	pos := 0
	for pos < len(data) {
		if pos+2 > len(data) {
			return InvalidOffset{Table: "MADT"}
		}
		typ := MADTEntryType(data[pos])
		length := int(data[pos+1])
		if length < 2 || pos+length > len(data) {
			return InvalidOffset{Table: "MADT"}
		}
		entry := RawMADTEntry{Type: typ, Payload: data[pos+2 : pos+length]}
		if err := visit(entry); err != nil {
			return err
		}
		pos += length
	}
	return nil
}

// LocalAPIC decodes a type-0 entry.
func (e RawMADTEntry) LocalAPIC() (LocalAPICEntry, error) {
	if len(e.Payload) < 6 {
		return LocalAPICEntry{}, Truncated{Table: "MADT local APIC entry"}
	}
	return LocalAPICEntry{
		ProcessorID: e.Payload[0],
		APICID:      e.Payload[1],
		Flags:       binary.LittleEndian.Uint32(e.Payload[2:]),
	}, nil
}

// IOAPIC decodes a type-1 entry.
func (e RawMADTEntry) IOAPIC() (IOAPICEntry, error) {
	if len(e.Payload) < 10 {
		return IOAPICEntry{}, Truncated{Table: "MADT I/O APIC entry"}
	}
	return IOAPICEntry{
		IOAPICID: e.Payload[0],
		Address:  binary.LittleEndian.Uint32(e.Payload[2:]),
		GSIBase:  binary.LittleEndian.Uint32(e.Payload[6:]),
	}, nil
}

// InterruptSourceOverride decodes a type-2 entry.
func (e RawMADTEntry) InterruptSourceOverride() (InterruptSourceOverrideEntry, error) {
	if len(e.Payload) < 8 {
		return InterruptSourceOverrideEntry{}, Truncated{Table: "MADT interrupt source override"}
	}
	return InterruptSourceOverrideEntry{
		Bus:    e.Payload[0],
		Source: e.Payload[1],
		GSI:    binary.LittleEndian.Uint32(e.Payload[2:]),
		Flags:  binary.LittleEndian.Uint16(e.Payload[6:]),
	}, nil
}

// LocalAPICNMI decodes a type-4 entry.
func (e RawMADTEntry) LocalAPICNMI() (LocalAPICNMIEntry, error) {
	if len(e.Payload) < 4 {
		return LocalAPICNMIEntry{}, Truncated{Table: "MADT local APIC NMI"}
	}
	return LocalAPICNMIEntry{
		ProcessorID: e.Payload[0],
		Flags:       binary.LittleEndian.Uint16(e.Payload[1:]),
		LINT:        e.Payload[3],
	}, nil
}

// LocalX2APIC decodes a type-9 entry.
func (e RawMADTEntry) LocalX2APIC() (LocalX2APICEntry, error) {
	if len(e.Payload) < 14 {
		return LocalX2APICEntry{}, Truncated{Table: "MADT local x2APIC"}
	}
	return LocalX2APICEntry{
		X2APICID:         binary.LittleEndian.Uint32(e.Payload[2:]),
		Flags:            binary.LittleEndian.Uint32(e.Payload[6:]),
		ACPIProcessorUID: binary.LittleEndian.Uint32(e.Payload[10:]),
	}, nil
}
