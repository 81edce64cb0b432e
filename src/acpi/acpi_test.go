package acpi

import (
	"encoding/binary"
	"testing"
)

// buildHeader returns a 36-byte SDT header with signature sig and the
// given length/revision, checksum left zeroed for the caller to fill in
// once the whole table body is known.
func buildHeader(sig string, length uint32, revision uint8) []byte {
	h := make([]byte, sdtHeaderSize)
	copy(h[0:4], sig)
	binary.LittleEndian.PutUint32(h[4:8], length)
	h[8] = revision
	copy(h[10:16], "HADRON")
	copy(h[16:24], "TESTTABL")
	return h
}

func fixChecksum(table []byte) {
	table[9] = 0
	var sum byte
	for _, b := range table {
		sum += b
	}
	table[9] = byte(-sum)
}

func TestParseHeaderRoundTrip(t *testing.T) {
	table := buildHeader("APIC", sdtHeaderSize, 3)
	fixChecksum(table)

	h, err := ParseHeader(table)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.SignatureString() != "APIC" {
		t.Fatalf("signature = %q", h.SignatureString())
	}
	if h.OEMIDString() != "HADRON" {
		t.Fatalf("OEM ID = %q, want HADRON", h.OEMIDString())
	}
}

func TestParseHeaderBadChecksumRejected(t *testing.T) {
	table := buildHeader("APIC", sdtHeaderSize, 3)
	fixChecksum(table)
	table[len(table)-1] ^= 0xff

	if _, err := ParseHeader(table); err == nil {
		t.Fatalf("expected a checksum error")
	}
}

func TestParseHeaderTruncatedFixture(t *testing.T) {
	table := buildHeader("APIC", sdtHeaderSize, 3)
	fixChecksum(table)
	for cut := 0; cut < len(table); cut++ {
		if _, err := ParseHeader(table[:cut]); err == nil {
			t.Fatalf("cut at %d: expected an error on truncated input", cut)
		}
	}
}

func buildRSDP(xsdtAddr uint64) []byte {
	b := make([]byte, rsdpV2Size)
	copy(b[0:8], rsdpSignature)
	copy(b[9:15], "HADRON")
	b[15] = 2 // revision 2: ACPI 2.0+
	binary.LittleEndian.PutUint32(b[20:24], rsdpV2Size)
	binary.LittleEndian.PutUint64(b[24:32], xsdtAddr)

	var sum1 byte
	for _, v := range b[:rsdpV1Size] {
		sum1 += v
	}
	b[8] = byte(-sum1 + b[8])

	var sum2 byte
	for _, v := range b[:rsdpV2Size] {
		sum2 += v
	}
	b[32] = byte(-sum2 + b[32])
	return b
}

func TestParseRSDPRoundTrip(t *testing.T) {
	rsdp, err := ParseRSDP(buildRSDP(0x1000))
	if err != nil {
		t.Fatalf("ParseRSDP: %v", err)
	}
	if rsdp.XSDTAddress != 0x1000 {
		t.Fatalf("XSDTAddress = %#x, want 0x1000", rsdp.XSDTAddress)
	}
	if rsdp.OEMIDString() != "HADRON" {
		t.Fatalf("OEM ID = %q", rsdp.OEMIDString())
	}
}

func TestParseRSDPRejectsBadSignature(t *testing.T) {
	b := buildRSDP(0x1000)
	copy(b[0:8], "GARBAGE!")
	if _, err := ParseRSDP(b); err == nil {
		t.Fatalf("expected a bad-signature error")
	}
}

func TestParseXSDTEntries(t *testing.T) {
	pointers := []uint64{0x2000, 0x3000, 0x4000}
	length := uint32(sdtHeaderSize + 8*len(pointers))
	table := buildHeader("XSDT", length, 1)
	for _, p := range pointers {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, p)
		table = append(table, buf...)
	}
	fixChecksum(table)

	_, entries, err := ParseXSDT(table)
	if err != nil {
		t.Fatalf("ParseXSDT: %v", err)
	}
	if len(entries) != len(pointers) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(pointers))
	}
	for i, p := range pointers {
		if entries[i] != p {
			t.Fatalf("entries[%d] = %#x, want %#x", i, entries[i], p)
		}
	}
}

func TestParseMADTEntries(t *testing.T) {
	body := []byte{}
	putU32 := func(v uint32) {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, v)
		body = append(body, buf...)
	}
	putU32(0xfee00000) // local APIC address
	putU32(1)          // flags: PC-AT compatible

	// Local APIC entry: processor 0, APIC id 0, flags=1 (enabled)
	body = append(body, 0, 8, 0, 0, 1, 0, 0, 0)
	// I/O APIC entry: id 1, reserved, address, GSI base 0
	ioapic := []byte{1, 12, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(ioapic[4:], 0xfec00000)
	body = append(body, ioapic...)

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("APIC", length, 3), body...)
	fixChecksum(table)

	madt, err := ParseMADT(table)
	if err != nil {
		t.Fatalf("ParseMADT: %v", err)
	}
	if madt.LocalAPICAddress != 0xfee00000 {
		t.Fatalf("LocalAPICAddress = %#x", madt.LocalAPICAddress)
	}

	var sawLocalAPIC, sawIOAPIC bool
	err = madt.Entries(func(e RawMADTEntry) error {
		switch e.Type {
		case MADTLocalAPIC:
			lapic, err := e.LocalAPIC()
			if err != nil {
				return err
			}
			if !lapic.Enabled() {
				t.Fatalf("expected the local APIC entry to be enabled")
			}
			sawLocalAPIC = true
		case MADTIOAPIC:
			io, err := e.IOAPIC()
			if err != nil {
				return err
			}
			if io.Address != 0xfec00000 {
				t.Fatalf("IOAPIC address = %#x", io.Address)
			}
			sawIOAPIC = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if !sawLocalAPIC || !sawIOAPIC {
		t.Fatalf("sawLocalAPIC=%v sawIOAPIC=%v, want both true", sawLocalAPIC, sawIOAPIC)
	}
}

func TestParseMADTTruncatedEntryStopsWalk(t *testing.T) {
	body := make([]byte, 8) // address + flags, no entries
	body = append(body, 0, 6, 0, 0, 1, 0, 0) // 7 bytes of a 6-byte entry header claiming length 6... truncated by 1
	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("APIC", length, 3), body...)
	fixChecksum(table)

	madt, err := ParseMADT(table)
	if err != nil {
		t.Fatalf("ParseMADT: %v", err)
	}
	visited := 0
	err = madt.Entries(func(e RawMADTEntry) error {
		visited++
		return nil
	})
	if err == nil {
		t.Fatalf("expected an error from the truncated entry")
	}
}

func TestParseHPETRoundTrip(t *testing.T) {
	body := make([]byte, 20)
	binary.LittleEndian.PutUint32(body[0:4], 0x8086a201)
	body[4] = AddressSpaceSystemMemory
	binary.LittleEndian.PutUint64(body[8:16], 0xfed00000)
	body[16] = 0 // HPET number
	binary.LittleEndian.PutUint16(body[17:19], 0)

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("HPET", length, 1), body...)
	fixChecksum(table)

	hpet, err := ParseHPET(table)
	if err != nil {
		t.Fatalf("ParseHPET: %v", err)
	}
	if hpet.BaseAddress.Address != 0xfed00000 {
		t.Fatalf("BaseAddress = %#x", hpet.BaseAddress.Address)
	}
}

func TestParseMCFGEntries(t *testing.T) {
	body := make([]byte, 8) // reserved
	entry := make([]byte, mcfgEntrySize)
	binary.LittleEndian.PutUint64(entry[0:8], 0xe0000000)
	binary.LittleEndian.PutUint16(entry[8:10], 0)
	entry[10] = 0
	entry[11] = 255
	body = append(body, entry...)

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("MCFG", length, 1), body...)
	fixChecksum(table)

	_, entries, err := ParseMCFG(table)
	if err != nil {
		t.Fatalf("ParseMCFG: %v", err)
	}
	if len(entries) != 1 || entries[0].BaseAddress != 0xe0000000 || entries[0].EndBus != 255 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestParseFADTDSDTPointerPrefersExtended(t *testing.T) {
	body := make([]byte, fadtXDsdtEnd)
	binary.LittleEndian.PutUint32(body[4:8], 0x1000) // legacy 32-bit DSDT
	binary.LittleEndian.PutUint64(body[104:112], 0x200000) // X_DSDT

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("FACP", length, 6), body...)
	fixChecksum(table)

	fadt, err := ParseFADT(table)
	if err != nil {
		t.Fatalf("ParseFADT: %v", err)
	}
	if fadt.DSDTAddress() != 0x200000 {
		t.Fatalf("DSDTAddress() = %#x, want 0x200000", fadt.DSDTAddress())
	}
}

func TestParseFADTFallsBackToLegacyDSDT(t *testing.T) {
	body := make([]byte, fadtMinSize)
	binary.LittleEndian.PutUint32(body[4:8], 0x1000)

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("FACP", length, 1), body...)
	fixChecksum(table)

	fadt, err := ParseFADT(table)
	if err != nil {
		t.Fatalf("ParseFADT: %v", err)
	}
	if fadt.DSDTAddress() != 0x1000 {
		t.Fatalf("DSDTAddress() = %#x, want 0x1000 (legacy fallback)", fadt.DSDTAddress())
	}
}

func TestWalkSkipsACPIOnMissingRSDP(t *testing.T) {
	read := func(phys uint64, maxLen uint32) ([]byte, error) {
		return nil, Truncated{Table: "no memory at this address"}
	}
	_, ok := Walk(0xdeadbeef, read)
	if ok {
		t.Fatalf("Walk must report ok=false when the RSDP can't be read")
	}
}

func TestWalkDispatchesToMADTAndHPET(t *testing.T) {
	memory := map[uint64][]byte{}

	madtBody := make([]byte, 8)
	binary.LittleEndian.PutUint32(madtBody[0:4], 0xfee00000)
	madtTable := append(buildHeader("APIC", uint32(sdtHeaderSize+len(madtBody)), 3), madtBody...)
	fixChecksum(madtTable)
	memory[0x5000] = madtTable

	hpetBody := make([]byte, 20)
	binary.LittleEndian.PutUint64(hpetBody[8:16], 0xfed00000)
	hpetTable := append(buildHeader("HPET", uint32(sdtHeaderSize+len(hpetBody)), 1), hpetBody...)
	fixChecksum(hpetTable)
	memory[0x6000] = hpetTable

	xsdtPointers := []byte{}
	for _, p := range []uint64{0x5000, 0x6000} {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, p)
		xsdtPointers = append(xsdtPointers, buf...)
	}
	xsdtTable := append(buildHeader("XSDT", uint32(sdtHeaderSize+len(xsdtPointers)), 1), xsdtPointers...)
	fixChecksum(xsdtTable)
	memory[0x4000] = xsdtTable

	memory[0x1000] = buildRSDP(0x4000)

	read := func(phys uint64, maxLen uint32) ([]byte, error) {
		data, ok := memory[phys]
		if !ok {
			return nil, Truncated{Table: "no fixture at this address"}
		}
		if maxLen != 0 && uint32(len(data)) > maxLen {
			return data[:maxLen], nil
		}
		return data, nil
	}

	tables, ok := Walk(0x1000, read)
	if !ok {
		t.Fatalf("Walk must succeed with a valid RSDP/XSDT")
	}
	if tables.MADT == nil || tables.MADT.LocalAPICAddress != 0xfee00000 {
		t.Fatalf("MADT not dispatched correctly: %+v", tables.MADT)
	}
	if tables.HPET == nil || tables.HPET.BaseAddress.Address != 0xfed00000 {
		t.Fatalf("HPET not dispatched correctly: %+v", tables.HPET)
	}
}

func TestSLITDistanceLookup(t *testing.T) {
	body := make([]byte, 8+4)
	binary.LittleEndian.PutUint64(body[0:8], 2)
	body[8], body[9], body[10], body[11] = 10, 20, 20, 10

	length := uint32(sdtHeaderSize + len(body))
	table := append(buildHeader("SLIT", length, 1), body...)
	fixChecksum(table)

	slit, err := ParseSLIT(table)
	if err != nil {
		t.Fatalf("ParseSLIT: %v", err)
	}
	if slit.Distance(0, 1) != 20 || slit.Distance(1, 0) != 20 || slit.Distance(0, 0) != 10 {
		t.Fatalf("unexpected distances: %+v", slit.Matrix)
	}
}
