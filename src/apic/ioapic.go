package apic

import "hadron/src/acpi"

// I/O APIC register-select/window offsets (memory-mapped indirect
// access: write the register index to IOREGSEL, then read/write the
// 32-bit value through IOWIN).
const (
	ioRegSel uint32 = 0x00
	ioWin    uint32 = 0x10

	ioapicIDReg      = 0x00
	ioapicVersionReg = 0x01
	redirTableBase   = 0x10 // redirection entry n occupies registers 0x10+2n (low) and 0x11+2n (high)
)

// Redirection is one I/O APIC redirection table entry (64 bits, split
// across two 32-bit registers): the vector to deliver, polarity,
// trigger mode, mask state, and destination APIC ID.
type Redirection struct {
	Vector      uint8
	ActiveLow   bool
	LevelTrigger bool
	Masked      bool
	Destination uint8
}

func (r Redirection) encode() (low, high uint32) {
	low = uint32(r.Vector)
	if r.ActiveLow {
		low |= 1 << 13
	}
	if r.LevelTrigger {
		low |= 1 << 15
	}
	if r.Masked {
		low |= 1 << 16
	}
	high = uint32(r.Destination) << 24
	return
}

func decodeRedirection(low, high uint32) Redirection {
	return Redirection{
		Vector:       uint8(low & 0xFF),
		ActiveLow:    low&(1<<13) != 0,
		LevelTrigger: low&(1<<15) != 0,
		Masked:       low&(1<<16) != 0,
		Destination:  uint8(high >> 24),
	}
}

// IOAPIC drives one I/O APIC through its MMIO window.
type IOAPIC struct {
	mmio    MMIO
	gsiBase uint32
}

// NewIOAPIC wraps an already-mapped I/O APIC MMIO window covering GSIs
// starting at gsiBase (from the MADT I/O APIC entry).
func NewIOAPIC(mmio MMIO, gsiBase uint32) *IOAPIC {
	return &IOAPIC{mmio: mmio, gsiBase: gsiBase}
}

func (a *IOAPIC) readReg(index uint32) uint32 {
	a.mmio.Write32(ioRegSel, index)
	return a.mmio.Read32(ioWin)
}

func (a *IOAPIC) writeReg(index uint32, v uint32) {
	a.mmio.Write32(ioRegSel, index)
	a.mmio.Write32(ioWin, v)
}

// ID returns this I/O APIC's ID (bits 24-27 of the ID register).
func (a *IOAPIC) ID() uint8 { return uint8((a.readReg(ioapicIDReg) >> 24) & 0xF) }

// RedirectionCount returns the number of redirection entries this I/O
// APIC implements, read from the version register (bits 16-23, entries
// minus one).
func (a *IOAPIC) RedirectionCount() int {
	return int((a.readReg(ioapicVersionReg)>>16)&0xFF) + 1
}

// MaskAll masks every redirection entry this I/O APIC implements, the
// first step before programming any of them (spec.md §4.G step 7).
func (a *IOAPIC) MaskAll() {
	for i := 0; i < a.RedirectionCount(); i++ {
		a.SetRedirection(uint32(i), Redirection{Masked: true})
	}
}

// SetRedirection programs the redirection entry for the GSI at gsiIndex
// entries past this I/O APIC's base (0 = this IOAPIC's first GSI).
func (a *IOAPIC) SetRedirection(gsiIndex uint32, r Redirection) {
	low, high := r.encode()
	reg := redirTableBase + gsiIndex*2
	a.writeReg(reg, low)
	a.writeReg(reg+1, high)
}

// Redirection reads back the redirection entry for gsiIndex.
func (a *IOAPIC) Redirection(gsiIndex uint32) Redirection {
	reg := redirTableBase + gsiIndex*2
	return decodeRedirection(a.readReg(reg), a.readReg(reg+1))
}

// Covers reports whether gsi falls within this I/O APIC's range, given
// it implements n redirection entries.
func (a *IOAPIC) Covers(gsi uint32, n int) bool {
	return gsi >= a.gsiBase && gsi < a.gsiBase+uint32(n)
}

// legacyISARedirection builds the masked redirection entry for one of
// GSIs 0..15 targeting bspID with vector 32+gsi, applying any MADT
// interrupt-source-override's polarity/trigger — spec.md §4.G step 7.
// Bus-default polarity/trigger for ISA is active-high, edge-triggered.
func legacyISARedirection(gsi uint32, override *acpi.InterruptSourceOverrideEntry, bspID uint8) Redirection {
	r := Redirection{
		Vector:      uint8(32 + gsi),
		Masked:      true,
		Destination: bspID,
	}
	if override != nil {
		switch override.Polarity() {
		case acpi.PolarityActiveLow:
			r.ActiveLow = true
		case acpi.PolarityActiveHigh, acpi.PolarityBusDefault:
			r.ActiveLow = false
		}
		switch override.Trigger() {
		case acpi.TriggerLevel:
			r.LevelTrigger = true
		case acpi.TriggerEdge, acpi.TriggerBusDefault:
			r.LevelTrigger = false
		}
	}
	return r
}

// InstallLegacyISARoutes masks every redirection entry on this I/O APIC,
// then installs masked routes for every GSI 0..15 this I/O APIC covers,
// applying any override whose target GSI (not source ISA IRQ number —
// an override can remap IRQ 0 to GSI 2, for instance) falls in range
// (spec.md §4.G step 7).
func (a *IOAPIC) InstallLegacyISARoutes(overridesByGSI map[uint32]acpi.InterruptSourceOverrideEntry, bspID uint8) {
	a.MaskAll()
	n := a.RedirectionCount()
	for gsi := uint32(0); gsi < 16; gsi++ {
		if !a.Covers(gsi, n) {
			continue
		}
		var override *acpi.InterruptSourceOverrideEntry
		if ov, ok := overridesByGSI[gsi]; ok {
			override = &ov
		}
		a.SetRedirection(gsi-a.gsiBase, legacyISARedirection(gsi, override, bspID))
	}
}
