// Package apic drives the Local APIC and I/O APIC: mapping their MMIO
// windows through the page-table mapper, remapping and masking the
// legacy 8259 PIC, routing I/O APIC redirection entries from MADT
// interrupt-source-override data, and calibrating the LAPIC timer
// against HPET (or the PIT as a fallback) per spec.md §4.G steps 5-10.
//
// The teacher's retrieved pack has no APIC code of its own (its apic
// package was filtered down to a bare go.mod); register layouts follow
// the published Intel SDM and the published MP/IOAPIC specifications.
// The feature-detection idiom is grounded on the teacher's
// biscuit/src/mem/dmap.go use of its forked runtime's Cpuid/Rcr4 to
// gate direct-map setup on CPU capability, translated to
// golang.org/x/sys/cpu since portable Go has no inline cpuid.
package apic

import (
	"sync/atomic"
	"unsafe"
)

// MMIO is a 32-bit-register memory window, addressed by its base
// virtual address. Registers are accessed with atomic loads/stores
// rather than plain reads/writes: Go has no volatile qualifier, and an
// atomic access is the idiomatic way to stop the compiler reordering or
// eliding what must be a genuine memory-mapped I/O access.
//
// Hostsim backs an MMIO with an ordinary Go byte slice; bare-metal
// backs one with the page-mapper's HHDM-mapped physical window.
type MMIO struct {
	base uintptr
}

// NewMMIO wraps the register window starting at a virtual base address.
func NewMMIO(base uintptr) MMIO { return MMIO{base: base} }

func (m MMIO) reg(offset uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(m.base + uintptr(offset)))
}

// Read32 loads the 32-bit register at offset.
func (m MMIO) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(m.reg(offset))
}

// Write32 stores v into the 32-bit register at offset.
func (m MMIO) Write32(offset uint32, v uint32) {
	atomic.StoreUint32(m.reg(offset), v)
}
