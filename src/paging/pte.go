// Package paging implements the x86_64 4-level page-table mapper: given
// a PML4 root and access to the direct map, it installs, tears down,
// translates, and relabels virtual-to-physical mappings in units of
// 4 KiB, 2 MiB, or 1 GiB.
//
// Grounded line-for-line on
// original_source/kernel/hadron-core/src/arch/x86_64/paging/mapper.rs,
// with the direct-map / frame-zeroing idiom taken from the teacher's
// biscuit/src/mem/dmap.go (Dmap_init, caddr).
package paging

import "fmt"

// Flags is the x86_64 page-table-entry flag bitset.
type Flags uint64

const (
	Present      Flags = 1 << 0
	Writable     Flags = 1 << 1
	User         Flags = 1 << 2
	WriteThrough Flags = 1 << 3
	CacheDisable Flags = 1 << 4
	Accessed     Flags = 1 << 5
	Dirty        Flags = 1 << 6
	HugePage     Flags = 1 << 7
	Global       Flags = 1 << 8
	PATHuge      Flags = 1 << 12
	NoExecute    Flags = 1 << 63
)

// Has reports whether all bits in want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

const (
	physAddrMask = 0x000f_ffff_ffff_f000
)

// Entry is a single 64-bit page-table entry: a 52-bit physical address
// field plus the flag bitset. Invariants (enforced by this package, never
// by the zero value itself): a non-present entry is always zero; an
// intermediate entry never carries HugePage; a leaf for a 2 MiB/1 GiB
// mapping always carries HugePage.
type Entry uint64

// NewEntry packs addr (which must be page-aligned) and flags into an
// entry.
func NewEntry(addr uint64, flags Flags) Entry {
	if addr&^uint64(physAddrMask) != 0 {
		panic(fmt.Sprintf("paging: address %#x has bits outside the 52-bit physical field", addr))
	}
	return Entry(addr&physAddrMask | uint64(flags)&^uint64(physAddrMask))
}

// Empty is the zero entry: not present, address zero.
func Empty() Entry { return Entry(0) }

// IsPresent reports whether the Present flag is set.
func (e Entry) IsPresent() bool { return Flags(e)&Present != 0 }

// Address returns the physical address field.
func (e Entry) Address() uint64 { return uint64(e) & physAddrMask }

// Flags returns the flag bits (excluding the address field).
func (e Entry) Flags() Flags { return Flags(uint64(e) &^ physAddrMask) }

// Table is a single level of the 4-level page-table hierarchy: 512
// 8-byte entries, naturally page-sized and page-aligned when placed at
// the start of a physical frame.
type Table struct {
	Entries [512]Entry
}
