package idt

import "fmt"

// Table is the Interrupt Descriptor Table: named entries for the 32
// architectural exception vectors, indexed access for the 224
// user-defined vectors. Zero value is every entry not-present.
//
// Reserved vectors (9, 15, 22-27, 31) are carried as unexported padding
// to keep the struct's layout byte-identical to a real 4096-byte IDT,
// matching the teacher source's reserved fields.
type Table struct {
	DivideError          Entry // vector 0, #DE
	Debug                Entry // vector 1, #DB
	NMI                  Entry // vector 2
	Breakpoint           Entry // vector 3, #BP
	Overflow             Entry // vector 4, #OF
	BoundRange           Entry // vector 5, #BR
	InvalidOpcode        Entry // vector 6, #UD
	DeviceNotAvailable   Entry // vector 7, #NM
	DoubleFault          Entry // vector 8, #DF — always pushes error code 0
	reserved9            Entry
	InvalidTSS           Entry // vector 10, #TS
	SegmentNotPresent    Entry // vector 11, #NP
	StackSegmentFault    Entry // vector 12, #SS
	GeneralProtection    Entry // vector 13, #GP
	PageFault            Entry // vector 14, #PF
	reserved15           Entry
	X87FloatingPoint     Entry // vector 16, #MF
	AlignmentCheck       Entry // vector 17, #AC
	MachineCheck         Entry // vector 18, #MC
	SIMDFloatingPoint    Entry // vector 19, #XM
	Virtualization       Entry // vector 20, #VE
	ControlProtection    Entry // vector 21, #CP
	reserved22to27       [6]Entry
	HypervisorInjection  Entry // vector 28, #HV
	VMMCommunication     Entry // vector 29, #VC
	SecurityException    Entry // vector 30, #SX
	reserved31           Entry
	Interrupts           [224]Entry // vectors 32-255
}

// New returns an IDT with every entry not-present.
func New() *Table { return &Table{} }

// Index looks up vector, which must be 32-255 — exceptions use the
// named fields instead, matching the teacher source's assert.
func (t *Table) Index(vector uint8) *Entry {
	if vector < 32 {
		panic(fmt.Sprintf("idt: use named fields for exception vector %d", vector))
	}
	return &t.Interrupts[vector-32]
}

// DescriptorPointer is the operand of the `lidt` instruction: a 10-byte
// {limit: u16, base: u64} record (spec.md §6).
type DescriptorPointer struct {
	Limit uint16
	Base  uint64
}

// Pointer builds the lidt operand for this table: limit is the table's
// byte size minus one, base is its linear address.
func (t *Table) Pointer(base uint64) DescriptorPointer {
	return DescriptorPointer{Limit: uint16(tableSize - 1), Base: base}
}

const tableSize = 16 * 256 // 256 entries * 16 bytes, must equal sizeof(Table)
