// Package elf parses ELF64 object and executable images: the file
// header, program headers, section headers, the symbol table, and
// string tables, as zero-copy views over a caller-owned byte slice.
// ProgramHeaders is the one accessor that allocates: it decodes the
// whole program header table into a new slice rather than iterating
// lazily.
//
// Grounded on original_source/crates/elf/src/section.rs for the section
// header / symbol / string-table layout and iterator shape; the file
// header and program header layouts follow the standard ELF64 format
// those types are built against. Demangling and disassembly are new
// domain-stack wiring (see SPEC_FULL.md's DOMAIN STACK) with no teacher
// analogue, grounded instead on the upstream godoc for
// github.com/ianlancetaylor/demangle and golang.org/x/arch/x86/x86asm.
package elf

import "encoding/binary"

const (
	elfMagic0 = 0x7f
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	classELF64 = 2
	dataLSB    = 1

	ehdrSize = 64
	shdrSize = 64
	symSize  = 24
	phdrSize = 56
)

// ObjType is the ELF e_type field.
type ObjType uint16

const (
	TypeNone   ObjType = 0
	TypeRel    ObjType = 1
	TypeExec   ObjType = 2
	TypeDyn    ObjType = 3
	TypeCore   ObjType = 4
)

// Machine is the ELF e_machine field. Only the one value Hadron ever
// expects to boot as is named.
type Machine uint16

const MachineX86_64 Machine = 62

// BadMagic is returned by Parse when the first four bytes are not the
// ELF magic number.
type BadMagic struct{}

func (BadMagic) Error() string { return "elf: bad magic" }

// UnsupportedClass is returned by Parse for anything but a 64-bit,
// little-endian image.
type UnsupportedClass struct{}

func (UnsupportedClass) Error() string { return "elf: unsupported class or byte order" }

// Truncated is returned whenever a parse step would read past the end
// of the backing byte slice.
type Truncated struct{}

func (Truncated) Error() string { return "elf: truncated image" }

// Header is the ELF64 file header.
type Header struct {
	Type      ObjType
	Machine   Machine
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

func parseHeader(data []byte) (Header, error) {
	if len(data) < ehdrSize {
		return Header{}, Truncated{}
	}
	if data[0] != elfMagic0 || data[1] != elfMagic1 || data[2] != elfMagic2 || data[3] != elfMagic3 {
		return Header{}, BadMagic{}
	}
	if data[4] != classELF64 || data[5] != dataLSB {
		return Header{}, UnsupportedClass{}
	}
	le := binary.LittleEndian
	return Header{
		Type:      ObjType(le.Uint16(data[16:])),
		Machine:   Machine(le.Uint16(data[18:])),
		Entry:     le.Uint64(data[24:]),
		PhOff:     le.Uint64(data[32:]),
		ShOff:     le.Uint64(data[40:]),
		PhEntSize: le.Uint16(data[54:]),
		PhNum:     le.Uint16(data[56:]),
		ShEntSize: le.Uint16(data[58:]),
		ShNum:     le.Uint16(data[60:]),
		ShStrNdx:  le.Uint16(data[62:]),
	}, nil
}
