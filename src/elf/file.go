package elf

import "encoding/binary"

// Segment types (p_type).
const (
	PTNull uint32 = 0
	PTLoad uint32 = 1
	PTDynamic uint32 = 2
	PTInterp  uint32 = 3
	PTNote    uint32 = 4
)

// Segment flags (p_flags).
const (
	PFExec  uint32 = 0x1
	PFWrite uint32 = 0x2
	PFRead  uint32 = 0x4
)

// ProgramHeader is a parsed ELF64 program header entry.
type ProgramHeader struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

func parseProgramHeader(data []byte, off int) ProgramHeader {
	b := data[off:]
	le := binary.LittleEndian
	return ProgramHeader{
		Type:   le.Uint32(b[0:]),
		Flags:  le.Uint32(b[4:]),
		Offset: le.Uint64(b[8:]),
		VAddr:  le.Uint64(b[16:]),
		PAddr:  le.Uint64(b[24:]),
		FileSz: le.Uint64(b[32:]),
		MemSz:  le.Uint64(b[40:]),
		Align:  le.Uint64(b[48:]),
	}
}

// File is a parsed ELF64 image: a thin, zero-copy view over data. The
// caller retains ownership of data for the lifetime of the File.
type File struct {
	hdr  Header
	data []byte
}

// Parse validates and parses the ELF64 header at the start of data. The
// section and program header tables are not walked until the caller asks
// for them.
func Parse(data []byte) (*File, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	return &File{hdr: hdr, data: data}, nil
}

// Header returns the parsed file header.
func (f *File) Header() Header { return f.hdr }

// RawData returns the full backing byte slice.
func (f *File) RawData() []byte { return f.data }

// Sections returns an iterator over the section header table. Yields
// nothing if the image has no sections.
func (f *File) Sections() *SectionIter {
	return &SectionIter{
		data:    f.data,
		off:     int(f.hdr.ShOff),
		entsize: int(f.hdr.ShEntSize),
		count:   int(f.hdr.ShNum),
	}
}

// ProgramHeaders returns the program header table.
func (f *File) ProgramHeaders() []ProgramHeader {
	out := make([]ProgramHeader, 0, f.hdr.PhNum)
	for i := 0; i < int(f.hdr.PhNum); i++ {
		off := int(f.hdr.PhOff) + i*int(f.hdr.PhEntSize)
		if off+phdrSize > len(f.data) {
			break
		}
		out = append(out, parseProgramHeader(f.data, off))
	}
	return out
}

// FindSectionByType returns the first section header with the given
// sh_type.
func (f *File) FindSectionByType(shType uint32) (SectionHeader, bool) {
	it := f.Sections()
	for {
		s, ok := it.Next()
		if !ok {
			return SectionHeader{}, false
		}
		if s.Type == shType {
			return s, true
		}
	}
}

// shStrTab returns the section-header string table, if present.
func (f *File) shStrTab() (StringTable, bool) {
	if f.hdr.ShStrNdx == 0 || int(f.hdr.ShStrNdx) >= int(f.hdr.ShNum) {
		return StringTable{}, false
	}
	off := int(f.hdr.ShOff) + int(f.hdr.ShStrNdx)*int(f.hdr.ShEntSize)
	if off+shdrSize > len(f.data) {
		return StringTable{}, false
	}
	h := parseSectionHeader(f.data, off)
	return f.sectionData(h), true
}

// FindSectionByName returns the first section whose name (resolved
// through the section-header string table) equals name.
func (f *File) FindSectionByName(name string) (SectionHeader, bool) {
	strtab, ok := f.shStrTab()
	if !ok {
		return SectionHeader{}, false
	}
	it := f.Sections()
	for {
		s, ok := it.Next()
		if !ok {
			return SectionHeader{}, false
		}
		n, ok := strtab.Get(s.Name)
		if ok && n == name {
			return s, true
		}
	}
}

func (f *File) sectionData(s SectionHeader) StringTable {
	end := s.Offset + s.Size
	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}
	return NewStringTable(f.data[s.Offset:end])
}

// SectionData returns the raw bytes of a section.
func (f *File) SectionData(s SectionHeader) []byte {
	end := s.Offset + s.Size
	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}
	return f.data[s.Offset:end]
}

// Symbols returns an iterator over the .symtab section's entries, and
// the string table (.strtab, via sh_link) needed to resolve symbol
// names. Returns ok=false if the image carries no symbol table.
func (f *File) Symbols() (*SymbolIter, StringTable, bool) {
	symSec, ok := f.FindSectionByType(SHTSymtab)
	if !ok {
		return nil, StringTable{}, false
	}
	if symSec.Link == 0 || int(symSec.Link) >= int(f.hdr.ShNum) {
		return nil, StringTable{}, false
	}
	strOff := int(f.hdr.ShOff) + int(symSec.Link)*int(f.hdr.ShEntSize)
	if strOff+shdrSize > len(f.data) {
		return nil, StringTable{}, false
	}
	strSec := parseSectionHeader(f.data, strOff)
	strtab := f.sectionData(strSec)

	data := f.SectionData(symSec)
	return &SymbolIter{data: data, off: 0, end: len(data)}, strtab, true
}

// FindSymbolByName scans the symbol table for the first symbol whose
// resolved name equals name.
func (f *File) FindSymbolByName(name string) (Symbol, bool) {
	it, strtab, ok := f.Symbols()
	if !ok {
		return Symbol{}, false
	}
	for {
		s, ok := it.Next()
		if !ok {
			return Symbol{}, false
		}
		n, ok := strtab.Get(s.Name)
		if ok && n == name {
			return s, true
		}
	}
}

// SymbolContaining returns the symbol (if any) whose [Value, Value+Size)
// range contains addr — the usual "which function is this address in"
// lookup used by panic/backtrace reporting.
func (f *File) SymbolContaining(addr uint64) (Symbol, bool) {
	it, _, ok := f.Symbols()
	if !ok {
		return Symbol{}, false
	}
	for {
		s, ok := it.Next()
		if !ok {
			return Symbol{}, false
		}
		if s.Type() != STTFunc || s.Size == 0 {
			continue
		}
		if addr >= s.Value && addr < s.Value+s.Size {
			return s, true
		}
	}
}
