// Package dwarfline parses the header of a DWARF `.debug_line`
// compilation unit: the directory table and file table that later line
// program bytecode refers to by index. Supports DWARF v4 (NUL-terminated
// string sequences) and v5 (content-code/form-code tables).
//
// Grounded line-for-line on
// original_source/crates/parse/dwarf/src/header.rs. The Rust original
// backs its tables with fixed-size arrays ([Option<&str>; N]) because it
// has no allocator; Go's slice-with-a-capacity-check plays the same
// role here — see fvec's package doc for the general pattern — without
// forcing a single oversized array onto every header regardless of how
// many directories or files it actually declares.
package dwarfline

import "fmt"

// Capacity caps matching the original format's bounds, enforced so a
// malformed or hostile unit can't force unbounded allocation.
const (
	MaxDirectories = 256
	MaxFiles       = 1024
)

// Truncated is returned when data ends before a required field.
type Truncated struct{}

func (Truncated) Error() string { return "dwarfline: truncated" }

// UnsupportedVersion is returned for any version outside {4, 5}.
type UnsupportedVersion struct{ Version uint16 }

func (e UnsupportedVersion) Error() string {
	return fmt.Sprintf("dwarfline: unsupported version %d", e.Version)
}

// InvalidOffset is returned when header_length places the bytecode start
// past the end of the unit.
type InvalidOffset struct{}

func (InvalidOffset) Error() string { return "dwarfline: invalid offset" }

// InvalidUTF8 is returned when a string table entry is not valid UTF-8.
type InvalidUTF8 struct{}

func (InvalidUTF8) Error() string { return "dwarfline: invalid utf-8" }

// TooManyDirectories is returned when a unit declares more directories
// than MaxDirectories.
type TooManyDirectories struct{}

func (TooManyDirectories) Error() string { return "dwarfline: too many directories" }

// TooManyFiles is returned when a unit declares more files than MaxFiles.
type TooManyFiles struct{}

func (TooManyFiles) Error() string { return "dwarfline: too many files" }

// FileEntry is one entry of the file table.
type FileEntry struct {
	DirectoryIndex uint64
	Name           string // borrowed from the input data
}

// Header is a parsed DWARF line program header.
type Header struct {
	Version                         uint16
	MinimumInstructionLength        uint8
	MaximumOperationsPerInstruction uint8
	DefaultIsStmt                   bool
	LineBase                        int8
	LineRange                       uint8
	OpcodeBase                      uint8
	StandardOpcodeLengths           []uint8

	directories []string
	files       []FileEntry

	// ProgramOffset is the byte offset (relative to the start of data
	// passed to Parse) where the line program bytecode begins.
	ProgramOffset int
	// UnitLength is the total length of the unit, including the 4-byte
	// length field itself.
	UnitLength int
}

// Parse parses a line program header from the start of a compilation
// unit: data must begin at the unit_length field.
func Parse(data []byte) (*Header, error) {
	if len(data) < 4 {
		return nil, Truncated{}
	}
	unitLength := int(leU32(data, 0))
	totalLength := 4 + unitLength
	if totalLength > len(data) {
		return nil, Truncated{}
	}

	off := 4
	if off+2 > len(data) {
		return nil, Truncated{}
	}
	version := leU16(data, off)
	off += 2
	if version != 4 && version != 5 {
		return nil, UnsupportedVersion{Version: version}
	}

	if version >= 5 {
		if off+2 > len(data) {
			return nil, Truncated{}
		}
		off += 2 // address_size, segment_selector_size
	}

	if off+4 > len(data) {
		return nil, Truncated{}
	}
	headerLength := int(leU32(data, off))
	off += 4

	programOffset := off + headerLength
	if programOffset > totalLength {
		return nil, InvalidOffset{}
	}

	if off >= len(data) {
		return nil, Truncated{}
	}
	minInstrLen := data[off]
	off++

	if off >= len(data) {
		return nil, Truncated{}
	}
	maxOpsPerInstr := data[off]
	off++

	if off >= len(data) {
		return nil, Truncated{}
	}
	defaultIsStmt := data[off] != 0
	off++

	if off >= len(data) {
		return nil, Truncated{}
	}
	lineBase := int8(data[off])
	off++

	if off >= len(data) {
		return nil, Truncated{}
	}
	lineRange := data[off]
	off++

	if off >= len(data) {
		return nil, Truncated{}
	}
	opcodeBase := data[off]
	off++

	numStandard := 0
	if opcodeBase > 0 {
		numStandard = int(opcodeBase) - 1
	}
	if off+numStandard > len(data) {
		return nil, Truncated{}
	}
	stdOpcodeLengths := make([]uint8, numStandard)
	copy(stdOpcodeLengths, data[off:off+numStandard])
	off += numStandard

	h := &Header{
		Version:                         version,
		MinimumInstructionLength:        minInstrLen,
		MaximumOperationsPerInstruction: maxOpsPerInstr,
		DefaultIsStmt:                   defaultIsStmt,
		LineBase:                        lineBase,
		LineRange:                       lineRange,
		OpcodeBase:                      opcodeBase,
		StandardOpcodeLengths:           stdOpcodeLengths,
		ProgramOffset:                   programOffset,
		UnitLength:                      totalLength,
	}

	var err error
	if version == 4 {
		off, err = parseV4Directories(data, off, h)
		if err != nil {
			return nil, err
		}
		_, err = parseV4Files(data, off, h)
	} else {
		off, err = parseV5Directories(data, off, h)
		if err != nil {
			return nil, err
		}
		_, err = parseV5Files(data, off, h)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// File returns the file entry at file_index, hiding the v4/v5 indexing
// difference (v5 is 0-based, v4 is 1-based) from callers.
func (h *Header) File(fileIndex uint64) (FileEntry, bool) {
	var idx int
	if h.Version >= 5 {
		idx = int(fileIndex)
	} else {
		if fileIndex == 0 {
			return FileEntry{}, false
		}
		idx = int(fileIndex - 1)
	}
	if idx < 0 || idx >= len(h.files) {
		return FileEntry{}, false
	}
	return h.files[idx], true
}

// Directory returns the directory name at dirIndex.
func (h *Header) Directory(dirIndex uint64) (string, bool) {
	idx := int(dirIndex)
	if idx < 0 || idx >= len(h.directories) {
		return "", false
	}
	return h.directories[idx], true
}

// FileCount returns the number of file entries.
func (h *Header) FileCount() int { return len(h.files) }

// DirCount returns the number of directories.
func (h *Header) DirCount() int { return len(h.directories) }

func leU16(data []byte, off int) uint16 { return uint16(data[off]) | uint16(data[off+1])<<8 }

func leU32(data []byte, off int) uint32 {
	return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}
