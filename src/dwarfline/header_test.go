package dwarfline

import "testing"

func makeV4LineProgram() []byte {
	var buf []byte
	buf = append(buf, 0, 0, 0, 0) // unit_length placeholder

	buf = append(buf, 4, 0) // version = 4 (LE u16)

	headerLengthPos := len(buf)
	buf = append(buf, 0, 0, 0, 0) // header_length placeholder
	headerStart := len(buf)

	buf = append(buf,
		1,          // minimum_instruction_length
		1,          // maximum_operations_per_instruction
		1,          // default_is_stmt
		0xFB,       // line_base: -5 as a signed byte
		14,         // line_range
		13,         // opcode_base
	)
	buf = append(buf, 0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1) // standard_opcode_lengths

	buf = append(buf, []byte("src\x00")...)
	buf = append(buf, 0) // end of directories

	buf = append(buf, []byte("main.rs\x00")...)
	buf = append(buf, 1, 0, 0) // dir index, mtime, size
	buf = append(buf, 0)       // end of files

	headerEnd := len(buf)
	headerLength := uint32(headerEnd - headerStart)
	buf[headerLengthPos+0] = byte(headerLength)
	buf[headerLengthPos+1] = byte(headerLength >> 8)
	buf[headerLengthPos+2] = byte(headerLength >> 16)
	buf[headerLengthPos+3] = byte(headerLength >> 24)

	// minimal line program: DW_LNE_end_sequence
	buf = append(buf, 0x00, 0x01, 0x01)

	unitLength := uint32(len(buf) - 4)
	buf[0] = byte(unitLength)
	buf[1] = byte(unitLength >> 8)
	buf[2] = byte(unitLength >> 16)
	buf[3] = byte(unitLength >> 24)

	return buf
}

func TestParseV4Header(t *testing.T) {
	h, err := Parse(makeV4LineProgram())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Version != 4 || h.MinimumInstructionLength != 1 || !h.DefaultIsStmt {
		t.Fatalf("unexpected header fields: %+v", h)
	}
	if h.LineBase != -5 || h.LineRange != 14 || h.OpcodeBase != 13 {
		t.Fatalf("unexpected opcode fields: %+v", h)
	}
}

func TestV4DirectoryTable(t *testing.T) {
	h, err := Parse(makeV4LineProgram())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.DirCount() != 1 {
		t.Fatalf("dir count = %d, want 1", h.DirCount())
	}
	if d, ok := h.Directory(0); !ok || d != "src" {
		t.Fatalf("directory(0) = %q, %v", d, ok)
	}
	if _, ok := h.Directory(1); ok {
		t.Fatalf("expected no directory at index 1")
	}
}

func TestV4FileTableIsOneBased(t *testing.T) {
	h, err := Parse(makeV4LineProgram())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.FileCount() != 1 {
		t.Fatalf("file count = %d, want 1", h.FileCount())
	}
	f, ok := h.File(1)
	if !ok || f.Name != "main.rs" || f.DirectoryIndex != 1 {
		t.Fatalf("file(1) = %+v, %v", f, ok)
	}
	if _, ok := h.File(0); ok {
		t.Fatalf("file(0) must not exist in v4 (1-based)")
	}
	if _, ok := h.File(2); ok {
		t.Fatalf("file(2) must not exist")
	}
}

func TestRejectUnsupportedVersion(t *testing.T) {
	buf := makeV4LineProgram()
	buf[4], buf[5] = 3, 0
	_, err := Parse(buf)
	if _, ok := err.(UnsupportedVersion); !ok {
		t.Fatalf("expected UnsupportedVersion, got %v", err)
	}
}

func TestRejectTruncated(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected Truncated for empty input")
	}
	if _, err := Parse([]byte{0, 0}); err == nil {
		t.Fatalf("expected Truncated for short input")
	}
}

// buildV5LineProgram constructs a minimal DWARF v5 header with one
// directory and one file, both using DW_FORM_string.
func buildV5LineProgram() []byte {
	var buf []byte
	buf = append(buf, 0, 0, 0, 0) // unit_length placeholder
	buf = append(buf, 5, 0)       // version = 5
	buf = append(buf, 8, 0)       // address_size=8, segment_selector_size=0

	headerLengthPos := len(buf)
	buf = append(buf, 0, 0, 0, 0)
	headerStart := len(buf)

	buf = append(buf, 1, 1, 1, 0xFB, 14, 13) // 0xFB: line_base -5
	buf = append(buf, 0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1)

	// directory_entry_format_count = 1
	buf = append(buf, 1)
	buf = append(buf, lnctPath, formString) // (content_type, form) as raw bytes (both < 0x80)
	// directories_count = 1 (ULEB128)
	buf = append(buf, 1)
	buf = append(buf, []byte("/src\x00")...)

	// file_name_entry_format_count = 2
	buf = append(buf, 2)
	buf = append(buf, lnctPath, formString)
	buf = append(buf, lnctDirectoryIndex, formUdata)
	// file_names_count = 1
	buf = append(buf, 1)
	buf = append(buf, []byte("main.rs\x00")...)
	buf = append(buf, 0) // directory index 0 (ULEB128)

	headerEnd := len(buf)
	headerLength := uint32(headerEnd - headerStart)
	buf[headerLengthPos+0] = byte(headerLength)
	buf[headerLengthPos+1] = byte(headerLength >> 8)
	buf[headerLengthPos+2] = byte(headerLength >> 16)
	buf[headerLengthPos+3] = byte(headerLength >> 24)

	buf = append(buf, 0x00, 0x01, 0x01) // DW_LNE_end_sequence

	unitLength := uint32(len(buf) - 4)
	buf[0] = byte(unitLength)
	buf[1] = byte(unitLength >> 8)
	buf[2] = byte(unitLength >> 16)
	buf[3] = byte(unitLength >> 24)
	return buf
}

func TestParseV5HeaderIsZeroBased(t *testing.T) {
	h, err := Parse(buildV5LineProgram())
	if err != nil {
		t.Fatalf("Parse v5: %v", err)
	}
	if h.Version != 5 {
		t.Fatalf("version = %d, want 5", h.Version)
	}
	d, ok := h.Directory(0)
	if !ok || d != "/src" {
		t.Fatalf("directory(0) = %q, %v", d, ok)
	}
	f, ok := h.File(0)
	if !ok || f.Name != "main.rs" {
		t.Fatalf("file(0) = %+v, %v (v5 is 0-based)", f, ok)
	}
}

func TestTooManyDirectoriesCapEnforced(t *testing.T) {
	var data []byte
	for i := 0; i < MaxDirectories+1; i++ {
		data = append(data, []byte("d\x00")...)
	}
	data = append(data, 0) // terminator

	h := &Header{}
	if _, err := parseV4Directories(data, 0, h); err == nil {
		t.Fatalf("expected TooManyDirectories")
	} else if _, ok := err.(TooManyDirectories); !ok {
		t.Fatalf("expected TooManyDirectories, got %v", err)
	}
}
