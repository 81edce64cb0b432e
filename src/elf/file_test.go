package elf

import (
	"encoding/binary"
	"testing"
)

// buildTestImage assembles a minimal ELF64 image by hand: one code
// section ".text" holding a handful of real x86-64 instructions, one
// .symtab entry for "kernel_main" pointing at its start, and the
// .strtab/.shstrtab string tables it needs. This mirrors the layout the
// boot toolchain actually emits, just trimmed to what the parser reads.
func buildTestImage(t *testing.T) []byte {
	t.Helper()
	const (
		textAddr = uint64(0x10_0000)
	)
	// push %rbp; mov %rsp,%rbp; xor %eax,%eax; pop %rbp; ret
	code := []byte{0x55, 0x48, 0x89, 0xe5, 0x31, 0xc0, 0x5d, 0xc3}

	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	strtab := []byte("\x00kernel_main\x00")

	// Layout: ehdr | code | shstrtab | strtab | symtab | shdrs
	ehdrOff := 0
	codeOff := ehdrSize
	shstrtabOff := codeOff + len(code)
	strtabOff := shstrtabOff + len(shstrtab)
	symtabOff := strtabOff + len(strtab)

	sym := make([]byte, symSize)
	binary.LittleEndian.PutUint32(sym[0:], 1) // name offset into strtab ("kernel_main")
	sym[4] = STTFunc | (STBGlobal << 4)
	binary.LittleEndian.PutUint16(sym[6:], 1) // shndx: .text
	binary.LittleEndian.PutUint64(sym[8:], textAddr)
	binary.LittleEndian.PutUint64(sym[16:], uint64(len(code)))

	shoff := symtabOff + len(sym)

	// Section 0: SHT_NULL, 1: .text, 2: .symtab, 3: .strtab, 4: .shstrtab
	type shdr struct {
		name, typ         uint32
		flags, addr, off  uint64
		size              uint64
		link, info        uint32
		align, entsize    uint64
	}
	nameOf := func(s string) uint32 {
		for i := 0; i+len(s) <= len(shstrtab); i++ {
			if string(shstrtab[i:i+len(s)]) == s {
				return uint32(i)
			}
		}
		t.Fatalf("name %q not found in shstrtab fixture", s)
		return 0
	}
	sections := []shdr{
		{},
		{name: nameOf(".text"), typ: SHTProgBit, flags: SHFAlloc | SHFExecInstr, addr: textAddr, off: uint64(codeOff), size: uint64(len(code))},
		{name: nameOf(".symtab"), typ: SHTSymtab, off: uint64(symtabOff), size: uint64(len(sym)), link: 3, entsize: symSize},
		{name: nameOf(".strtab"), typ: SHTStrtab, off: uint64(strtabOff), size: uint64(len(strtab))},
		{name: nameOf(".shstrtab"), typ: SHTStrtab, off: uint64(shstrtabOff), size: uint64(len(shstrtab))},
	}

	total := shoff + len(sections)*shdrSize
	buf := make([]byte, total)
	buf[0], buf[1], buf[2], buf[3] = elfMagic0, elfMagic1, elfMagic2, elfMagic3
	buf[4], buf[5] = classELF64, dataLSB
	le := binary.LittleEndian
	le.PutUint16(buf[16:], uint16(TypeExec))
	le.PutUint16(buf[18:], uint16(MachineX86_64))
	le.PutUint64(buf[24:], textAddr)
	le.PutUint64(buf[40:], uint64(shoff))
	le.PutUint16(buf[58:], shdrSize)
	le.PutUint16(buf[60:], uint16(len(sections)))
	le.PutUint16(buf[62:], 4) // shstrndx

	copy(buf[codeOff:], code)
	copy(buf[shstrtabOff:], shstrtab)
	copy(buf[strtabOff:], strtab)
	copy(buf[symtabOff:], sym)

	for i, s := range sections {
		off := shoff + i*shdrSize
		le.PutUint32(buf[off+0:], s.name)
		le.PutUint32(buf[off+4:], s.typ)
		le.PutUint64(buf[off+8:], s.flags)
		le.PutUint64(buf[off+16:], s.addr)
		le.PutUint64(buf[off+24:], s.off)
		le.PutUint64(buf[off+32:], s.size)
		le.PutUint32(buf[off+40:], s.link)
		le.PutUint32(buf[off+44:], s.info)
		le.PutUint64(buf[off+48:], s.align)
		le.PutUint64(buf[off+56:], s.entsize)
	}
	return buf
}

func TestParseRejectsBadMagic(t *testing.T) {
	if _, err := Parse([]byte("not an elf file")); err == nil {
		t.Fatalf("expected BadMagic")
	}
}

func TestFindSymbolKernelMain(t *testing.T) {
	f, err := Parse(buildTestImage(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sym, ok := f.FindSymbolByName("kernel_main")
	if !ok {
		t.Fatalf("kernel_main not found")
	}
	if sym.Value != 0x10_0000 {
		t.Fatalf("kernel_main value = %#x, want 0x100000", sym.Value)
	}
	if sym.Type() != STTFunc {
		t.Fatalf("kernel_main type = %d, want STTFunc", sym.Type())
	}
}

func TestSymbolContainingMidFunction(t *testing.T) {
	f, _ := Parse(buildTestImage(t))
	sym, ok := f.SymbolContaining(0x10_0004)
	if !ok || sym.Value != 0x10_0000 {
		t.Fatalf("SymbolContaining(mid-function) = %v, %v", sym, ok)
	}
	if _, ok := f.SymbolContaining(0x20_0000); ok {
		t.Fatalf("expected no symbol at unrelated address")
	}
}

func TestFindSectionByName(t *testing.T) {
	f, _ := Parse(buildTestImage(t))
	sec, ok := f.FindSectionByName(".text")
	if !ok || sec.Addr != 0x10_0000 {
		t.Fatalf("FindSectionByName(.text) = %v, %v", sec, ok)
	}
}

func TestDisassembleAtDecodesPrologue(t *testing.T) {
	f, _ := Parse(buildTestImage(t))
	insns, err := f.DisassembleAt(0x10_0000, 4)
	if err != nil {
		t.Fatalf("DisassembleAt: %v", err)
	}
	if len(insns) == 0 {
		t.Fatalf("expected at least one decoded instruction")
	}
	if insns[0].Addr != 0x10_0000 {
		t.Fatalf("first instruction addr = %#x", insns[0].Addr)
	}
}

func TestDisassembleAtNoCode(t *testing.T) {
	f, _ := Parse(buildTestImage(t))
	if _, err := f.DisassembleAt(0xdead_beef, 1); err == nil {
		t.Fatalf("expected NoCodeAtAddress")
	}
}

func TestDemangleNamePassesThroughPlainNames(t *testing.T) {
	if got := DemangleName("kernel_main"); got != "kernel_main" {
		t.Fatalf("DemangleName(plain) = %q", got)
	}
}

func TestDemangleNameItanium(t *testing.T) {
	got := DemangleName("_ZN6hadron4bootE")
	if got == "_ZN6hadron4bootE" {
		t.Fatalf("expected mangled name to be demangled, got unchanged %q", got)
	}
}
