package elf

import "golang.org/x/arch/x86/x86asm"

// NoCodeAtAddress is returned by DisassembleAt when vaddr falls outside
// every loaded, executable section of the image.
type NoCodeAtAddress struct{}

func (NoCodeAtAddress) Error() string { return "elf: no executable section contains address" }

// Instruction is one decoded x86-64 instruction, in AT&T (GNU) syntax —
// matching the assembly the kernel's own build toolchain emits.
type Instruction struct {
	Addr   uint64
	Length int
	Text   string
}

// findExecSection returns the loaded, executable section containing
// vaddr, if any.
func (f *File) findExecSection(vaddr uint64) (SectionHeader, bool) {
	it := f.Sections()
	for {
		s, ok := it.Next()
		if !ok {
			return SectionHeader{}, false
		}
		if s.Flags&SHFAlloc == 0 || s.Flags&SHFExecInstr == 0 {
			continue
		}
		if vaddr >= s.Addr && vaddr < s.Addr+s.Size {
			return s, true
		}
	}
}

// DisassembleAt decodes up to count instructions of x86-64 machine code
// starting at the virtual address vaddr, used by the panic handler to
// print the faulting instruction stream for diagnostics.
func (f *File) DisassembleAt(vaddr uint64, count int) ([]Instruction, error) {
	sec, ok := f.findExecSection(vaddr)
	if !ok {
		return nil, NoCodeAtAddress{}
	}
	code := f.SectionData(sec)
	pos := int(vaddr - sec.Addr)

	out := make([]Instruction, 0, count)
	for i := 0; i < count && pos < len(code); i++ {
		inst, err := x86asm.Decode(code[pos:], 64)
		if err != nil {
			break
		}
		addr := sec.Addr + uint64(pos)
		text := x86asm.GNUSyntax(inst, addr, nil)
		out = append(out, Instruction{Addr: addr, Length: inst.Len, Text: text})
		pos += inst.Len
	}
	if len(out) == 0 {
		return nil, NoCodeAtAddress{}
	}
	return out, nil
}
