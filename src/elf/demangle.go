package elf

import "github.com/ianlancetaylor/demangle"

// DemangleName renders a mangled Itanium C++ ABI symbol name (the
// convention the kernel's own Rust-to-ELF toolchain emits) into a
// human-readable form for panic backtraces and the lockdep class
// reporter. Names that do not parse as mangled symbols are returned
// unchanged, matching demangle.Filter's own fallback behavior.
func DemangleName(name string) string {
	return demangle.Filter(name)
}
