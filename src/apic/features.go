package apic

import (
	"log"
	"os"

	"golang.org/x/sys/cpu"
)

// Logger is where this package reports degraded platform-init decisions
// (falling back from HPET to PIT, a feature the host CPU lacks).
var Logger = log.New(os.Stderr, "apic: ", log.LstdFlags)

// X2APICRequested reports whether the boot-info MP response asked for
// x2APIC mode (flags bit 0, spec.md §6's Limine protocol requests
// description). Whether the CPU actually supports x2APIC is a CPUID
// leaf 1 ECX bit 21 query that golang.org/x/sys/cpu's X86 feature set
// doesn't expose (it surfaces the SSE/AVX/crypto extensions relevant to
// userspace codegen, not platform-enumeration bits); that check is left
// to the bare-metal cpuid path this host-testable core doesn't run.
func X2APICRequested(mpFlags uint64) bool { return mpFlags&1 != 0 }

// LogHostFeatures reports the subset of golang.org/x/sys/cpu's detected
// features relevant to deciding whether optional fast paths (e.g. a
// CLFLUSH-based TLB-adjacent cache maintenance step) are available,
// mirroring the teacher's dmap.go gating direct-map construction on
// Cpuid/Rcr4 feature bits before committing to an address-translation
// strategy.
func LogHostFeatures() {
	Logger.Printf("host CPU features: sse42=%v avx2=%v rdrand=%v rdtscp=%v",
		cpu.X86.HasSSE42, cpu.X86.HasAVX2, cpu.X86.HasRDRAND, cpu.X86.HasRDTSCP)
}
