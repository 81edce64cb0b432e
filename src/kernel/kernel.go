// Package kernel sequences platform bring-up (spec.md §4.G) by wiring
// together the independently-testable src/acpi, src/apic, src/idt, and
// src/lockdep packages, and holds the per-CPU state those packages'
// consumers (the executor, the timer handler) read afterward.
//
// Grounded on spec.md §4.G/§9 for init order and the three package-level
// statics; teacher's biscuit/src/kernel init-sequencing files for the
// "glue owns no algorithm of its own" texture — every actual algorithm
// (checksum validation, register programming, cycle detection) lives in
// the package it was built in.
package kernel

import (
	"context"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"hadron/src/acpi"
	"hadron/src/aml"
	"hadron/src/apic"
	"hadron/src/bootinfo"
	"hadron/src/idt"
	"hadron/src/lockdep"
)

// Logger is where platform bring-up reports its progress and the
// degraded-feature decisions spec.md §7 allows (missing HPET, missing
// RSDP, ...).
var Logger = log.New(os.Stderr, "kernel: ", log.LstdFlags)

// PerCPU holds the state private to one running CPU: its LAPIC identity,
// the task currently polling on it, and the lockdep held-lock stack
// index it was assigned. The executor and timer handler both index into
// this by CPU number rather than through thread-local storage, which Go
// has no portable equivalent of on a freestanding target.
type PerCPU struct {
	LAPICID     uint32
	CPUIndex    int
	CurrentTask uint64 // opaque task id; 0 means idle
}

// legacyPICOffset{Master,Slave} are the vector bases the 8259 is
// reprogrammed to, chosen clear of the CPU exception range (spec.md
// §4.G step 5); every line is masked immediately after since every
// interrupt this kernel cares about is routed through the I/O APIC.
const (
	legacyPICMasterOffset = 0x20
	legacyPICSlaveOffset  = 0x28

	spuriousVector = 0xFF
	timerVector    = 0x40

	timerCalibrationWaitMs = 10
)

// Dependencies are the hardware-facing callbacks platform init needs,
// injected so Init is host-testable: bare-metal supplies real MMIO
// windows, port I/O, and a HPET/PIT busy-wait; hostsim supplies
// in-memory fixtures and a fast-forwarded simulated clock.
type Dependencies struct {
	ACPIReader    acpi.Reader
	LAPICMMIO     apic.MMIO
	LAPICPhysBase uint64 // published via apic.PublishBase; MMIO.base is HHDM-mapped, not physical
	IOAPICMMIO    func(gsiBase uint32) apic.MMIO
	PortIO        apic.PortIO
	Wait10ms      func()
	LockdepRoot   *lockdep.Tracker // nil selects lockdep.Default
}

// Platform is everything platform init produced: the parsed ACPI
// tables, the persisted AML namespace, the programmed interrupt
// controllers, the IDT load-pointer, and the lockdep tracker every
// synchronization primitive in this boot registers against.
type Platform struct {
	Tables     acpi.PlatformTables
	Namespace  *Namespace
	LocalAPIC  *apic.LocalAPIC
	IOAPICs    []*apic.IOAPIC
	IDT        *idt.Table
	IDTPointer idt.DescriptorPointer
	Lockdep    *lockdep.Tracker
	TicksPerMs uint32
}

// Init runs platform bring-up exactly in spec.md §4.G's order and
// returns the assembled Platform. ACPI table absence never fails Init
// (spec.md §7: "every ACPI table is optional... absent RSDP -> skip
// ACPI entirely with a warning"); a nil deps.ACPIReader is treated the
// same as a Walk that found nothing.
//
// The table walk (steps 1-3) always runs first and alone: both the
// DSDT namespace walk (needs FADT) and I/O APIC install (needs MADT)
// read what it finds, so neither may start concurrently with it.
func Init(info *bootinfo.Info, deps Dependencies) (*Platform, error) {
	tracker := deps.LockdepRoot
	if tracker == nil {
		tracker = lockdep.Default
	}

	p := &Platform{
		IDT:     idt.New(),
		Lockdep: tracker,
	}

	// Steps 1-3: the table walk must finish before anything downstream
	// can read p.Tables, since both the DSDT walk (FADT) and the I/O
	// APIC install (MADT) depend on what it finds.
	p.Tables = walkACPITables(info, deps.ACPIReader)

	// Step 4 (namespace walk) touches none of steps 5-10's hardware
	// state, so once the tables above are in hand it runs concurrently
	// with PIC/LAPIC/IOAPIC/timer bring-up instead of stalling behind it.
	var g errgroup.Group
	g.Go(func() error {
		p.Namespace = walkNamespace(p.Tables, deps.ACPIReader)
		return nil
	})
	g.Go(func() error {
		bringUpInterruptControllers(p, deps)
		return nil
	})
	_ = g.Wait() // both goroutines are infallible; error path kept for future fallible steps

	p.IDTPointer = p.IDT.Pointer(0)

	return p, nil
}

func walkACPITables(info *bootinfo.Info, read acpi.Reader) acpi.PlatformTables {
	if info == nil || !info.HasACPI() || read == nil {
		Logger.Printf("no RSDP available, skipping ACPI entirely")
		return acpi.PlatformTables{}
	}

	tables, ok := acpi.Walk(uint64(*info.RSDPAddress), read)
	if !ok {
		Logger.Printf("ACPI walk found no usable root table")
	}
	return tables
}

func walkNamespace(tables acpi.PlatformTables, read acpi.Reader) *Namespace {
	ns := NewNamespace()
	if tables.FADT != nil && read != nil {
		walkDSDT(tables.FADT.DSDTAddress(), read, ns)
	}
	return ns
}

func walkDSDT(dsdtPhys uint64, read acpi.Reader, ns *Namespace) {
	if dsdtPhys == 0 {
		return
	}
	head, err := read(dsdtPhys, 36)
	if err != nil || len(head) < 36 {
		Logger.Printf("DSDT unreadable at %#x: %v", dsdtPhys, err)
		return
	}
	header, err := acpi.ParseHeader(head)
	if err != nil {
		Logger.Printf("DSDT header invalid: %v", err)
		return
	}
	full, err := read(dsdtPhys, header.Length)
	if err != nil || uint32(len(full)) < header.Length {
		Logger.Printf("DSDT body truncated at %#x", dsdtPhys)
		return
	}
	if err := aml.WalkAML(full[36:header.Length], ns); err != nil {
		Logger.Printf("DSDT namespace walk ended early: %v", err)
	}
}

func bringUpInterruptControllers(p *Platform, deps Dependencies) {
	if deps.PortIO != nil {
		apic.RemapAndMask(deps.PortIO, legacyPICMasterOffset, legacyPICSlaveOffset)
	}

	p.LocalAPIC = apic.NewLocalAPIC(deps.LAPICMMIO)
	p.LocalAPIC.Enable(spuriousVector)
	p.LocalAPIC.AcceptAllInterrupts()

	bspID := p.LocalAPIC.ID()
	apic.PublishBase(deps.LAPICPhysBase)

	if p.Tables.MADT != nil && deps.IOAPICMMIO != nil {
		overrides := map[uint32]acpi.InterruptSourceOverrideEntry{}
		_ = p.Tables.MADT.Entries(func(e acpi.RawMADTEntry) error {
			if e.Type == acpi.MADTInterruptSourceOverride {
				if iso, err := e.InterruptSourceOverride(); err == nil {
					overrides[iso.GSI] = iso
				}
			}
			return nil
		})

		_ = p.Tables.MADT.Entries(func(e acpi.RawMADTEntry) error {
			if e.Type != acpi.MADTIOAPIC {
				return nil
			}
			entry, err := e.IOAPIC()
			if err != nil {
				return nil
			}
			io := apic.NewIOAPIC(deps.IOAPICMMIO(entry.GSIBase), entry.GSIBase)
			io.MaskAll()
			io.InstallLegacyISARoutes(overrides, bspID)
			p.IOAPICs = append(p.IOAPICs, io)
			return nil
		})
	}

	if deps.Wait10ms != nil {
		ticksPerMs := apic.Calibrate(p.LocalAPIC, deps.Wait10ms, timerCalibrationWaitMs)
		apic.PublishCalibration(ticksPerMs, apic.Divide16)
		apic.InstallPeriodic(p.LocalAPIC, ticksPerMs, timerVector)
		p.TicksPerMs = ticksPerMs
	}
}

// StartAP brings up one application processor: enables its own LAPIC
// and starts its periodic timer from the BSP-published calibration
// (spec.md §4.G's AP bring-up paragraph). The boot stub is responsible
// for actually parking the AP at a kernel entry point that calls this;
// Init itself only runs on the BSP.
func StartAP(ctx context.Context, mmio apic.MMIO) *apic.LocalAPIC {
	l := apic.NewLocalAPIC(mmio)
	l.Enable(spuriousVector)
	l.AcceptAllInterrupts()

	ticksPerMs, _ := apic.CachedCalibration()
	apic.InstallPeriodic(l, ticksPerMs, timerVector)
	return l
}
