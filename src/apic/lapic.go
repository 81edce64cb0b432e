package apic

import "sync/atomic"

// LAPIC register offsets (Intel SDM vol. 3A, table 11-1), in bytes from
// the 4 KiB MMIO window's base.
const (
	regID               uint32 = 0x020
	regVersion          uint32 = 0x030
	regTPR              uint32 = 0x080 // task priority register
	regEOI              uint32 = 0x0B0
	regSpuriousVector   uint32 = 0x0F0
	regLVTTimer         uint32 = 0x320
	regTimerInitCount   uint32 = 0x380
	regTimerCurCount    uint32 = 0x390
	regTimerDivide      uint32 = 0x3E0
)

const (
	spuriousVectorEnable = 1 << 8 // bit 8 of the spurious-interrupt register: APIC software enable
	lvtTimerPeriodic     = 1 << 17
	lvtMasked            = 1 << 16
)

// TimerDivide is the LAPIC timer's divide-configuration value. Spec.md
// §4.G step 10 calibrates at divisor 16.
type TimerDivide uint8

const (
	Divide1   TimerDivide = 0b1011
	Divide2   TimerDivide = 0b0000
	Divide4   TimerDivide = 0b0001
	Divide8   TimerDivide = 0b0010
	Divide16  TimerDivide = 0b0011
	Divide32  TimerDivide = 0b1000
	Divide64  TimerDivide = 0b1001
	Divide128 TimerDivide = 0b1010
)

// LocalAPIC drives one CPU's Local APIC through its MMIO window.
type LocalAPIC struct {
	mmio MMIO
}

// NewLocalAPIC wraps an already-mapped LAPIC MMIO window.
func NewLocalAPIC(mmio MMIO) *LocalAPIC { return &LocalAPIC{mmio: mmio} }

// cachedBase is published once by the BSP (spec.md §4.G step 8,
// §9 "global mutable state") and read lock-free by every CPU's hot EOI
// path — no lock is acquired on the common case of knowing the base is
// already set.
var cachedBase atomic.Uint64

// PublishBase stores the LAPIC's physical base address for every CPU
// (including APs, which map it themselves) to read without locking.
func PublishBase(phys uint64) { cachedBase.Store(phys) }

// CachedBase returns the published LAPIC physical base, or 0 if
// PublishBase hasn't run yet.
func CachedBase() uint64 { return cachedBase.Load() }

// Enable sets the spurious-interrupt vector and the APIC software-enable
// bit (spec.md §4.G step 6).
func (l *LocalAPIC) Enable(spuriousVector uint8) {
	l.mmio.Write32(regSpuriousVector, uint32(spuriousVector)|spuriousVectorEnable)
}

// AcceptAllInterrupts sets TPR to 0, the lowest priority threshold, so
// no interrupt is masked by priority class.
func (l *LocalAPIC) AcceptAllInterrupts() {
	l.mmio.Write32(regTPR, 0)
}

// EOI signals end-of-interrupt. Must be written with 0; any other value
// is architecturally undefined.
func (l *LocalAPIC) EOI() {
	l.mmio.Write32(regEOI, 0)
}

// ID returns this LAPIC's local APIC ID (bits 24-31 of the ID register).
func (l *LocalAPIC) ID() uint8 {
	return uint8(l.mmio.Read32(regID) >> 24)
}

// ArmOneShot programs the timer for one-shot mode at the given divisor
// and initial count, masked, used during calibration (spec.md §4.G
// step 10: "arm one-shot at divisor 16 with initial count u32::MAX").
func (l *LocalAPIC) ArmOneShot(divide TimerDivide, initialCount uint32, vector uint8) {
	l.mmio.Write32(regTimerDivide, uint32(divide))
	l.mmio.Write32(regLVTTimer, uint32(vector)|lvtMasked)
	l.mmio.Write32(regTimerInitCount, initialCount)
}

// CurrentCount reads the timer's current countdown value, used to
// measure elapsed ticks during calibration.
func (l *LocalAPIC) CurrentCount() uint32 {
	return l.mmio.Read32(regTimerCurCount)
}

// StartPeriodic programs the timer for periodic mode at the given
// divisor, initial count, and vector — the steady-state 1 ms tick
// installed after calibration.
func (l *LocalAPIC) StartPeriodic(divide TimerDivide, initialCount uint32, vector uint8) {
	l.mmio.Write32(regTimerDivide, uint32(divide))
	l.mmio.Write32(regLVTTimer, uint32(vector)|lvtTimerPeriodic)
	l.mmio.Write32(regTimerInitCount, initialCount)
}

// MaskTimer stops the timer from firing without losing its programming.
func (l *LocalAPIC) MaskTimer() {
	l.mmio.Write32(regLVTTimer, l.mmio.Read32(regLVTTimer)|lvtMasked)
}
