package apic

import "sync/atomic"

const calibrationDivisor = Divide16

// timerInitCount and timerDivideCfg are the two atomics spec.md §9
// names for periodic-timer calibration: published once by the BSP after
// Calibrate runs, read lock-free by every AP as it starts its own
// periodic timer.
var (
	timerInitCount atomic.Uint32
	timerDivideCfg atomic.Uint32
)

// PublishCalibration stores the calibrated (initialCount, divide) pair
// for every AP to read.
func PublishCalibration(initialCount uint32, divide TimerDivide) {
	timerInitCount.Store(initialCount)
	timerDivideCfg.Store(uint32(divide))
}

// CachedCalibration returns the published calibration, or (0, 0) before
// the BSP has calibrated.
func CachedCalibration() (initialCount uint32, divide TimerDivide) {
	return timerInitCount.Load(), TimerDivide(timerDivideCfg.Load())
}

// Calibrate arms the LAPIC timer one-shot at divisor 16 with initial
// count u32::MAX, invokes wait (expected to busy-wait exactly waitMs
// milliseconds against HPET or, failing that, the PIT), then computes
// ticks per millisecond from how far the countdown fell
// (spec.md §4.G step 10).
//
// wait is injected rather than this package reaching for a time source
// itself: bare-metal waits against a mapped HPET/PIT, hostsim's wait
// can fast-forward a simulated clock instead of sleeping a real 10 ms.
func Calibrate(l *LocalAPIC, wait func(), waitMs uint32) uint32 {
	const maxCount = 0xFFFFFFFF
	l.ArmOneShot(calibrationDivisor, maxCount, 0)
	wait()
	elapsed := maxCount - l.CurrentCount()
	return elapsed / waitMs
}

// InstallPeriodic starts the steady-state 1 ms periodic tick at the
// calibrated rate and vector, masks nothing (the LVT entry is left
// unmasked so ticks actually fire).
func InstallPeriodic(l *LocalAPIC, ticksPerMs uint32, vector uint8) {
	l.StartPeriodic(calibrationDivisor, ticksPerMs, vector)
}
