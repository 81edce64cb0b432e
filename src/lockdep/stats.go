//go:build lockstat

package lockdep

import (
	"sync/atomic"
	"time"

	"github.com/google/pprof/profile"
)

// classStats holds per-class contention statistics. Times are recorded in
// nanoseconds rather than raw TSC ticks: this tracker runs in host tests
// and simulated-CPU harnesses, not on bare metal, so there is no rdtsc to
// read and no reason to defer the conversion to a reporting tool.
type classStats struct {
	acquisitions   atomic.Uint64
	contentions    atomic.Uint64
	maxHoldNanos   atomic.Uint64
	totalHoldNanos atomic.Uint64
	maxWaitNanos   atomic.Uint64
	totalWaitNanos atomic.Uint64
}

func (s *classStats) recordAcquisition() { s.acquisitions.Add(1) }
func (s *classStats) recordContention()  { s.contentions.Add(1) }

func (s *classStats) recordHoldTime(d time.Duration) {
	s.totalHoldNanos.Add(uint64(d))
	casMax(&s.maxHoldNanos, uint64(d))
}

func (s *classStats) recordWaitTime(d time.Duration) {
	s.totalWaitNanos.Add(uint64(d))
	casMax(&s.maxWaitNanos, uint64(d))
}

func casMax(slot *atomic.Uint64, v uint64) {
	for cur := slot.Load(); v > cur; cur = slot.Load() {
		if slot.CompareAndSwap(cur, v) {
			return
		}
	}
}

// statsTracker is the stats side-table, indexed the same way as
// Tracker.classes. It is separate from Tracker so that a build without
// the lockstat tag carries none of this bookkeeping.
type statsTracker struct {
	stats [MaxClasses]classStats
}

var defaultStats statsTracker

func init() {
	recordAcquisitionHook = func(t *Tracker, class LockClassId) {
		defaultStats.stats[class.Index()].recordAcquisition()
	}
	recordReleaseHook = func(t *Tracker, entry heldEntry) {
		now := uint64(time.Now().UnixNano())
		if now > entry.acquireTSC {
			defaultStats.stats[entry.class.Index()].recordHoldTime(time.Duration(now - entry.acquireTSC))
		}
	}
}

// LockContended records that acquiring class had to wait — called by a
// lock implementation's slow path, separate from LockAcquired so
// contention can be measured even with cycle checking disabled.
func (t *Tracker) LockContended(class LockClassId) {
	if !class.IsNone() {
		defaultStats.stats[class.Index()].recordContention()
	}
}

// RecordHoldTime records how long class was held for, once released.
func (t *Tracker) RecordHoldTime(class LockClassId, d time.Duration) {
	if !class.IsNone() {
		defaultStats.stats[class.Index()].recordHoldTime(d)
	}
}

// RecordWaitTime records how long a caller waited to acquire class.
func (t *Tracker) RecordWaitTime(class LockClassId, d time.Duration) {
	if !class.IsNone() {
		defaultStats.stats[class.Index()].recordWaitTime(d)
	}
}

// DumpProfile renders the per-class contention statistics as a
// pprof Profile, one sample per class with acquisitions/contentions as
// sample values and total hold/wait nanoseconds, so the numbers are
// inspectable with any pprof-compatible tool instead of a bespoke dump
// format.
func (t *Tracker) DumpProfile() *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "acquisitions", Unit: "count"},
			{Type: "contentions", Unit: "count"},
			{Type: "hold_time", Unit: "nanoseconds"},
			{Type: "wait_time", Unit: "nanoseconds"},
		},
		TimeNanos: 0,
	}

	count := int(t.classCount.Load())
	locations := make(map[string]*profile.Location)
	functions := make(map[string]*profile.Function)
	var nextID uint64

	for i := 0; i < count; i++ {
		acq := defaultStats.stats[i].acquisitions.Load()
		if acq == 0 {
			continue
		}
		name := t.classes[i].name

		fn, ok := functions[name]
		if !ok {
			nextID++
			fn = &profile.Function{ID: nextID, Name: name}
			functions[name] = fn
			p.Function = append(p.Function, fn)
		}
		loc, ok := locations[name]
		if !ok {
			nextID++
			loc = &profile.Location{ID: nextID, Line: []profile.Line{{Function: fn}}}
			locations[name] = loc
			p.Location = append(p.Location, loc)
		}

		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value: []int64{
				int64(acq),
				int64(defaultStats.stats[i].contentions.Load()),
				int64(defaultStats.stats[i].totalHoldNanos.Load()),
				int64(defaultStats.stats[i].totalWaitNanos.Load()),
			},
			Label: map[string][]string{"kind": {t.classes[i].kind.String()}},
		})
	}

	return p
}
