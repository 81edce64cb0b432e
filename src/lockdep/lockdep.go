package lockdep

import (
	"log"
	"os"
	"sync/atomic"
	"time"
)

// Logger receives lockdep diagnostics (violation reports in warn-only
// builds, stats dumps). Tests may redirect it to capture output.
var Logger = log.New(os.Stderr, "lockdep: ", log.LstdFlags)

// Tracker holds one independent lock-dependency graph, class table, and
// set of per-CPU held-lock stacks. Production code uses the package-level
// Default tracker; tests construct their own so cases don't interfere.
type Tracker struct {
	classes    [MaxClasses]classEntry
	classCount atomic.Uint32

	graph     [graphWords]atomic.Uint64
	graphLock spinLock
	edges     [MaxEdges]depEdge
	edgeCount atomic.Uint32

	held      [MaxCPUs]heldStack
	inTracker [MaxCPUs]atomic.Bool
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Default is the tracker synchronization primitives register with unless
// they are explicitly given another one (as hostsim's simulated-CPU tests
// do, to keep scenarios independent).
var Default = New()

// Register assigns a class identity to a single lock instance, keyed by
// the instance's own address. Equivalent to GetOrRegisterWithSubclass with
// subclass 0.
func (t *Tracker) Register(keyAddr uintptr, name string, kind LockKind) LockClassId {
	return t.GetOrRegisterWithSubclass(keyAddr, 0, name, kind)
}

// GetOrRegisterWithSubclass returns the class id for (keyAddr, subclass),
// registering a new class on first sight. Idempotent: concurrent callers
// racing to register the same (keyAddr, subclass) converge on one id.
func (t *Tracker) GetOrRegisterWithSubclass(keyAddr uintptr, subclass uint8, name string, kind LockKind) LockClassId {
	if id, ok := t.lookupClass(keyAddr, subclass); ok {
		return id
	}

	t.graphLock.acquire()
	defer t.graphLock.release()

	// Re-check: another goroutine may have registered it while we were
	// waiting for the lock.
	if id, ok := t.lookupClass(keyAddr, subclass); ok {
		return id
	}

	count := int(t.classCount.Load())
	if count >= MaxClasses {
		return NoClass
	}

	entry := &t.classes[count]
	entry.keyAddr.Store(uint64(keyAddr))
	entry.subclass.Store(uint32(subclass))
	entry.name = name
	entry.kind = kind

	t.classCount.Store(uint32(count + 1))
	return LockClassId(count)
}

func (t *Tracker) lookupClass(keyAddr uintptr, subclass uint8) (LockClassId, bool) {
	count := int(t.classCount.Load())
	for i := 0; i < count; i++ {
		if t.classes[i].keyAddr.Load() == uint64(keyAddr) && t.classes[i].subclass.Load() == uint32(subclass) {
			return LockClassId(i), true
		}
	}
	return NoClass, false
}

// RegisterClass registers a class from a LockClassRef, using the key's
// address as the identity shared across instances.
func (t *Tracker) RegisterClass(ref LockClassRef, kind LockKind) LockClassId {
	return t.GetOrRegisterWithSubclass(keyAddress(ref.Key), ref.Subclass, ref.Name, kind)
}

// LockAcquired runs the acquire hook for class on the simulated CPU cpuID:
// it records IRQ-usage context, adds a dependency edge from every
// currently-held class to class, and panics (or logs, in a warn-only
// build) on the first edge that closes a cycle.
func (t *Tracker) LockAcquired(cpuID int, class LockClassId, irq bool) {
	if class.IsNone() {
		return
	}

	guard := &t.inTracker[cpuID]
	if !guard.CompareAndSwap(false, true) {
		return
	}
	defer guard.Store(false)

	usageBit := irqUsedInNonIRQ
	if irq {
		usageBit = irqUsedInIRQ
	}
	// Or returns the value from before this bit was set, mirroring
	// fetch_or: we need to know whether the *other* context bit was
	// already set prior to this acquisition.
	prevUsage := t.classes[class.Index()].irqUsage.Or(usageBit)

	if irq && prevUsage&irqUsedInNonIRQ != 0 {
		if t.classes[class.Index()].kind != IrqSpinLock {
			t.reportIRQSafety(class)
		}
	}

	held := &t.held[cpuID]
	for i := 0; i < held.depth; i++ {
		h := held.stack[i].class
		if h.IsNone() || h == class {
			continue
		}

		if graphTest(&t.graph, h.Index(), class.Index()) {
			continue
		}

		t.graphLock.acquire()
		if !graphTest(&t.graph, h.Index(), class.Index()) {
			graphSet(&t.graph, h.Index(), class.Index())

			edgeIdx := int(t.edgeCount.Add(1) - 1)
			if edgeIdx < MaxEdges {
				t.edges[edgeIdx].from.Store(uint32(h))
				t.edges[edgeIdx].to.Store(uint32(class))
			}

			if hasPath(&t.graph, int(t.classCount.Load()), class, h) {
				t.graphLock.release()
				t.reportCycle(h, class, held)
				held.push(heldEntry{class: class, acquireTSC: uint64(time.Now().UnixNano())})
				return
			}
		}
		t.graphLock.release()
	}

	held.push(heldEntry{class: class, acquireTSC: uint64(time.Now().UnixNano())})

	if recordAcquisitionHook != nil {
		recordAcquisitionHook(t, class)
	}
}

// recordAcquisitionHook is nil unless the lockstat build tag pulls in
// stats.go, which sets it from an init() — keeping contention-statistics
// bookkeeping entirely out of the default build.
var recordAcquisitionHook func(t *Tracker, class LockClassId)

// LockReleased runs the release hook for class on cpuID, popping it off
// that CPU's held-lock stack.
func (t *Tracker) LockReleased(cpuID int, class LockClassId) {
	if class.IsNone() {
		return
	}

	guard := &t.inTracker[cpuID]
	if !guard.CompareAndSwap(false, true) {
		return
	}
	defer guard.Store(false)

	entry, ok := t.held[cpuID].pop(class)
	if ok && recordReleaseHook != nil {
		recordReleaseHook(t, entry)
	}
}

// recordReleaseHook mirrors recordAcquisitionHook for the release side;
// nil unless the lockstat build tag sets it.
var recordReleaseHook func(t *Tracker, entry heldEntry)

func (t *Tracker) className(id LockClassId) string {
	idx := id.Index()
	if idx < int(t.classCount.Load()) {
		return t.classes[idx].name
	}
	return "<unknown>"
}

func (t *Tracker) classKind(id LockClassId) LockKind {
	idx := id.Index()
	if idx < int(t.classCount.Load()) {
		return t.classes[idx].kind
	}
	return SpinLock
}

// ResetForTest clears all tracker state. Tests must not run this
// concurrently with any lock acquisition against the same tracker.
func (t *Tracker) ResetForTest() {
	*t = Tracker{}
}
