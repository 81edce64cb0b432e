// Package lockdep records "class A was held when class B was acquired" as a
// directed edge in a lock dependency graph and runs cycle detection the
// moment a new edge appears — catching a potential deadlock before it has
// ever actually manifested.
//
// Capacity: 256 lock classes, 32 nesting depth per simulated CPU, 1024
// edges in the dependency graph.
package lockdep

import "sync/atomic"

// MaxClasses bounds the number of distinct lock classes the tracker can
// register.
const MaxClasses = 256

// MaxHeld bounds the nesting depth of the per-CPU held-lock stack.
const MaxHeld = 32

// MaxEdges bounds the number of distinct edges recorded for diagnostics.
const MaxEdges = 1024

// MaxCPUs bounds the number of simulated CPUs the tracker keeps a held-lock
// stack for. cpu_local.rs (the source of the grounded constant) was not
// part of the retrieved original_source file set, so this is sized
// generously rather than copied.
const MaxCPUs = 256

// LockKind names the kind of lock a class represents, for diagnostics.
type LockKind uint8

const (
	SpinLock LockKind = iota
	IrqSpinLock
	Mutex
	RwLock
)

func (k LockKind) String() string {
	switch k {
	case SpinLock:
		return "SpinLock"
	case IrqSpinLock:
		return "IrqSpinLock"
	case Mutex:
		return "Mutex"
	case RwLock:
		return "RwLock"
	default:
		return "Unknown"
	}
}

// LockClassKey is a zero-sized marker meant to be declared as a package
// level var; its address is its identity. Multiple lock instances can
// share a single class by referencing the same key, which matters for
// per-object locks (per-inode, per-device) where each instance must not
// consume its own class slot.
type LockClassKey struct {
	_ byte
}

// LockClassRef combines a static key with an optional subclass and a
// diagnostic name. Subclasses distinguish different usage patterns of the
// same lock type, e.g. parent vs. child inode locks.
type LockClassRef struct {
	Key      *LockClassKey
	Subclass uint8
	Name     string
}

// LockClassId identifies a registered lock class: its index in the class
// table, so the first class registered is 0. NoClass means "not
// registered".
type LockClassId uint16

// NoClass is the sentinel meaning "no class" — returned when the class
// table is full, so that subsequent hooks become no-ops for that lock
// instance.
const NoClass LockClassId = 0xFFFF

// Index returns the class table index for id.
func (id LockClassId) Index() int { return int(id) }

// IsNone reports whether id is the NoClass sentinel.
func (id LockClassId) IsNone() bool { return id == NoClass }

const (
	irqUsedInIRQ    uint32 = 1 << 0
	irqUsedInNonIRQ uint32 = 1 << 1
)

// classEntry holds the metadata for one registered lock class. name and
// kind are written exactly once, before the class is published by
// incrementing Tracker.classCount; every reader reaches a slot only after
// observing that publish, so the two fields need no atomic of their own.
type classEntry struct {
	keyAddr  atomic.Uint64
	subclass atomic.Uint32
	name     string
	kind     LockKind
	irqUsage atomic.Uint32
}
