//go:build !lockdepwarn

package lockdep

import "fmt"

// reportCycle handles a detected lock-order cycle. Default build: panics
// with the full held-lock stack, since a potential deadlock is a
// programmer error that should stop the offending goroutine immediately
// rather than let it run toward an actual hang.
func (t *Tracker) reportCycle(held, acquiring LockClassId, stack *heldStack) {
	panic(fmt.Sprintf(
		"lockdep: potential deadlock detected!\nHeld: %q (%s) | Acquiring: %q (%s)\nHeld-lock stack depth: %d",
		t.className(held), t.classKind(held),
		t.className(acquiring), t.classKind(acquiring),
		stack.depth,
	))
}

// reportIRQSafety handles a detected IRQ-safety violation: a class used
// in both IRQ and non-IRQ context without being an IrqSpinLock. Default
// build: panics.
func (t *Tracker) reportIRQSafety(class LockClassId) {
	panic(fmt.Sprintf(
		"lockdep: IRQ-safety violation!\nLock %q (%s) used in both IRQ and non-IRQ contexts.\nUse IrqSpinLock if this lock must be shared with interrupt handlers.",
		t.className(class), t.classKind(class),
	))
}
