//go:build lockdepwarn

package lockdep

// reportCycle handles a detected lock-order cycle. Warn-only build: logs
// instead of panicking, for environments that want to keep running and
// collect every violation in one session rather than stop at the first.
func (t *Tracker) reportCycle(held, acquiring LockClassId, stack *heldStack) {
	Logger.Printf(
		"potential deadlock detected! held=%q(%s) acquiring=%q(%s) stack_depth=%d",
		t.className(held), t.classKind(held),
		t.className(acquiring), t.classKind(acquiring),
		stack.depth,
	)
}

// reportIRQSafety handles a detected IRQ-safety violation. Warn-only
// build: logs instead of panicking.
func (t *Tracker) reportIRQSafety(class LockClassId) {
	Logger.Printf(
		"IRQ-safety violation! lock=%q(%s) used in both IRQ and non-IRQ contexts",
		t.className(class), t.classKind(class),
	)
}
