package sched

// starvationLimit is the number of consecutive Normal dequeues allowed
// before a waiting Background task is given a turn.
const starvationLimit = 100

// ReadyQueues is one FIFO per priority tier, dispatched by strict
// priority with a starvation-prevention relaxation for Background and a
// work-stealing relaxation across CPUs. The zero value is ready to use.
type ReadyQueues struct {
	queues [numPriorities]deque
	// normalStreak counts consecutive Normal dequeues made while
	// Background work was waiting; a Critical or Background dequeue, or a
	// Normal dequeue with no Background work waiting, resets it.
	normalStreak uint64
}

// NewReadyQueues returns empty ready queues.
func NewReadyQueues() *ReadyQueues {
	return &ReadyQueues{}
}

// Push appends id to the queue for priority.
func (q *ReadyQueues) Push(priority Priority, id TaskId) {
	q.queues[priority].pushBack(id)
}

// Pop dequeues the highest-priority ready task. Critical always drains
// first; between Normal and Background, applies starvation prevention —
// after starvationLimit consecutive Normal pops with Background work
// waiting, one Background pop is forced instead.
func (q *ReadyQueues) Pop() (Priority, TaskId, bool) {
	if id, ok := q.queues[Critical].popFront(); ok {
		q.normalStreak = 0
		return Critical, id, true
	}

	hasBackground := q.queues[Background].len() > 0
	hasNormal := q.queues[Normal].len() > 0

	if hasNormal && hasBackground && q.normalStreak >= starvationLimit {
		q.normalStreak = 0
		if id, ok := q.queues[Background].popFront(); ok {
			return Background, id, true
		}
	}

	if id, ok := q.queues[Normal].popFront(); ok {
		if hasBackground {
			q.normalStreak++
		} else {
			q.normalStreak = 0
		}
		return Normal, id, true
	}

	q.normalStreak = 0
	if id, ok := q.queues[Background].popFront(); ok {
		return Background, id, true
	}
	return 0, 0, false
}

// HasReady is an O(1) test that any tier has work, used by the executor
// as a guard against stealing while a stranded task is waiting locally.
func (q *ReadyQueues) HasReady() bool {
	for i := range q.queues {
		if q.queues[i].len() > 0 {
			return true
		}
	}
	return false
}

// StealOne takes one task from the back of Normal, else Background —
// never Critical, which is locality-bound — to let the victim keep its
// hot front-of-queue tasks local while the thief takes the coldest one.
//
// One-task rule: refuses to steal if the victim's total stealable count
// (Normal + Background) is 1, preventing the bouncing livelock where two
// idle CPUs trade a single ready task back and forth without either
// making forward progress.
func (q *ReadyQueues) StealOne() (Priority, TaskId, bool) {
	stealable := q.queues[Normal].len() + q.queues[Background].len()
	if stealable <= 1 {
		return 0, 0, false
	}

	if id, ok := q.queues[Normal].popBack(); ok {
		return Normal, id, true
	}
	if id, ok := q.queues[Background].popBack(); ok {
		return Background, id, true
	}
	return 0, 0, false
}
