package sched

import (
	"sync"
	"sync/atomic"
)

// Poll is the outcome of stepping a task once.
type Poll int

const (
	// Pending means the task suspended and must wait for its Waker to
	// be invoked before it can make further progress.
	Pending Poll = iota
	// Ready means the task has produced its result and is done.
	Ready
)

// StepFunc performs one unit of work for a task. The source expresses
// per-task work as a suspendable computation resumed by a waker; without
// native coroutines, a task is instead an explicit step function called
// once per poll, given the Waker it should invoke (from wherever it
// parks — a timer, a channel, a lock) once it can make progress again.
type StepFunc func(w *Waker) Poll

// Waker requeues a task onto the ready queue of the executor that last
// owned it. A single task is always either queued or being polled, never
// both, so repeated or redundant Wake calls are harmless.
type Waker struct {
	executor *Executor
	id       TaskId
	priority Priority
}

// Wake requeues the task. Safe to call from any goroutine, including a
// simulated interrupt handler.
func (w *Waker) Wake() {
	w.executor.requeue(w.priority, w.id)
}

// CPU reports which executor is currently polling this task, letting a
// step function (or a harness observing it) tell whether the task
// migrated CPUs since its last poll, e.g. via TryStealFrom.
func (w *Waker) CPU() int {
	return w.executor.CPU
}

// JoinHandle observes a spawned task's completion.
type JoinHandle struct {
	done   chan struct{}
	result any
	abort  any // non-nil if the task's step panicked
}

// Join blocks until the task completes, then returns its result, or its
// recovered panic value if it aborted.
func (h *JoinHandle) Join() (result any, abort any) {
	<-h.done
	return h.result, h.abort
}

type taskState struct {
	priority Priority
	step     StepFunc
	handle   *JoinHandle
}

// Executor is a cooperative, single-threaded-per-CPU task scheduler
// backed by a ReadyQueues. Multiple Executors (one per simulated CPU)
// cooperate through TryStealFrom to balance load; see src/hostsim for
// the multi-CPU harness.
type Executor struct {
	CPU int

	mu    sync.Mutex
	ready ReadyQueues
	tasks map[TaskId]*taskState

	preemptPending atomic.Bool
}

// nextTaskID is shared by every Executor so that a TaskId stays unique
// across CPUs, including after TryStealFrom moves a task between them.
var nextTaskID atomic.Uint64

// NewExecutor returns an idle executor identified as the given simulated
// CPU.
func NewExecutor(cpu int) *Executor {
	return &Executor{CPU: cpu, tasks: make(map[TaskId]*taskState)}
}

// Spawn registers a new task at priority and enqueues it for polling on
// this executor, returning a handle to observe its completion.
func (ex *Executor) Spawn(priority Priority, step StepFunc) (TaskId, *JoinHandle) {
	id := TaskId(nextTaskID.Add(1))
	handle := &JoinHandle{done: make(chan struct{})}

	ex.mu.Lock()
	ex.tasks[id] = &taskState{priority: priority, step: step, handle: handle}
	ex.ready.Push(priority, id)
	ex.mu.Unlock()

	return id, handle
}

// requeue pushes id back onto the ready queue it belongs to, for a
// Waker firing after this task suspended.
func (ex *Executor) requeue(priority Priority, id TaskId) {
	ex.mu.Lock()
	ex.ready.Push(priority, id)
	ex.mu.Unlock()
}

// RequestPreempt marks that the next poll-loop iteration boundary should
// break and rotate to stealing/idle, as a periodic timer interrupt would.
func (ex *Executor) RequestPreempt() {
	ex.preemptPending.Store(true)
}

// PollReadyTasks polls locally ready tasks in priority order until either
// the local queue empties or a preemption is pending, per the executor
// run loop in spec.md §4.F. Returns the number of tasks polled.
func (ex *Executor) PollReadyTasks() int {
	polled := 0
	for {
		ex.mu.Lock()
		priority, id, ok := ex.ready.Pop()
		ex.mu.Unlock()
		if !ok {
			break
		}

		ex.poll(priority, id)
		polled++

		if ex.preemptPending.Swap(false) {
			break
		}
	}
	return polled
}

// poll steps one task once. A panicking step aborts only that task
// (failure semantics, spec.md §4.F) rather than the executor loop.
func (ex *Executor) poll(priority Priority, id TaskId) {
	ex.mu.Lock()
	st, ok := ex.tasks[id]
	ex.mu.Unlock()
	if !ok {
		return
	}

	var result Poll
	var abortVal any
	func() {
		defer func() {
			if r := recover(); r != nil {
				abortVal = r
			}
		}()
		result = st.step(&Waker{executor: ex, id: id, priority: priority})
	}()

	if abortVal != nil {
		ex.finish(id, nil, abortVal)
		return
	}
	if result == Ready {
		ex.finish(id, nil, nil)
	}
	// Pending: the task's own waker call (already made, or to be made
	// later from wherever it parked) is responsible for requeueing it.
}

func (ex *Executor) finish(id TaskId, result, abort any) {
	ex.mu.Lock()
	st, ok := ex.tasks[id]
	if ok {
		delete(ex.tasks, id)
	}
	ex.mu.Unlock()
	if !ok {
		return
	}
	st.handle.result = result
	st.handle.abort = abort
	close(st.handle.done)
}

// HasReady reports whether this executor's local queue has work, used as
// the guard against stealing while a stranded task awaits local
// re-polling.
func (ex *Executor) HasReady() bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.ready.HasReady()
}

// TryStealFrom attempts to take one task from victim's queue onto ex's
// own, returning whether a task was moved. The task's state (step
// function and JoinHandle) migrates into ex's own tasks map along with
// its id; leaving it behind in victim.tasks would make poll miss it
// after the steal and silently drop the task.
func (ex *Executor) TryStealFrom(victim *Executor) bool {
	victim.mu.Lock()
	priority, id, ok := victim.ready.StealOne()
	if !ok {
		victim.mu.Unlock()
		return false
	}
	st, ok := victim.tasks[id]
	if ok {
		delete(victim.tasks, id)
	}
	victim.mu.Unlock()
	if !ok {
		return false
	}

	ex.mu.Lock()
	ex.tasks[id] = st
	ex.ready.Push(priority, id)
	ex.mu.Unlock()
	return true
}

// RunTick performs one iteration of the per-CPU run loop: poll locally
// ready tasks, and if the local queue is empty afterward, try to steal
// one task from each peer in turn. Returns true if any work was polled
// or stolen, so a caller driving this as an idle loop knows whether to
// HLT or go straight to the next tick.
func (ex *Executor) RunTick(peers []*Executor) bool {
	polled := ex.PollReadyTasks() > 0

	if ex.HasReady() {
		return polled
	}

	for _, peer := range peers {
		if peer == ex {
			continue
		}
		if ex.TryStealFrom(peer) {
			return true
		}
	}

	return polled
}
