package sched

import (
	"testing"
	"time"
)

func TestSpawnAndPollToCompletion(t *testing.T) {
	ex := NewExecutor(0)
	var ran bool
	_, handle := ex.Spawn(Normal, func(w *Waker) Poll {
		ran = true
		return Ready
	})

	if polled := ex.PollReadyTasks(); polled != 1 {
		t.Fatalf("polled = %d, want 1", polled)
	}
	if !ran {
		t.Fatalf("step was never called")
	}
	select {
	case <-handle.done:
	default:
		t.Fatalf("handle must be done after a Ready step")
	}
}

func TestPendingTaskRequiresWakerToResume(t *testing.T) {
	ex := NewExecutor(0)
	polls := 0
	_, handle := ex.Spawn(Normal, func(w *Waker) Poll {
		polls++
		if polls < 3 {
			go w.Wake()
			return Pending
		}
		return Ready
	})

	ex.PollReadyTasks()
	// Each Pending step's waker re-queues asynchronously; drain until
	// the task completes or we give up.
	deadline := time.Now().Add(time.Second)
	for polls < 3 && time.Now().Before(deadline) {
		ex.PollReadyTasks()
		time.Sleep(time.Millisecond)
	}
	<-handle.done
	if polls != 3 {
		t.Fatalf("polls = %d, want 3", polls)
	}
}

func TestPollPanicAbortsOnlyThatTask(t *testing.T) {
	ex := NewExecutor(0)
	_, badHandle := ex.Spawn(Normal, func(w *Waker) Poll {
		panic("boom")
	})
	var goodRan bool
	_, goodHandle := ex.Spawn(Normal, func(w *Waker) Poll {
		goodRan = true
		return Ready
	})

	ex.PollReadyTasks()

	if _, abort := badHandle.Join(); abort == nil {
		t.Fatalf("expected the panicking task's handle to carry the recovered value")
	}
	if !goodRan {
		t.Fatalf("a panicking task must not prevent its sibling from running")
	}
	if _, abort := goodHandle.Join(); abort != nil {
		t.Fatalf("good task aborted unexpectedly: %v", abort)
	}
}

func TestPreemptBreaksPollLoop(t *testing.T) {
	ex := NewExecutor(0)
	polled := 0
	for i := 0; i < 3; i++ {
		ex.Spawn(Normal, func(w *Waker) Poll {
			polled++
			if polled == 1 {
				ex.RequestPreempt()
			}
			return Ready
		})
	}

	n := ex.PollReadyTasks()
	if n != 1 {
		t.Fatalf("PollReadyTasks polled %d tasks, want exactly 1 before the preempt break", n)
	}
	if !ex.HasReady() {
		t.Fatalf("two tasks must remain ready after the loop broke early")
	}
}

func TestTryStealFromMovesOneTask(t *testing.T) {
	victim := NewExecutor(1)
	thief := NewExecutor(0)

	victim.Spawn(Normal, func(w *Waker) Poll { return Ready })
	id2, handle2 := victim.Spawn(Normal, func(w *Waker) Poll { return Ready })

	if !thief.TryStealFrom(victim) {
		t.Fatalf("steal should succeed with two stealable tasks on the victim")
	}
	if !thief.HasReady() {
		t.Fatalf("thief must have gained a task")
	}

	// The stolen task's state must have migrated too, not just its id:
	// polling it on the thief must still run its step and complete it.
	thief.PollReadyTasks()
	if _, ok := thief.tasks[id2]; ok {
		t.Fatalf("stolen task %d should have been polled to completion, not still pending", id2)
	}
	select {
	case <-handle2.done:
	default:
		t.Fatalf("stolen task's JoinHandle never completed")
	}
}

func TestRunTickStealsWhenLocalIsEmpty(t *testing.T) {
	a := NewExecutor(0)
	b := NewExecutor(1)
	b.Spawn(Normal, func(w *Waker) Poll { return Ready })
	b.Spawn(Normal, func(w *Waker) Poll { return Ready })

	a.RunTick([]*Executor{b})
	if !a.HasReady() {
		t.Fatalf("RunTick must steal when local queue is empty and a peer has stealable work")
	}
}

