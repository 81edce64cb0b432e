package sched

// deque is a growable double-ended queue of TaskId, standing in for the
// source's alloc::collections::VecDeque — unlike the fixed-capacity
// containers in src/fvec and src/ring, a ready queue has no natural
// compile-time bound on live task count, so it grows.
type deque struct {
	buf        []TaskId
	head, size int
}

func (d *deque) pushBack(id TaskId) {
	if d.size == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.size)%len(d.buf)] = id
	d.size++
}

func (d *deque) popFront() (TaskId, bool) {
	if d.size == 0 {
		return 0, false
	}
	v := d.buf[d.head]
	d.head = (d.head + 1) % len(d.buf)
	d.size--
	return v, true
}

func (d *deque) popBack() (TaskId, bool) {
	if d.size == 0 {
		return 0, false
	}
	idx := (d.head + d.size - 1) % len(d.buf)
	d.size--
	return d.buf[idx], true
}

func (d *deque) len() int { return d.size }

func (d *deque) grow() {
	newCap := len(d.buf) * 2
	if newCap == 0 {
		newCap = 8
	}
	newBuf := make([]TaskId, newCap)
	for i := 0; i < d.size; i++ {
		newBuf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = newBuf
	d.head = 0
}
