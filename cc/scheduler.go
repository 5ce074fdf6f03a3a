package cc

import "container/heap"

// Time is simulated seconds since the start of the run.
type Time float64

// Handle identifies a scheduled event for cancellation. It stays valid
// (cancel is a no-op) after the event has already fired.
type Handle uint64

type schedEvent struct {
	time Time
	seq  uint64
	fn   func()
	dead bool
	idx  int
}

type eventQueue []*schedEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].idx, q[j].idx = i, j
}

func (q *eventQueue) Push(x any) {
	e := x.(*schedEvent)
	e.idx = len(*q)
	*q = append(*q, e)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.idx = -1
	*q = old[:n-1]
	return e
}

// Scheduler is a deterministic, single-threaded discrete-event loop: a
// priority queue of (time, sequence, callback) triples, dispatched in
// strictly increasing time order with insertion-order tie-breaking
// (spec.md §4.D / §5).
type Scheduler struct {
	queue   eventQueue
	now     Time
	nextSeq uint64
	byHandle map[Handle]*schedEvent
	nextHandle Handle
}

// NewScheduler returns an empty scheduler with the clock at t=0.
func NewScheduler() *Scheduler {
	return &Scheduler{
		byHandle: make(map[Handle]*schedEvent),
	}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() Time {
	return s.now
}

// ScheduleAt arms cb to run at absolute time t. Events scheduled for a
// time before Now are dispatched on the next Run* call, immediately.
func (s *Scheduler) ScheduleAt(t Time, cb func()) Handle {
	e := &schedEvent{time: t, seq: s.nextSeq, fn: cb}
	s.nextSeq++
	heap.Push(&s.queue, e)
	h := s.nextHandle
	s.nextHandle++
	s.byHandle[h] = e
	return h
}

// ScheduleAfter arms cb to run delta seconds from Now.
func (s *Scheduler) ScheduleAfter(delta Time, cb func()) Handle {
	return s.ScheduleAt(s.now+delta, cb)
}

// Cancel marks handle's event dead. Idempotent; safe to call after the
// event already fired or was already cancelled.
func (s *Scheduler) Cancel(h Handle) {
	if e, ok := s.byHandle[h]; ok {
		e.dead = true
		delete(s.byHandle, h)
	}
}

// RunUntil dispatches events in time order until the queue is empty or the
// next event's time exceeds stop, in which case the clock is advanced to
// stop and the call returns.
func (s *Scheduler) RunUntil(stop Time) {
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.time > stop {
			break
		}
		heap.Pop(&s.queue)
		if next.dead {
			continue
		}
		s.now = next.time
		next.fn()
	}
	if s.now < stop {
		s.now = stop
	}
}
