package sim

import (
	"container/heap"
	"slices"
)

// EventQueue is a priority queue of events with deterministic ordering:
// time, then kind, then insertion order.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.events)
	return q
}

// Schedule adds an event.
func (q *EventQueue) Schedule(e Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.events, e)
}

// PopNext removes and returns the next event.
func (q *EventQueue) PopNext() (Event, bool) {
	if q.events.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.events).(Event), true
}

// Peek returns the next event without removing it.
func (q *EventQueue) Peek() (Event, bool) {
	if q.events.Len() == 0 {
		return Event{}, false
	}
	return q.events[0], true
}

// PopBatch removes the next event together with every following event that
// has the same time and kind.
func (q *EventQueue) PopBatch() (Batch, bool) {
	first, ok := q.PopNext()
	if !ok {
		return Batch{}, false
	}
	b := Batch{
		Time:   first.Time,
		Kind:   first.Kind,
		Disks:  []int{first.Disk},
		Shares: []float64{first.Bandwidth},
	}
	for {
		next, ok := q.Peek()
		if !ok || next.Time != b.Time || next.Kind != b.Kind {
			return b, true
		}
		heap.Pop(&q.events)
		b.Disks = append(b.Disks, next.Disk)
		b.Shares = append(b.Shares, next.Bandwidth)
	}
}

func (q *EventQueue) Len() int { return q.events.Len() }

// Clear drops every pending event.
func (q *EventQueue) Clear() {
	q.events = q.events[:0]
	q.nextSeq = 0
}

// Snapshot returns the pending events in processing order.
func (q *EventQueue) Snapshot() []Event {
	out := slices.Clone([]Event(q.events))
	slices.SortFunc(out, func(a, b Event) int {
		if eventLess(a, b) {
			return -1
		}
		if eventLess(b, a) {
			return 1
		}
		return 0
	})
	return out
}

func eventLess(a, b Event) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.seq < b.seq
}

// eventHeap implements heap.Interface.
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return eventLess(h[i], h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
