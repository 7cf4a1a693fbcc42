package cluster

import "container/heap"

// EventHeap orders pending events by (timestamp, EventTypePriority, event ID).
// Event IDs are assigned in scheduling order, so equal-time events of one type
// run first-scheduled first.
type EventHeap struct {
	events []Event
}

// NewEventHeap returns an empty heap.
func NewEventHeap() *EventHeap {
	return &EventHeap{}
}

func (h *EventHeap) Len() int { return len(h.events) }

func (h *EventHeap) Less(i, j int) bool {
	a, b := h.events[i], h.events[j]
	if ta, tb := a.Timestamp(), b.Timestamp(); ta != tb {
		return ta < tb
	}
	if pa, pb := EventTypePriority[a.Type()], EventTypePriority[b.Type()]; pa != pb {
		return pa < pb
	}
	return a.EventID() < b.EventID()
}

func (h *EventHeap) Swap(i, j int) { h.events[i], h.events[j] = h.events[j], h.events[i] }

// Push is for container/heap; use Schedule.
func (h *EventHeap) Push(x any) { h.events = append(h.events, x.(Event)) }

// Pop is for container/heap; use PopNext.
func (h *EventHeap) Pop() any {
	last := len(h.events) - 1
	e := h.events[last]
	h.events[last] = nil
	h.events = h.events[:last]
	return e
}

// Schedule inserts e.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, e)
}

// PopNext removes the earliest event. Returns nil on an empty heap.
func (h *EventHeap) PopNext() Event {
	if len(h.events) == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the earliest event without removing it, or nil.
func (h *EventHeap) Peek() Event {
	if len(h.events) == 0 {
		return nil
	}
	return h.events[0]
}
