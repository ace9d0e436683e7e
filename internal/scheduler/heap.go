package scheduler

import (
	"container/heap"
	"sort"
	"strings"
)

// scheduleHeap implements container/heap.Interface for ScheduleEvent,
// sorted by TriggerAt (earliest first).
type scheduleHeap []ScheduleEvent

func (h scheduleHeap) Len() int           { return len(h) }
func (h scheduleHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h scheduleHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scheduleHeap) Push(x any) {
	*h = append(*h, x.(ScheduleEvent))
}

func (h *scheduleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// heapPush adds e, replacing any pending event with the same name.
func heapPush(h *scheduleHeap, e ScheduleEvent) {
	heapRemoveByName(h, e.Name)
	heap.Push(h, e)
}

// heapPop removes and returns the ScheduleEvent with the earliest TriggerAt.
// Panics if the heap is empty.
func heapPop(h *scheduleHeap) ScheduleEvent {
	return heap.Pop(h).(ScheduleEvent)
}

// heapRemoveByName removes the event with the given name.
// Returns true if the event was found and removed, false otherwise.
func heapRemoveByName(h *scheduleHeap, name string) bool {
	for i, e := range *h {
		if e.Name == name {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// heapRemoveByPrefix removes every event whose name starts with prefix and
// returns how many were dropped.
func heapRemoveByPrefix(h *scheduleHeap, prefix string) int {
	kept := (*h)[:0]
	removed := 0
	for _, e := range *h {
		if strings.HasPrefix(e.Name, prefix) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	*h = kept
	if removed > 0 {
		heap.Init(h)
	}
	return removed
}

// heapSnapshot returns a copy of the pending events ordered by TriggerAt.
func heapSnapshot(h *scheduleHeap) []ScheduleEvent {
	out := make([]ScheduleEvent, len(*h))
	copy(out, *h)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TriggerAt.Equal(out[j].TriggerAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}
