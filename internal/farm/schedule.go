package farm

import (
	"container/heap"
	"time"
)

// scheduleEntry is one pending poll in the queue. seq breaks ties between
// entries due at the same instant so ordering stays deterministic.
type scheduleEntry struct {
	due    time.Time
	taskID int
	seq    uint64
}

type entryHeap []scheduleEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].due.Equal(h[j].due) {
		return h[i].due.Before(h[j].due)
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(scheduleEntry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// schedule is a min-ordered queue of task polls. Each task has at most
// one live entry; Push after Pop reschedules.
type schedule struct {
	entries entryHeap
	nextSeq uint64
}

func newSchedule() *schedule {
	s := &schedule{}
	heap.Init(&s.entries)
	return s
}

// Push queues a poll for taskID at the given time
func (s *schedule) Push(taskID int, due time.Time) {
	s.nextSeq++
	heap.Push(&s.entries, scheduleEntry{due: due, taskID: taskID, seq: s.nextSeq})
}

// Pop removes and returns the earliest entry
func (s *schedule) Pop() (scheduleEntry, bool) {
	if len(s.entries) == 0 {
		return scheduleEntry{}, false
	}
	return heap.Pop(&s.entries).(scheduleEntry), true
}

// Peek returns the earliest entry without removing it
func (s *schedule) Peek() (scheduleEntry, bool) {
	if len(s.entries) == 0 {
		return scheduleEntry{}, false
	}
	return s.entries[0], true
}

func (s *schedule) Len() int {
	return len(s.entries)
}
