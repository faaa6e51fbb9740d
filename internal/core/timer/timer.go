// Package timer is a deadline queue run from the frame loop. Callbacks fire
// on the goroutine that calls Run, so they may touch frame state without
// locking.
package timer

import (
	"container/heap"
	"time"
)

// ID identifies a scheduled callback. The zero ID is never issued.
type ID uint64

type entry struct {
	id    ID
	due   time.Time
	seq   uint64
	fn    func(now time.Time)
	index int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue holds pending callbacks ordered by deadline.
type Queue struct {
	entries entryHeap
	byID    map[ID]*entry
	nextID  ID
	seq     uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byID: make(map[ID]*entry)}
}

// At schedules fn to run at the first Run call whose time is >= due.
func (q *Queue) At(due time.Time, fn func(now time.Time)) ID {
	q.nextID++
	q.seq++
	e := &entry{id: q.nextID, due: due, seq: q.seq, fn: fn}
	heap.Push(&q.entries, e)
	q.byID[e.id] = e
	return e.id
}

// After schedules fn to run d after now.
func (q *Queue) After(now time.Time, d time.Duration, fn func(now time.Time)) ID {
	return q.At(now.Add(d), fn)
}

// Cancel removes a pending callback. It reports whether the callback was
// still pending; cancelling a fired or unknown ID is a no-op.
func (q *Queue) Cancel(id ID) bool {
	e, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.entries, e.index)
	delete(q.byID, id)
	return true
}

// Pending reports whether id is still scheduled.
func (q *Queue) Pending(id ID) bool {
	_, ok := q.byID[id]
	return ok
}

// Len returns the number of pending callbacks.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Run fires every callback due at or before now, in deadline order, and
// returns how many fired. Callbacks scheduled by a callback for a time <= now
// also fire in the same call.
func (q *Queue) Run(now time.Time) int {
	fired := 0
	for len(q.entries) > 0 {
		next := q.entries[0]
		if next.due.After(now) {
			break
		}
		heap.Pop(&q.entries)
		delete(q.byID, next.id)
		next.fn(now)
		fired++
	}
	return fired
}

// CancelAll drops every pending callback.
func (q *Queue) CancelAll() {
	q.entries = nil
	q.byID = make(map[ID]*entry)
}

// Group tracks the timers one owner scheduled so they can be cancelled
// together. A stopped group refuses new timers.
type Group struct {
	q       *Queue
	ids     map[ID]struct{}
	stopped bool
}

// NewGroup returns a group scheduling on q.
func NewGroup(q *Queue) *Group {
	return &Group{q: q, ids: make(map[ID]struct{})}
}

// After schedules fn on the group's queue. It returns 0 once the group is
// stopped.
func (g *Group) After(now time.Time, d time.Duration, fn func(now time.Time)) ID {
	if g.stopped {
		return 0
	}
	var id ID
	id = g.q.After(now, d, func(t time.Time) {
		delete(g.ids, id)
		fn(t)
	})
	g.ids[id] = struct{}{}
	return id
}

// Cancel cancels one timer of the group.
func (g *Group) Cancel(id ID) bool {
	if _, ok := g.ids[id]; !ok {
		return false
	}
	delete(g.ids, id)
	return g.q.Cancel(id)
}

// Len returns the number of pending timers in the group.
func (g *Group) Len() int {
	return len(g.ids)
}

// Stop cancels every pending timer and refuses new ones. Safe to call more
// than once.
func (g *Group) Stop() {
	for id := range g.ids {
		g.q.Cancel(id)
	}
	g.ids = make(map[ID]struct{})
	g.stopped = true
}
