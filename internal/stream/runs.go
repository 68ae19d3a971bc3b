// ABOUTME: TTL-bounded table of in-flight run accumulators keyed by run ID.
// ABOUTME: Insertion-order list gives O(1) oldest-first eviction when at capacity.

package stream

import (
	"container/list"
	"time"
)

// runState accumulates one assistant generation turn.
type runState struct {
	runID    string
	text     string
	lastSeq  int64
	touched  time.Time
	element  *list.Element
}

// runTable holds active runs with a TTL and a size cap. A run normally
// leaves the table on lifecycle end/abort; the TTL is a safety net for runs
// whose terminal event was lost, so the table cannot grow without bound.
type runTable struct {
	runs    map[string]*runState
	order   *list.List // run IDs in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
}

func newRunTable(ttl time.Duration, maxSize int) *runTable {
	return &runTable{
		runs:    make(map[string]*runState),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// get returns the live run for runID, or nil if absent or expired.
func (t *runTable) get(runID string, now time.Time) *runState {
	run, ok := t.runs[runID]
	if !ok {
		return nil
	}
	if t.ttl > 0 && now.Sub(run.touched) > t.ttl {
		t.removeLocked(run)
		return nil
	}
	return run
}

// create inserts a fresh run, evicting the oldest entry if at capacity.
func (t *runTable) create(runID string, now time.Time) *runState {
	if t.maxSize > 0 && len(t.runs) >= t.maxSize {
		t.evictOldest()
	}
	run := &runState{runID: runID, touched: now}
	run.element = t.order.PushBack(runID)
	t.runs[runID] = run
	return run
}

// touch refreshes a run's TTL clock.
func (t *runTable) touch(run *runState, now time.Time) {
	run.touched = now
	t.order.MoveToBack(run.element)
}

// remove deletes a run by ID. Returns the removed run, or nil.
func (t *runTable) remove(runID string) *runState {
	run, ok := t.runs[runID]
	if !ok {
		return nil
	}
	t.removeLocked(run)
	return run
}

func (t *runTable) removeLocked(run *runState) {
	t.order.Remove(run.element)
	delete(t.runs, run.runID)
}

func (t *runTable) evictOldest() {
	front := t.order.Front()
	if front == nil {
		return
	}
	runID, _ := front.Value.(string)
	t.order.Remove(front)
	delete(t.runs, runID)
}

// sweep removes all expired runs and returns how many were evicted.
func (t *runTable) sweep(now time.Time) int {
	if t.ttl <= 0 {
		return 0
	}
	evicted := 0
	for _, run := range t.runs {
		if now.Sub(run.touched) > t.ttl {
			t.removeLocked(run)
			evicted++
		}
	}
	return evicted
}

// size returns the number of live runs.
func (t *runTable) size() int {
	return len(t.runs)
}
