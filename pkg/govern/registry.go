package govern

import (
	"fmt"
	"sort"
)

// threadState is the per-subscribed-goroutine mutable record (spec.md §3).
// threadID is fixed for the life of the record; inControlPoint is true iff
// the owning goroutine has entered a control point and not yet been chosen.
type threadState struct {
	threadID       uint64
	inControlPoint bool
}

// registry tracks subscribed goroutines, their user-assigned threadIds, and
// the expected-subscriber count (spec.md §4.1). It keeps two coordinated,
// bijective views: byGoroutine (opaque per-goroutine identity -> state) and
// byThreadID (threadId -> opaque identity), always equal in size (P1).
type registry struct {
	byGoroutine map[uint64]*threadState
	byThreadID  map[uint64]uint64
	expected    uint64
}

func newRegistry() *registry {
	return &registry{
		byGoroutine: make(map[uint64]*threadState),
		byThreadID:  make(map[uint64]uint64),
	}
}

// prepare sets the expected-subscriber count, overwriting any previous
// value. Legal at any time (spec.md §4.1).
func (r *registry) prepare(n uint64) {
	r.expected = n
}

// subscribe associates goID with a new threadState. It returns an error,
// never panics, for each of the three documented misuse cases.
func (r *registry) subscribe(goID, threadID uint64) error {
	if _, ok := r.byGoroutine[goID]; ok {
		return fmt.Errorf("goroutine already subscribed")
	}
	if r.expected == 0 {
		return fmt.Errorf("no more goroutines were expected to subscribe")
	}
	if _, used := r.byThreadID[threadID]; used {
		return fmt.Errorf("threadId %d is already in use", threadID)
	}
	r.byGoroutine[goID] = &threadState{threadID: threadID}
	r.byThreadID[threadID] = goID
	r.expected--
	return nil
}

// unsubscribe removes goID's record if present. It reports whether a record
// was removed and, if so, the threadId it held.
func (r *registry) unsubscribe(goID uint64) (threadID uint64, removed bool) {
	st, ok := r.byGoroutine[goID]
	if !ok {
		return 0, false
	}
	delete(r.byGoroutine, goID)
	delete(r.byThreadID, st.threadID)
	return st.threadID, true
}

func (r *registry) lookup(goID uint64) (*threadState, bool) {
	st, ok := r.byGoroutine[goID]
	return st, ok
}

func (r *registry) size() int {
	return len(r.byGoroutine)
}

// goroutineFor returns the opaque identity currently holding threadID.
func (r *registry) goroutineFor(threadID uint64) (uint64, bool) {
	goID, ok := r.byThreadID[threadID]
	return goID, ok
}

// sortedThreadIDs returns the subscribed threadIds in ascending order, the
// canonical order the chooser uses for tie-breaking (spec.md §3).
func (r *registry) sortedThreadIDs() []uint64 {
	ids := make([]uint64, 0, len(r.byThreadID))
	for id := range r.byThreadID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// allInControlPoint reports whether every subscribed goroutine currently has
// its inControlPoint flag set.
func (r *registry) allInControlPoint() bool {
	for _, st := range r.byGoroutine {
		if !st.inControlPoint {
			return false
		}
	}
	return true
}
