package govern

import (
	"fmt"
	"math/rand"
)

// chooser implements the mode-dispatched selection algorithms of spec.md
// §4.3. It is invoked only while the core mutex is held.
type chooser struct {
	mode Mode
	rng  *rand.Rand
}

func newChooser(mode Mode, seed int64) *chooser {
	return &chooser{mode: mode, rng: rand.New(rand.NewSource(seed))}
}

// selectRandom enumerates subscribed threadIds in ascending order, uniformly
// samples one, appends the resulting SchedPoint to seq, and positions the
// cursor at it.
func (c *chooser) selectRandom(reg *registry, seq *sequenceStore) SchedPoint {
	ids := reg.sortedThreadIDs()
	chosen := ids[c.rng.Intn(len(ids))]
	sp := SchedPoint{
		ThreadID:  chosen,
		Available: uint64(len(ids)),
		Higher:    uint64(countGreater(ids, chosen)),
	}
	seq.points = append(seq.points, sp)
	seq.idx = len(seq.points) - 1
	return sp
}

// selectExplore consumes (or, at the frontier, creates) the SchedPoint at
// the current cursor. On the final stored point, the recorded threadId may
// no longer be subscribed (Reset advances it blindly); it is repaired to
// the smallest currently-subscribed threadId that is >= the recorded one,
// without renormalising Higher (spec.md §9 Open Question; see DESIGN.md).
func (c *chooser) selectExplore(reg *registry, seq *sequenceStore) SchedPoint {
	idx := seq.idx
	seq.idx++

	if idx == len(seq.points) {
		ids := reg.sortedThreadIDs()
		sp := SchedPoint{
			ThreadID:  ids[0],
			Available: uint64(len(ids)),
			Higher:    uint64(len(ids) - 1),
		}
		seq.points = append(seq.points, sp)
	}

	sp := seq.points[idx]
	if idx == len(seq.points)-1 {
		for _, id := range reg.sortedThreadIDs() {
			if id >= sp.ThreadID {
				sp.ThreadID = id
				break
			}
		}
	}
	return sp
}

// selectPreset consumes the SchedPoint at the current cursor, validating it
// against the live registry. Any disagreement is a spec.md §7 tier 3
// inconsistency; the caller aborts the process.
func (c *chooser) selectPreset(reg *registry, seq *sequenceStore) (SchedPoint, error) {
	idx := seq.idx
	seq.idx++

	if idx >= len(seq.points) {
		return SchedPoint{}, fmt.Errorf("PRESET - no scheduling available at line %d", idx+1)
	}
	sp := seq.points[idx]

	if _, ok := reg.goroutineFor(sp.ThreadID); !ok {
		return SchedPoint{}, fmt.Errorf("PRESET - threadId %d is invalid at line %d", sp.ThreadID, idx+1)
	}

	ids := reg.sortedThreadIDs()
	if uint64(len(ids)) != sp.Available {
		return SchedPoint{}, fmt.Errorf("PRESET - wrong available value (%d vs %d) at line %d",
			sp.Available, len(ids), idx+1)
	}

	higher := uint64(countGreater(ids, sp.ThreadID))
	if sp.Higher != higher {
		return SchedPoint{}, fmt.Errorf("PRESET - wrong higher value (%d vs %d) at line %d",
			sp.Higher, higher, idx+1)
	}

	return sp, nil
}
