package govern

import "testing"

func newSubscribedRegistry(threadIDs ...uint64) *registry {
	r := newRegistry()
	r.prepare(uint64(len(threadIDs)))
	for i, id := range threadIDs {
		_ = r.subscribe(uint64(i+1), id)
	}
	return r
}

func TestSelectRandomRecordsAndAdvances(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	c := newChooser(ModeRandom, 1)

	sp := c.selectRandom(reg, seq)

	if sp.Available != 3 {
		t.Errorf("Available = %d, want 3", sp.Available)
	}
	if sp.Higher != uint64(countGreater([]uint64{0, 1, 2}, sp.ThreadID)) {
		t.Errorf("Higher = %d inconsistent with ThreadID %d", sp.Higher, sp.ThreadID)
	}
	if len(seq.points) != 1 || seq.points[0] != sp {
		t.Errorf("selectRandom() didn't record into seq: %v", seq.points)
	}
	if seq.idx != 0 {
		t.Errorf("seq.idx = %d, want 0", seq.idx)
	}
}

func TestSelectExploreFirstChoiceTakesAllBranches(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	c := newChooser(ModeExplore, 0)

	sp := c.selectExplore(reg, seq)

	want := SchedPoint{ThreadID: 0, Available: 3, Higher: 2}
	if sp != want {
		t.Errorf("selectExplore() first point = %+v, want %+v", sp, want)
	}
	if seq.idx != 1 {
		t.Errorf("seq.idx = %d, want 1", seq.idx)
	}
}

func TestSelectExploreRepairsMissingFrontierThreadID(t *testing.T) {
	// Thread 0 from the previous run's frontier has since unsubscribed; the
	// smallest subscribed threadId >= 0 (1) should be substituted, with
	// Higher carried over unchanged.
	reg := newSubscribedRegistry(1, 2, 3)
	seq := newSequenceStore()
	seq.points = []SchedPoint{{ThreadID: 0, Available: 3, Higher: 2}}

	c := newChooser(ModeExplore, 0)
	sp := c.selectExplore(reg, seq)

	if sp.ThreadID != 1 {
		t.Errorf("repaired ThreadID = %d, want 1 (smallest subscribed >= 0)", sp.ThreadID)
	}
	if sp.Higher != 2 {
		t.Errorf("repaired Higher = %d, want 2 (unchanged)", sp.Higher)
	}
}

func TestSelectPresetConsistent(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	seq.points = []SchedPoint{{ThreadID: 1, Available: 3, Higher: 1}}

	c := newChooser(ModePreset, 0)
	sp, err := c.selectPreset(reg, seq)
	if err != nil {
		t.Fatalf("selectPreset(): %v", err)
	}
	if sp != seq.points[0] {
		t.Errorf("selectPreset() = %+v, want %+v", sp, seq.points[0])
	}
}

func TestSelectPresetRejectsUnknownThreadID(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	seq.points = []SchedPoint{{ThreadID: 9, Available: 3, Higher: 0}}

	c := newChooser(ModePreset, 0)
	if _, err := c.selectPreset(reg, seq); err == nil {
		t.Errorf("selectPreset() with unknown threadId: expected error")
	}
}

func TestSelectPresetRejectsWrongAvailable(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	seq.points = []SchedPoint{{ThreadID: 0, Available: 7, Higher: 2}}

	c := newChooser(ModePreset, 0)
	if _, err := c.selectPreset(reg, seq); err == nil {
		t.Errorf("selectPreset() with wrong Available: expected error")
	}
}

func TestSelectPresetRejectsWrongHigher(t *testing.T) {
	reg := newSubscribedRegistry(0, 1, 2)
	seq := newSequenceStore()
	seq.points = []SchedPoint{{ThreadID: 0, Available: 3, Higher: 0}}

	c := newChooser(ModePreset, 0)
	if _, err := c.selectPreset(reg, seq); err == nil {
		t.Errorf("selectPreset() with wrong Higher: expected error")
	}
}

func TestSelectPresetRejectsExhaustedSequence(t *testing.T) {
	reg := newSubscribedRegistry(0)
	seq := newSequenceStore()

	c := newChooser(ModePreset, 0)
	if _, err := c.selectPreset(reg, seq); err == nil {
		t.Errorf("selectPreset() past end of sequence: expected error")
	}
}
