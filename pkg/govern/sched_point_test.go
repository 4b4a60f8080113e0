package govern

import "testing"

func TestSchedPointString(t *testing.T) {
	sp := SchedPoint{ThreadID: 3, Available: 5, Higher: 1}
	if got, want := sp.String(), "3 5 1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseSchedPointRoundTrip(t *testing.T) {
	sp := SchedPoint{ThreadID: 12, Available: 20, Higher: 7}
	got, ok := parseSchedPoint(sp.String())
	if !ok {
		t.Fatalf("parseSchedPoint(%q): ok=false", sp.String())
	}
	if got != sp {
		t.Errorf("parseSchedPoint(%q) = %+v, want %+v", sp.String(), got, sp)
	}
}

func TestParseSchedPointRejects(t *testing.T) {
	for _, line := range []string{
		"END",
		"",
		"1 2",
		"1 2 3 4",
		"1 2 x",
		"1  2 3",
		"-1 2 3",
		"1 2 3 ",
	} {
		if _, ok := parseSchedPoint(line); ok {
			t.Errorf("parseSchedPoint(%q): expected ok=false", line)
		}
	}
}

func TestCountGreater(t *testing.T) {
	ids := []uint64{1, 2, 5, 8}
	cases := []struct {
		threadID uint64
		want     int
	}{
		{0, 4},
		{1, 3},
		{5, 1},
		{8, 0},
		{9, 0},
	}
	for _, c := range cases {
		if got := countGreater(ids, c.threadID); got != c.want {
			t.Errorf("countGreater(%v, %d) = %d, want %d", ids, c.threadID, got, c.want)
		}
	}
}
