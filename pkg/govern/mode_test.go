package govern

import "testing"

func TestParseModeDefaults(t *testing.T) {
	m, err := parseMode("")
	if err != nil {
		t.Fatalf("parseMode(\"\"): %v", err)
	}
	if m != ModeRandom {
		t.Errorf("expected ModeRandom for empty GOV_MODE, got %v", m)
	}
}

func TestParseModePrefixes(t *testing.T) {
	cases := []struct {
		raw  string
		want Mode
	}{
		{"RUN_RANDOM", ModeRandom},
		{"RANDOM", ModeRandom},
		{"RAND", ModeRandom},
		{"RUN_EXPLORE", ModeExplore},
		{"EXPLORE", ModeExplore},
		{"EXP", ModeExplore},
		{"RUN_PRESET", ModePreset},
		{"PRESET", ModePreset},
		{"PRE", ModePreset},
	}
	for _, c := range cases {
		got, err := parseMode(c.raw)
		if err != nil {
			t.Errorf("parseMode(%q): unexpected error: %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseMode(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestParseModeInvalid(t *testing.T) {
	for _, raw := range []string{"bogus", "random", "exp lore", "RUN"} {
		if _, err := parseMode(raw); err == nil {
			t.Errorf("parseMode(%q): expected error, got none", raw)
		}
	}
}

func TestModeString(t *testing.T) {
	cases := map[Mode]string{
		ModeRandom:  "RANDOM",
		ModeExplore: "EXPLORE",
		ModePreset:  "PRESET",
		Mode(99):    "UNKNOWN",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}
