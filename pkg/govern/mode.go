package govern

import (
	"fmt"
	"strings"
)

// Mode selects how the governor picks the next goroutine to run. It is
// immutable for the lifetime of the process (spec.md §3).
type Mode int

const (
	// ModeRandom picks uniformly among subscribed threadIds and records the
	// choice.
	ModeRandom Mode = iota
	// ModeExplore enumerates every interleaving via depth-first search,
	// recording/replaying a prefix across runs.
	ModeExplore
	// ModePreset replays a previously recorded sequence verbatim, aborting
	// on any inconsistency.
	ModePreset
)

func (m Mode) String() string {
	switch m {
	case ModeRandom:
		return "RANDOM"
	case ModeExplore:
		return "EXPLORE"
	case ModePreset:
		return "PRESET"
	default:
		return "UNKNOWN"
	}
}

// parseMode implements the GOV_MODE grammar from spec.md §6: exact values
// RUN_RANDOM/RUN_EXPLORE/RUN_PRESET, or any value starting with the
// corresponding prefix. An empty value defaults to ModeRandom; anything else
// is an error (the caller aborts the process, per spec.md §7 tier 5).
func parseMode(raw string) (Mode, error) {
	switch {
	case raw == "":
		return ModeRandom, nil
	case raw == "RUN_RANDOM" || strings.HasPrefix(raw, "RAND"):
		return ModeRandom, nil
	case raw == "RUN_EXPLORE" || strings.HasPrefix(raw, "EXP"):
		return ModeExplore, nil
	case raw == "RUN_PRESET" || strings.HasPrefix(raw, "PRE"):
		return ModePreset, nil
	default:
		return 0, fmt.Errorf("invalid GOV_MODE %q", raw)
	}
}
