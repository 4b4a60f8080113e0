package govern

import (
	"fmt"
	"strconv"
	"strings"
)

// SchedPoint is an immutable triple describing one scheduling decision
// (spec.md §3). Invariant: Higher < Available, and Available equals the
// registry size at the moment of choice.
type SchedPoint struct {
	ThreadID  uint64
	Available uint64
	Higher    uint64
}

// String renders the on-disk record format: three decimal integers
// separated by spaces (spec.md §6 grammar), without the trailing newline.
func (sp SchedPoint) String() string {
	return fmt.Sprintf("%d %d %d", sp.ThreadID, sp.Available, sp.Higher)
}

// parseSchedPoint decodes a single record line. It returns ok=false for any
// line that doesn't match "uint uint uint" exactly, including the "END"
// sentinel and anything with other than exactly three space-separated
// fields (the grammar permits no trailing whitespace after a record).
func parseSchedPoint(line string) (sp SchedPoint, ok bool) {
	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return SchedPoint{}, false
	}
	vals := make([]uint64, 3)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return SchedPoint{}, false
		}
		vals[i] = v
	}
	return SchedPoint{ThreadID: vals[0], Available: vals[1], Higher: vals[2]}, true
}

// countGreater returns the number of entries in the ascending-sorted slice
// ids strictly greater than threadID.
func countGreater(ids []uint64, threadID uint64) int {
	count := 0
	for _, id := range ids {
		if id > threadID {
			count++
		}
	}
	return count
}
