// Persistence for the governor's decision sequence. Grounded on moriarty's
// pkg/runtime/trace.go (bufio + os.Create/os.Open streaming I/O), adapted
// from JSON-lines Events to the line-oriented SchedPoint grammar of
// spec.md §6. The original C++ source backs this with an mmap'd,
// geometrically-grown file; spec.md §4.5/§9 call both acceptable as long as
// the on-disk bytes match, and no example repo in the retrieval pack
// imports an mmap library, so this repo follows moriarty's own idiom
// instead (see DESIGN.md, Open Question 2).
package govern

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// store owns the backing file described in spec.md §6: one SchedPoint
// record per line, `threadId available higher\n`, terminated by an `END\n`
// sentinel on clean completion of a writing run.
type store struct {
	path string
	mode Mode
	f    *os.File // open only while a writing-mode run is in progress
}

func newStore(path string, mode Mode) *store {
	return &store{path: path, mode: mode}
}

// load reads records from the start of the file until one fails to parse,
// then checks for the trailing END sentinel. found reports whether the file
// existed at all; a missing file is not itself an error (the caller decides
// whether that's fatal, per spec.md §7 tier 3 for ModePreset).
func (s *store) load() (points []SchedPoint, done bool, found bool, err error) {
	f, openErr := os.Open(s.path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil, false, false, nil
		}
		return nil, false, false, fmt.Errorf("govern: open %s: %w", s.path, openErr)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "END" {
			done = true
			break
		}
		sp, ok := parseSchedPoint(line)
		if !ok {
			break
		}
		points = append(points, sp)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, false, true, fmt.Errorf("govern: read %s: %w", s.path, scanErr)
	}
	return points, done, true, nil
}

// beginWrite truncates the file and opens it for append, ready for fresh
// records. A no-op in ModePreset, which never writes.
func (s *store) beginWrite() error {
	if s.mode == ModePreset {
		return nil
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("govern: truncate %s: %w", s.path, err)
	}
	s.f = f
	return nil
}

// append writes one record. A no-op if no writing-mode run is in progress.
func (s *store) append(sp SchedPoint) error {
	if s.f == nil {
		return nil
	}
	if _, err := fmt.Fprintf(s.f, "%s\n", sp.String()); err != nil {
		return fmt.Errorf("govern: write %s: %w", s.path, err)
	}
	return nil
}

// ReadSchedule decodes a schedule file without requiring a live Governor,
// for tooling (cmd/govthread's inspect subcommand) that just wants to show
// what's on disk. clean reports whether the file ends with the END
// sentinel.
func ReadSchedule(path string) (points []SchedPoint, clean bool, err error) {
	s := newStore(path, ModeExplore)
	points, clean, found, err := s.load()
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, fmt.Errorf("govern: %s: %w", path, os.ErrNotExist)
	}
	return points, clean, nil
}

// finish appends the END sentinel and closes the file, leaving the file
// exactly `records + "END\n"` bytes (spec.md §9). A no-op if no file is
// open.
func (s *store) finish() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	if _, err := io.WriteString(f, "END\n"); err != nil {
		f.Close()
		return fmt.Errorf("govern: write %s: %w", s.path, err)
	}
	return f.Close()
}
