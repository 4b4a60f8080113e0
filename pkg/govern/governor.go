// Package govern is a deterministic thread governor: cooperating goroutines
// insert explicit control points into their code, and at each control point
// the governor selects exactly one goroutine to proceed, suspending all
// others. Repeated runs can pick choices uniformly at random, enumerate
// every interleaving via depth-first search, or replay a previously
// recorded sequence verbatim (spec.md §1).
//
// The governor does not detect data races, does not implement fairness or
// priority, and does not survive a crash of the program under test
// mid-run; see spec.md §1 for the full list of non-goals.
package govern

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/brnhx/govthread/pkg/govern/affinity"
	"github.com/brnhx/govthread/pkg/govern/goid"
)

// defaultFile is the implementation-chosen backing file name, overridable
// with GOV_FILE (spec.md §6 calls the path "implementation-chosen").
const defaultFile = "gov.data"

// Config configures a Governor. Use NewGovernor directly in tests; the
// package-level functions (Prepare, Subscribe, ...) lazily build one Config
// from the environment on first use, matching spec.md §3's "process-wide
// singleton created at first use".
type Config struct {
	// File is the backing file path (spec.md §6). Defaults to "gov.data".
	File string
	// Mode selects the scheduling algorithm. Defaults to ModeRandom.
	Mode Mode
	// Seed seeds the RNG used in ModeRandom. NewGovernor uses it as given
	// (a zero Seed seeds with 0); the package-level functions take it from
	// GOV_SEED, or else from the current time, since spec.md doesn't
	// require reproducibility across processes in RANDOM mode.
	Seed int64
	// Affinity enables the CPU-affinity hint on Subscribe/Unsubscribe. The
	// original source wires this but leaves both call sites commented out;
	// this repo keeps that default (disabled) and wires it fully behind
	// the flag. See DESIGN.md.
	Affinity bool
}

// Governor is the scheduling engine described by spec.md §2-§5. The zero
// value is not usable; construct with NewGovernor.
type Governor struct {
	mu sync.Mutex

	mode Mode
	reg  *registry
	gt   *gate
	ch   *chooser
	seq  *sequenceStore
	st   *store

	affinity        affinity.Controller
	affinityEnabled bool

	closed bool
}

// NewGovernor builds a Governor and performs the same initial, forced Reset
// the original source's constructor performs: for ModeExplore/ModePreset
// this hydrates the in-memory sequence from cfg.File (recovering a
// crashed-but-unfinished run, spec.md S6), and for ModeRandom/ModeExplore
// it truncates cfg.File ready for writing. A missing file in ModePreset is
// fatal (spec.md §7 tier 3).
func NewGovernor(cfg Config) *Governor {
	if cfg.File == "" {
		cfg.File = defaultFile
	}

	gv := &Governor{
		mode:            cfg.Mode,
		reg:             newRegistry(),
		gt:              newGate(),
		ch:              newChooser(cfg.Mode, cfg.Seed),
		seq:             newSequenceStore(),
		st:              newStore(cfg.File, cfg.Mode),
		affinity:        affinity.New(),
		affinityEnabled: cfg.Affinity,
	}

	gv.mu.Lock()
	gv.reset(true)
	gv.mu.Unlock()

	return gv
}

// Prepare declares that n goroutines will subsequently Subscribe. Legal at
// any time; overwrites any previous value (spec.md §4.1).
func (gv *Governor) Prepare(n uint64) {
	gv.mu.Lock()
	defer gv.mu.Unlock()
	if gv.closed {
		return
	}
	gv.reg.prepare(n)
}

// Subscribe registers the calling goroutine under the given threadId.
// Double-subscribing, subscribing past the declared count, and reusing a
// threadId are all misuse (spec.md §7 tier 2); this implementation treats
// them as fatal, consistent with the PRESET-inconsistency tier which must
// already abort (see DESIGN.md, Open Question 3). A goroutine spawned by
// Go() that outlives Shutdown finds the governor inert rather than fatal,
// mirroring the original source's own thread-exit hook tolerating teardown
// after main (see SPEC_FULL.md, Supplemented features).
func (gv *Governor) Subscribe(threadID uint64) {
	goID := goid.Current()

	gv.mu.Lock()
	if gv.closed {
		gv.mu.Unlock()
		return
	}
	err := gv.reg.subscribe(goID, threadID)
	gv.mu.Unlock()

	if err != nil {
		fatalf("Subscribe(%d): %v", threadID, err)
		return
	}

	if gv.affinityEnabled {
		if err := gv.affinity.Pin(); err != nil {
			diagf("affinity pin for threadId %d: %v", threadID, err)
		}
	}
}

// Unsubscribe deregisters the calling goroutine. It is a no-op if the
// caller was never subscribed (spec.md §7 tier 1) or if the governor has
// already been shut down. On removal it attempts a new choice so the
// remaining subscribed goroutines can progress.
func (gv *Governor) Unsubscribe() {
	goID := goid.Current()

	gv.mu.Lock()
	if gv.closed {
		gv.mu.Unlock()
		return
	}
	_, removed := gv.reg.unsubscribe(goID)
	if removed {
		gv.attemptChoice(goID)
	}
	gv.mu.Unlock()

	if removed && gv.affinityEnabled {
		if err := gv.affinity.Release(); err != nil {
			diagf("affinity release: %v", err)
		}
	}
}

// ControlPoint yields scheduling authority to the governor and returns only
// once this goroutine has been re-selected. A no-op for an unsubscribed
// caller (spec.md §4.6) or after Shutdown.
func (gv *Governor) ControlPoint() {
	goID := goid.Current()

	gv.mu.Lock()
	if gv.closed {
		gv.mu.Unlock()
		return
	}
	st, ok := gv.reg.lookup(goID)
	if !ok {
		gv.mu.Unlock()
		return
	}
	st.inControlPoint = true
	gv.attemptChoice(goID)
	gv.mu.Unlock()

	gv.gt.spinUntilSelf(goID)
}

// attemptChoice is the Chooser reattempt of spec.md §4.3. Must be called
// with gv.mu held. It first vacates the gate if the caller currently holds
// it, then proceeds only if scheduling is fully enabled: expected-subscriber
// count is zero, every subscribed goroutine is in a control point, and the
// registry is non-empty.
func (gv *Governor) attemptChoice(selfGoID uint64) bool {
	gv.gt.clearIfSelf(selfGoID)

	if gv.reg.expected != 0 {
		return false
	}
	if gv.reg.size() == 0 {
		return false
	}
	if !gv.reg.allInControlPoint() {
		return false
	}

	var sp SchedPoint
	switch gv.mode {
	case ModeRandom:
		sp = gv.ch.selectRandom(gv.reg, gv.seq)
	case ModeExplore:
		sp = gv.ch.selectExplore(gv.reg, gv.seq)
	case ModePreset:
		chosen, err := gv.ch.selectPreset(gv.reg, gv.seq)
		if err != nil {
			fatalf("%v", err)
		}
		sp = chosen
	}

	if gv.mode == ModeRandom || gv.mode == ModeExplore {
		if err := gv.st.append(sp); err != nil {
			diagf("failed to persist decision: %v", err)
		}
	}

	goID, ok := gv.reg.goroutineFor(sp.ThreadID)
	if !ok {
		fatalf("chosen threadId %d is not subscribed", sp.ThreadID)
	}
	st, _ := gv.reg.lookup(goID)
	st.inControlPoint = false
	gv.gt.release(goID)
	return true
}

// Reset advances to the next run. With force=false and no scheduling since
// the last reset, it is an idempotent no-op (P9). Otherwise it closes out
// the completed run's persisted sequence and applies the mode-specific
// advance from spec.md §4.4, returning false only when ModeExplore has
// enumerated every reachable sequence, or ModePreset has already run once.
func (gv *Governor) Reset(force bool) bool {
	gv.mu.Lock()
	defer gv.mu.Unlock()
	return gv.reset(force)
}

func (gv *Governor) reset(force bool) bool {
	if !force && gv.seq.idx == 0 {
		return true
	}

	if gv.seq.idx > 0 {
		if err := gv.st.finish(); err != nil {
			diagf("failed to close out schedule file: %v", err)
		}
	}

	switch gv.mode {
	case ModeExplore, ModePreset:
		points, done, found, err := gv.st.load()
		switch {
		case err != nil:
			diagf("failed to load schedule file: %v", err)
		case gv.mode == ModePreset && !found:
			fatalf("PRESET - missing schedule file %s", gv.st.path)
		default:
			gv.seq.points = points
			gv.seq.done = done
		}
	}

	if gv.mode == ModeRandom || gv.mode == ModeExplore {
		if err := gv.st.beginWrite(); err != nil {
			diagf("failed to reopen schedule file for writing: %v", err)
		}
	}

	switch gv.mode {
	case ModeRandom:
		gv.seq.clear()
		return true
	case ModeExplore:
		ok := gv.seq.exploreAdvance()
		if !ok {
			diagf("EXPLORE - reached last state")
		}
		return ok
	case ModePreset:
		return gv.seq.presetAdvance()
	default:
		return true
	}
}

// Shutdown tears the Governor down: it closes out any in-progress schedule
// file, appending the END sentinel. Idempotent. Mirrors the original
// source's destructor, which unconditionally finishes the file regardless
// of whether any scheduling happened (spec.md §3: "the backing file is...
// left open for the process lifetime").
func (gv *Governor) Shutdown() {
	gv.mu.Lock()
	defer gv.mu.Unlock()
	if gv.closed {
		return
	}
	gv.closed = true
	if err := gv.st.finish(); err != nil {
		diagf("failed to finish schedule file on shutdown: %v", err)
	}
}

var (
	defaultOnce sync.Once
	defaultGov  *Governor
)

// configFromEnv builds a Config from GOV_MODE, GOV_FILE, GOV_SEED, and
// GOV_AFFINITY, matching the environment-variable shape moriarty's
// Initialize() uses for MORIARTY_MODE/MORIARTY_TRACE/MORIARTY_SEED. An
// invalid GOV_MODE is fatal at construction (spec.md §7 tier 5).
func configFromEnv() Config {
	mode, err := parseMode(os.Getenv("GOV_MODE"))
	if err != nil {
		fatalf("%v", err)
	}

	file := os.Getenv("GOV_FILE")

	seed := time.Now().UnixNano()
	if raw := os.Getenv("GOV_SEED"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fatalf("invalid GOV_SEED %q: %v", raw, err)
		}
		seed = v
	}

	return Config{
		File:     file,
		Mode:     mode,
		Seed:     seed,
		Affinity: os.Getenv("GOV_AFFINITY") == "1",
	}
}

// defaultGovernor lazily constructs the process-wide singleton on first use
// (spec.md §3, §9).
func defaultGovernor() *Governor {
	defaultOnce.Do(func() {
		defaultGov = NewGovernor(configFromEnv())
	})
	return defaultGov
}

// Prepare declares that n goroutines will subsequently Subscribe, using the
// process-wide governor.
func Prepare(n uint64) { defaultGovernor().Prepare(n) }

// Subscribe registers the calling goroutine under threadId, using the
// process-wide governor.
func Subscribe(threadID uint64) { defaultGovernor().Subscribe(threadID) }

// Unsubscribe deregisters the calling goroutine, using the process-wide
// governor.
func Unsubscribe() { defaultGovernor().Unsubscribe() }

// ControlPoint yields scheduling authority, using the process-wide
// governor.
func ControlPoint() { defaultGovernor().ControlPoint() }

// Reset advances to the next run, using the process-wide governor.
func Reset(force bool) bool { return defaultGovernor().Reset(force) }

// Shutdown tears down the process-wide governor. Call once, near the end of
// main; safe to call even if the governor was never used.
func Shutdown() { defaultGovernor().Shutdown() }

// Go is the governor's goroutine-start/goroutine-exit hook pair (spec.md
// §6's "external collaborator" contracts), expressed the idiomatic Go way:
// rather than overriding a thread-creation primitive, it wraps the
// goroutine body with Subscribe on entry and Unsubscribe on exit (via
// defer, so a panic in fn still unblocks any goroutine waiting on this one
// at a control point).
func Go(threadID uint64, fn func()) {
	go func() {
		Subscribe(threadID)
		defer Unsubscribe()
		fn()
	}()
}
