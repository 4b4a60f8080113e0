package govern

import (
	"runtime"
	"sync/atomic"
)

// noThread is the sentinel gate value meaning "nobody may run". Goroutine
// identities handed out by pkg/govern/goid start at 1, so 0 is never a real
// identity (spec.md §3).
const noThread = uint64(0)

// gate is the single shared cell holding the opaque identity of the
// goroutine currently permitted to run (spec.md §4.2). All reads and writes
// use sequentially-consistent atomics; it is the only cross-goroutine
// communication channel outside the core mutex (spec.md §5).
type gate struct {
	active atomic.Uint64
}

func newGate() *gate {
	g := &gate{}
	g.active.Store(noThread)
	return g
}

// release hands control to goID. It is the only mechanism that wakes exactly
// one spinning goroutine.
func (g *gate) release(goID uint64) {
	g.active.Store(goID)
}

// clearIfSelf vacates the gate if, and only if, goID currently holds it. A
// goroutine calls this on its own identity just before it might choose a
// replacement, mirroring the original source's UpdateActiveThread.
func (g *gate) clearIfSelf(goID uint64) {
	g.active.CompareAndSwap(goID, noThread)
}

// spinUntilSelf busy-waits, yielding the OS scheduler, until the gate names
// goID. Must be called without the core mutex held (spec.md §4.2, §5).
func (g *gate) spinUntilSelf(goID uint64) {
	for g.active.Load() != goID {
		runtime.Gosched()
	}
}
