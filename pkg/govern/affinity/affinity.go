// Package affinity is the external collaborator spec.md §1 and §6 describe
// as "the CPU-affinity helper" — outside the scheduling engine's core, a
// hint the core may invoke but whose failure must never affect scheduling
// correctness (spec.md §5). It mirrors the original source's
// Governor::SetAffinity, which restricts a subscribed thread to a single
// CPU while it is expected to run alone and restores the full mask on
// unsubscribe.
package affinity

// Controller pins and releases the calling goroutine's OS thread. Pin locks
// the goroutine to its current OS thread for the duration of the pin (Go
// goroutines otherwise migrate between OS threads freely, unlike the
// pthreads the original source assumes); Release restores the full CPU
// mask and unlocks it. Both are best-effort: a non-nil error is a hint to
// log, never a reason to abort scheduling.
type Controller interface {
	Pin() error
	Release() error
}

// New returns the platform Controller: a real golang.org/x/sys/unix-backed
// implementation on linux, and a no-op elsewhere.
func New() Controller {
	return newController()
}
