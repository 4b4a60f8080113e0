//go:build linux

package affinity

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sys/unix"
)

type linuxController struct{}

func newController() Controller {
	return linuxController{}
}

// Pin locks the calling goroutine to its OS thread and restricts that
// thread to a single, pseudo-randomly chosen online CPU.
func (linuxController) Pin() error {
	runtime.LockOSThread()

	n := runtime.NumCPU()
	if n <= 0 {
		return nil
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(rand.Intn(n))

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin: %w", err)
	}
	return nil
}

// Release restores the full CPU mask and unlocks the OS thread.
func (linuxController) Release() error {
	defer runtime.UnlockOSThread()

	n := runtime.NumCPU()
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < n; i++ {
		set.Set(i)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: release: %w", err)
	}
	return nil
}
