package govern

import (
	"testing"
	"time"
)

func TestGateStartsVacant(t *testing.T) {
	g := newGate()
	if g.active.Load() != noThread {
		t.Errorf("newGate() active = %d, want noThread", g.active.Load())
	}
}

func TestGateReleaseAndSpin(t *testing.T) {
	g := newGate()
	g.release(7)

	done := make(chan struct{})
	go func() {
		g.spinUntilSelf(7)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spinUntilSelf did not return for the already-released holder")
	}
}

func TestGateClearIfSelfOnlyClearsOwnIdentity(t *testing.T) {
	g := newGate()
	g.release(3)

	g.clearIfSelf(4)
	if g.active.Load() != 3 {
		t.Errorf("clearIfSelf(4) changed gate held by 3: active = %d", g.active.Load())
	}

	g.clearIfSelf(3)
	if g.active.Load() != noThread {
		t.Errorf("clearIfSelf(3) left active = %d, want noThread", g.active.Load())
	}
}
