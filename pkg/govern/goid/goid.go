// Package goid derives an opaque, per-goroutine identity to stand in for
// the "native thread handle" the governor's design assumes (spec.md §3,
// §9: "Thread identity... used only as a map key and for equality; it must
// not leak through the serialized format").
//
// Go has no public API for a goroutine's runtime ID. The technique here —
// parsing the header line of runtime.Stack — is the same fallback path
// monkeydluffy772/racedetector uses (internal/race/api/goid_generic.go,
// goid_fallback.go) when its assembly fast path isn't available; this
// package only needs the portable path, since Current() is called on
// Subscribe/Unsubscribe/ControlPoint, never on a hot per-instruction path.
package goid

import "runtime"

const prefix = "goroutine "

// Current returns the calling goroutine's id. It is stable for the life of
// the goroutine and unique among concurrently live goroutines on this
// process; it must never be compared across processes or persisted.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the numeric id from a "goroutine 123 [running]:..." stack
// header. It returns 0 if buf doesn't match the expected format.
func parse(buf []byte) uint64 {
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var id uint64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
