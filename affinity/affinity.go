// Package affinity pins the calling OS thread to a logical CPU/core.
// Platform-specific implementations live in separate files
// (affinity_linux.go, affinity_windows.go, affinity_stub.go) guarded by
// build tags.
package affinity

import "runtime"

// SetAffinity pins the current OS thread to a given logical CPU/core on
// supported platforms. On unsupported platforms it returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// Unpinned is the sentinel a caller passes to PinCallingGoroutine to
// request no pinning at all — the engine still gets its own locked OS
// thread, it's just free to migrate across cores.
const Unpinned = -1

// PinCallingGoroutine locks the calling goroutine to its current OS
// thread and, unless cpuID is Unpinned, pins that thread to cpuID.
// It is meant to be called once at the top of each engine goroutine
// an Endpoint spawns (its TX engine and its RX engine) — spec §5's "each engine pinned to a
// dedicated CPU core" only holds if the pin happens before the
// goroutine starts touching its ring, since a goroutine can migrate
// OS threads between any two Go statements otherwise.
//
// The returned release func must run when the goroutine exits (via
// defer) to undo the thread lock; a failed pin still locks the
// thread; only setAffinityPlatform's error is reported.
func PinCallingGoroutine(cpuID int) (release func(), err error) {
	runtime.LockOSThread()
	if cpuID == Unpinned {
		return runtime.UnlockOSThread, nil
	}
	if pinErr := SetAffinity(cpuID); pinErr != nil {
		return runtime.UnlockOSThread, pinErr
	}
	return runtime.UnlockOSThread, nil
}
