//go:build !linux

package session

import "runtime"

// pinToCore keeps the goroutine on a dedicated OS thread; per-core binding
// is only implemented on Linux.
func pinToCore(core int) error {
	runtime.LockOSThread()
	return nil
}
