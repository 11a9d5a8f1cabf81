//go:build !wasm

package internal

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// uiThread pins consumer-owned state to the goroutine that first touches it.
type uiThread struct {
	gid atomic.Int64
}

func getGID() int64 {
	return goid.Get()
}

// bind claims the calling goroutine when nothing is bound yet.
func (t *uiThread) bind() {
	t.gid.CompareAndSwap(0, getGID())
}

// check fails when called from a goroutine other than the bound one.
func (t *uiThread) check() error {
	t.bind()
	if gid := t.gid.Load(); gid != getGID() {
		return ErrWrongThread
	}
	return nil
}

// release unbinds, letting another goroutine take over (host restarts).
func (t *uiThread) release() {
	t.gid.Store(0)
}
