//go:build wasm

package internal

// wasm runs a single thread, there is nothing to pin.
type uiThread struct{}

func (t *uiThread) bind()        {}
func (t *uiThread) check() error { return nil }
func (t *uiThread) release()     {}
