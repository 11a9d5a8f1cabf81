package internal

import "sync"

type Batcher struct {
	mu sync.Mutex

	// each nested batch increases the depth by 1
	// if depth > 0, the batch stays open until the outermost batch is complete
	depth int
}

func NewBatcher() *Batcher {
	return &Batcher{
		depth: 0,
	}
}

// Batch runs fn and calls onComplete when the outermost batch returns, even
// if fn panics.
func (b *Batcher) Batch(fn, onComplete func()) {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		outermost := b.depth == 0
		b.mu.Unlock()

		if outermost && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}
