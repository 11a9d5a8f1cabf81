package viewq

import "time"

// Batch groups every operation enqueued by fn into one batch, dispatched
// when the outermost Batch returns. Nested calls join the outer batch.
func (m *UIManager) Batch(fn func()) {
	start := time.Now()
	m.batcher.Batch(fn, func() {
		if err := m.DispatchViewUpdates(m.nextBatchID.Add(1), start, 0); err != nil {
			m.logger.Debug("batch dropped", "err", err)
		}
	})
}
