package worker

import (
	"log/slog"

	"github.com/esengulov/mysqlq/internal/domain"
)

// consume serially drains the shared stream. Removal of the previous sieve
// entry is deferred until the next value is accepted, so a duplicate cannot
// slip through between executor start and completion.
func (w *Worker) consume(idx int) {
	defer w.wg.Done()

	logger := w.logger.With("consumer", idx)
	logger.Debug("consumer started")

	var prev *sieveKey
	for it := range w.stream {
		key := keyOf(it)
		if prev != nil {
			w.sieve.Remove(*prev)
		}
		prev = &key

		logger.Debug("received", "kind", key.kind.String(), "id", key.id)
		w.runChain(logger, it)
	}

	if prev != nil {
		w.sieve.Remove(*prev)
	}
	logger.Debug("consumer stopped")
}

// runChain keeps a job's continuation chain on this consumer: each persisted
// continuation is executed immediately instead of round-tripping through the
// dedup stage. The chain ends on terminal cleanup, on a lost continuation
// race, or on an unexpected error.
func (w *Worker) runChain(logger *slog.Logger, it domain.Runnable) {
	cur := it
	for {
		next, err := w.executor.Execute(w.execCtx, cur)
		if err != nil {
			logger.Error("execute", "kind", cur.RunnableKind().String(), "id", cur.RunnableID(), "error", err)
			w.report(err)
			return
		}
		if next == nil {
			return
		}
		cur = next
	}
}
