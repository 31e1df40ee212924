package tui

import (
	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/sqlitevacuum/status"
)

// setRoot queues a SetRoot operation to avoid data races
func (a *App) setRoot(primitive cview.Primitive, focus bool) {
	a.app.QueueUpdateDraw(func() {
		a.app.SetRoot(primitive, focus)
	})
}

// sendUIUpdate blocks rather than drop: results must all reach the table.
func (a *App) sendUIUpdate(f func()) {
	a.uiUpdates <- f
}

// forwardUIUpdates batches pending updates into one QueueUpdateDraw and
// waits for it before queuing the next, so cview's own update queue never
// fills up. Once the event loop is gone updates are dropped.
func (a *App) forwardUIUpdates() {
	for updateFn := range a.uiUpdates {
		batch := []func(){updateFn}
	collect:
		for {
			select {
			case f := <-a.uiUpdates:
				batch = append(batch, f)
			default:
				break collect
			}
		}

		if a.stopped.Load() {
			continue
		}
		applied := make(chan struct{})
		a.app.QueueUpdateDraw(func() {
			for _, f := range batch {
				f()
			}
			close(applied)
		})
		select {
		case <-applied:
		case <-a.loopDone:
		}
	}
}

// markStopped records that the event loop is no longer running.
func (a *App) markStopped() {
	a.stopped.Store(true)
	a.loopDoneOnce.Do(func() { close(a.loopDone) })
}

func (a *App) Progress(p status.Progress) {
	outcome := p.Outcome
	a.sendUIUpdate(func() {
		a.items = append(a.items, outcome)
		a.totals.Delta += outcome.Delta
		a.totals.Compacted++
		a.buildTable()
		a.updateStatus()
	})
}

func (a *App) Error(err *status.Error) {
	a.sendUIUpdate(func() {
		a.errs = append(a.errs, err)
		a.totals.Errors++
		a.updateStatus()
	})
}

// Summary marks the run as finished. The pipeline's totals replace the
// ones counted here so both surfaces agree.
func (a *App) Summary(t status.Totals) {
	a.sendUIUpdate(func() {
		a.totals = t
		a.finished = true
		a.updateStatus()
	})
}
