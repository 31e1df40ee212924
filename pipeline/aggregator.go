package pipeline

import (
	"time"

	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

// scanTick is how often the scanner's position is shown.
const scanTick = 100 * time.Millisecond

// Renderer is the user visible surface. It is only ever called from the
// aggregating goroutine, so implementations need no locking of their own.
type Renderer interface {
	Progress(p status.Progress)
	Error(err *status.Error)
	Summary(t status.Totals)
}

// ScanReporter is implemented by renderers that show where the scanner is.
type ScanReporter interface {
	Scanning(visited int64, path string)
}

// scanPosition reports the entries visited so far and the latest one.
type scanPosition func() (int64, string)

// aggregate consumes events until the channel is closed. Every error also
// goes to the log, renderers may only show the latest ones.
func aggregate(events <-chan status.Event, r Renderer, logger logrus.FieldLogger, position scanPosition) status.Totals {
	var totals status.Totals

	var tick <-chan time.Time
	sr, ok := r.(ScanReporter)
	if ok && position != nil {
		ticker := time.NewTicker(scanTick)
		defer ticker.Stop()
		tick = ticker.C
	}

	var lastShown string
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return totals
			}
			switch ev := ev.(type) {
			case status.Progress:
				totals.Delta += ev.Delta()
				totals.Compacted++
				r.Progress(ev)
			case *status.Error:
				totals.Errors++
				logger.WithFields(logrus.Fields{"kind": ev.Kind, "path": ev.Path}).WithError(ev.Err).Warn("error event")
				r.Error(ev)
			}
		case <-tick:
			visited, path := position()
			if path != "" && path != lastShown {
				lastShown = path
				sr.Scanning(visited, path)
			}
		}
	}
}
