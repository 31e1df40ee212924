package pipeline

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/classifier"
	"github.com/riadafridishibly/sqlitevacuum/display"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

// Compactor is satisfied by *compactor.Compactor.
type Compactor interface {
	Compact(ctx context.Context, target classifier.Target) (status.Outcome, error)
}

// handle tracks one goroutine so that a panic in it is recovered and kept
// for Join instead of taking the whole process down.
type handle struct {
	name  string
	done  chan struct{}
	panic error
}

func spawn(name string, wg *sync.WaitGroup, fn func()) *handle {
	h := &handle{name: name, done: make(chan struct{})}
	wg.Add(1)
	go func() {
		defer close(h.done)
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.panic = errors.Errorf("%s panicked: %v\n%s", name, r, debug.Stack())
			}
		}()
		fn()
	}()
	return h
}

// Join waits for the goroutine and returns its recovered panic, if any.
func (h *handle) Join() error {
	<-h.done
	return h.panic
}

// worker drains work until it is closed. It only talks to the outside world
// through work and events.
func worker(ctx context.Context, id int, c Compactor, work <-chan classifier.Target, events chan<- status.Event, logger logrus.FieldLogger) {
	log := logger.WithField("worker", id)
	for target := range work {
		if ctx.Err() != nil {
			// Drain so the scanner never blocks on a full queue.
			continue
		}
		outcome, err := c.Compact(ctx, target)
		if err != nil {
			var serr *status.Error
			if !errors.As(err, &serr) {
				serr = status.NewError(status.EngineExecute, target.Path, err)
			}
			log.WithError(err).WithField("path", target.Path).Warn("compaction failed")
			events <- serr
			continue
		}
		events <- status.Progress{
			Message: display.ProgressMessage(outcome),
			Outcome: outcome,
		}
	}
	log.Debug("work queue drained")
}
