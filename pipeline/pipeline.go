// Package pipeline wires the scanner, the compaction workers and the
// aggregator together:
//
//	scanner -> work (cap N) -> N workers -> events -> aggregator
//
// Completion is detected by channel closure only. The scanner's return
// closes work; the last worker's return closes consumersGone; once the
// scanner and every worker are gone, events is closed and the aggregator
// finishes.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/classifier"
	"github.com/riadafridishibly/sqlitevacuum/scanner"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

var ErrNoAccessibleRoot = errors.New("no accessible root directory")

type Options struct {
	Roots      []scanner.Root
	Aggressive bool
	// Workers defaults to the number of CPUs.
	Workers   int
	Compactor Compactor
	Logger    logrus.FieldLogger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return max(runtime.NumCPU(), 1)
}

// Run scans, compacts and aggregates, rendering on the calling goroutine.
// Per-file failures are rendered and counted but never returned. The
// returned error is ErrNoAccessibleRoot, or the recovered panics of
// pipeline goroutines; in the latter case Totals is still complete for
// every event that was delivered.
func Run(ctx context.Context, opts Options, r Renderer) (status.Totals, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if !anyAccessible(opts.Roots) {
		for _, root := range opts.Roots {
			r.Error(status.NewError(status.RootAccess, root.Path, scanner.CheckRoot(root.Path)))
		}
		return status.Totals{Errors: len(opts.Roots)}, ErrNoAccessibleRoot
	}

	n := opts.workers()
	work := make(chan classifier.Target, n)
	events := make(chan status.Event, n)
	consumersGone := make(chan struct{})

	scan := scanner.New(opts.Roots, opts.Aggressive, scanner.WithLogger(logger))

	var producers, consumers sync.WaitGroup
	handles := make([]*handle, 0, n+1)

	handles = append(handles, spawn("scanner", &producers, func() {
		defer close(work)
		scan.Run(ctx, work, events, consumersGone)
	}))
	for i := 0; i < n; i++ {
		id := i
		handles = append(handles, spawn(fmt.Sprintf("worker-%d", id), &consumers, func() {
			worker(ctx, id, opts.Compactor, work, events, logger)
		}))
	}

	go func() {
		consumers.Wait()
		close(consumersGone)
		producers.Wait()
		close(events)
	}()

	logger.WithFields(logrus.Fields{"roots": len(opts.Roots), "workers": n, "aggressive": opts.Aggressive}).Info("pipeline started")

	totals := aggregate(events, r, logger, func() (int64, string) {
		return scan.FileCount(), scan.Current()
	})

	var result *multierror.Error
	for _, h := range handles {
		if err := h.Join(); err != nil {
			logger.WithError(err).Error("goroutine failed")
			totals.Errors++
			r.Error(status.NewError(status.Internal, "", err))
			result = multierror.Append(result, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"delta":     totals.Delta,
		"compacted": totals.Compacted,
		"errors":    totals.Errors,
		"visited":   scan.FileCount(),
		"took":      scan.ElapsedTime(),
	}).Info("pipeline finished")

	r.Summary(totals)
	return totals, result.ErrorOrNil()
}

func anyAccessible(roots []scanner.Root) bool {
	for _, root := range roots {
		if scanner.CheckRoot(root.Path) == nil {
			return true
		}
	}
	return false
}
