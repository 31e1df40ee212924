package compactor

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/classifier"
	"github.com/riadafridishibly/sqlitevacuum/engine"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

type Compactor struct {
	opener engine.Opener
	logger logrus.FieldLogger
}

func New(opener engine.Opener, logger logrus.FieldLogger) *Compactor {
	return &Compactor{opener: opener, logger: logger}
}

// Compact runs VACUUM then REINDEX on target and measures the size change.
// It never retries. Any failure is a *status.Error of kind EngineOpen or
// EngineExecute and no outcome is reported.
func (c *Compactor) Compact(ctx context.Context, target classifier.Target) (status.Outcome, error) {
	start := time.Now()
	log := c.logger.WithField("path", target.Path)

	before, err := fileSize(target.Path)
	if err != nil {
		return status.Outcome{}, status.NewError(status.EngineOpen, target.Path, err)
	}

	conn, err := c.opener.Open(ctx, target.Path)
	if err != nil {
		return status.Outcome{}, status.NewError(status.EngineOpen, target.Path, err)
	}
	log.Debug("connected")

	if err := c.rewrite(ctx, conn, log); err != nil {
		conn.Close()
		return status.Outcome{}, status.NewError(status.EngineExecute, target.Path, err)
	}

	if err := conn.Close(); err != nil {
		return status.Outcome{}, status.NewError(status.EngineExecute, target.Path, errors.Wrap(err, "close"))
	}

	after, err := fileSize(target.Path)
	if err != nil {
		return status.Outcome{}, status.NewError(status.EngineExecute, target.Path, err)
	}

	outcome := status.NewOutcome(target.Path, before, after, time.Since(start))
	log.WithFields(logrus.Fields{
		"before": before,
		"after":  after,
		"delta":  outcome.Delta,
		"took":   outcome.Duration,
	}).Debug("compacted")
	return outcome, nil
}

func (c *Compactor) rewrite(ctx context.Context, conn engine.Conn, log logrus.FieldLogger) error {
	if err := conn.Exec(ctx, engine.Vacuum); err != nil {
		return errors.Wrap(err, "vacuum")
	}
	log.Debug("vacuumed")

	if err := conn.Exec(ctx, engine.Reindex); err != nil {
		return errors.Wrap(err, "reindex")
	}
	log.Debug("reindexed")
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "stat")
	}
	return info.Size(), nil
}
