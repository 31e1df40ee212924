package scanner

import (
	"context"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/classifier"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

var errStopped = errors.New("scan stopped")

type Scanner struct {
	roots      []Root
	aggressive bool
	numWorkers int
	logger     logrus.FieldLogger

	// atomic total entries visited
	fileCount int64

	// Scanner start time in unix nanoseconds
	startTime atomic.Int64

	// ElapsedTime from scanner start in millisecond
	elapsedTime atomic.Int64

	// last entry handed to the walk callback
	current atomic.Pointer[string]
}

type Option func(*Scanner)

// WithWalkers sets the number of fastwalk goroutines per root.
func WithWalkers(n int) Option {
	return func(s *Scanner) { s.numWorkers = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) { s.logger = l }
}

func New(roots []Root, aggressive bool, opts ...Option) *Scanner {
	s := &Scanner{
		roots:      roots,
		aggressive: aggressive,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run walks every root, classifying entries and sending accepted targets on
// work. Sending blocks while work is full. Run returns once all roots are
// walked, or as soon as ctx is done or consumersGone is closed. It never
// closes work or events.
func (s *Scanner) Run(ctx context.Context, work chan<- classifier.Target, events chan<- status.Event, consumersGone <-chan struct{}) {
	start := time.Now()
	s.startTime.Store(start.UnixNano())
	defer func() {
		s.elapsedTime.Store(max(time.Since(start).Milliseconds(), 1))
	}()

	for _, root := range s.roots {
		if err := s.scanRoot(ctx, root, work, events, consumersGone); err != nil {
			s.logger.WithField("root", root.Path).WithError(err).Info("scan stopped early")
			return
		}
	}
}

func (s *Scanner) scanRoot(ctx context.Context, root Root, work chan<- classifier.Target, events chan<- status.Event, consumersGone <-chan struct{}) error {
	log := s.logger.WithFields(logrus.Fields{"root": root.Path, "label": root.Label})

	if err := CheckRoot(root.Path); err != nil {
		log.WithError(err).Warn("skipping root")
		return s.emit(ctx, events, consumersGone, status.NewError(status.RootAccess, root.Path, err))
	}

	conf := fastwalk.Config{Follow: false, NumWorkers: s.numWorkers}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return errStopped
		}

		if err != nil {
			// fastwalk reports a callback's error a second time for the
			// directory it aborted; our own sentinel is not a scan failure.
			if errors.Is(err, errStopped) {
				return err
			}
			if emitErr := s.emit(ctx, events, consumersGone, status.NewError(status.ScanEntry, path, err)); emitErr != nil {
				return emitErr
			}
			return nil
		}

		atomic.AddInt64(&s.fileCount, 1)
		s.current.Store(&path)

		if d.IsDir() {
			return nil
		}

		result, target, err := classifier.Classify(path, s.aggressive)
		if err != nil {
			return s.emit(ctx, events, consumersGone, status.NewError(status.Classify, path, err))
		}
		if result != classifier.Accept {
			return nil
		}

		if stopped(ctx, consumersGone) {
			return errStopped
		}
		log.WithField("path", path).Debug("queued")
		select {
		case work <- target:
			return nil
		case <-consumersGone:
			return errStopped
		case <-ctx.Done():
			return errStopped
		}
	}

	start := time.Now()
	err := fastwalk.Walk(&conf, root.Path, walkFn)
	if errors.Is(err, errStopped) {
		return err
	}
	if err != nil {
		// Walk only returns our own callback errors or a failed stat of
		// the root, which CheckRoot has already ruled out.
		return s.emit(ctx, events, consumersGone, status.NewError(status.ScanEntry, root.Path, err))
	}
	log.WithField("took", time.Since(start)).Debug("root scanned")
	return nil
}

// stopped is checked before every send: select picks randomly among ready
// cases, so a free slot would otherwise win over a closed consumersGone.
func stopped(ctx context.Context, consumersGone <-chan struct{}) bool {
	select {
	case <-consumersGone:
		return true
	default:
		return ctx.Err() != nil
	}
}

func (s *Scanner) emit(ctx context.Context, events chan<- status.Event, consumersGone <-chan struct{}, ev status.Event) error {
	if stopped(ctx, consumersGone) {
		return errStopped
	}
	select {
	case events <- ev:
		return nil
	case <-consumersGone:
		return errStopped
	case <-ctx.Done():
		return errStopped
	}
}

// Current returns the entry most recently visited, or "" before the first.
func (s *Scanner) Current() string {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return ""
}

func (s *Scanner) FileCount() int64 {
	return atomic.LoadInt64(&s.fileCount)
}

func (s *Scanner) ElapsedTime() time.Duration {
	start := s.startTime.Load()
	if start == 0 {
		return 0
	}
	elapsed := s.elapsedTime.Load()
	if elapsed == 0 {
		return time.Since(time.Unix(0, start))
	}
	return time.Duration(elapsed) * time.Millisecond
}
