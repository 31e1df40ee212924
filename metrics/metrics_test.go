package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRenderer struct {
	progress, errs, summaries int
}

func (c *countingRenderer) Progress(status.Progress) { c.progress++ }
func (c *countingRenderer) Error(*status.Error)      { c.errs++ }
func (c *countingRenderer) Summary(status.Totals)    { c.summaries++ }

func TestRendererRecordsEvents(t *testing.T) {
	m := New()
	next := &countingRenderer{}
	r := Wrap(next, m)

	r.Progress(status.Progress{Outcome: status.NewOutcome("/a.db", 2000, 1500, 20*time.Millisecond)})
	r.Progress(status.Progress{Outcome: status.NewOutcome("/b.db", 1000, 1100, 5*time.Millisecond)})
	r.Error(status.NewError(status.EngineOpen, "/c.db", errors.New("locked")))
	r.Error(status.NewError(status.RootAccess, "/nope", errors.New("missing")))
	r.Error(status.NewError(status.ScanEntry, "/x", errors.New("denied")))
	r.Summary(status.Totals{})

	assert.Equal(t, 2, next.progress)
	assert.Equal(t, 3, next.errs)
	assert.Equal(t, 1, next.summaries)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FilesCompacted))
	assert.Equal(t, float64(400), testutil.ToFloat64(m.BytesReclaimed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues("open")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Errors.WithLabelValues("scan")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CompactionDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.FilesCompacted.Add(3)

	path := filepath.Join(t.TempDir(), "sqlitevacuum.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sqlitevacuum_files_compacted_total 3")
	assert.Contains(t, string(data), "sqlitevacuum_last_run_timestamp_seconds")

	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}

type scanningRenderer struct {
	countingRenderer
	last string
}

func (s *scanningRenderer) Scanning(_ int64, path string) { s.last = path }

func TestRendererForwardsScanning(t *testing.T) {
	next := &scanningRenderer{}
	Wrap(next, New()).Scanning(3, "/srv/app")
	assert.Equal(t, "/srv/app", next.last)

	// Renderers without scan output are left alone.
	Wrap(&countingRenderer{}, New()).Scanning(3, "/srv/app")
}
