package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewApp(Options{Title: "~/data", Theme: "dracula", Logger: logger})
}

// drain runs queued updates inline, standing in for the event loop.
func drain(a *App) {
	for {
		select {
		case f := <-a.uiUpdates:
			f()
		default:
			return
		}
	}
}

func TestRendererUpdatesState(t *testing.T) {
	a := newTestApp(t)

	a.Progress(status.Progress{Outcome: status.NewOutcome("/data/small.db", 1000, 900, time.Millisecond)})
	a.Progress(status.Progress{Outcome: status.NewOutcome("/data/big.db", 9000, 1000, time.Millisecond)})
	a.Error(status.NewError(status.EngineExecute, "/data/locked.db", errors.New("database is locked")))
	drain(a)

	require.Len(t, a.items, 2)
	assert.Equal(t, "/data/big.db", a.items[0].Path)
	assert.Equal(t, 2, a.table.GetRowCount())
	assert.Equal(t, status.Totals{Delta: 8100, Compacted: 2, Errors: 1}, a.totals)
	assert.False(t, a.finished)

	item, ok := a.selectedItem()
	require.True(t, ok)
	assert.Equal(t, "/data/big.db", item.Path)

	a.Summary(status.Totals{Delta: 8100, Compacted: 2, Errors: 1})
	drain(a)
	assert.True(t, a.finished)
}

func TestHeaderStatus(t *testing.T) {
	theme := themeByName("nord")
	running := headerStatus(&theme, "/srv", status.Totals{Delta: 1500, Compacted: 3, Errors: 1}, 2*time.Second, false)
	assert.Contains(t, running, "Compacting")
	assert.Contains(t, running, "Compacted: 3")
	assert.Contains(t, running, "Errors: 1")
	assert.Contains(t, running, "Reclaimed: 1.5 kB")

	done := headerStatus(&theme, "/srv", status.Totals{Delta: -20}, time.Second, true)
	assert.Contains(t, done, "Done")
	assert.Contains(t, done, "-20 B")
}

func TestSortByDelta(t *testing.T) {
	items := []status.Outcome{
		{Path: "b", Delta: 10},
		{Path: "c", Delta: -5},
		{Path: "a", Delta: 10},
		{Path: "d", Delta: 400},
	}
	sortByDelta(items)

	var got []string
	for _, it := range items {
		got = append(got, it.Path)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, got)
}

func TestErrorsText(t *testing.T) {
	assert.Equal(t, "No errors", errorsText(nil))

	var errs []*status.Error
	for i := 0; i < maxErrorsShown+5; i++ {
		errs = append(errs, status.NewError(status.Classify, "/x", errors.New("denied")))
	}
	text := errorsText(errs)
	assert.True(t, strings.HasPrefix(text, "(5 earlier errors in the log file)"))
	assert.Equal(t, maxErrorsShown+1, strings.Count(text, "\n"))
}

func TestReplaceHomeWithTilde(t *testing.T) {
	a := &App{userHomeDir: "/home/dev", replaceHome: true}
	assert.Equal(t, "~/app/data.db", a.replaceHomeWithTilde("/home/dev/app/data.db"))
	assert.Equal(t, "/srv/data.db", a.replaceHomeWithTilde("/srv/data.db"))

	a.replaceHome = false
	assert.Equal(t, "/home/dev/app/data.db", a.replaceHomeWithTilde("/home/dev/app/data.db"))
}

func TestThemeByNameFallsBack(t *testing.T) {
	assert.Equal(t, "Nord", themeByName("no-such-theme").Name)
	assert.Equal(t, []string{"dracula", "gruvbox-dark", "nord"}, getThemeNames())
}

func TestUpdatesDroppedOnceLoopEnds(t *testing.T) {
	a := newTestApp(t)
	go a.forwardUIUpdates()

	// The event loop never runs: the first batch sits in cview's queue
	// until the loop is declared gone.
	a.Progress(status.Progress{Outcome: status.NewOutcome("/data/first.db", 10, 5, 0)})
	a.markStopped()

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			a.Progress(status.Progress{Outcome: status.NewOutcome("/data/x.db", 10, 5, 0)})
		}
		a.Summary(status.Totals{})
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("renderer blocked after the event loop ended")
	}
	assert.True(t, a.stopped.Load())
}
