package tui

import (
	"fmt"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/sqlitevacuum/display"
	"github.com/riadafridishibly/sqlitevacuum/status"
)

func headerStatus(theme *Theme, title string, t status.Totals, elapsed time.Duration, finished bool) string {
	state := fmt.Sprintf("[%s]Compacting[-]", theme.darkGray.String())
	if finished {
		state = fmt.Sprintf("[%s]Done[-]", theme.darkGray.String())
	}
	return fmt.Sprintf(" %s %s | Compacted: %d | Errors: %d | Elapsed: %s | Reclaimed: %s ",
		state,
		title,
		t.Compacted,
		t.Errors,
		elapsed.Round(time.Second),
		display.FormatSize(t.Delta),
	)
}

func footerStatusMenu() string {
	return " ↑/↓: Navigate  i: Details  e: Errors  t: Theme  [q/Q]: Quit"
}

func footerStatusError(theme *Theme, err *status.Error) string {
	return fmt.Sprintf(" [%s]%s[-]", theme.red.String(), cview.Escape(err.Error()))
}

func (a *App) updateStatus() {
	theme := a.currentTheme
	a.header.SetText(headerStatus(&theme, a.title, a.totals, time.Since(a.startTime), a.finished))
	if n := len(a.errs); n > 0 && !a.finished {
		a.footer.SetText(footerStatusError(&theme, a.errs[n-1]))
		return
	}
	a.footer.SetText(footerStatusMenu())
}
