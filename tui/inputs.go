package tui

import "github.com/gdamore/tcell/v3"

func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if a.showDetail || a.showTheme || a.showQuit {
		// vi key binding for modal button selection
		switch event.Str() {
		case "l":
			return tcell.NewEventKey(tcell.KeyRight, tcell.KeyNames[tcell.KeyRight], tcell.ModNone)
		case "h":
			return tcell.NewEventKey(tcell.KeyLeft, tcell.KeyNames[tcell.KeyLeft], tcell.ModNone)
		}
		return event
	}

	switch event.Str() {
	case "q", "Q":
		a.requestQuit()
		return nil
	case "i", "I":
		a.showItemDetail()
	case "e", "E":
		a.showErrors()
	case "t", "T":
		a.showThemeSelector()
	}

	return event
}

func (a *App) requestQuit() {
	if a.finished {
		a.Stop()
		return
	}
	a.showQuit = true
	a.setRoot(a.quitModal, false)
}
