package tui

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Title                string
	Theme                string
	ReplaceHomeWithTilde bool
	// OnForceQuit is called when the user quits while the run is going.
	OnForceQuit func()
	Logger      logrus.FieldLogger
}

// App is a full screen pipeline.Renderer. Renderer calls only enqueue
// closures; every widget and field below is touched on the cview event
// loop alone.
type App struct {
	app         *cview.Application
	root        *cview.Flex
	header      *cview.TextView
	footer      *cview.TextView
	table       *cview.Table
	panels      *cview.Panels
	detailModal *cview.Modal
	themeModal  *cview.Modal
	quitModal   *cview.Modal

	items     []status.Outcome
	errs      []*status.Error
	totals    status.Totals
	title     string
	startTime time.Time
	finished  bool

	showDetail bool
	showTheme  bool
	showQuit   bool

	uiUpdates    chan func()
	stopped      atomic.Bool
	loopDone     chan struct{}
	loopDoneOnce sync.Once

	userHomeDir  string
	replaceHome  bool
	currentTheme Theme
	onForceQuit  func()
	logger       logrus.FieldLogger
}

func NewApp(opts Options) *App {
	app := cview.NewApplication()
	theme := themeByName(opts.Theme)

	header := cview.NewTextView()
	header.SetDynamicColors(true)
	header.SetTextAlign(cview.AlignCenter)

	footer := cview.NewTextView()
	footer.SetDynamicColors(true)
	footer.SetTextAlign(cview.AlignCenter)

	detailModal := cview.NewModal()
	detailModal.SetText("")
	detailModal.AddButtons([]string{"Okay"})

	themeModal := cview.NewModal()
	themeModal.SetText("")
	themeNames := getThemeNames()
	themeModal.AddButtons(themeNames)

	quitModal := cview.NewModal()
	quitModal.SetText("Compaction is still running.\n\nFinish the files in flight and quit?")
	quitModal.AddButtons([]string{"Wait", "Force Quit"})

	panels := cview.NewPanels()
	table := cview.NewTable()
	panels.AddPanel("table", table, true, true)

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	a := &App{
		app:          app,
		header:       header,
		footer:       footer,
		table:        table,
		panels:       panels,
		detailModal:  detailModal,
		themeModal:   themeModal,
		quitModal:    quitModal,
		title:        opts.Title,
		startTime:    time.Now(),
		uiUpdates:    make(chan func(), 128),
		loopDone:     make(chan struct{}),
		replaceHome:  opts.ReplaceHomeWithTilde,
		currentTheme: theme,
		onForceQuit:  opts.OnForceQuit,
		logger:       logger,
	}

	if home, err := os.UserHomeDir(); err == nil {
		a.userHomeDir = home
	} else {
		logger.WithError(err).Warn("unable to resolve home directory")
	}

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(header, 1, 0, false)
	flex.AddItem(panels, 0, 1, true)
	flex.AddItem(footer, 1, 0, false)
	a.root = flex

	app.SetInputCapture(a.handleInput)

	detailModal.SetDoneFunc(func(_ int, _ string) {
		a.showDetail = false
		a.setRoot(a.root, true)
	})

	themeModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.showTheme = false
		a.setRoot(a.root, true)

		if buttonIndex >= 0 && buttonIndex < len(themeNames) {
			a.switchTheme(buttonLabel)
			a.applyTheme()
		}
	})

	quitModal.SetDoneFunc(func(_ int, buttonLabel string) {
		a.showQuit = false
		a.setRoot(a.root, true)

		if buttonLabel == "Force Quit" {
			if a.onForceQuit != nil {
				a.onForceQuit()
			}
			a.Stop()
		}
	})

	app.SetRoot(flex, true)
	a.applyTheme()
	return a
}

func (a *App) switchTheme(themeName string) {
	if th, ok := themes[themeName]; ok {
		a.currentTheme = th
	}
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTextColor(theme.headerFg)
	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTextColor(theme.footerFg)

	for _, m := range []*cview.Modal{a.detailModal, a.themeModal, a.quitModal} {
		m.SetBackgroundColor(theme.bg)
		m.SetTextColor(theme.fg)
		m.SetButtonBackgroundColor(theme.buttonBg)
		m.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)
	a.panels.SetBackgroundColor(theme.bg)

	a.updateStatus()
	a.buildTable()
}

func (a *App) showThemeSelector() {
	theme := a.currentTheme
	text := fmt.Sprintf("Select Theme (Current: [%s]%s[-])", theme.orange.String(), theme.Name)
	a.themeModal.SetText(text)
	a.showTheme = true
	a.setRoot(a.themeModal, false)
}

// Run blocks until the user quits or the event loop fails. Either way the
// renderer keeps accepting events afterwards and drops them.
func (a *App) Run() error {
	a.logger.WithField("theme", a.currentTheme.Name).Debug("starting tui")
	go a.forwardUIUpdates()
	defer a.markStopped()
	return a.app.Run()
}

// Stop ends the event loop. Updates queued afterwards are dropped.
func (a *App) Stop() {
	if a.stopped.CompareAndSwap(false, true) {
		a.app.Stop()
	}
}
