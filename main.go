package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/riadafridishibly/sqlitevacuum/compactor"
	"github.com/riadafridishibly/sqlitevacuum/config"
	"github.com/riadafridishibly/sqlitevacuum/display"
	"github.com/riadafridishibly/sqlitevacuum/engine"
	"github.com/riadafridishibly/sqlitevacuum/metrics"
	"github.com/riadafridishibly/sqlitevacuum/pipeline"
	"github.com/riadafridishibly/sqlitevacuum/scanner"
	"github.com/riadafridishibly/sqlitevacuum/status"
	"github.com/riadafridishibly/sqlitevacuum/tui"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Aggressive  bool   `short:"a" long:"aggressive" description:"Check every file for the SQLite header instead of trusting .db/.sqlite extensions"`
	Workers     int    `short:"j" long:"workers" description:"Number of concurrent compactions (default: number of CPUs)"`
	ConfigFile  string `short:"c" long:"config" description:"Path to a YAML config file"`
	TUI         bool   `long:"tui" description:"Show results in a full screen table"`
	MetricsFile string `long:"metrics-file" description:"Write Prometheus metrics to this textfile when done"`
	LogFile     string `long:"log-file" description:"Write the log here instead of a temporary file"`
	Verbose     bool   `short:"v" long:"verbose" description:"Log every engine step"`

	Args struct {
		Dirs []string `positional-arg-name:"DIRECTORY" description:"Directories to scan (default: current directory)"`
	} `positional-args:"yes"`
}

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [DIRECTORY...]"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	os.Exit(run(opts))
}

func loadConfig(opts Options) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if opts.Aggressive {
		cfg.Aggressive = true
	}
	if opts.Workers != 0 {
		cfg.Workers = opts.Workers
	}
	if opts.TUI {
		cfg.TUI = true
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func openLog(cfg config.Config) (*os.File, error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		return f, errors.Wrap(err, "open log file")
	}
	f, err := os.CreateTemp(tempDir(), "sqlite-vacuum-*.log")
	return f, errors.Wrap(err, "create log file")
}

func newLogger(cfg config.Config) (*logrus.Logger, *os.File, error) {
	logFile, err := openLog(cfg)
	if err != nil {
		return nil, nil, err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logFile.Close()
		return nil, nil, errors.Wrap(err, "log level")
	}

	logger := logrus.New()
	logger.SetOutput(logFile)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return logger, logFile, nil
}

func run(opts Options) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		return 1
	}
	defer logFile.Close()

	fmt.Println("Logfile is being written in:", logFile.Name())

	roots, err := scanner.ResolveRoots(opts.Args.Dirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving directories: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipelineOpts := pipeline.Options{
		Roots:      roots,
		Aggressive: cfg.Aggressive,
		Workers:    cfg.Workers,
		Compactor:  compactor.New(engine.NewSQLite(cfg.BusyTimeout), logger),
		Logger:     logger,
	}

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
	}

	if cfg.TUI {
		err = runTUI(ctx, stop, cfg, roots, pipelineOpts, m, logger)
	} else {
		_, err = pipeline.Run(ctx, pipelineOpts, withMetrics(display.NewTerminal(), m))
	}

	if m != nil {
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.WithError(werr).Error("writing metrics failed")
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", werr)
		}
	}

	switch {
	case errors.Is(err, pipeline.ErrNoAccessibleRoot):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	case err != nil:
		// Already rendered as internal errors; the run itself completed.
		logger.WithError(err).Error("run finished with internal errors")
	}
	return 0
}

func withMetrics(r pipeline.Renderer, m *metrics.Metrics) pipeline.Renderer {
	if m == nil {
		return r
	}
	return metrics.Wrap(r, m)
}

// runTUI drives the pipeline from a goroutine while the event loop owns the
// terminal. The final summary is printed again once the screen is gone.
func runTUI(ctx context.Context, cancel context.CancelFunc, cfg config.Config, roots []scanner.Root, opts pipeline.Options, m *metrics.Metrics, logger logrus.FieldLogger) error {
	accessible := false
	for _, root := range roots {
		accessible = accessible || scanner.CheckRoot(root.Path) == nil
	}
	if !accessible {
		_, err := pipeline.Run(ctx, opts, display.NewTerminal())
		return err
	}

	title := roots[0].Label
	if len(roots) > 1 {
		title = fmt.Sprintf("%s (+%d)", title, len(roots)-1)
	}

	app := tui.NewApp(tui.Options{
		Title:                title,
		Theme:                cfg.Theme,
		ReplaceHomeWithTilde: cfg.ReplaceHomeWithTilde,
		OnForceQuit:          cancel,
		Logger:               logger,
	})

	type result struct {
		totals status.Totals
		err    error
	}
	done := make(chan result, 1)
	go func() {
		totals, err := pipeline.Run(ctx, opts, withMetrics(app, m))
		done <- result{totals, err}
	}()

	if err := app.Run(); err != nil {
		logger.WithError(err).Error("tui failed")
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		cancel()
	}

	res := <-done
	display.NewTerminal().Summary(res.totals)
	return res.err
}
