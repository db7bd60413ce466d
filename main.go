package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/go-scripts/pathcrawl/internal/cache"
	"github.com/go-scripts/pathcrawl/internal/config"
	"github.com/go-scripts/pathcrawl/internal/crawler"
	"github.com/go-scripts/pathcrawl/internal/fetch"
	"github.com/go-scripts/pathcrawl/internal/links"
	"github.com/go-scripts/pathcrawl/internal/progress"
	"github.com/go-scripts/pathcrawl/internal/types"
	"github.com/go-scripts/pathcrawl/internal/writer"
	"github.com/go-scripts/pathcrawl/ui"
)

// Process exit codes
const (
	exitFound    = 0
	exitError    = 1
	exitNotFound = 2
)

// CLI flags structure
type CLIFlags struct {
	ConfigFile  string        `help:"Path to configuration file" default:"config.yaml" name:"config"`
	Start       string        `help:"Article to start from" short:"s"`
	Target      string        `help:"Article to look for" short:"t"`
	MaxDepth    int           `help:"Maximum crawl depth" short:"d" name:"depth"`
	Concurrency int           `help:"Number of concurrent workers" short:"c"`
	OutputFile  string        `help:"Write a JSON summary to this file" short:"o" name:"output"`
	Timeout     time.Duration `help:"Per-request timeout, 0 waits forever"`
	Render      bool          `help:"Fetch pages with headless Chrome"`
	Substring   bool          `help:"Match any link that contains the target"`
	TUI         bool          `help:"Show the interactive dashboard" name:"tui"`
	Debug       bool          `help:"Enable debug logging"`
}

// applyFlags overrides config values with flags that were set
func applyFlags(cfg config.Configuration, flags CLIFlags) config.Configuration {
	if flags.Start != "" {
		cfg.Start = flags.Start
	}
	if flags.Target != "" {
		cfg.Target = flags.Target
	}
	if flags.MaxDepth != 0 {
		cfg.MaxDepth = flags.MaxDepth
	}
	if flags.Concurrency != 0 {
		cfg.Concurrency = flags.Concurrency
	}
	if flags.OutputFile != "" {
		cfg.OutputFile = flags.OutputFile
	}
	if flags.Timeout != 0 {
		cfg.Timeout = flags.Timeout
	}
	if flags.Render {
		cfg.Render = true
	}
	if flags.Substring {
		cfg.SubstringMatch = true
	}
	if flags.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func main() {
	var flags CLIFlags

	ctx := kong.Parse(&flags,
		kong.Name("pathcrawl"),
		kong.Description("Find a chain of wiki links from one article to another."),
	)
	if ctx.Error != nil {
		fmt.Printf("Error parsing flags: %v\n", ctx.Error)
		os.Exit(exitError)
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(exitError)
	}
	cfg = applyFlags(cfg, flags)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(runCtx, cfg, flags.TUI, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run performs one search and returns the process exit code
func run(ctx context.Context, cfg config.Configuration, useTUI bool, stdout, stderr io.Writer) int {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration:\n%v\n", err)
		return exitError
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logOutput := stderr
	if useTUI {
		logOutput = io.Discard
	}
	logger := log.NewWithOptions(logOutput, log.Options{
		ReportTimestamp: true,
		Prefix:          "pathcrawl",
		Level:           level,
	})

	fetcher, closeFetcher := newFetcher(cfg)
	defer closeFetcher()

	extractor := links.New()
	extractor.Host = cfg.Host()
	extractor.Exclude = cfg.ExcludePrefixes
	pageCache := cache.New(fetcher, extractor)

	start := links.Normalize(cfg.Start)
	target := links.Normalize(cfg.Target)
	counter := &progress.Counter{}

	opts := crawler.Options{
		Start:          start,
		Target:         target,
		MaxDepth:       cfg.MaxDepth,
		Concurrency:    cfg.Concurrency,
		SubstringMatch: cfg.SubstringMatch,
		Logger:         logger,
	}

	var outcome types.Outcome
	if useTUI {
		outcome, err = runTUI(ctx, opts, pageCache, counter)
	} else {
		outcome, err = runPlain(ctx, opts, pageCache, counter, stderr, logger)
	}

	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(stderr, "Invalid configuration:\n%v\n", err)
		return exitError
	}
	if err != nil {
		logger.Error("Search did not complete", "err", err)
	}

	printOutcome(stdout, start, target, outcome)
	logger.Info("Summary",
		"pages", counter.Reported(),
		"dead_ends", counter.Failures(),
		"deepest", counter.MaxDepth(),
		"cached_pages", pageCache.Len(),
		"cache_hits", outcome.Stats.CacheHits)

	if cfg.OutputFile != "" {
		summary := writer.NewSummary(start, target, outcome)
		if werr := writer.WriteSummary(cfg.OutputFile, summary); werr != nil {
			logger.Error("Error writing summary", "file", cfg.OutputFile, "err", werr)
			return exitError
		}
		logger.Info("Summary written", "file", cfg.OutputFile)
	}

	return exitCode(outcome, err)
}

// newFetcher picks the page fetcher for cfg and returns its cleanup function
func newFetcher(cfg config.Configuration) (cache.Fetcher, func()) {
	if cfg.Render {
		f := fetch.NewBrowserFetcher(cfg.BaseURL, cfg.UserAgent)
		f.WaitTime = cfg.WaitTime
		return f, f.Close
	}

	f := fetch.NewHTTPFetcher(cfg.BaseURL, cfg.Timeout)
	if cfg.UserAgent != "" {
		f.UserAgent = cfg.UserAgent
	}
	return f, func() {}
}

// runPlain runs the search with a spinner on terminals and log lines elsewhere
func runPlain(ctx context.Context, opts crawler.Options, source crawler.LinkSource, counter *progress.Counter, stderr io.Writer, logger *log.Logger) (types.Outcome, error) {
	reporters := progress.Multi{counter}

	if isTerminal(stderr) && logger.GetLevel() > log.DebugLevel {
		sp := progress.NewSpinnerReporter(stderr)
		sp.Start()
		defer sp.Stop()
		reporters = append(reporters, sp)
	} else {
		reporters = append(reporters, progress.LogReporter{Logger: logger})
	}
	opts.Reporter = reporters

	c, err := crawler.New(opts, source)
	if err != nil {
		return types.Outcome{}, err
	}
	return c.Run(ctx)
}

// loadInterval is how often the dashboard samples the worker pool
const loadInterval = 250 * time.Millisecond

// runTUI runs the search behind the bubbletea dashboard
func runTUI(ctx context.Context, opts crawler.Options, source crawler.LinkSource, counter *progress.Counter) (types.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.New(opts.Start, opts.Target, opts.MaxDepth, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())
	reporter := ui.NewReporter(p, ui.DefaultBuffer)
	opts.Reporter = progress.Multi{counter, reporter}

	c, err := crawler.New(opts, source)
	if err != nil {
		reporter.Close()
		return types.Outcome{}, err
	}

	var outcome types.Outcome
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		stopLoad := sampleLoad(c, p)
		outcome, runErr = c.Run(ctx)
		stopLoad()
		// flush queued events so DoneMsg arrives last
		reporter.Close()
		p.Send(ui.DoneMsg{Outcome: outcome, Err: runErr})
	}()

	_, err = p.Run()
	cancel()
	<-done

	if err != nil {
		return outcome, fmt.Errorf("running dashboard: %w", err)
	}
	return outcome, runErr
}

// sampleLoad sends the crawler's pool backlog to the dashboard until stopped
func sampleLoad(c *crawler.Crawler, sender ui.Sender) (stop func()) {
	ticker := time.NewTicker(loadInterval)
	quit := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				load := c.Load()
				sender.Send(ui.LoadMsg{Queued: load.Queued, Active: load.Active, Workers: load.Workers})
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(quit)
		<-finished
	}
}

// printOutcome writes the result in the same shape the search has always used
func printOutcome(w io.Writer, start, target types.PageID, outcome types.Outcome) {
	if !outcome.Found() {
		fmt.Fprintf(w, "%s not found.\n", target)
		return
	}

	fmt.Fprintf(w, "%s found!\nA path to %s from %s:\n", target, target, start)
	for _, m := range outcome.Matches {
		fmt.Fprintf(w, "%s -> %s\n", m.Path, m.Link)
	}
}

func exitCode(outcome types.Outcome, err error) int {
	switch {
	case outcome.Found():
		return exitFound
	case err != nil:
		return exitError
	default:
		return exitNotFound
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
