package crawler

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/pathcrawl/internal/config"
	"github.com/go-scripts/pathcrawl/internal/fetch"
	"github.com/go-scripts/pathcrawl/internal/links"
	"github.com/go-scripts/pathcrawl/internal/progress"
	"github.com/go-scripts/pathcrawl/internal/queue"
	"github.com/go-scripts/pathcrawl/internal/types"
	"github.com/go-scripts/pathcrawl/internal/visited"
)

// LinkSource returns the outbound links of a page
type LinkSource interface {
	GetLinks(ctx context.Context, id types.PageID) (types.LinkSet, error)
}

// Options configures a search
type Options struct {
	Start          types.PageID
	Target         types.PageID
	MaxDepth       int
	Concurrency    int
	SubstringMatch bool              // match any link containing Target instead of Target itself
	Logger         *log.Logger       // defaults to a discarding logger
	Reporter       progress.Reporter // defaults to progress.Nop
	OnMatch        func(types.Match) // called as each match is recorded, may be nil
}

// Crawler searches the link graph for a page that links to the target
type Crawler struct {
	opts     Options
	links    LinkSource
	visited  *visited.Set
	recorder *Recorder
	term     *Termination
	pool     atomic.Pointer[queue.Pool]
	logger   *log.Logger
	reporter progress.Reporter
	seq      atomic.Int64
	ran      atomic.Bool

	expanded    atomic.Int64
	fetchErrors atomic.Int64
	parseErrors atomic.Int64
	skipped     atomic.Int64
}

// New validates opts and creates a Crawler reading links from source
func New(opts Options, source LinkSource) (*Crawler, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}

	recorder := NewRecorder(opts.OnMatch)
	return &Crawler{
		opts:     opts,
		links:    source,
		visited:  visited.New(),
		recorder: recorder,
		term:     NewTermination(recorder),
		logger:   opts.Logger,
		reporter: opts.Reporter,
	}, nil
}

func validate(opts Options) error {
	var errs []error
	if opts.Start == "" {
		errs = append(errs, &config.ConfigError{Field: "start", Reason: "must not be empty"})
	}
	if opts.Target == "" {
		errs = append(errs, &config.ConfigError{Field: "target", Reason: "must not be empty"})
	}
	if opts.MaxDepth < 1 {
		errs = append(errs, &config.ConfigError{Field: "max_depth", Reason: "must be at least 1"})
	}
	if opts.Concurrency < 1 {
		errs = append(errs, &config.ConfigError{Field: "concurrency", Reason: "must be at least 1"})
	}
	return errors.Join(errs...)
}

// Run searches from the start page until a match is found or the frontier is
// exhausted, then waits for scheduled work to drain. Cancelling ctx stops
// scheduling new work; the context error is returned if nothing was found.
func (c *Crawler) Run(ctx context.Context) (types.Outcome, error) {
	if !c.ran.CompareAndSwap(false, true) {
		return types.Outcome{}, errors.New("crawler: Run may only be called once")
	}

	started := time.Now()
	pool := queue.New(c.opts.Concurrency, c.logger)
	c.pool.Store(pool)

	stop := context.AfterFunc(ctx, c.term.RequestShutdown)
	defer stop()

	c.logger.Info("Starting search",
		"start", c.opts.Start,
		"target", c.opts.Target,
		"max_depth", c.opts.MaxDepth,
		"concurrency", c.opts.Concurrency)

	c.schedule(ctx, c.opts.Start, types.Path{})
	pool.Wait()

	state := c.term.finish()
	outcome := types.Outcome{
		State:   state,
		Matches: c.recorder.Matches(),
		Stats:   c.stats(time.Since(started)),
	}

	c.logger.Info("Search finished",
		"state", state,
		"matches", len(outcome.Matches),
		"expanded", outcome.Stats.Expanded,
		"elapsed", outcome.Stats.Elapsed.Round(time.Millisecond))

	if !outcome.Found() && ctx.Err() != nil {
		return outcome, ctx.Err()
	}
	return outcome, nil
}

// State returns the current run state; it can be polled while Run is active
func (c *Crawler) State() types.State {
	return c.term.State()
}

// Matches returns the matches recorded so far
func (c *Crawler) Matches() []types.Match {
	return c.recorder.Matches()
}

// Discovered returns the path by which an expanded page was reached
func (c *Crawler) Discovered(id types.PageID) (types.Path, bool) {
	return c.recorder.Discovered(id)
}

// Load describes the worker pool at one instant
type Load struct {
	Queued  int // expansions waiting for a worker
	Active  int // expansions running
	Workers int // concurrency limit
}

// Load reports the pool's backlog; it is zero before Run starts
func (c *Crawler) Load() Load {
	pool := c.pool.Load()
	if pool == nil {
		return Load{Workers: c.opts.Concurrency}
	}
	return Load{Queued: pool.Len(), Active: pool.Active(), Workers: pool.Size()}
}

// Visited returns the number of pages selected for expansion
func (c *Crawler) Visited() int {
	return c.visited.Len()
}

func (c *Crawler) schedule(ctx context.Context, id types.PageID, path types.Path) {
	c.pool.Load().Submit(func() {
		c.expand(ctx, id, path)
	})
}

// expand is one unit of work: visit id, reached by path, and queue its children
func (c *Crawler) expand(ctx context.Context, id types.PageID, path types.Path) {
	if c.term.ShutdownRequested() {
		c.skipped.Add(1)
		return
	}
	if path.Len() >= c.opts.MaxDepth {
		return
	}
	if !c.visited.TryVisit(id) {
		return
	}

	c.expanded.Add(1)
	c.reporter.Report(id, path.Len(), c.seq.Add(1))

	pageLinks, err := c.links.GetLinks(ctx, id)
	if err != nil {
		// a page that cannot be read is a dead end, never a reason to stop
		c.recordFailure(id, path.Len(), err)
		pageLinks = types.NewLinkSet()
	}

	current := path.Append(id)
	c.recorder.Discover(id, current)

	if link, ok := c.match(pageLinks); ok {
		m := types.Match{Path: current, Link: link, FoundAt: time.Now()}
		c.term.ReportMatch(m)
		c.reporter.Matched(m)
		c.logger.Debug("Match", "path", current.String(), "link", link)
		return
	}

	// children of a page at the depth limit would be rejected on entry
	if current.Len() >= c.opts.MaxDepth {
		return
	}
	for _, child := range pageLinks.IDs() {
		if c.term.ShutdownRequested() {
			return
		}
		c.schedule(ctx, child, current)
	}
}

// match applies the match rule to the links of the current page
func (c *Crawler) match(pageLinks types.LinkSet) (types.PageID, bool) {
	if pageLinks.Contains(c.opts.Target) {
		return c.opts.Target, true
	}
	if c.opts.SubstringMatch {
		for _, link := range pageLinks.IDs() {
			if strings.Contains(string(link), string(c.opts.Target)) {
				return link, true
			}
		}
	}
	return "", false
}

func (c *Crawler) recordFailure(id types.PageID, depth int, err error) {
	var parseErr *links.ParseError
	var fetchErr *fetch.FetchError

	switch {
	case errors.Is(err, context.Canceled):
		// the caller gave up, nothing worth reporting
		return
	case errors.As(err, &parseErr):
		c.parseErrors.Add(1)
	case errors.As(err, &fetchErr):
		c.fetchErrors.Add(1)
	default:
		c.fetchErrors.Add(1)
	}

	c.logger.Debug("Page unavailable", "page", id, "depth", depth, "err", err)
	c.reporter.Failed(id, depth, err)
}

type cacheStats interface {
	Hits() int64
	Misses() int64
}

func (c *Crawler) stats(elapsed time.Duration) types.Stats {
	s := types.Stats{
		Expanded:    c.expanded.Load(),
		FetchErrors: c.fetchErrors.Load(),
		ParseErrors: c.parseErrors.Load(),
		Skipped:     c.skipped.Load(),
		Elapsed:     elapsed,
	}
	if cs, ok := c.links.(cacheStats); ok {
		s.CacheHits = cs.Hits()
		s.CacheMisses = cs.Misses()
	}
	return s
}
