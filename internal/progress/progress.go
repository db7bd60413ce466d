// Package progress reports what the crawler is doing while it runs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Reporter receives crawl events. Implementations must be safe for concurrent use
// and must not block the caller.
type Reporter interface {
	// Report is called when a page is about to be expanded
	Report(id types.PageID, depth int, seq int64)
	// Failed is called when a page at depth could not be fetched or parsed
	Failed(id types.PageID, depth int, err error)
	// Matched is called for every path that reaches the target
	Matched(m types.Match)
}

// Nop discards every event
type Nop struct{}

func (Nop) Report(types.PageID, int, int64) {}
func (Nop) Failed(types.PageID, int, error)  {}
func (Nop) Matched(types.Match)             {}

// Multi fans events out to several reporters
type Multi []Reporter

func (m Multi) Report(id types.PageID, depth int, seq int64) {
	for _, r := range m {
		r.Report(id, depth, seq)
	}
}

func (m Multi) Failed(id types.PageID, depth int, err error) {
	for _, r := range m {
		r.Failed(id, depth, err)
	}
}

func (m Multi) Matched(match types.Match) {
	for _, r := range m {
		r.Matched(match)
	}
}

// Counter tallies events for the end-of-run summary
type Counter struct {
	reported atomic.Int64
	failed   atomic.Int64
	matched  atomic.Int64
	maxDepth atomic.Int64
}

func (c *Counter) Report(_ types.PageID, depth int, _ int64) {
	c.reported.Add(1)
	for {
		old := c.maxDepth.Load()
		if int64(depth) <= old || c.maxDepth.CompareAndSwap(old, int64(depth)) {
			return
		}
	}
}

func (c *Counter) Failed(types.PageID, int, error) {
	c.failed.Add(1)
}

func (c *Counter) Matched(types.Match) {
	c.matched.Add(1)
}

// Reported returns the number of pages reported
func (c *Counter) Reported() int64 { return c.reported.Load() }

// Failures returns the number of failed pages
func (c *Counter) Failures() int64 { return c.failed.Load() }

// Matches returns the number of matches seen
func (c *Counter) Matches() int64 { return c.matched.Load() }

// MaxDepth returns the deepest depth reported
func (c *Counter) MaxDepth() int { return int(c.maxDepth.Load()) }

// LogReporter writes events to a structured logger
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Report(id types.PageID, depth int, seq int64) {
	r.Logger.Debug("Crawling", "seq", seq, "page", id, "depth", depth)
}

func (r LogReporter) Failed(id types.PageID, depth int, err error) {
	r.Logger.Warn("Treating page as a dead end", "page", id, "depth", depth, "err", err)
}

func (r LogReporter) Matched(m types.Match) {
	r.Logger.Info("Match found", "path", m.Path.String(), "link", m.Link)
}

// SpinnerReporter shows the page being crawled next to a terminal spinner
type SpinnerReporter struct {
	spinner *spinner.Spinner
	mu      sync.Mutex
	last    string
}

// NewSpinnerReporter creates a spinner writing to w
func NewSpinnerReporter(w io.Writer) *SpinnerReporter {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	return &SpinnerReporter{spinner: s}
}

// Start begins animating
func (r *SpinnerReporter) Start() {
	r.spinner.Start()
}

// Stop clears the spinner line
func (r *SpinnerReporter) Stop() {
	r.spinner.Stop()
}

func (r *SpinnerReporter) Report(id types.PageID, depth int, seq int64) {
	r.setSuffix(fmt.Sprintf(" #%d Crawling %s at depth %d", seq, formatPageID(id), depth))
}

func (r *SpinnerReporter) Failed(id types.PageID, _ int, err error) {
	r.setSuffix(fmt.Sprintf(" %s: %s", formatPageID(id), shorten(err.Error(), 50)))
}

func (r *SpinnerReporter) Matched(m types.Match) {
	r.setSuffix(fmt.Sprintf(" Found %s via %s", m.Link, formatPageID(m.Path.Last())))
}

// Suffix returns the text currently shown after the spinner
func (r *SpinnerReporter) Suffix() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *SpinnerReporter) setSuffix(s string) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()

	r.spinner.Lock()
	r.spinner.Suffix = s
	r.spinner.Unlock()
}

// formatPageID truncates long page ids so the spinner stays on one line
func formatPageID(id types.PageID) string {
	return shorten(string(id), 40)
}

// shorten cuts s to at most maxLen characters, never inside a multi-byte rune
func shorten(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
