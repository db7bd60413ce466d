package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// DefaultBuffer is the number of crawl events held for the program
const DefaultBuffer = 256

// Sender delivers messages to a running program; *tea.Program satisfies it
type Sender interface {
	Send(msg tea.Msg)
}

// Reporter forwards crawl events to the TUI from a buffered channel so crawl
// workers never wait on the program. Page events are dropped while the buffer
// is full; failures and matches are always delivered.
type Reporter struct {
	program Sender
	events  chan tea.Msg
	done    chan struct{}
}

// NewReporter starts forwarding events to program. Close must be called once
// the crawl has finished.
func NewReporter(program Sender, buffer int) *Reporter {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	r := &Reporter{
		program: program,
		events:  make(chan tea.Msg, buffer),
		done:    make(chan struct{}),
	}
	go r.forward()
	return r
}

func (r *Reporter) forward() {
	defer close(r.done)
	for msg := range r.events {
		r.program.Send(msg)
	}
}

// Close flushes buffered events and stops forwarding
func (r *Reporter) Close() {
	close(r.events)
	<-r.done
}

func (r *Reporter) Report(id types.PageID, depth int, seq int64) {
	select {
	case r.events <- PageMsg{ID: id, Depth: depth, Seq: seq}:
	default:
	}
}

func (r *Reporter) Failed(id types.PageID, depth int, err error) {
	r.events <- FailureMsg{ID: id, Depth: depth, Err: err}
}

func (r *Reporter) Matched(m types.Match) {
	r.events <- MatchMsg{Match: m}
}
