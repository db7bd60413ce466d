package crawler

import (
	"sync"
	"sync/atomic"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Recorder keeps every match and the path each expanded page was reached by
type Recorder struct {
	mu         sync.Mutex
	matches    []types.Match
	discovered map[types.PageID]types.Path
	onMatch    func(types.Match)
}

// NewRecorder creates an empty Recorder. onMatch may be nil.
func NewRecorder(onMatch func(types.Match)) *Recorder {
	return &Recorder{
		discovered: make(map[types.PageID]types.Path),
		onMatch:    onMatch,
	}
}

// Add appends a match. Matches are never deduplicated.
func (r *Recorder) Add(m types.Match) {
	r.mu.Lock()
	r.matches = append(r.matches, m)
	r.mu.Unlock()

	if r.onMatch != nil {
		r.onMatch(m)
	}
}

// Matches returns the matches in the order they were recorded
func (r *Recorder) Matches() []types.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Match, len(r.matches))
	copy(out, r.matches)
	return out
}

// Len returns the number of matches
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Discover stores the path an expanded page was reached by
func (r *Recorder) Discover(id types.PageID, path types.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered[id] = path
}

// Discovered returns the path recorded for id
func (r *Recorder) Discovered(id types.PageID) (types.Path, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.discovered[id]
	return p, ok
}

// Termination tracks the run state and the cooperative shutdown flag.
// Nothing is interrupted: expansions poll ShutdownRequested before doing work.
type Termination struct {
	shutdown atomic.Bool
	mu       sync.Mutex
	state    types.State
	recorder *Recorder
}

// NewTermination creates a controller in the Running state
func NewTermination(recorder *Recorder) *Termination {
	return &Termination{
		state:    types.Running,
		recorder: recorder,
	}
}

// ReportMatch records m and requests shutdown. Safe for concurrent callers;
// every match is kept.
func (t *Termination) ReportMatch(m types.Match) {
	t.recorder.Add(m)

	t.mu.Lock()
	if t.state == types.Running {
		t.state = types.MatchFound
	}
	t.mu.Unlock()

	t.shutdown.Store(true)
}

// RequestShutdown stops future expansions without recording a match
func (t *Termination) RequestShutdown() {
	t.shutdown.Store(true)
}

// ShutdownRequested reports whether new work should be skipped
func (t *Termination) ShutdownRequested() bool {
	return t.shutdown.Load()
}

// State returns the current run state
func (t *Termination) State() types.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// finish moves the run into its terminal state once all work has drained
func (t *Termination) finish() types.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case types.MatchFound:
		t.state = types.Drained
	case types.Running:
		t.state = types.Exhausted
	}
	return t.state
}
