package types

import (
	"strings"
	"time"
)

// PageID identifies a single article, e.g. "Tomato" or "Adolf_Hitler"
type PageID string

// Path is the sequence of pages visited from the start page to the current one.
// A Path is never modified after it is built; Append returns a fresh copy.
type Path []PageID

// Append returns a new Path with id added at the end
func (p Path) Append(id PageID) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, id)
}

// Len returns the depth represented by the path
func (p Path) Len() int {
	return len(p)
}

// Last returns the final page of the path, or "" for an empty path
func (p Path) Last() PageID {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Strings converts the path to plain strings, mostly for output
func (p Path) Strings() []string {
	out := make([]string, len(p))
	for i, id := range p {
		out[i] = string(id)
	}
	return out
}

func (p Path) String() string {
	return strings.Join(p.Strings(), " -> ")
}

// LinkSet holds the outbound links of one page in the order the extractor found them.
type LinkSet struct {
	ids   []PageID
	index map[PageID]struct{}
}

// NewLinkSet builds a LinkSet, dropping duplicates and empty ids
func NewLinkSet(ids ...PageID) LinkSet {
	ls := LinkSet{
		ids:   make([]PageID, 0, len(ids)),
		index: make(map[PageID]struct{}, len(ids)),
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := ls.index[id]; ok {
			continue
		}
		ls.index[id] = struct{}{}
		ls.ids = append(ls.ids, id)
	}
	return ls
}

// Contains reports whether id is one of the links
func (ls LinkSet) Contains(id PageID) bool {
	_, ok := ls.index[id]
	return ok
}

// IDs returns a copy of the links in extraction order
func (ls LinkSet) IDs() []PageID {
	out := make([]PageID, len(ls.ids))
	copy(out, ls.ids)
	return out
}

// Len returns the number of distinct links
func (ls LinkSet) Len() int {
	return len(ls.ids)
}

// Match is a path whose last page links to the target
type Match struct {
	Path    Path
	Link    PageID // link on the last page that satisfied the match rule
	FoundAt time.Time
}

// State is the lifecycle state of a search run
type State int

const (
	Running State = iota
	MatchFound
	Drained
	Exhausted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case MatchFound:
		return "match_found"
	case Drained:
		return "drained"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stats counts what happened during a run
type Stats struct {
	Expanded    int64         `json:"expanded"`
	CacheHits   int64         `json:"cache_hits"`
	CacheMisses int64         `json:"cache_misses"`
	FetchErrors int64         `json:"fetch_errors"`
	ParseErrors int64         `json:"parse_errors"`
	Skipped     int64         `json:"skipped"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Outcome is what a finished run hands back to the caller
type Outcome struct {
	State   State
	Matches []Match
	Stats   Stats
}

// Found reports whether at least one match was recorded
func (o Outcome) Found() bool {
	return len(o.Matches) > 0
}
