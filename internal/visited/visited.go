package visited

import (
	"sync"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Set records pages that have been selected for expansion
type Set struct {
	pages map[types.PageID]bool
	mu    sync.Mutex
}

// New creates an empty Set
func New() *Set {
	return &Set{
		pages: make(map[types.PageID]bool),
	}
}

// TryVisit marks id as visited and returns true if it was not visited before.
// Two callers racing on the same id never both get true.
func (s *Set) TryVisit(id types.PageID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pages[id] {
		return false
	}
	s.pages[id] = true
	return true
}

// Len returns the number of visited pages
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}
