package visited

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/pathcrawl/internal/types"
)

func TestTryVisit(t *testing.T) {
	s := New()

	assert.True(t, s.TryVisit("Tomato"))
	assert.False(t, s.TryVisit("Tomato"))
	assert.True(t, s.TryVisit("Potato"))
	assert.Equal(t, 2, s.Len())
}

func TestTryVisitConcurrent(t *testing.T) {
	s := New()
	ids := []types.PageID{"A", "B", "C", "D"}

	var wins [4]atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < 64; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, id := range ids {
				if s.TryVisit(id) {
					wins[i].Add(1)
				}
			}
		}()
	}
	wg.Wait()

	for i := range ids {
		assert.Equal(t, int32(1), wins[i].Load(), "page %s", ids[i])
	}
	assert.Equal(t, len(ids), s.Len())
}
