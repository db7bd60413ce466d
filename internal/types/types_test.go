package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathAppendCopies(t *testing.T) {
	base := make(Path, 0, 8)
	base = append(base, "A")

	left := base.Append("B")
	right := base.Append("C")

	assert.Equal(t, Path{"A"}, base)
	assert.Equal(t, Path{"A", "B"}, left)
	assert.Equal(t, Path{"A", "C"}, right)
	assert.Equal(t, PageID("C"), right.Last())
	assert.Equal(t, 2, right.Len())
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "Tomato -> Potato -> Europe", Path{"Tomato", "Potato", "Europe"}.String())
	assert.Equal(t, "", Path{}.String())
	assert.Equal(t, PageID(""), Path{}.Last())
}

func TestLinkSet(t *testing.T) {
	ls := NewLinkSet("B", "A", "", "B", "C")

	assert.Equal(t, []PageID{"B", "A", "C"}, ls.IDs())
	assert.Equal(t, 3, ls.Len())
	assert.True(t, ls.Contains("A"))
	assert.False(t, ls.Contains(""))

	ids := ls.IDs()
	ids[0] = "Z"
	assert.Equal(t, PageID("B"), ls.IDs()[0])

	var empty LinkSet
	assert.False(t, empty.Contains("A"))
	assert.Zero(t, empty.Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "match_found", MatchFound.String())
	assert.Equal(t, "drained", Drained.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", State(42).String())
}
