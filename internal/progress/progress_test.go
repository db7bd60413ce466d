package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/pathcrawl/internal/types"
)

func TestCounter(t *testing.T) {
	c := &Counter{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(depth int) {
			defer wg.Done()
			c.Report("A", depth, int64(depth))
		}(i % 7)
	}
	wg.Wait()
	c.Failed("B", 1, errors.New("boom"))
	c.Matched(types.Match{Path: types.Path{"A"}})

	assert.Equal(t, int64(50), c.Reported())
	assert.Equal(t, int64(1), c.Failures())
	assert.Equal(t, int64(1), c.Matches())
	assert.Equal(t, 6, c.MaxDepth())
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Counter{}, &Counter{}
	m := Multi{a, b, Nop{}}

	m.Report("A", 1, 1)
	m.Failed("A", 0, errors.New("x"))
	m.Matched(types.Match{})

	for _, c := range []*Counter{a, b} {
		assert.Equal(t, int64(1), c.Reported())
		assert.Equal(t, int64(1), c.Failures())
		assert.Equal(t, int64(1), c.Matches())
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := LogReporter{Logger: logger}

	r.Report("Tomato", 2, 7)
	r.Failed("Broken", 2, errors.New("status 500"))
	r.Matched(types.Match{Path: types.Path{"Tomato", "Potato"}, Link: "Adolf_Hitler"})

	out := buf.String()
	assert.Contains(t, out, "Crawling")
	assert.Contains(t, out, "page=Tomato")
	assert.Contains(t, out, "depth=2")
	assert.Contains(t, out, "page=Broken")
	assert.Contains(t, out, "status 500")
	assert.Contains(t, out, "Tomato -> Potato")
}

func TestSpinnerReporterSuffix(t *testing.T) {
	var buf bytes.Buffer
	r := NewSpinnerReporter(&buf)

	r.Report("Tomato", 1, 3)
	assert.Equal(t, " #3 Crawling Tomato at depth 1", r.Suffix())

	r.Report(types.PageID(strings.Repeat("x", 60)), 2, 4)
	assert.Contains(t, r.Suffix(), "...")
	assert.LessOrEqual(t, len(r.Suffix()), len(" #4 Crawling  at depth 2")+40)

	r.Matched(types.Match{Path: types.Path{"Tomato", "Potato"}, Link: "Adolf_Hitler"})
	assert.Equal(t, " Found Adolf_Hitler via Potato", r.Suffix())
}

func TestSpinnerReporterKeepsRunesWhole(t *testing.T) {
	var buf bytes.Buffer
	r := NewSpinnerReporter(&buf)

	// 49 two-byte runes fit in 50 characters even though they take 98 bytes
	r.Failed("Ä", 1, errors.New(strings.Repeat("é", 49)))
	assert.Equal(t, " Ä: "+strings.Repeat("é", 49), r.Suffix())

	r.Failed("Ä", 1, errors.New(strings.Repeat("é", 60)))
	assert.True(t, utf8.ValidString(r.Suffix()))
	assert.Equal(t, " Ä: "+strings.Repeat("é", 47)+"...", r.Suffix())

	r.Report(types.PageID(strings.Repeat("東", 45)), 1, 7)
	assert.True(t, utf8.ValidString(r.Suffix()))
	assert.Equal(t, " #7 Crawling "+strings.Repeat("東", 37)+"... at depth 1", r.Suffix())
}

func TestShorten(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"ééééé", 5, "ééééé"},
		{"éééééé", 5, "éé..."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, shorten(tt.in, tt.max))
		})
	}
}
