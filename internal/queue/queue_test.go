package queue

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4, quietLogger())

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		assert.True(t, p.Submit(func() { count.Add(1) }))
	}
	p.Wait()

	assert.Equal(t, int32(100), count.Load())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Active())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const size = 3
	p := New(size, quietLogger())

	var running, peak atomic.Int32
	for i := 0; i < 30; i++ {
		p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	p.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(size))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestPoolNestedSubmit(t *testing.T) {
	// a pool of one must not deadlock when tasks queue children
	p := New(1, quietLogger())

	var mu sync.Mutex
	var seen []int
	var spawn func(depth int)
	spawn = func(depth int) {
		mu.Lock()
		seen = append(seen, depth)
		mu.Unlock()
		if depth < 5 {
			p.Submit(func() { spawn(depth + 1) })
			p.Submit(func() { spawn(depth + 1) })
		}
	}
	p.Submit(func() { spawn(0) })
	p.Wait()

	// 1 + 2 + 4 + 8 + 16 + 32
	assert.Len(t, seen, 63)
}

func TestPoolFIFOWithSingleWorker(t *testing.T) {
	p := New(1, quietLogger())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	p.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestPoolRecoversPanics(t *testing.T) {
	p := New(2, quietLogger())

	var count atomic.Int32
	p.Submit(func() { panic("boom") })
	for i := 0; i < 5; i++ {
		p.Submit(func() { count.Add(1) })
	}
	p.Wait()

	assert.Equal(t, int32(5), count.Load())
}

func TestPoolSubmitAfterWait(t *testing.T) {
	p := New(2, quietLogger())
	p.Wait()

	assert.False(t, p.Submit(func() {}))
}

func TestPoolSizeFloor(t *testing.T) {
	assert.Equal(t, 1, New(0, quietLogger()).Size())
}

func TestPoolReportsBacklog(t *testing.T) {
	p := New(2, quietLogger())

	release := make(chan struct{})
	for i := 0; i < 5; i++ {
		p.Submit(func() { <-release })
	}

	assert.Eventually(t, func() bool {
		return p.Active() == 2 && p.Len() == 3
	}, time.Second, 5*time.Millisecond)

	close(release)
	p.Wait()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Active())
}
