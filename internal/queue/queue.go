package queue

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of work run by the pool
type Task func()

// Pool runs queued tasks with bounded concurrency.
// Submit never blocks, so a running task may queue further tasks.
type Pool struct {
	items   []Task
	pending int // queued plus running
	active  int
	closed  bool
	mu      sync.Mutex
	cond    *sync.Cond
	sem     *semaphore.Weighted
	size    int
	logger  *log.Logger
}

// New creates a Pool that runs at most size tasks at once
func New(size int, logger *log.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = log.Default()
	}

	p := &Pool{
		items:  make([]Task, 0),
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		logger: logger,
	}
	p.cond = sync.NewCond(&p.mu)

	go p.dispatch()
	return p
}

// Submit queues a task. It returns false once the pool has been drained by Wait.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.items = append(p.items, task)
	p.pending++
	p.cond.Broadcast()
	return true
}

// Wait blocks until every queued and running task has finished, then stops the pool
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.pending > 0 {
		p.cond.Wait()
	}
	p.closed = true
	p.cond.Broadcast()
}

// Len returns the number of tasks waiting for a slot
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Active returns the number of running tasks
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Size returns the concurrency limit
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) dispatch() {
	for {
		// a slot is taken before popping so queued tasks stay visible to Len
		// until they start; Background never cancels, so Acquire cannot fail
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.logger.Error("Failed to acquire worker slot", "err", err)
			return
		}

		task, ok := p.next()
		if !ok {
			p.sem.Release(1)
			return
		}
		go p.run(task)
	}
}

// next pops the oldest task and marks it active, waiting for one to arrive
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.items) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.items) == 0 {
		return nil, false
	}

	task := p.items[0]
	p.items[0] = nil
	p.items = p.items[1:]
	p.active++
	return task, true
}

func (p *Pool) run(task Task) {
	defer p.sem.Release(1)
	defer p.finish()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked", "panic", r)
		}
	}()

	task()
}

func (p *Pool) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending--
	p.active--
	p.cond.Broadcast()
}
