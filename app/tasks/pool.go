package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Policy decides what happens to a submission whose tag is already in
// flight.
type Policy int

const (
	// Drop ignores the new submission.
	Drop Policy = iota
	// Coalesce keeps the latest submission and runs it once the in-flight
	// one has completed. Earlier waiting submissions are replaced.
	Coalesce
)

func (p Policy) String() string {
	switch p {
	case Drop:
		return "drop"
	case Coalesce:
		return "coalesce"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "drop":
		return Drop, nil
	case "coalesce":
		return Coalesce, nil
	}
	return Drop, fmt.Errorf("unknown task policy %q", s)
}

var (
	ErrDuplicate = errors.New("a task with the same tag is in flight")
	ErrClosed    = errors.New("task pool is closed")
)

// Job is the background part of a task. It must not touch state owned by
// the submitting goroutine.
type Job func(ctx context.Context) error

// Callback receives the result of a Job. It is run by whoever calls
// RunCallbacks, normally the goroutine that owns the state the job computed
// a replacement for.
type Callback func(err error)

type task struct {
	tag  string
	run  Job
	done Callback
}

type slot struct {
	next *task
}

// Pool runs jobs on a bounded number of goroutines and hands their results
// back to a single owner goroutine. A tag is in flight from submission until
// its callback has returned, so at most one job per tag is queued or running
// at any time.
type Pool struct {
	sem *semaphore.Weighted
	ctx context.Context

	mu        sync.Mutex
	inflight  map[string]*slot
	callbacks []func()
	active    int
	closed    bool

	ready chan struct{}
	jobs  sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		sem:      semaphore.NewWeighted(int64(workers)),
		ctx:      context.Background(),
		inflight: make(map[string]*slot),
		ready:    make(chan struct{}, 1),
	}
}

// Submit schedules run under tag with the Drop policy and reports whether it
// was accepted. An empty tag is never de-duplicated.
func (p *Pool) Submit(tag string, run Job, done Callback) bool {
	return p.Enqueue(tag, Drop, run, done) == nil
}

// Enqueue schedules run under tag. It returns ErrDuplicate when the
// submission was dropped, and ErrClosed after Close. A coalesced submission
// returns nil.
func (p *Pool) Enqueue(tag string, policy Policy, run Job, done Callback) error {
	t := &task{tag: tag, run: run, done: done}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if tag != "" {
		if s, ok := p.inflight[tag]; ok {
			if policy == Coalesce {
				s.next = t
				slog.Debug("coalesced task", "tag", tag)
				return nil
			}
			slog.Debug("dropped duplicate task", "tag", tag)
			return ErrDuplicate
		}
		p.inflight[tag] = &slot{}
	}
	p.startLocked(t)
	return nil
}

// InFlight reports whether a task with tag is queued or running, or waits
// for its callback.
func (p *Pool) InFlight(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inflight[tag]
	return ok
}

func (p *Pool) startLocked(t *task) {
	p.active++
	p.jobs.Add(1)
	go func() {
		defer p.jobs.Done()
		// the pool context is never cancelled, Acquire only fails on ctx
		_ = p.sem.Acquire(p.ctx, 1)
		err := p.runJob(t)
		p.sem.Release(1)
		p.queueCallback(t, err)
	}()
}

func (p *Pool) runJob(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "tag", t.tag, "panic", r)
			err = fmt.Errorf("task %q panicked: %v", t.tag, r)
		}
	}()
	return t.run(p.ctx)
}

func (p *Pool) queueCallback(t *task, err error) {
	p.mu.Lock()
	p.callbacks = append(p.callbacks, func() {
		if t.done != nil {
			t.done(err)
		}
		p.release(t.tag)
	})
	p.mu.Unlock()

	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// release frees the tag after its callback ran, or starts the coalesced
// follow-up under the same tag.
func (p *Pool) release(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active--
	if tag == "" {
		return
	}
	s := p.inflight[tag]
	if s != nil && s.next != nil && !p.closed {
		next := s.next
		s.next = nil
		p.startLocked(next)
		return
	}
	delete(p.inflight, tag)
}

// Ready receives a value whenever callbacks may be waiting. Owners select on
// it and then call RunCallbacks.
func (p *Pool) Ready() <-chan struct{} {
	return p.ready
}

// RunCallbacks runs the pending callbacks on the calling goroutine and
// returns how many ran.
func (p *Pool) RunCallbacks() int {
	p.mu.Lock()
	pending := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, cb := range pending {
		cb()
	}
	return len(pending)
}

// WaitIdle runs callbacks on the calling goroutine until no task is left,
// including follow-ups started by callbacks.
func (p *Pool) WaitIdle(ctx context.Context) error {
	for {
		p.RunCallbacks()

		p.mu.Lock()
		idle := p.active == 0 && len(p.callbacks) == 0
		p.mu.Unlock()
		if idle {
			return nil
		}

		select {
		case <-p.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting tasks and waits for running jobs to finish. Their
// callbacks stay queued for a final RunCallbacks; coalesced follow-ups are
// discarded.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.jobs.Wait()
}
