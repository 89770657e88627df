// Package worker runs independent jobs, such as document writes, on a
// bounded number of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool keeps every error a job returns until Stop.
type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup

	ctx       context.Context
	submitted atomic.Int64
	finished  atomic.Int64

	mu   sync.Mutex
	errs []error
}

func NewPool[J any](numWorkers int, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	p.ctx = ctx
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[J]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				p.mu.Lock()
				p.errs = append(p.errs, err)
				p.mu.Unlock()
			}
			p.finished.Add(1)
		}
	}
}

// Submit queues job, blocking while the buffer is full. It fails once the
// pool's context is done.
func (p *Pool[J]) Submit(job J) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobs <- job:
		p.submitted.Add(1)
		return nil
	}
}

// Stop closes the queue, waits for in-flight jobs and returns the joined
// errors of all failed jobs. Jobs dropped by a cancelled context are
// reported as well.
func (p *Pool[J]) Stop() error {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	errs := p.errs
	if lost := p.submitted.Load() - p.finished.Load(); lost > 0 {
		errs = append(errs, fmt.Errorf("%d jobs not processed: %w", lost, p.ctx.Err()))
	}
	return errors.Join(errs...)
}

// Run processes every job and stops the pool.
func Run[J any](ctx context.Context, numWorkers int, jobs []J, processor ProcessFunc[J]) error {
	p := NewPool(numWorkers, len(jobs), processor)
	p.Start(ctx)
	for _, job := range jobs {
		if err := p.Submit(job); err != nil {
			return errors.Join(p.Stop(), err)
		}
	}
	return p.Stop()
}
