package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned when a job is submitted after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is one deferred unit of work, run exactly once by one worker.
type Job func()

// Pool is a fixed set of workers consuming a FIFO job queue. Workers start
// in New and run until Close; a job that panics takes the process down.
type Pool struct {
	size  int
	queue chan Job
	log   *zap.Logger

	// intake guards queue sends against Close.
	intake sync.RWMutex
	closed bool

	// pending counts submitted jobs that have not finished.
	mu      sync.Mutex
	idle    *sync.Cond
	pending int

	workers errgroup.Group
}

// New starts size workers. The queue holds up to size*64 jobs before
// Execute blocks.
func New(size int, log *zap.Logger) *Pool {
	if size <= 0 {
		panic("worker: pool size must be positive")
	}
	p := &Pool{
		size:  size,
		queue: make(chan Job, size*64),
		log:   log,
	}
	p.idle = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		id := i
		p.workers.Go(func() error {
			p.run(id)
			return nil
		})
	}
	log.Debug("worker pool started", zap.Int("workers", size))
	return p
}

func (p *Pool) run(id int) {
	for job := range p.queue {
		job()
		p.done()
	}
	p.log.Debug("worker stopped", zap.Int("worker", id))
}

func (p *Pool) done() {
	p.mu.Lock()
	p.pending--
	if p.pending == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

// Execute enqueues job at the tail of the queue.
func (p *Pool) Execute(job Job) error {
	p.intake.RLock()
	defer p.intake.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.mu.Lock()
	p.pending++
	p.mu.Unlock()

	p.queue <- job
	return nil
}

// Wait blocks until every job submitted so far has finished. Jobs submitted
// concurrently with Wait may or may not be waited for.
func (p *Pool) Wait() {
	p.mu.Lock()
	for p.pending > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Close stops intake, lets the workers drain the queue and joins them.
// Safe to call more than once.
func (p *Pool) Close() {
	p.intake.Lock()
	if p.closed {
		p.intake.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.intake.Unlock()

	_ = p.workers.Wait()
	p.log.Debug("worker pool stopped", zap.Int("workers", p.size))
}
