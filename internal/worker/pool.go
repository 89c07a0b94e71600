package worker

import (
	"log/slog"
	"sync"
)

const DefaultWorkers = 10

// Pool runs background tasks on a fixed set of workers with a bounded queue.
// Fire-and-forget side effects (deferred blob cleanup, stale job removal) go
// through here instead of raw goroutines so they cannot grow without bound.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool starts workers goroutines consuming a queue of size queueSize.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logger.With(slog.String("component", "worker_pool")),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.run(task)
			}
		}()
	}

	return p
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background task panicked", slog.Any("panic", r))
		}
	}()
	task()
}

// Submit enqueues a task. Returns false when the queue is full; callers treat
// that as a skipped best-effort cleanup, not a failure.
func (p *Pool) Submit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn("task queue full, dropping background task")
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
