package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs a batch of jobs on a bounded set of workers.
type Pool struct {
	logger    *slog.Logger
	workers   int
	queueSize int
	timeout   time.Duration
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:    logger,
		workers:   4,
		queueSize: 64,
		timeout:   3 * time.Minute,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Run hands one job per path to the workers and blocks until every dispatched
// job has been handled. Each job gets its own timeout derived from ctx. When
// ctx is cancelled no further jobs start and Run returns ctx.Err().
func (p *Pool) Run(ctx context.Context, paths []string, handle Handler) error {
	if len(paths) == 0 {
		return ctx.Err()
	}
	workers := p.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	ch := make(chan Job, p.queueSize)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.logger.Debug("worker started", "worker_id", workerID)
			for job := range ch {
				if ctx.Err() != nil {
					continue
				}
				jobCtx, cancel := context.WithTimeout(ctx, p.timeout)
				start := time.Now()
				handle(jobCtx, job)
				cancel()
				p.logger.Debug("job handled",
					"worker_id", workerID,
					"file", job.Path,
					"queued_ms", start.Sub(job.SubmittedAt).Milliseconds(),
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
			}
			p.logger.Debug("worker stopped", "worker_id", workerID)
		}(i + 1)
	}

dispatch:
	for i, path := range paths {
		select {
		case <-ctx.Done():
			p.logger.Warn("dispatch interrupted by context", "dispatched", i, "total", len(paths))
			break dispatch
		case ch <- Job{Index: i, Path: path, SubmittedAt: time.Now()}:
		}
	}
	close(ch)
	wg.Wait()
	return ctx.Err()
}
