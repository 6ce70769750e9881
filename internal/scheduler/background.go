package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Task is one-shot background work reporting how many items it handled.
type Task func(ctx context.Context) (int, error)

// Background runs a Task detached from its caller. Failures are logged and
// published on Err; nothing is retried.
type Background struct {
	name   string
	task   Task
	logger logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	errCh  chan error

	mu    sync.Mutex
	count int
	err   error
}

// NewBackground prepares a background task.
func NewBackground(name string, task Task, log logger.Logger) *Background {
	return &Background{
		name:   name,
		task:   task,
		logger: log.With(logger.String("task", name)),
		done:   make(chan struct{}),
		errCh:  make(chan error, 1),
	}
}

// Start launches the task. It keeps running after ctx is cancelled; only
// Stop cancels it.
func (b *Background) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		defer close(b.done)
		defer close(b.errCh)

		start := time.Now()
		n, err := b.task(ctx)

		b.mu.Lock()
		b.count, b.err = n, err
		b.mu.Unlock()

		if err != nil {
			b.logger.Warn("background task failed", logger.Int("handled", n), logger.Error(err))
			b.errCh <- err
			return
		}
		b.logger.Info("background task finished",
			logger.Int("handled", n),
			logger.Duration("took", time.Since(start)))
	}()
}

// Err yields the task's failure, if any, and is closed when it ends.
func (b *Background) Err() <-chan error { return b.errCh }

// Done is closed when the task has returned.
func (b *Background) Done() <-chan struct{} { return b.done }

// Result returns what the finished task reported.
func (b *Background) Result() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count, b.err
}

// Stop cancels the task and waits for it.
func (b *Background) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}
