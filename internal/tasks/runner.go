package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

// Func is a unit of background work.
type Func func(ctx context.Context) error

// RunnerParams configure the background task runner.
type RunnerParams struct {
	Logger  *logger.Logger
	Metrics *metrics.TaskMetrics
	Timeout time.Duration
}

// Runner executes fire-and-forget tasks off the request path. Failures are
// logged and counted, never returned to the caller that scheduled them.
type Runner struct {
	logg    *logger.Logger
	metrics *metrics.TaskMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner builds a task runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{
		logg:    params.Logger,
		metrics: params.Metrics,
		timeout: timeout,
	}, nil
}

// Go runs fn on its own goroutine. The task keeps the caller's context values
// (request id, user id) but not its cancellation, and is bounded by the runner timeout.
func (r *Runner) Go(ctx context.Context, name string, fn Func) {
	if ctx == nil {
		ctx = context.Background()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		r.run(taskCtx, name, fn)
	}()
}

// Wait blocks until every scheduled task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Drain waits for in-flight tasks or until ctx is done, whichever comes first.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) run(ctx context.Context, name string, fn Func) {
	taskCtx := r.logg.WithField(ctx, "task", name)
	taskCtx = r.logg.WithField(taskCtx, "event", "task.run")
	r.logg.Info(taskCtx, "task start")

	start := time.Now()
	err := invoke(taskCtx, fn)
	duration := time.Since(start)
	r.metrics.ObserveDuration(name, duration)

	taskCtx = r.logg.WithField(taskCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		r.logg.Error(taskCtx, "task failed", err)
		r.metrics.IncFailure(name)
		return
	}
	r.logg.Info(taskCtx, "task completed")
	r.metrics.IncSuccess(name)
}

func invoke(ctx context.Context, fn Func) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return fn(ctx)
}
