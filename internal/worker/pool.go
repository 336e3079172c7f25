// Package worker pulls analysis jobs off the queue and runs them.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const (
	// errorBackoff is how long a slot waits after a queue error before polling again.
	errorBackoff = time.Second

	defaultDrainTimeout = 30 * time.Second
)

// JobRunner runs one job to a terminal state. A non-nil error means the job should be
// delivered again.
type JobRunner interface {
	Run(ctx context.Context, job *models.Job) error
}

// Pool runs Concurrency slots, each pulling one job at a time.
type Pool struct {
	consumer    queue.Consumer
	runner      JobRunner
	concurrency  int
	pollTimeout  time.Duration
	drainTimeout time.Duration
}

func NewPool(consumer queue.Consumer, runner JobRunner, cfg config.WorkerConfig) *Pool {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	return &Pool{
		consumer:     consumer,
		runner:       runner,
		concurrency:  concurrency,
		pollTimeout:  cfg.PollTimeout,
		drainTimeout: drain,
	}
}

// Start requeues anything a previous run of this worker left in flight, then blocks
// processing jobs until ctx is cancelled. Once ctx is done no new jobs are taken and
// running jobs get drainTimeout to finish; jobs cut off after that are not acked.
func (p *Pool) Start(ctx context.Context) error {
	n, err := p.consumer.Recover(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("requeued in-flight jobs from previous run", "count", n)
	}

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()
	go func() {
		select {
		case <-ctx.Done():
		case <-jobCtx.Done():
			return
		}
		select {
		case <-time.After(p.drainTimeout):
			slog.Warn("drain timed out, interrupting running jobs")
			cancelJobs()
		case <-jobCtx.Done():
		}
	}()

	slog.Info("worker pool started", "concurrency", p.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for slot := 0; slot < p.concurrency; slot++ {
		g.Go(func() error {
			p.loop(gctx, jobCtx, slot)
			return nil
		})
	}
	err = g.Wait()
	slog.Info("worker pool stopped")
	return err
}

func (p *Pool) loop(ctx, jobCtx context.Context, slot int) {
	for ctx.Err() == nil {
		d, err := p.consumer.Dequeue(ctx, p.pollTimeout)
		switch {
		case err == nil:
			p.handle(jobCtx, d)
		case errors.Is(err, queue.ErrNoJob):
		case errors.Is(err, queue.ErrMalformedMessage):
			slog.Warn("dropped malformed queue message", "slot", slot, "error", err)
		case ctx.Err() != nil:
			return
		default:
			slog.Error("dequeue failed", "slot", slot, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

func (p *Pool) handle(ctx context.Context, d *queue.Delivery) {
	// Acks and nacks must land even when shutdown cancels ctx mid-job.
	ackCtx := context.WithoutCancel(ctx)

	err := p.runner.Run(ctx, d.Job())
	switch {
	case err == nil:
		if err := p.consumer.Ack(ackCtx, d); err != nil {
			slog.Error("ack failed", "job_id", d.JobID, "error", err)
		}
	case ctx.Err() != nil:
		// Left in the processing list; Recover requeues it on the next start.
	default:
		slog.Error("job run failed, requeueing", "job_id", d.JobID, "error", err)
		if err := p.consumer.Nack(ackCtx, d); err != nil {
			slog.Error("nack failed", "job_id", d.JobID, "error", err)
		}
	}
}
