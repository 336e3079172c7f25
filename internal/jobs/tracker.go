// Package jobs owns the analysis job lifecycle: submission, execution and state tracking.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/pitchlens/internal/store"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// JobCache is the subset of the Redis cache the tracker needs.
type JobCache interface {
	SaveJob(ctx context.Context, job *models.Job, ttl time.Duration) (bool, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, bool, error)
}

// Tracker writes and reads job records. Redis is authoritative; the optional Postgres
// history is written best-effort and consulted only when Redis has no record.
type Tracker struct {
	cache   JobCache
	history store.Store
	ttl     time.Duration
}

// NewTracker creates a Tracker. history may be nil.
func NewTracker(c JobCache, history store.Store, ttl time.Duration) *Tracker {
	return &Tracker{cache: c, history: history, ttl: ttl}
}

// Record persists the job's current state. A record that would move a stored job
// backwards is skipped without error.
func (t *Tracker) Record(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	applied, err := t.cache.SaveJob(ctx, job, t.ttl)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	if !applied {
		slog.Debug("stale job record skipped", "job_id", job.ID, "state", job.State.String())
	}

	if t.history != nil {
		if _, err := t.history.SaveJob(ctx, job); err != nil {
			slog.Warn("job history write failed", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

// Lookup returns the job record, or found=false if no store knows the ID.
func (t *Tracker) Lookup(ctx context.Context, id uuid.UUID) (*models.Job, bool, error) {
	job, found, err := t.cache.GetJob(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("looking up job %s: %w", id, err)
	}
	if found {
		return job, true, nil
	}

	if t.history == nil {
		return nil, false, nil
	}
	job, err = t.history.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		slog.Warn("job history lookup failed", "job_id", id, "error", err)
		return nil, false, nil
	}
	return job, true, nil
}
