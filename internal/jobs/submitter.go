package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/internal/uploads"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// Submitter accepts a pitch deck, persists it and queues the analysis job.
type Submitter struct {
	docs     uploads.Storage
	tracker  *Tracker
	producer queue.Producer
	prompt   string
}

func NewSubmitter(docs uploads.Storage, tracker *Tracker, producer queue.Producer, prompt string) *Submitter {
	return &Submitter{docs: docs, tracker: tracker, producer: producer, prompt: prompt}
}

// Submit stores the document before the job is queued, because the worker that runs it
// only ever sees the stored copy. The Pending record is written before the enqueue so a
// fast worker can never have its InProgress record overwritten.
func (s *Submitter) Submit(ctx context.Context, doc io.Reader, sourceURL string) (*models.Job, error) {
	ref, err := s.docs.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("storing pitch deck: %w", err)
	}

	job := models.NewJob(ref, strings.TrimSpace(sourceURL), s.prompt)
	if err := s.tracker.Record(ctx, job); err != nil {
		return nil, err
	}

	if err := s.producer.Enqueue(ctx, queue.MessageFor(job)); err != nil {
		job.Start()
		job.Fail("Job could not be queued for analysis.")
		if recErr := s.tracker.Record(ctx, job); recErr != nil {
			slog.Error("recording unqueued job failed", "job_id", job.ID, "error", recErr)
		}
		return nil, fmt.Errorf("queueing job %s: %w", job.ID, err)
	}

	slog.Info("job submitted", "job_id", job.ID, "document_ref", ref, "has_url", job.SourceURL != "")
	return job, nil
}
