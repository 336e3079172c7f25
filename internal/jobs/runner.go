package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/pitchlens/internal/extract"
	"github.com/kiranshivaraju/pitchlens/internal/metrics"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// DocumentLoader reads a stored pitch deck back by reference.
type DocumentLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Outcome is the result of executing a job: exactly one of Result and Err is set.
type Outcome struct {
	Result *models.AnalysisResult
	Err    error
}

func succeeded(r models.AnalysisResult) Outcome { return Outcome{Result: &r} }

func failed(err error) Outcome { return Outcome{Err: err} }

// State is the terminal state the outcome maps to.
func (o Outcome) State() models.JobState {
	if o.Err != nil {
		return models.JobStateFailed
	}
	return models.JobStateSucceeded
}

// Apply moves the job into the outcome's terminal state.
func (o Outcome) Apply(job *models.Job) {
	if o.Err != nil {
		job.Fail(o.Err.Error())
		return
	}
	job.Succeed(*o.Result)
}

// RunnerDeps are the collaborators a Runner needs. Metrics may be nil.
type RunnerDeps struct {
	Documents        DocumentLoader
	Extractor        extract.TextExtractor
	Scraper          extract.Scraper
	Analyst          models.Analyst
	Tracker          *Tracker
	Metrics          *metrics.Metrics
	InferenceTimeout time.Duration
}

// Runner executes analysis jobs. It does not deduplicate: running the same job twice
// repeats the work and rewrites the terminal record.
type Runner struct {
	RunnerDeps
}

func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{RunnerDeps: deps}
}

// Run marks the job InProgress, executes it and records the terminal state. It returns
// an error only when the job should be redelivered: a state write failed or ctx was
// cancelled before the job finished.
func (r *Runner) Run(ctx context.Context, job *models.Job) error {
	job.Start()
	if err := r.Tracker.Record(ctx, job); err != nil {
		return err
	}
	slog.Info("job started", "job_id", job.ID, "provider", r.Analyst.Name())

	out := r.Execute(ctx, job)
	if err := ctx.Err(); err != nil {
		slog.Warn("job interrupted, leaving for redelivery", "job_id", job.ID, "error", err)
		return err
	}

	out.Apply(job)
	r.Metrics.ObserveJob(job.State, time.Since(*job.StartedAt))
	if err := r.Tracker.Record(ctx, job); err != nil {
		return err
	}

	if out.Err != nil {
		slog.Warn("job failed", "job_id", job.ID, "error", out.Err)
	} else {
		slog.Info("job succeeded", "job_id", job.ID, "verdict", out.Result.Verdict)
	}
	return nil
}

// Execute performs the analysis steps in order and never panics. Extraction failure is
// fatal; scrape failure only swaps in placeholder text.
func (r *Runner) Execute(ctx context.Context, job *models.Job) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in job runner", "job_id", job.ID, "panic", rec)
			out = failed(fmt.Errorf("internal error while analyzing: %v", rec))
		}
	}()

	doc, err := r.Documents.Load(ctx, job.DocumentRef)
	if err != nil {
		return failed(fmt.Errorf("loading pitch deck: %w", err))
	}

	pitchText, err := r.Extractor.ExtractText(ctx, doc)
	if err != nil {
		return failed(fmt.Errorf("extracting pitch deck text: %w", err))
	}

	websiteText, err := extract.WebsiteText(ctx, r.Scraper, job.SourceURL)
	if err != nil {
		slog.Warn("website scrape failed, using placeholder", "job_id", job.ID, "url", job.SourceURL, "error", err)
		r.Metrics.ObserveScrapeFailure()
	}

	aiCtx := ctx
	if r.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		aiCtx, cancel = context.WithTimeout(ctx, r.InferenceTimeout)
		defer cancel()
	}

	result, err := r.Analyst.Analyze(aiCtx, models.AnalysisRequest{
		PitchText:      pitchText,
		WebsiteText:    websiteText,
		PromptTemplate: job.Prompt,
	})
	if err != nil {
		return failed(err)
	}
	return succeeded(result)
}
