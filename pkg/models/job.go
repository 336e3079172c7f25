package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle position of an analysis job.
// Transitions only move forward: Pending -> InProgress -> Succeeded | Failed.
type JobState int

const (
	JobStatePending JobState = iota
	JobStateInProgress
	JobStateSucceeded
	JobStateFailed
)

// Wire names reported by GET /status/{job_id}.
const (
	wirePending    = "PENDING"
	wireInProgress = "STARTED"
	wireSucceeded  = "SUCCESS"
	wireFailed     = "FAILURE"
)

func (s JobState) String() string {
	switch s {
	case JobStatePending:
		return wirePending
	case JobStateInProgress:
		return wireInProgress
	case JobStateSucceeded:
		return wireSucceeded
	case JobStateFailed:
		return wireFailed
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// ParseJobState converts a wire name back into a JobState.
func ParseJobState(s string) (JobState, error) {
	switch s {
	case wirePending:
		return JobStatePending, nil
	case wireInProgress:
		return JobStateInProgress, nil
	case wireSucceeded:
		return JobStateSucceeded, nil
	case wireFailed:
		return JobStateFailed, nil
	default:
		return 0, fmt.Errorf("unknown job state %q", s)
	}
}

func (s JobState) MarshalText() ([]byte, error) {
	if s.rank() < 0 {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *JobState) UnmarshalText(b []byte) error {
	v, err := ParseJobState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Terminal reports whether no further work will happen for the job.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// Rank orders states for forward-only transitions. Both terminal states share a rank
// so a redelivered run may rewrite its terminal record.
func (s JobState) Rank() int { return s.rank() }

func (s JobState) rank() int {
	switch s {
	case JobStatePending:
		return 0
	case JobStateInProgress:
		return 1
	case JobStateSucceeded, JobStateFailed:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether a record in state s may be overwritten by one in state next.
func (s JobState) CanAdvanceTo(next JobState) bool {
	if s.rank() < 0 || next.rank() < 0 {
		return false
	}
	return next.rank() >= s.rank()
}

// Job tracks one pitch-deck analysis from submission to terminal state.
// The API returns its ID on POST /analyze; the client polls GET /status/{job_id}.
//
// Result is set if and only if State is Succeeded; ErrorMessage if and only if State is Failed.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	DocumentRef  string          `json:"document_ref"`
	SourceURL    string          `json:"source_url,omitempty"`
	Prompt       string          `json:"prompt"`
	State        JobState        `json:"state"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewJob returns a Pending job for an already persisted document.
func NewJob(documentRef, sourceURL, prompt string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		DocumentRef: documentRef,
		SourceURL:   sourceURL,
		Prompt:      prompt,
		State:       JobStatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start marks the job InProgress.
func (j *Job) Start() {
	now := time.Now().UTC()
	j.State = JobStateInProgress
	j.Result = nil
	j.ErrorMessage = nil
	j.StartedAt = &now
	j.CompletedAt = nil
	j.UpdatedAt = now
}

// Succeed attaches the analysis and marks the job Succeeded.
func (j *Job) Succeed(result AnalysisResult) {
	now := time.Now().UTC()
	j.State = JobStateSucceeded
	j.Result = &result
	j.ErrorMessage = nil
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail records the failure detail and marks the job Failed.
func (j *Job) Fail(msg string) {
	now := time.Now().UTC()
	j.State = JobStateFailed
	j.Result = nil
	j.ErrorMessage = &msg
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Validate checks the result/error invariants against the state.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return fmt.Errorf("job: ID is required")
	}
	if j.State.rank() < 0 {
		return fmt.Errorf("job %s: invalid state %d", j.ID, int(j.State))
	}
	if (j.Result != nil) != (j.State == JobStateSucceeded) {
		return fmt.Errorf("job %s: result must be present only in state %s", j.ID, JobStateSucceeded)
	}
	if (j.ErrorMessage != nil) != (j.State == JobStateFailed) {
		return fmt.Errorf("job %s: error detail must be present only in state %s", j.ID, JobStateFailed)
	}
	return nil
}
