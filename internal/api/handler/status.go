package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/pitchlens/internal/api/response"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const (
	statusPending    = "Pending..."
	statusInProgress = "In progress..."
)

// JobLookup defines what the status handler depends on.
type JobLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*models.Job, bool, error)
}

type statusResponse struct {
	State  string                 `json:"state"`
	Status string                 `json:"status,omitempty"`
	Result *models.AnalysisResult `json:"result,omitempty"`
}

// NewStatusHandler returns an http.HandlerFunc for GET /status/{job_id}.
// IDs that are malformed or unknown report PENDING, matching a job not yet picked up.
func NewStatusHandler(jobs JobLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "job_id"))
		if err != nil {
			response.OK(w, pendingResponse())
			return
		}

		job, found, err := jobs.Lookup(r.Context(), id)
		if err != nil {
			slog.Error("job lookup failed", "job_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "Could not read job status.")
			return
		}
		if !found {
			response.OK(w, pendingResponse())
			return
		}

		response.OK(w, statusFor(job))
	}
}

func pendingResponse() statusResponse {
	return statusResponse{State: models.JobStatePending.String(), Status: statusPending}
}

func statusFor(job *models.Job) statusResponse {
	switch job.State {
	case models.JobStateSucceeded:
		return statusResponse{State: job.State.String(), Result: job.Result}
	case models.JobStateFailed:
		msg := ""
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		return statusResponse{State: job.State.String(), Status: msg}
	case models.JobStateInProgress:
		return statusResponse{State: job.State.String(), Status: statusInProgress}
	default:
		return pendingResponse()
	}
}
