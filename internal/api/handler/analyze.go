package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kiranshivaraju/pitchlens/internal/api/response"
	"github.com/kiranshivaraju/pitchlens/internal/metrics"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const (
	fieldPitchDeck  = "pitch_deck"
	fieldWebsiteURL = "website_url"

	msgNoPitchDeck  = "No pitch deck provided."
	msgInvalidType  = "Invalid file type. Please upload a PDF."
	msgTooLarge     = "Pitch deck is too large."
	msgProcessError = "Error processing file: %v"
)

// Submitter defines what the analyze handler depends on.
type Submitter interface {
	Submit(ctx context.Context, doc io.Reader, sourceURL string) (*models.Job, error)
}

type analyzeResponse struct {
	TaskID string `json:"task_id"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /analyze.
func NewAnalyzeHandler(svc Submitter, maxBytes int64, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		file, header, err := r.FormFile(fieldPitchDeck)
		if err != nil {
			m.ObserveSubmission(metrics.SubmissionRejected)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, msgTooLarge)
				return
			}
			response.Error(w, http.StatusBadRequest, msgNoPitchDeck)
			return
		}
		defer file.Close()

		if !isPDF(header.Header.Get("Content-Type"), header.Filename) {
			m.ObserveSubmission(metrics.SubmissionRejected)
			response.Error(w, http.StatusBadRequest, msgInvalidType)
			return
		}

		job, err := svc.Submit(r.Context(), file, r.FormValue(fieldWebsiteURL))
		if err != nil {
			m.ObserveSubmission(metrics.SubmissionError)
			slog.Error("analysis submission failed", "filename", header.Filename, "error", err)
			response.Error(w, http.StatusInternalServerError, fmt.Sprintf(msgProcessError, err))
			return
		}

		m.ObserveSubmission(metrics.SubmissionAccepted)
		response.OK(w, analyzeResponse{TaskID: job.ID.String()})
	}
}

// isPDF accepts an explicit application/pdf part, or a .pdf filename when the client
// sent no useful content type.
func isPDF(contentType, filename string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	switch mediaType {
	case "application/pdf":
		return true
	case "", "application/octet-stream":
		return strings.EqualFold(filepath.Ext(filename), ".pdf")
	default:
		return false
	}
}
