package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the durable job history. Redis stays authoritative for status polling;
// this outlives its retention window.
type Store interface {
	Ping(ctx context.Context) error
	SaveJob(ctx context.Context, job *models.Job) (bool, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}
