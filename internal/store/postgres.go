package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() { s.pool.Close() }

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const jobColumns = `id, document_ref, source_url, prompt, state, result, error_message,
	started_at, completed_at, created_at, updated_at`

// SaveJob upserts the job. An existing row further along the lifecycle is left alone
// and SaveJob returns false.
func (s *PostgresStore) SaveJob(ctx context.Context, job *models.Job) (bool, error) {
	var result []byte
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return false, fmt.Errorf("encode result: %w", err)
		}
		result = b
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, document_ref, source_url, prompt, state, state_rank, result, error_message,
		                   started_at, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		     state         = EXCLUDED.state,
		     state_rank    = EXCLUDED.state_rank,
		     result        = EXCLUDED.result,
		     error_message = EXCLUDED.error_message,
		     started_at    = COALESCE(EXCLUDED.started_at, jobs.started_at),
		     completed_at  = EXCLUDED.completed_at,
		     updated_at    = EXCLUDED.updated_at
		 WHERE jobs.state_rank <= EXCLUDED.state_rank`,
		job.ID, job.DocumentRef, job.SourceURL, job.Prompt, job.State.String(), job.State.Rank(),
		result, job.ErrorMessage, job.StartedAt, job.CompletedAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("save job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		j      models.Job
		state  string
		result []byte
	)
	if err := row.Scan(&j.ID, &j.DocumentRef, &j.SourceURL, &j.Prompt, &state, &result, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}

	st, err := models.ParseJobState(state)
	if err != nil {
		return nil, err
	}
	j.State = st

	if result != nil {
		var r models.AnalysisResult
		if err := json.Unmarshal(result, &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		j.Result = &r
	}
	return &j, nil
}

var _ Store = (*PostgresStore)(nil)
