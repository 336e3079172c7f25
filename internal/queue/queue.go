// Package queue dispatches analysis jobs to workers through Redis lists.
//
// Producers LPUSH onto a shared pending list. Each worker BLMOVEs a message into its own
// processing list and LREMs it once the job has reached a terminal state, so a worker that
// dies mid-job leaves the message behind for Recover to requeue. Delivery is at-least-once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kiranshivaraju/pitchlens/internal/cache"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

var (
	ErrNoJob            = errors.New("no job available")
	ErrMalformedMessage = errors.New("malformed queue message")
)

// Message is everything a worker needs to run a job without reading the Job Store first.
type Message struct {
	JobID       uuid.UUID `json:"job_id"`
	DocumentRef string    `json:"document_ref"`
	SourceURL   string    `json:"source_url,omitempty"`
	Prompt      string    `json:"prompt"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// MessageFor builds the queue message for a freshly created job.
func MessageFor(job *models.Job) Message {
	return Message{
		JobID:       job.ID,
		DocumentRef: job.DocumentRef,
		SourceURL:   job.SourceURL,
		Prompt:      job.Prompt,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// Job rebuilds the Pending job record the message was created from.
func (m Message) Job() *models.Job {
	return &models.Job{
		ID:          m.JobID,
		DocumentRef: m.DocumentRef,
		SourceURL:   m.SourceURL,
		Prompt:      m.Prompt,
		State:       models.JobStatePending,
		CreatedAt:   m.EnqueuedAt,
		UpdatedAt:   m.EnqueuedAt,
	}
}

// Delivery is a message taken off the queue but not yet acknowledged.
type Delivery struct {
	Message
	raw string
}

// Producer is the submit side used by the API server.
type Producer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Consumer is the worker side.
type Consumer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Nack(ctx context.Context, d *Delivery) error
	Recover(ctx context.Context) (int, error)
}

// RedisQueue implements Producer and Consumer. WorkerID names the processing list and
// may be empty for producer-only use.
type RedisQueue struct {
	client   *redis.Client
	workerID string
}

func NewRedisQueue(client *redis.Client, workerID string) *RedisQueue {
	return &RedisQueue{client: client, workerID: workerID}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message for job %s: %w", msg.JobID, err)
	}
	if err := q.client.LPush(ctx, cache.PendingQueueKey(), payload).Err(); err != nil {
		return fmt.Errorf("enqueueing job %s: %w", msg.JobID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next message. It returns ErrNoJob when the wait
// expires. Undecodable messages are dropped and reported as ErrMalformedMessage.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	if q.workerID == "" {
		return nil, errors.New("dequeue requires a worker id")
	}
	processing := cache.ProcessingQueueKey(q.workerID)

	raw, err := q.client.BLMove(ctx, cache.PendingQueueKey(), processing, "RIGHT", "LEFT", timeout).Result()
	if err == redis.Nil {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("dequeueing: %w", err)
	}

	d := &Delivery{raw: raw}
	if err := json.Unmarshal([]byte(raw), &d.Message); err != nil || d.JobID == uuid.Nil {
		if ackErr := q.Ack(ctx, d); ackErr != nil {
			return nil, fmt.Errorf("dropping malformed message: %w", ackErr)
		}
		return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, raw)
	}
	return d, nil
}

// Ack removes a delivery from this worker's processing list.
func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	return q.client.LRem(ctx, cache.ProcessingQueueKey(q.workerID), 1, d.raw).Err()
}

// Nack hands a delivery back to the pending list, at the consuming end, in one transaction.
func (q *RedisQueue) Nack(ctx context.Context, d *Delivery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, cache.ProcessingQueueKey(q.workerID), 1, d.raw)
		pipe.RPush(ctx, cache.PendingQueueKey(), d.raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeueing job %s: %w", d.JobID, err)
	}
	return nil
}

// Recover moves every message left in this worker's processing list back to the
// consuming end of the pending list. Call before the first Dequeue.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	processing := cache.ProcessingQueueKey(q.workerID)
	n := 0
	for {
		err := q.client.LMove(ctx, processing, cache.PendingQueueKey(), "RIGHT", "RIGHT").Err()
		if err == redis.Nil {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recovering in-flight jobs: %w", err)
		}
		n++
	}
}

// Len reports the number of messages waiting in the pending list.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, cache.PendingQueueKey()).Result()
}

var (
	_ Producer = (*RedisQueue)(nil)
	_ Consumer = (*RedisQueue)(nil)
)
