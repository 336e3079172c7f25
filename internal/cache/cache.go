package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// maxTxRetries bounds optimistic retries when another writer touches a job key mid-update.
const maxTxRetries = 5

var ErrConflict = errors.New("job record changed concurrently")

// RedisCache is the Redis-backed Job Store plus the small key/value and counter
// operations the scraper cache and rate limiter need. Safe for concurrent use.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Client exposes the underlying connection pool so the queue can share it.
func (c *RedisCache) Client() *redis.Client { return c.client }

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// storedState decodes only the state of a stored job record.
type storedState struct {
	State models.JobState `json:"state"`
}

// SaveJob writes the job record unless the stored record is further along, in which
// case it returns false. The read-compare-write runs under WATCH, so two writers racing
// on the same job cannot move it backwards.
func (c *RedisCache) SaveJob(ctx context.Context, job *models.Job, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encoding job %s: %w", job.ID, err)
	}
	key := JobKey(job.ID)

	var applied bool
	txf := func(tx *redis.Tx) error {
		applied = false
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var existing storedState
			if jerr := json.Unmarshal(cur, &existing); jerr == nil && !existing.State.CanAdvanceTo(job.State) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		if err == nil {
			applied = true
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := c.client.Watch(ctx, txf, key)
		if err == nil {
			return applied, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, err
	}
	return false, fmt.Errorf("saving job %s: %w", job.ID, ErrConflict)
}

func (c *RedisCache) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, bool, error) {
	val, found, err := c.Get(ctx, JobKey(jobID))
	if err != nil || !found {
		return nil, false, err
	}
	var job models.Job
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, false, fmt.Errorf("decoding job %s: %w", jobID, err)
	}
	return &job, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
