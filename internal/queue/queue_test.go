package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiranshivaraju/pitchlens/internal/cache"
	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rc, err := cache.NewRedisCache("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc.Client()
}

func newMessage() queue.Message {
	return queue.MessageFor(models.NewJob(uuid.NewString()+".pdf", "example.com", "prompt"))
}

func TestMessageFor(t *testing.T) {
	job := models.NewJob("deck.pdf", "https://example.com", "tmpl")
	msg := queue.MessageFor(job)
	assert.Equal(t, job.ID, msg.JobID)
	assert.Equal(t, "deck.pdf", msg.DocumentRef)
	assert.Equal(t, "https://example.com", msg.SourceURL)
	assert.Equal(t, "tmpl", msg.Prompt)
	assert.False(t, msg.EnqueuedAt.IsZero())

	rebuilt := msg.Job()
	assert.Equal(t, job.ID, rebuilt.ID)
	assert.Equal(t, job.DocumentRef, rebuilt.DocumentRef)
	assert.Equal(t, job.SourceURL, rebuilt.SourceURL)
	assert.Equal(t, models.JobStatePending, rebuilt.State)
	assert.NoError(t, rebuilt.Validate())
}

func TestEnqueueDequeueAck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()
	q := queue.NewRedisQueue(client, "w1")

	msg := newMessage()
	require.NoError(t, q.Enqueue(ctx, msg))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.JobID, d.JobID)
	assert.Equal(t, msg.DocumentRef, d.DocumentRef)

	inflight, err := client.LLen(ctx, cache.ProcessingQueueKey("w1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), inflight)

	require.NoError(t, q.Ack(ctx, d))
	inflight, err = client.LLen(ctx, cache.ProcessingQueueKey("w1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), inflight)
}

func TestDequeue_FIFO(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()
	q := queue.NewRedisQueue(client, "w1")

	first, second := newMessage(), newMessage()
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	d1, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	d2, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.JobID, d1.JobID)
	assert.Equal(t, second.JobID, d2.JobID)
}

func TestDequeue_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := queue.NewRedisQueue(setupRedis(t), "w1")

	_, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, queue.ErrNoJob)
}

func TestDequeue_DropsMalformed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()
	q := queue.NewRedisQueue(client, "w1")

	require.NoError(t, client.LPush(ctx, cache.PendingQueueKey(), "{not json").Err())

	_, err := q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, queue.ErrMalformedMessage)

	inflight, err := client.LLen(ctx, cache.ProcessingQueueKey("w1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), inflight)
}

func TestNack_Requeues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()
	q := queue.NewRedisQueue(client, "w1")

	first, second := newMessage(), newMessage()
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Nack(ctx, d))

	inflight, err := client.LLen(ctx, cache.ProcessingQueueKey("w1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), inflight)

	again, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.JobID, again.JobID, "nacked message is redelivered first")
}

func TestRecover_RequeuesUnacked(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()

	crashed := queue.NewRedisQueue(client, "w1")
	msg := newMessage()
	require.NoError(t, crashed.Enqueue(ctx, msg))
	_, err := crashed.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	restarted := queue.NewRedisQueue(client, "w1")
	n, err := restarted.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := restarted.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.JobID, d.JobID)
}

func TestRecover_OtherWorkerUntouched(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupRedis(t)
	ctx := context.Background()

	w1 := queue.NewRedisQueue(client, "w1")
	require.NoError(t, w1.Enqueue(ctx, newMessage()))
	_, err := w1.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	n, err := queue.NewRedisQueue(client, "w2").Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
