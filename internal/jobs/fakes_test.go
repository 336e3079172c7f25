package jobs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/internal/store"
	"github.com/kiranshivaraju/pitchlens/internal/uploads"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// memCache mimics the Redis job store, including the forward-only guard.
type memCache struct {
	mu      sync.Mutex
	records map[uuid.UUID][]byte
	saveErr error
	getErr  error
	writes  []models.JobState
}

func newMemCache() *memCache {
	return &memCache{records: map[uuid.UUID][]byte{}}
}

func (c *memCache) SaveJob(_ context.Context, job *models.Job, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return false, c.saveErr
	}
	if cur, ok := c.records[job.ID]; ok {
		var existing models.Job
		if err := json.Unmarshal(cur, &existing); err != nil {
			return false, err
		}
		if !existing.State.CanAdvanceTo(job.State) {
			return false, nil
		}
	}
	b, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	c.records[job.ID] = b
	c.writes = append(c.writes, job.State)
	return true, nil
}

func (c *memCache) GetJob(_ context.Context, id uuid.UUID) (*models.Job, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	b, ok := c.records[id]
	if !ok {
		return nil, false, nil
	}
	var job models.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, false, err
	}
	return &job, true, nil
}

func (c *memCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// memHistory is an in-memory store.Store.
type memHistory struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]models.Job
	saveErr error
}

func newMemHistory() *memHistory {
	return &memHistory{jobs: map[uuid.UUID]models.Job{}}
}

func (h *memHistory) Ping(context.Context) error { return nil }

func (h *memHistory) SaveJob(_ context.Context, job *models.Job) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return false, h.saveErr
	}
	if cur, ok := h.jobs[job.ID]; ok && !cur.State.CanAdvanceTo(job.State) {
		return false, nil
	}
	h.jobs[job.ID] = *job
	return true, nil
}

func (h *memHistory) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	j, ok := h.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &j, nil
}

// memDocs is an in-memory uploads.Storage.
type memDocs struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saveErr error
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[string][]byte{}}
}

func (d *memDocs) Save(_ context.Context, r io.Reader) (string, error) {
	if d.saveErr != nil {
		return "", d.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := uploads.NewRef()
	d.mu.Lock()
	d.docs[ref] = b
	d.mu.Unlock()
	return ref, nil
}

func (d *memDocs) Load(_ context.Context, ref string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.docs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", uploads.ErrNotFound, ref)
	}
	return b, nil
}

func (d *memDocs) put(content string) string {
	ref, _ := d.Save(context.Background(), bytes.NewBufferString(content))
	return ref
}

// fakeExtractor returns the document bytes as text, or err.
type fakeExtractor struct {
	err   error
	panic bool
}

func (f fakeExtractor) ExtractText(_ context.Context, doc []byte) (string, error) {
	if f.panic {
		panic("malformed xref table")
	}
	if f.err != nil {
		return "", f.err
	}
	return string(doc), nil
}

type fakeScraper struct {
	text  string
	err   error
	calls int
}

func (f *fakeScraper) Scrape(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []queue.Message
	err      error
}

func (p *fakeProducer) Enqueue(_ context.Context, msg queue.Message) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	return nil
}

var errRedisDown = errors.New("redis: connection refused")
