package uploads_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/internal/uploads"
)

var deck = []byte("%PDF-1.4 pretend deck")

// --- LocalStorage ---

func TestLocalStorage_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := uploads.NewLocalStorage(dir, 1024)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Save(ctx, bytes.NewReader(deck))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, uploads.Extension))
	_, err = uuid.Parse(strings.TrimSuffix(ref, uploads.Extension))
	assert.NoError(t, err)

	got, err := s.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, deck, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestLocalStorage_UniqueNames(t *testing.T) {
	s, err := uploads.NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	a, err := s.Save(context.Background(), bytes.NewReader(deck))
	require.NoError(t, err)
	b, err := s.Save(context.Background(), bytes.NewReader(deck))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalStorage_TooLarge(t *testing.T) {
	s, err := uploads.NewLocalStorage(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), bytes.NewReader(deck))
	assert.ErrorIs(t, err, uploads.ErrTooLarge)
}

func TestLocalStorage_NotFound(t *testing.T) {
	s, err := uploads.NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), uploads.NewRef())
	assert.ErrorIs(t, err, uploads.ErrNotFound)
}

func TestLocalStorage_RejectsInvalidRefs(t *testing.T) {
	s, err := uploads.NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	for _, ref := range []string{
		"",
		"../etc/passwd",
		"not-a-uuid.pdf",
		uuid.NewString(),
		"sub/" + uuid.NewString() + ".pdf",
		filepath.Join("..", uuid.NewString()+".pdf"),
	} {
		_, err := s.Load(context.Background(), ref)
		assert.ErrorIs(t, err, uploads.ErrInvalidRef, ref)
	}
}

func TestNewStorage_Backends(t *testing.T) {
	s, err := uploads.NewStorage(context.Background(), config.UploadConfig{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &uploads.LocalStorage{}, s)

	_, err = uploads.NewStorage(context.Background(), config.UploadConfig{Backend: "ftp"})
	assert.Error(t, err)
}

// --- MinIOStorage ---

func setupMinIO(t *testing.T) *uploads.MinIOStorage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "pitchlens",
			"MINIO_ROOT_PASSWORD": "pitchlens-secret",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	s, err := uploads.NewMinIOStorage(ctx, config.MinIOConfig{
		Endpoint:  host + ":" + port.Port(),
		AccessKey: "pitchlens",
		SecretKey: "pitchlens-secret",
		Bucket:    "pitch-decks",
		Region:    "us-east-1",
	}, 1024)
	require.NoError(t, err)
	return s
}

func TestMinIOStorage_SaveLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := setupMinIO(t)
	ctx := context.Background()

	ref, err := s.Save(ctx, bytes.NewReader(deck))
	require.NoError(t, err)

	got, err := s.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, deck, got)
}

func TestMinIOStorage_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := setupMinIO(t)

	_, err := s.Load(context.Background(), uploads.NewRef())
	assert.ErrorIs(t, err, uploads.ErrNotFound)
}

func TestMinIOStorage_TooLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := setupMinIO(t)

	_, err := s.Save(context.Background(), bytes.NewReader(bytes.Repeat([]byte("x"), 2048)))
	assert.ErrorIs(t, err, uploads.ErrTooLarge)
}
