// Package uploads persists submitted pitch decks until a worker reads them back.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/pitchlens/internal/config"
)

// Extension is appended to every generated document name.
const Extension = ".pdf"

var (
	ErrNotFound   = errors.New("document not found")
	ErrInvalidRef = errors.New("invalid document reference")
	ErrTooLarge   = errors.New("document exceeds size limit")
)

// Storage saves uploads under generated names and reads them back by reference.
// Implementations must be safe for concurrent use and shared between server and worker.
type Storage interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
}

// NewStorage constructs the backend selected by UPLOAD_BACKEND.
func NewStorage(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStorage(cfg.Dir, cfg.MaxBytes)
	case "minio":
		return NewMinIOStorage(ctx, cfg.MinIO, cfg.MaxBytes)
	default:
		return nil, fmt.Errorf("unknown upload backend %q: must be one of local, minio", cfg.Backend)
	}
}

// NewRef returns a fresh random document name.
func NewRef() string {
	return uuid.NewString() + Extension
}

// checkRef rejects anything that is not a bare generated name, so a reference can never
// escape the upload directory or bucket prefix.
func checkRef(ref string) error {
	name := strings.TrimSuffix(ref, Extension)
	if name == ref || path.Base(ref) != ref {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if _, err := uuid.Parse(name); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// limitedReadAll reads r and fails once more than max bytes arrive. max <= 0 disables the limit.
func limitedReadAll(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, ErrTooLarge
	}
	return b, nil
}
