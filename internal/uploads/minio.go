package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kiranshivaraju/pitchlens/internal/config"
)

// MinIOStorage keeps uploads in an S3-compatible bucket so server and workers need
// not share a filesystem.
type MinIOStorage struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

// NewMinIOStorage connects to the endpoint and creates the bucket if it does not exist.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig, maxBytes int64) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket, maxBytes: maxBytes}, nil
}

func (s *MinIOStorage) Save(ctx context.Context, r io.Reader) (string, error) {
	b, err := limitedReadAll(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	ref := NewRef()
	_, err = s.client.PutObject(ctx, s.bucket, ref, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", ref, err)
	}
	return ref, nil
}

func (s *MinIOStorage) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	return b, nil
}

var _ Storage = (*MinIOStorage)(nil)
