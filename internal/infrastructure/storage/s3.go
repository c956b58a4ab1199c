package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignTTL = time.Hour

type S3Options struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	Region      string
	UseSSL      bool
	MaxUploadMB int64
}

// S3Storage хранит фотографии в S3-совместимом хранилище (MinIO).
type S3Storage struct {
	client         *minio.Client
	bucket         string
	region         string
	maxUploadBytes int64
}

func NewS3Storage(opts S3Options) (*S3Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init minio: %w", err)
	}
	return &S3Storage{
		client:         client,
		bucket:         opts.Bucket,
		region:         opts.Region,
		maxUploadBytes: opts.MaxUploadMB * 1024 * 1024,
	}, nil
}

func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("storage: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Save при неизвестном размере (size <= 0) MinIO загружает поток частями,
// лимит тогда проверяется по фактически прочитанному объёму.
func (s *S3Storage) Save(ctx context.Context, prefix string, r io.Reader, size int64) (string, error) {
	if size > s.maxUploadBytes {
		return "", tooLarge(s.maxUploadBytes)
	}
	body, kind, err := sniffImage(r)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		size = -1
	}

	limited := &io.LimitedReader{R: body, N: s.maxUploadBytes + 1}
	key := objectKey(prefix, kind.Extension)
	info, err := s.client.PutObject(ctx, s.bucket, key, limited, size, minio.PutObjectOptions{
		ContentType: kind.MIME.Value,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	if info.Size > s.maxUploadBytes {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return "", tooLarge(s.maxUploadBytes)
	}
	return key, nil
}

// URL подписанная ссылка на чтение.
func (s *S3Storage) URL(ctx context.Context, key string) (string, error) {
	if !validKey(key) {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный ключ файла")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return u.String(), nil
}
