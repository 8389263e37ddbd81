// Package miniostorage provides structure to work with minio-storage holding archived results
package miniostorage

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

const DefaultBucket = "results"

type Options struct {
	Endpoint string
	User     string
	Pass     string
	Bucket   string
	Secure   bool
}

type MinioResultStorage struct {
	bucket string
	client *minio.Client
}

func NewMinioClient(ctx context.Context, opts Options) (*MinioResultStorage, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("minio endpoint is empty")
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = DefaultBucket
		zlog.Logger.Warn().Str("bucket", bucket).Msg("Bucket name is empty. Using default value")
	}

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Pass, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, bucket); err != nil {
		return nil, err
	}

	return &MinioResultStorage{bucket: bucket, client: strg}, nil
}

func (s *MinioResultStorage) Bucket() string {
	return s.bucket
}

func (s *MinioResultStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioResultStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	res, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	resStat, err := res.Stat()
	if err != nil {
		_ = res.Close()
		return nil, "", err
	}

	return res, resStat.ContentType, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
