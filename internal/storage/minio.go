package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore talks to MinIO or any S3-compatible endpoint through minio-go.
type MinioStore struct {
	client   *minio.Client
	pageSize int
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("minio: endpoint_url is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("minio: credentials are required")
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("minio: invalid endpoint URL: %w", err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{client: client, pageSize: cfg.pageSize()}, nil
}

func (s *MinioStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := validate(bucket, key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return classifyMinioError(err)
}

func (s *MinioStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return data, nil
}

// ListPage reads at most one page from the listing channel. The token is the
// last key of the previous page and is sent as StartAfter.
func (s *MinioStore) ListPage(ctx context.Context, bucket, prefix, token string) (Page, error) {
	if bucket == "" {
		return Page{}, ErrBucketRequired
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectCh := s.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{
		Prefix:     prefix,
		Recursive:  true,
		StartAfter: token,
		MaxKeys:    s.pageSize,
	})

	var page Page
	for obj := range objectCh {
		if obj.Err != nil {
			return Page{}, classifyMinioError(obj.Err)
		}
		if len(page.Keys) == s.pageSize {
			page.Truncated = true
			page.NextToken = page.Keys[len(page.Keys)-1]
			break
		}
		page.Keys = append(page.Keys, obj.Key)
	}
	return page, nil
}

func (s *MinioStore) CopyObject(ctx context.Context, src, dst Location, opts CopyOptions) error {
	if err := validate(src.Bucket, src.Key); err != nil {
		return err
	}
	if err := validate(dst.Bucket, dst.Key); err != nil {
		return err
	}

	dest := minio.CopyDestOptions{Bucket: dst.Bucket, Object: dst.Key}
	if opts.Public {
		// A canned ACL needs a metadata replace, which drops the content
		// type unless it is carried over.
		info, err := s.client.StatObject(ctx, src.Bucket, src.Key, minio.StatObjectOptions{})
		if err != nil {
			return classifyMinioError(err)
		}
		dest.ReplaceMetadata = true
		dest.UserMetadata = map[string]string{
			"x-amz-acl":    "public-read",
			"Content-Type": info.ContentType,
		}
	}

	_, err := s.client.CopyObject(ctx, dest, minio.CopySrcOptions{Bucket: src.Bucket, Object: src.Key})
	return classifyMinioError(err)
}

func classifyMinioError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}
