package storage

import (
	"context"
	"fmt"
)

// Config selects and configures a backend.
type Config struct {
	Provider        string
	Region          string
	EndpointURL     string
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
	LocalRoot       string
	PageSize        int
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Provider {
	case "s3", "":
		return NewS3Store(ctx, cfg)
	case "minio":
		return NewMinioStore(cfg)
	case "local":
		return NewLocalStore(cfg.LocalRoot, cfg.pageSize())
	case "memory":
		store := NewMemoryStore()
		store.PageSize = cfg.pageSize()
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
