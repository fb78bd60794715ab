package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore persists objects on disk, one directory per bucket. It stands in
// for S3 during development and in tests.
type LocalStore struct {
	root     string
	pageSize int
}

func NewLocalStore(root string, pageSize int) (*LocalStore, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "tclone-store")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local store root: %w", err)
	}
	return &LocalStore{root: root, pageSize: pageSize}, nil
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(bucket, key); err != nil {
		return err
	}
	return s.write(s.objectPath(bucket, key), data, 0644)
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.objectPath(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalStore) ListPage(ctx context.Context, bucket, prefix, token string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if bucket == "" {
		return Page{}, ErrBucketRequired
	}

	base := s.bucketPath(bucket)
	// Walk from the deepest directory the prefix names, then filter by the
	// full prefix.
	walkRoot := base
	if dir := prefixDir(prefix); dir != "" {
		walkRoot = filepath.Join(base, filepath.FromSlash(dir))
	}

	var keys []string
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) && key > token {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Page{}, fmt.Errorf("failed to walk %s: %w", walkRoot, err)
	}
	sort.Strings(keys)

	if len(keys) <= s.pageSize {
		return Page{Keys: keys}, nil
	}
	keys = keys[:s.pageSize]
	return Page{Keys: keys, NextToken: keys[len(keys)-1], Truncated: true}, nil
}

func (s *LocalStore) CopyObject(ctx context.Context, src, dst Location, opts CopyOptions) error {
	data, err := s.GetObject(ctx, src.Bucket, src.Key)
	if err != nil {
		return err
	}
	if err := validate(dst.Bucket, dst.Key); err != nil {
		return err
	}
	perm := os.FileMode(0600)
	if opts.Public {
		perm = 0644
	}
	return s.write(s.objectPath(dst.Bucket, dst.Key), data, perm)
}

func (s *LocalStore) write(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return os.Chmod(path, perm)
}

func (s *LocalStore) bucketPath(bucket string) string {
	return filepath.Join(s.root, sanitizePath(bucket))
}

func (s *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(s.bucketPath(bucket), filepath.FromSlash(key))
}

func prefixDir(prefix string) string {
	i := strings.LastIndex(prefix, "/")
	if i < 0 {
		return ""
	}
	return prefix[:i]
}

func sanitizePath(raw string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	return replacer.Replace(raw)
}
