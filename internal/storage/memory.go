package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps objects in process. Listings are served in lexical key
// order, PageSize keys at a time, with the last returned key as token.
type MemoryStore struct {
	PageSize int

	mu      sync.Mutex
	objects map[Location][]byte
	public  map[Location]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		PageSize: DefaultPageSize,
		objects:  make(map[Location][]byte),
		public:   make(map[Location]bool),
	}
}

func (s *MemoryStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(bucket, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[Location{bucket, key}] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[Location{bucket, key}]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) ListPage(ctx context.Context, bucket, prefix, token string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if bucket == "" {
		return Page{}, ErrBucketRequired
	}

	s.mu.Lock()
	var keys []string
	for loc := range s.objects {
		if loc.Bucket == bucket && strings.HasPrefix(loc.Key, prefix) && loc.Key > token {
			keys = append(keys, loc.Key)
		}
	}
	s.mu.Unlock()
	sort.Strings(keys)

	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if len(keys) <= size {
		return Page{Keys: keys}, nil
	}
	keys = keys[:size]
	return Page{Keys: keys, NextToken: keys[len(keys)-1], Truncated: true}, nil
}

func (s *MemoryStore) CopyObject(ctx context.Context, src, dst Location, opts CopyOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(src.Bucket, src.Key); err != nil {
		return err
	}
	if err := validate(dst.Bucket, dst.Key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[src]
	if !ok {
		return ErrObjectNotFound
	}
	s.objects[dst] = append([]byte(nil), data...)
	s.public[dst] = opts.Public
	return nil
}

// Delete removes an object if present.
func (s *MemoryStore) Delete(bucket, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, Location{bucket, key})
	delete(s.public, Location{bucket, key})
}

// IsPublic reports whether the object was last copied with Public set.
func (s *MemoryStore) IsPublic(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.public[Location{bucket, key}]
}

// Keys returns every key in bucket under prefix, sorted.
func (s *MemoryStore) Keys(bucket, prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for loc := range s.objects {
		if loc.Bucket == bucket && strings.HasPrefix(loc.Key, prefix) {
			keys = append(keys, loc.Key)
		}
	}
	sort.Strings(keys)
	return keys
}
