package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const DefaultPageSize = 1000

var (
	// ErrObjectNotFound is returned when a key (or a copy source) does not exist.
	ErrObjectNotFound = errors.New("object not found")
	ErrBucketRequired = errors.New("bucket is required")
	ErrKeyRequired    = errors.New("object key is required")
)

// Location addresses one object.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return l.Bucket + "/" + l.Key
}

type CopyOptions struct {
	// Public grants anonymous read on the destination object.
	Public bool
}

// Page is one slice of a listing. NextToken is passed back to ListPage to
// continue while Truncated is set.
type Page struct {
	Keys      []string
	NextToken string
	Truncated bool
}

// ObjectStore is the subset of object storage operations the clone flows need.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	ListPage(ctx context.Context, bucket, prefix, token string) (Page, error)
	CopyObject(ctx context.Context, src, dst Location, opts CopyOptions) error
}

// ListAll follows pagination until the listing is exhausted.
func ListAll(ctx context.Context, store ObjectStore, bucket, prefix string) ([]string, error) {
	var keys []string
	token := ""
	for {
		page, err := store.ListPage(ctx, bucket, prefix, token)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, err)
		}
		keys = append(keys, page.Keys...)
		if !page.Truncated {
			return keys, nil
		}
		if page.NextToken == "" || page.NextToken == token {
			return nil, fmt.Errorf("listing %s/%s: truncated page without a new continuation token", bucket, prefix)
		}
		token = page.NextToken
	}
}

// IsDirMarker reports whether key is a zero-byte "folder" placeholder.
func IsDirMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}

func validate(bucket, key string) error {
	if bucket == "" {
		return ErrBucketRequired
	}
	if key == "" {
		return ErrKeyRequired
	}
	return nil
}
