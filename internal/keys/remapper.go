package keys

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Lumos-Labs-HQ/tclone/internal/ident"
	"github.com/Lumos-Labs-HQ/tclone/internal/rewrite"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const progressEvery = 50

// Result summarizes one copy batch.
type Result struct {
	Listed  int
	Copied  int
	Skipped []string
}

// Remapper copies object trees between the tenant and clone namespaces.
type Remapper struct {
	store        storage.ObjectStore
	tenantBucket string
	cloneBucket  string
	workers      int
	logger       *zap.Logger
}

type Option func(*Remapper)

// WithWorkers enables up to n concurrent copies. n <= 1 copies sequentially.
func WithWorkers(n int) Option {
	return func(r *Remapper) {
		r.workers = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Remapper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRemapper(store storage.ObjectStore, tenantBucket, cloneBucket string, opts ...Option) *Remapper {
	r := &Remapper{
		store:        store,
		tenantBucket: tenantBucket,
		cloneBucket:  cloneBucket,
		workers:      1,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type copyTask struct {
	src storage.Location
	dst storage.Location
}

// CopyToClone copies uploads/<tenant-id>/** to <clone-id>/uploads/** in the
// clone bucket. Copies are private.
func (r *Remapper) CopyToClone(ctx context.Context, tenantID, cloneID string) (Result, error) {
	prefix := TenantPrefix(tenantID)
	return r.run(ctx, r.tenantBucket, prefix, false, func(rel string) storage.Location {
		return storage.Location{Bucket: r.cloneBucket, Key: CloneKey(cloneID, rel)}
	})
}

// CopyFromClone copies <clone-id>/uploads/** to uploads/<tenant-id>/** in the
// tenant bucket, rewriting identifiers in each relative path. Copies are
// public-read.
func (r *Remapper) CopyFromClone(ctx context.Context, cloneID, tenantID string, mapping ident.Mapping) (Result, error) {
	prefix := ClonePrefix(cloneID)
	return r.run(ctx, r.cloneBucket, prefix, true, func(rel string) storage.Location {
		return storage.Location{Bucket: r.tenantBucket, Key: TenantKey(tenantID, rewrite.RewriteIdentifiers(rel, mapping))}
	})
}

func (r *Remapper) run(ctx context.Context, srcBucket, prefix string, public bool, dest func(rel string) storage.Location) (Result, error) {
	r.logger.Info("listing objects", zap.String("bucket", srcBucket), zap.String("prefix", prefix))

	// The whole listing is gathered before the first copy.
	listed, err := storage.ListAll(ctx, r.store, srcBucket, prefix)
	if err != nil {
		return Result{}, err
	}

	var tasks []copyTask
	for _, key := range listed {
		if storage.IsDirMarker(key) {
			continue
		}
		rel, ok := Relative(key, prefix)
		if !ok || rel == "" {
			continue
		}
		tasks = append(tasks, copyTask{
			src: storage.Location{Bucket: srcBucket, Key: key},
			dst: dest(rel),
		})
	}
	r.logger.Info("objects to copy", zap.Int("listed", len(listed)), zap.Int("files", len(tasks)))

	res := Result{Listed: len(listed)}
	opts := storage.CopyOptions{Public: public}
	if r.workers <= 1 {
		err = r.copySequential(ctx, tasks, opts, &res)
	} else {
		err = r.copyConcurrent(ctx, tasks, opts, &res)
	}
	return res, err
}

func (r *Remapper) copySequential(ctx context.Context, tasks []copyTask, opts storage.CopyOptions, res *Result) error {
	for _, task := range tasks {
		skipped, err := r.copyOne(ctx, task, opts)
		if err != nil {
			return err
		}
		if skipped {
			res.Skipped = append(res.Skipped, task.src.Key)
			continue
		}
		res.Copied++
		if res.Copied%progressEvery == 0 {
			r.logger.Info("copy progress", zap.Int("copied", res.Copied))
		}
	}
	return nil
}

func (r *Remapper) copyConcurrent(ctx context.Context, tasks []copyTask, opts storage.CopyOptions, res *Result) error {
	var (
		copied  atomic.Int64
		mu      sync.Mutex
		skipped []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			skip, err := r.copyOne(gctx, task, opts)
			if err != nil {
				return err
			}
			if skip {
				mu.Lock()
				skipped = append(skipped, task.src.Key)
				mu.Unlock()
				return nil
			}
			if n := copied.Add(1); n%progressEvery == 0 {
				r.logger.Info("copy progress", zap.Int64("copied", n))
			}
			return nil
		})
	}
	err := g.Wait()

	res.Copied = int(copied.Load())
	res.Skipped = skipped
	return err
}

// copyOne reports skipped=true when the source vanished after listing.
func (r *Remapper) copyOne(ctx context.Context, task copyTask, opts storage.CopyOptions) (skipped bool, err error) {
	err = r.store.CopyObject(ctx, task.src, task.dst, opts)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, storage.ErrObjectNotFound) {
		r.logger.Warn("skipped missing file", zap.String("key", task.src.Key))
		return true, nil
	}
	return false, fmt.Errorf("failed to copy %s to %s: %w", task.src, task.dst, err)
}
