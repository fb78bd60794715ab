package clone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Lumos-Labs-HQ/tclone/internal/database"
	"github.com/Lumos-Labs-HQ/tclone/internal/ident"
	"github.com/Lumos-Labs-HQ/tclone/internal/keys"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"go.uber.org/zap"
)

var (
	ErrCloneNotFound = errors.New("clone not found")
	ErrTenantExists  = errors.New("target tenant already exists")
)

const DefaultNameSuffix = " (clone)"

var DefaultTimestampColumns = []string{"created_at", "updated_at", "activated_at"}

// Options carries the per-deployment settings of a run.
type Options struct {
	TenantBucket     string
	CloneBucket      string
	TenantTable      string
	TempDir          string
	NameSuffix       string
	TimestampColumns []string
	Replace          bool
	Workers          int
}

// Recorder receives one record per finished run.
type Recorder interface {
	Record(ctx context.Context, rec types.RunRecord) (int64, error)
}

type Orchestrator struct {
	db        database.DatabaseAdapter
	tenants   *database.Tenants
	store     storage.ObjectStore
	opts      Options
	generator *ident.Generator
	recorder  Recorder
	onStage   func(Stage)
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// OnStage registers fn to be called at every stage transition.
func OnStage(fn func(Stage)) Option {
	return func(o *Orchestrator) {
		o.onStage = fn
	}
}

func WithGenerator(g *ident.Generator) Option {
	return func(o *Orchestrator) {
		if g != nil {
			o.generator = g
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(db database.DatabaseAdapter, store storage.ObjectStore, opts Options, options ...Option) *Orchestrator {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.TimestampColumns == nil {
		opts.TimestampColumns = DefaultTimestampColumns
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	o := &Orchestrator{
		db:        db,
		tenants:   database.NewTenants(db, opts.TenantTable),
		store:     store,
		opts:      opts,
		generator: ident.NewGenerator(),
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *Orchestrator) remapper() *keys.Remapper {
	return keys.NewRemapper(o.store, o.opts.TenantBucket, o.opts.CloneBucket,
		keys.WithWorkers(o.opts.Workers),
		keys.WithLogger(o.logger),
	)
}

func (o *Orchestrator) stage(s Stage) {
	o.logger.Info("stage", zap.String("stage", string(s)))
	if o.onStage != nil {
		o.onStage(s)
	}
}

// workDir creates a private scratch directory under Options.TempDir.
func (o *Orchestrator) workDir(label string) (string, error) {
	if err := os.MkdirAll(o.opts.TempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory %s: %w", o.opts.TempDir, err)
	}
	dir, err := os.MkdirTemp(o.opts.TempDir, "tclone-"+label+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, nil
}

func (o *Orchestrator) record(ctx context.Context, rec types.RunRecord, err error) {
	if o.recorder == nil {
		return
	}
	rec.FinishedAt = o.now()
	rec.Status = types.RunSucceeded
	if err != nil {
		rec.Status = types.RunFailed
		rec.Error = err.Error()
	}
	if _, rerr := o.recorder.Record(context.WithoutCancel(ctx), rec); rerr != nil {
		o.logger.Warn("failed to record run", zap.Error(rerr))
	}
}
