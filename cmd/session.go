package cmd

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/tclone/internal/clone"
	"github.com/Lumos-Labs-HQ/tclone/internal/config"
	"github.com/Lumos-Labs-HQ/tclone/internal/database"
	"github.com/Lumos-Labs-HQ/tclone/internal/database/common"
	"github.com/Lumos-Labs-HQ/tclone/internal/history"
	"github.com/Lumos-Labs-HQ/tclone/internal/logging"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// session holds the collaborators a dump or restore run needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	db     database.DatabaseAdapter
	store  storage.ObjectStore
	ledger *history.Ledger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger}

	adapter, err := database.NewAdapter(cfg.Database.Provider, database.Tools{
		DumpBin:    cfg.Database.DumpBin,
		RestoreBin: cfg.Database.RestoreBin,
	})
	if err != nil {
		return nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = adapter

	if err := adapter.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Debug("connected to database", zap.String("url", common.RedactURL(dbURL)))

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}
	s.store = store

	if cfg.History.Enabled {
		ledger, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			s.ledger = ledger
		}
	}

	return s, nil
}

func (s *session) orchestrator(replace bool, workers int) *clone.Orchestrator {
	if workers <= 0 {
		workers = s.cfg.Clone.Workers
	}

	opts := []clone.Option{
		clone.WithLogger(s.logger),
		clone.OnStage(func(st clone.Stage) {
			color.New(color.FgCyan).Printf("→ %s\n", st)
		}),
	}
	if s.ledger != nil {
		opts = append(opts, clone.WithRecorder(s.ledger))
	}

	return clone.New(s.db, s.store, clone.Options{
		TenantBucket:     s.cfg.Storage.TenantBucket,
		CloneBucket:      s.cfg.Storage.CloneBucket,
		TenantTable:      s.cfg.Database.TenantTable,
		TempDir:          s.cfg.Clone.TempDir,
		NameSuffix:       s.cfg.Clone.NameSuffix,
		TimestampColumns: s.cfg.Clone.TimestampColumns,
		Replace:          replace,
		Workers:          workers,
	}, opts...)
}

func (s *session) Close() {
	if s.ledger != nil {
		s.ledger.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	s.logger.Sync()
}
