package clone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/tclone/internal/database"
	"github.com/Lumos-Labs-HQ/tclone/internal/keys"
	"github.com/Lumos-Labs-HQ/tclone/internal/pgdump"
	"github.com/Lumos-Labs-HQ/tclone/internal/rewrite"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"go.uber.org/zap"
)

const restoreFile = "restore.sql"

type ImportResult struct {
	CloneID     string
	TenantID    string
	Host        string
	SourceHost  string
	Schema      string
	Identifiers int
	Files       int
	Skipped     []string
	Warnings    []string
}

// Import materializes clone cloneID as a new tenant serving targetHost.
func (o *Orchestrator) Import(ctx context.Context, cloneID, targetHost string) (res *ImportResult, err error) {
	rec := types.RunRecord{Kind: types.RunImport, CloneID: cloneID, Host: targetHost, StartedAt: o.now()}
	defer func() {
		if res != nil {
			rec.TenantID = res.TenantID
			rec.Identifiers = res.Identifiers
			rec.Files = res.Files
			rec.Skipped = len(res.Skipped)
		}
		o.record(ctx, rec, err)
	}()

	res = &ImportResult{
		CloneID: cloneID,
		Host:    targetHost,
		Schema:  rewrite.SchemaName(targetHost),
	}
	logger := o.logger.With(zap.String("clone_id", cloneID), zap.String("host", targetHost))

	if err := o.checkTarget(ctx, targetHost, res.Schema); err != nil {
		return res, err
	}

	dir, err := o.workDir(cloneID)
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(dir)

	o.stage(StageDownloading)
	dumpPath := filepath.Join(dir, keys.DumpFile)
	if err := o.download(ctx, keys.DumpKey(cloneID), dumpPath); err != nil {
		return res, err
	}
	metaPath := filepath.Join(dir, keys.MetadataFile)
	if err := o.download(ctx, keys.MetadataKey(cloneID), metaPath); err != nil {
		return res, err
	}

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return res, fmt.Errorf("failed to read tenant metadata: %w", err)
	}
	source, err := types.ParseTenantRecord(meta)
	if err != nil {
		return res, fmt.Errorf("clone %s has invalid tenant metadata: %w", cloneID, err)
	}
	res.SourceHost = source.Host

	dump, err := os.ReadFile(dumpPath)
	if err != nil {
		return res, fmt.Errorf("failed to read dump: %w", err)
	}

	rw := &rewrite.Rewriter{
		SourceSchema: rewrite.SchemaName(source.Host),
		TargetSchema: res.Schema,
	}

	o.stage(StageSchemaRewrite)
	text := rw.RenameSchema(string(dump))

	o.stage(StageIdentifierRewrite)
	ids, stats, err := pgdump.ExtractPrimaryKeysFromFile(dumpPath)
	if err != nil {
		return res, err
	}
	mapping, err := o.generator.Generate(ids)
	if err != nil {
		return res, fmt.Errorf("failed to generate identifiers: %w", err)
	}
	if err := mapping.Validate(); err != nil {
		return res, err
	}
	rw.Mapping = mapping
	res.Identifiers = len(mapping)
	text = rw.RewriteIdentifiers(text)
	logger.Info("rewrote dump",
		zap.Int("blocks", stats.Blocks),
		zap.Int("rows", stats.Rows),
		zap.Int("identifiers", res.Identifiers),
	)

	restorePath := filepath.Join(dir, restoreFile)
	if err := os.WriteFile(restorePath, []byte(text), 0600); err != nil {
		return res, fmt.Errorf("failed to write transformed dump: %w", err)
	}

	if o.opts.Replace {
		if err := o.clearTarget(ctx, targetHost, res.Schema); err != nil {
			return res, err
		}
	}

	o.stage(StageDBRestore)
	if err := o.apply(ctx, restorePath); err != nil {
		return res, err
	}

	o.stage(StageTenantRowInsert)
	tenantID, ok := mapping.Lookup(source.ID)
	if !ok {
		tenantID, err = o.generator.New(ids, mapping.Images())
		if err != nil {
			return res, fmt.Errorf("failed to generate tenant id: %w", err)
		}
		warning := fmt.Sprintf("tenant id %s not found in dump; assigned fresh id %s", source.ID, tenantID)
		res.Warnings = append(res.Warnings, warning)
		logger.Warn("tenant id not remapped", zap.String("source_id", source.ID), zap.String("tenant_id", tenantID))
	}
	res.TenantID = tenantID

	target := source.Clone(types.CloneOverrides{
		ID:               tenantID,
		Host:             targetHost,
		NameSuffix:       o.opts.NameSuffix,
		Now:              o.now(),
		TimestampColumns: o.opts.TimestampColumns,
	})
	if err := o.tenants.Insert(ctx, target); err != nil {
		return res, err
	}

	o.stage(StageFilesRestore)
	copied, err := o.remapper().CopyFromClone(ctx, cloneID, tenantID, mapping)
	res.Files = copied.Copied
	res.Skipped = copied.Skipped
	if err != nil {
		return res, fmt.Errorf("failed to restore tenant files: %w", err)
	}

	o.stage(StageRestoreDone)
	logger.Info("import finished",
		zap.String("tenant_id", tenantID),
		zap.Int("files", res.Files),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// checkTarget refuses a host or schema that is already in use unless the run
// replaces it.
func (o *Orchestrator) checkTarget(ctx context.Context, host, schema string) error {
	if o.opts.Replace {
		return nil
	}

	_, err := o.tenants.FindByHost(ctx, host)
	switch {
	case err == nil:
		return fmt.Errorf("%w: host %s is served by another tenant (use --replace)", ErrTenantExists, host)
	case !errors.Is(err, database.ErrTenantNotFound):
		return err
	}

	exists, err := o.db.SchemaExists(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to check schema %s: %w", schema, err)
	}
	if exists {
		return fmt.Errorf("%w: schema %s already exists (use --replace)", ErrTenantExists, schema)
	}
	return nil
}

func (o *Orchestrator) clearTarget(ctx context.Context, host, schema string) error {
	o.logger.Warn("replacing existing tenant", zap.String("host", host), zap.String("schema", schema))
	if err := o.db.DropSchema(ctx, schema); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}
	return o.tenants.DeleteByHost(ctx, host)
}

func (o *Orchestrator) download(ctx context.Context, key, path string) error {
	data, err := o.store.GetObject(ctx, o.opts.CloneBucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrCloneNotFound, o.opts.CloneBucket, key)
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (o *Orchestrator) apply(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open transformed dump: %w", err)
	}
	defer f.Close()

	if err := o.db.Apply(ctx, f); err != nil {
		return fmt.Errorf("failed to restore dump: %w", err)
	}
	return nil
}
