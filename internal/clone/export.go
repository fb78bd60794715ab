package clone

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/tclone/internal/keys"
	"github.com/Lumos-Labs-HQ/tclone/internal/rewrite"
	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExportResult struct {
	CloneID   string
	TenantID  string
	Host      string
	Schema    string
	DumpBytes int
	Files     int
	Skipped   []string
}

// Export snapshots the tenant serving sourceHost: its schema dump, its tenant
// row and its uploaded files, all under a fresh clone id.
func (o *Orchestrator) Export(ctx context.Context, sourceHost string) (res *ExportResult, err error) {
	rec := types.RunRecord{Kind: types.RunExport, Host: sourceHost, StartedAt: o.now()}
	defer func() {
		if res != nil {
			rec.CloneID = res.CloneID
			rec.TenantID = res.TenantID
			rec.Files = res.Files
			rec.Skipped = len(res.Skipped)
		}
		o.record(ctx, rec, err)
	}()

	tenant, err := o.tenants.FindByHost(ctx, sourceHost)
	if err != nil {
		return nil, err
	}

	res = &ExportResult{
		CloneID:  uuid.NewString(),
		TenantID: tenant.ID,
		Host:     sourceHost,
		Schema:   rewrite.SchemaName(sourceHost),
	}
	logger := o.logger.With(zap.String("clone_id", res.CloneID), zap.String("host", sourceHost))

	dir, err := o.workDir(res.CloneID)
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(dir)

	o.stage(StageDumping)
	dumpPath := filepath.Join(dir, keys.DumpFile)
	if err := o.dumpSchema(ctx, res.Schema, dumpPath); err != nil {
		return res, err
	}

	o.stage(StageUploading)
	dump, err := os.ReadFile(dumpPath)
	if err != nil {
		return res, fmt.Errorf("failed to read dump: %w", err)
	}
	res.DumpBytes = len(dump)

	if err := o.store.PutObject(ctx, o.opts.CloneBucket, keys.DumpKey(res.CloneID), dump); err != nil {
		return res, fmt.Errorf("failed to upload dump: %w", err)
	}

	meta, err := tenant.MarshalJSON()
	if err != nil {
		return res, fmt.Errorf("failed to encode tenant metadata: %w", err)
	}
	if err := o.store.PutObject(ctx, o.opts.CloneBucket, keys.MetadataKey(res.CloneID), meta); err != nil {
		return res, fmt.Errorf("failed to upload tenant metadata: %w", err)
	}
	logger.Info("uploaded clone artifacts", zap.Int("dump_bytes", res.DumpBytes))

	copied, err := o.remapper().CopyToClone(ctx, tenant.ID, res.CloneID)
	res.Files = copied.Copied
	res.Skipped = copied.Skipped
	if err != nil {
		return res, fmt.Errorf("failed to copy tenant files: %w", err)
	}

	o.stage(StageSourceDone)
	logger.Info("export finished", zap.Int("files", res.Files), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (o *Orchestrator) dumpSchema(ctx context.Context, schema, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	if err := o.db.Dump(ctx, schema, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to dump schema %s: %w", schema, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write dump file: %w", err)
	}
	return nil
}
