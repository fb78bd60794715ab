package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const runsTable = "_tclone_runs"

// Ledger is the local record of export and import runs.
type Ledger struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

// Open creates the ledger file and its table when missing.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	l := &Ledger{
		db: db,
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
	if err := l.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func (l *Ledger) createTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		clone_id TEXT NOT NULL,
		host TEXT NOT NULL,
		tenant_id TEXT,
		identifiers INTEGER NOT NULL DEFAULT 0,
		files INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// Record appends rec and returns its row id.
func (l *Ledger) Record(ctx context.Context, rec types.RunRecord) (int64, error) {
	query, args, err := l.qb.Insert(runsTable).
		Columns("kind", "clone_id", "host", "tenant_id", "identifiers", "files", "skipped",
			"status", "error", "started_at", "finished_at").
		Values(string(rec.Kind), rec.CloneID, rec.Host, rec.TenantID, rec.Identifiers, rec.Files, rec.Skipped,
			string(rec.Status), rec.Error, formatTime(rec.StartedAt), formatTime(rec.FinishedAt)).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent runs first. A non-positive limit returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	builder := l.qb.Select("id", "kind", "clone_id", "host", "tenant_id", "identifiers", "files", "skipped",
		"status", "error", "started_at", "finished_at").
		From(runsTable).
		OrderBy("id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			rec               types.RunRecord
			kind, status      string
			tenantID, errText sql.NullString
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.CloneID, &rec.Host, &tenantID, &rec.Identifiers, &rec.Files,
			&rec.Skipped, &status, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Kind = types.RunKind(kind)
		rec.Status = types.RunStatus(status)
		rec.TenantID = tenantID.String
		rec.Error = errText.String
		rec.StartedAt = parseTime(started)
		rec.FinishedAt = parseTime(finished)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
