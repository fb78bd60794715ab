package database

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Lumos-Labs-HQ/tclone/internal/database/common"
)

// DatabaseAdapter is everything the clone flows ask of the tenant database.
type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Dump writes a plain-format dump of one schema to w.
	Dump(ctx context.Context, schema string, w io.Writer) error
	// Apply runs a plain-format dump read from r.
	Apply(ctx context.Context, r io.Reader) error

	// QueryOneRow runs a query selecting a single JSON column and returns it,
	// or nil when no row matched.
	QueryOneRow(ctx context.Context, query string, args ...interface{}) (json.RawMessage, error)
	Execute(ctx context.Context, query string, args ...interface{}) error

	// Schema operations
	SchemaExists(ctx context.Context, schema string) (bool, error)
	DropSchema(ctx context.Context, schema string) error
}

// ProcessError is returned when pg_dump or psql exits non-zero.
type ProcessError = common.ProcessError
