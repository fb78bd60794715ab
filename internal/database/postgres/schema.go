package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// DropSchema removes a tenant schema and everything in it.
func (p *Adapter) DropSchema(ctx context.Context, schema string) error {
	query := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema))
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		schema,
	).Scan(&exists)
	return exists, err
}
