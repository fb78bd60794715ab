package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lumos-Labs-HQ/tclone/internal/database/common"
	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"github.com/Masterminds/squirrel"
)

var ErrTenantNotFound = errors.New("tenant not found")

// Tenants reads and writes rows of the tenant table.
type Tenants struct {
	db    DatabaseAdapter
	table string
	qb    squirrel.StatementBuilderType
}

func NewTenants(db DatabaseAdapter, table string) *Tenants {
	if table == "" {
		table = "public.tenants"
	}
	return &Tenants{
		db:    db,
		table: table,
		qb:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByHost returns the tenant serving host, or ErrTenantNotFound.
func (t *Tenants) FindByHost(ctx context.Context, host string) (*types.TenantRecord, error) {
	query, args, err := t.findByHostSQL(host)
	if err != nil {
		return nil, err
	}

	row, err := t.db.QueryOneRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant %s: %w", host, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no tenant for host %s", ErrTenantNotFound, host)
	}
	return types.ParseTenantRecord(row)
}

// Insert adds rec, letting Postgres coerce each JSON value to its column type.
func (t *Tenants) Insert(ctx context.Context, rec *types.TenantRecord) error {
	payload, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode tenant: %w", err)
	}
	if err := t.db.Execute(ctx, t.insertSQL(), string(payload)); err != nil {
		return fmt.Errorf("failed to insert tenant %s: %w", rec.Host, err)
	}
	return nil
}

// DeleteByHost removes the tenant row serving host, if any.
func (t *Tenants) DeleteByHost(ctx context.Context, host string) error {
	query, args, err := t.qb.
		Delete(common.QuoteQualified(t.table)).
		Where(squirrel.Eq{"host": host}).
		ToSql()
	if err != nil {
		return err
	}
	if err := t.db.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete tenant %s: %w", host, err)
	}
	return nil
}

func (t *Tenants) findByHostSQL(host string) (string, []interface{}, error) {
	return t.qb.
		Select("row_to_json(t)").
		From(common.QuoteQualified(t.table) + " t").
		Where(squirrel.Eq{"t.host": host}).
		Limit(1).
		ToSql()
}

func (t *Tenants) insertSQL() string {
	table := common.QuoteQualified(t.table)
	return fmt.Sprintf("INSERT INTO %s SELECT * FROM json_populate_record(NULL::%s, $1::json)", table, table)
}
