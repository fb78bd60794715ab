package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceRow = `{
	"id": "11111111-1111-4111-8111-111111111111",
	"name": "Demo",
	"host": "demo.localhost",
	"plan": "pro",
	"settings": {"theme": "dark", "seats": 5},
	"created_at": "2023-01-01T00:00:00+00:00",
	"updated_at": "2023-06-01T00:00:00+00:00",
	"activated_at": null
}`

func TestParseTenantRecord(t *testing.T) {
	rec, err := ParseTenantRecord([]byte(sourceRow))
	require.NoError(t, err)

	assert.Equal(t, "11111111-1111-4111-8111-111111111111", rec.ID)
	assert.Equal(t, "Demo", rec.Name)
	assert.Equal(t, "demo.localhost", rec.Host)
	assert.JSONEq(t, `{"theme": "dark", "seats": 5}`, string(rec.Columns["settings"]))
	assert.NotContains(t, rec.Columns, "id")
	assert.Equal(t, []string{"activated_at", "created_at", "host", "id", "name", "plan", "settings", "updated_at"}, rec.ColumnNames())
}

func TestParseTenantRecordRejectsIncomplete(t *testing.T) {
	_, err := ParseTenantRecord([]byte(`{"name": "x", "host": "x.localhost"}`))
	require.Error(t, err)

	_, err = ParseTenantRecord([]byte(`{"id": "11111111-1111-4111-8111-111111111111"}`))
	require.Error(t, err)

	_, err = ParseTenantRecord([]byte(`null`))
	require.Error(t, err)

	_, err = ParseTenantRecord([]byte(`[1]`))
	require.Error(t, err)
}

func TestCloneAppliesOverrides(t *testing.T) {
	src, err := ParseTenantRecord([]byte(sourceRow))
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	next := src.Clone(CloneOverrides{
		ID:               "22222222-2222-4222-8222-222222222222",
		Host:             "acme.localhost",
		NameSuffix:       " (clone)",
		Now:              now,
		TimestampColumns: []string{"created_at", "updated_at", "activated_at", "deleted_at"},
	})

	out, err := json.Marshal(next)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "22222222-2222-4222-8222-222222222222",
		"name": "Demo (clone)",
		"host": "acme.localhost",
		"plan": "pro",
		"settings": {"theme": "dark", "seats": 5},
		"created_at": "2026-10-17T12:00:00Z",
		"updated_at": "2026-10-17T12:00:00Z",
		"activated_at": "2026-10-17T12:00:00Z"
	}`, string(out))

	// The source record is untouched.
	assert.Equal(t, "Demo", src.Name)
	assert.JSONEq(t, `"2023-01-01T00:00:00+00:00"`, string(src.Columns["created_at"]))
}
