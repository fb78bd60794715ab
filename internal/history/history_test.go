package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	l := openLedger(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := l.Record(ctx, types.RunRecord{
		Kind:        types.RunExport,
		CloneID:     "c1",
		Host:        "demo.localhost",
		Identifiers: 4,
		Files:       2,
		Status:      types.RunSucceeded,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
	})
	require.NoError(t, err)

	id, err := l.Record(ctx, types.RunRecord{
		Kind:       types.RunImport,
		CloneID:    "c1",
		Host:       "acme.localhost",
		TenantID:   "t-2",
		Status:     types.RunFailed,
		Error:      "psql exited with status 3",
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	runs, err := l.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, types.RunImport, runs[0].Kind)
	assert.Equal(t, "t-2", runs[0].TenantID)
	assert.Equal(t, types.RunFailed, runs[0].Status)
	assert.Equal(t, "psql exited with status 3", runs[0].Error)

	assert.Equal(t, types.RunExport, runs[1].Kind)
	assert.Equal(t, 4, runs[1].Identifiers)
	assert.Equal(t, 2, runs[1].Files)
	assert.Empty(t, runs[1].TenantID)
	assert.True(t, started.Equal(runs[1].StartedAt))
	assert.True(t, started.Add(time.Minute).Equal(runs[1].FinishedAt))
}

func TestListLimit(t *testing.T) {
	ctx := context.Background()
	l := openLedger(t)

	for _, host := range []string{"a.localhost", "b.localhost", "c.localhost"} {
		_, err := l.Record(ctx, types.RunRecord{Kind: types.RunExport, CloneID: host, Host: host, Status: types.RunSucceeded})
		require.NoError(t, err)
	}

	runs, err := l.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.localhost", runs[0].Host)
	assert.Equal(t, "b.localhost", runs[1].Host)
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	l, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = l.Record(ctx, types.RunRecord{Kind: types.RunExport, CloneID: "c1", Host: "demo.localhost", Status: types.RunSucceeded})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	runs, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "c1", runs[0].CloneID)
}
