package pgdump

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrimaryKeysFixture(t *testing.T) {
	ids, stats, err := ExtractPrimaryKeysFromFile(filepath.Join("testdata", "three_blocks.sql"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		"b2c3d4e5-f6a7-8901-bcde-f12345678901",
		"c3d4e5f6-a7b8-9012-cdef-123456789012",
	}, ids.Sorted())

	// audit.actor_id is a UUID but not a primary key column.
	assert.False(t, ids.Has("d4e5f6a7-b8c9-0123-def0-234567890123"))

	assert.Equal(t, Stats{Blocks: 4, BlocksWithID: 2, Rows: 7, Identifiers: 3}, stats)
}

func TestScannerIgnoresRowsOutsideBlocks(t *testing.T) {
	dump := strings.Join([]string{
		"SELECT 'a1b2c3d4-e5f6-7890-abcd-ef1234567890';",
		"a1b2c3d4-e5f6-7890-abcd-ef1234567890\tstray",
		"COPY s.t (id) FROM stdin;",
		"b2c3d4e5-f6a7-8901-bcde-f12345678901",
		`\.`,
		"c3d4e5f6-a7b8-9012-cdef-123456789012",
		"",
	}, "\n")

	ids, err := ExtractPrimaryKeys(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, []string{"b2c3d4e5-f6a7-8901-bcde-f12345678901"}, ids.Sorted())
}

func TestScannerTrimsTrailingWhitespaceAndCRLF(t *testing.T) {
	dump := "COPY s.t (name, id) FROM stdin;\r\n" +
		"x\ta1b2c3d4-e5f6-7890-abcd-ef1234567890  \r\n" +
		"\\.\r\n"

	ids, err := ExtractPrimaryKeys(strings.NewReader(dump))
	require.NoError(t, err)
	assert.True(t, ids.Has("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))
}

func TestScannerColumnNamedIDExactly(t *testing.T) {
	dump := strings.Join([]string{
		"COPY s.t (user_id, idx, ident) FROM stdin;",
		"a1b2c3d4-e5f6-7890-abcd-ef1234567890\tb2c3d4e5-f6a7-8901-bcde-f12345678901\tc3d4e5f6-a7b8-9012-cdef-123456789012",
		`\.`,
	}, "\n")

	s := NewScanner()
	require.NoError(t, s.Scan(strings.NewReader(dump)))
	assert.Zero(t, s.IDs().Len())
	assert.Equal(t, 0, s.Stats().BlocksWithID)
}

func TestScannerHandlesLongLines(t *testing.T) {
	long := strings.Repeat("x", 512*1024)
	dump := "COPY s.t (id, body) FROM stdin;\n" +
		"a1b2c3d4-e5f6-7890-abcd-ef1234567890\t" + long + "\n" +
		"\\.\n"

	ids, err := ExtractPrimaryKeys(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, ids.Len())
}

func TestExtractPrimaryKeysMissingFile(t *testing.T) {
	_, _, err := ExtractPrimaryKeysFromFile(filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
}
