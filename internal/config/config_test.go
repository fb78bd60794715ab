package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadJSON(t *testing.T, body string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Database.Provider)
	assert.Equal(t, "DATABASE_URL", cfg.Database.URLEnv)
	assert.Equal(t, "pg_dump", cfg.Database.DumpBin)
	assert.Equal(t, "psql", cfg.Database.RestoreBin)
	assert.Equal(t, "public.tenants", cfg.Database.TenantTable)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, 1000, cfg.Storage.PageSize)
	assert.Equal(t, "./tmp/dumps", cfg.Clone.TempDir)
	assert.Equal(t, " (clone)", cfg.Clone.NameSuffix)
	assert.Equal(t, []string{"created_at", "updated_at", "activated_at"}, cfg.Clone.TimestampColumns)
	assert.Equal(t, 1, cfg.Clone.Workers)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	cfg := loadJSON(t, `{
		"storage": {"provider": "minio", "endpoint_url": "localhost:9000", "tenant_bucket": "tenants", "clone_bucket": "clones"},
		"clone": {"name_suffix": "", "timestamp_columns": ["created_at"], "workers": 8},
		"history": {"enabled": false}
	}`)

	assert.Equal(t, "minio", cfg.Storage.Provider)
	assert.Equal(t, "tenants", cfg.Storage.TenantBucket)
	assert.Equal(t, "", cfg.Clone.NameSuffix)
	assert.Equal(t, []string{"created_at"}, cfg.Clone.TimestampColumns)
	assert.Equal(t, 8, cfg.Clone.Workers)
	assert.False(t, cfg.History.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.ErrorContains(t, cfg.Validate(), "tenant_bucket")

	cfg.Storage.TenantBucket = "tenants"
	cfg.Storage.CloneBucket = "clones"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Provider = "local"
	assert.ErrorContains(t, cfg.Validate(), "local_root")

	cfg.Storage.Provider = "gcs"
	assert.ErrorContains(t, cfg.Validate(), "unsupported storage provider")

	cfg.Storage.Provider = "s3"
	cfg.Database.Provider = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "unsupported database provider")
}

func TestEnvLookups(t *testing.T) {
	t.Setenv("TCLONE_TEST_DB", "postgres://localhost/app")
	t.Setenv("TCLONE_TEST_AK", "ak")
	t.Setenv("TCLONE_TEST_SK", "sk")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.Database.URLEnv = "TCLONE_TEST_DB"
	cfg.Storage.AccessKeyEnv = "TCLONE_TEST_AK"
	cfg.Storage.SecretKeyEnv = "TCLONE_TEST_SK"

	url, err := cfg.GetDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", url)

	sc := cfg.StorageConfig()
	assert.Equal(t, "ak", sc.AccessKeyID)
	assert.Equal(t, "sk", sc.SecretAccessKey)

	cfg.Database.URLEnv = "TCLONE_TEST_UNSET"
	_, err = cfg.GetDatabaseURL()
	assert.Error(t, err)
}
