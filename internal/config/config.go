package config

import (
	"context"
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/tclone/internal/clone"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"github.com/spf13/viper"
)

const FileName = "tclone.config.json"

type Config struct {
	Version  string   `json:"version" mapstructure:"version"`
	Database Database `json:"database" mapstructure:"database"`
	Storage  Storage  `json:"storage" mapstructure:"storage"`
	Clone    Clone    `json:"clone" mapstructure:"clone"`
	History  History  `json:"history" mapstructure:"history"`
	Log      Log      `json:"log" mapstructure:"log"`
}

type Database struct {
	Provider    string `json:"provider" mapstructure:"provider"`
	URLEnv      string `json:"url_env" mapstructure:"url_env"`
	DumpBin     string `json:"dump_bin" mapstructure:"dump_bin"`
	RestoreBin  string `json:"restore_bin" mapstructure:"restore_bin"`
	TenantTable string `json:"tenant_table" mapstructure:"tenant_table"`
}

type Storage struct {
	Provider     string `json:"provider" mapstructure:"provider"`
	Region       string `json:"region" mapstructure:"region"`
	EndpointURL  string `json:"endpoint_url" mapstructure:"endpoint_url"`
	UseSSL       bool   `json:"use_ssl" mapstructure:"use_ssl"`
	AccessKeyEnv string `json:"access_key_env" mapstructure:"access_key_env"`
	SecretKeyEnv string `json:"secret_key_env" mapstructure:"secret_key_env"`
	TenantBucket string `json:"tenant_bucket" mapstructure:"tenant_bucket"`
	CloneBucket  string `json:"clone_bucket" mapstructure:"clone_bucket"`
	LocalRoot    string `json:"local_root,omitempty" mapstructure:"local_root"`
	PageSize     int    `json:"page_size,omitempty" mapstructure:"page_size"`
}

type Clone struct {
	TempDir          string   `json:"temp_dir" mapstructure:"temp_dir"`
	NameSuffix       string   `json:"name_suffix" mapstructure:"name_suffix"`
	TimestampColumns []string `json:"timestamp_columns" mapstructure:"timestamp_columns"`
	Workers          int      `json:"workers" mapstructure:"workers"`
}

type History struct {
	Path    string `json:"path" mapstructure:"path"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

type Log struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v and fills every unset field with its default.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Database.DumpBin == "" {
		cfg.Database.DumpBin = "pg_dump"
	}
	if cfg.Database.RestoreBin == "" {
		cfg.Database.RestoreBin = "psql"
	}
	if cfg.Database.TenantTable == "" {
		cfg.Database.TenantTable = "public.tenants"
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "s3"
	}
	if cfg.Storage.AccessKeyEnv == "" {
		cfg.Storage.AccessKeyEnv = "AWS_ACCESS_KEY_ID"
	}
	if cfg.Storage.SecretKeyEnv == "" {
		cfg.Storage.SecretKeyEnv = "AWS_SECRET_ACCESS_KEY"
	}
	if cfg.Storage.PageSize <= 0 {
		cfg.Storage.PageSize = storage.DefaultPageSize
	}
	if cfg.Clone.TempDir == "" {
		cfg.Clone.TempDir = "./tmp/dumps"
	}
	if !v.IsSet("clone.name_suffix") {
		cfg.Clone.NameSuffix = clone.DefaultNameSuffix
	}
	if cfg.Clone.TimestampColumns == nil {
		cfg.Clone.TimestampColumns = append([]string(nil), clone.DefaultTimestampColumns...)
	}
	if cfg.Clone.Workers <= 0 {
		cfg.Clone.Workers = 1
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".tclone/history.db"
	}
	if !v.IsSet("history.enabled") {
		cfg.History.Enabled = true
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres"}
	if !contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	supportedStores := []string{"s3", "minio", "local", "memory"}
	if !contains(supportedStores, c.Storage.Provider) {
		return fmt.Errorf("unsupported storage provider: %s. Supported providers: %v", c.Storage.Provider, supportedStores)
	}

	if c.Storage.TenantBucket == "" {
		return fmt.Errorf("storage.tenant_bucket cannot be empty")
	}
	if c.Storage.CloneBucket == "" {
		return fmt.Errorf("storage.clone_bucket cannot be empty")
	}
	if c.Storage.Provider == "local" && c.Storage.LocalRoot == "" {
		return fmt.Errorf("storage.local_root is required for the local provider")
	}
	if c.Storage.Provider == "minio" && c.Storage.EndpointURL == "" {
		return fmt.Errorf("storage.endpoint_url is required for the minio provider")
	}

	if c.Clone.TempDir == "" {
		return fmt.Errorf("clone.temp_dir cannot be empty")
	}

	return nil
}

// StorageConfig resolves credentials from the environment and returns the
// settings the storage factory expects.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Provider:        c.Storage.Provider,
		Region:          c.Storage.Region,
		EndpointURL:     c.Storage.EndpointURL,
		UseSSL:          c.Storage.UseSSL,
		AccessKeyID:     os.Getenv(c.Storage.AccessKeyEnv),
		SecretAccessKey: os.Getenv(c.Storage.SecretKeyEnv),
		LocalRoot:       c.Storage.LocalRoot,
		PageSize:        c.Storage.PageSize,
	}
}

func (c *Config) OpenStore(ctx context.Context) (storage.ObjectStore, error) {
	return storage.New(ctx, c.StorageConfig())
}

// EnsureDirectories creates the dump scratch directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Clone.TempDir} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
