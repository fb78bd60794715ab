package template

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigIsValidJSON(t *testing.T) {
	for _, provider := range []StorageProvider{S3, MinIO, Local} {
		var cfg struct {
			Storage struct {
				Provider string `json:"provider"`
			} `json:"storage"`
		}
		require.NoError(t, json.Unmarshal([]byte(NewProjectTemplate(provider).GetConfig()), &cfg), provider)
		assert.Equal(t, string(provider), cfg.Storage.Provider)
	}
}

func TestLocalTemplate(t *testing.T) {
	tmpl := NewProjectTemplate(Local)
	assert.Contains(t, tmpl.GetConfig(), `"local_root": "./tmp/objects"`)
	assert.Contains(t, tmpl.GetDirectoryStructure(), "tmp/objects")
	assert.False(t, strings.Contains(tmpl.GetEnvTemplate(), "AWS_ACCESS_KEY_ID"))
}

func TestValidateStorageProvider(t *testing.T) {
	assert.Equal(t, MinIO, ValidateStorageProvider("minio"))
	assert.Equal(t, S3, ValidateStorageProvider("aws"))
	assert.Equal(t, S3, ValidateStorageProvider("gcs"))
}
