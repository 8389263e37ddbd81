package appconfig

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) GetString(key string) string { return m[key] }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(mapSource{})
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080", cfg.APIURL)
	require.Equal(t, "/images/process", cfg.AdvancedPath)
	require.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Equal(t, "results", cfg.Minio.Bucket)
	require.False(t, cfg.HistoryEnabled())
	require.False(t, cfg.EventsEnabled())
	require.False(t, cfg.ArchiveEnabled())
}

func TestLoad_Values(t *testing.T) {
	cfg, err := Load(mapSource{
		"API_URL":          " http://api:9000 ",
		"HTTP_TIMEOUT":     "15",
		"MAX_UPLOAD_BYTES": "0",
		"POSTGRES_DSN":     "postgres://u:p@db/app",
		"KAFKA_BROKER":     "kafka:9092",
		"MINIO_ENDPOINT":   "minio:9000",
		"MINIO_SECURE":     "true",
	})
	require.NoError(t, err)

	require.Equal(t, "http://api:9000", cfg.APIURL)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.Limits().MaxAssetBytes)
	require.True(t, cfg.HistoryEnabled())
	require.True(t, cfg.EventsEnabled())
	require.True(t, cfg.ArchiveEnabled())
	require.True(t, cfg.Minio.Secure)
	require.Equal(t, "http://api:9000", cfg.ClientOptions().BaseURL)

	cfg, err = Load(mapSource{"HTTP_TIMEOUT": "1m30s"})
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.HTTPTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]mapSource{
		"timeout": {"HTTP_TIMEOUT": "soon"},
		"bytes":   {"MAX_UPLOAD_BYTES": "10MB"},
		"secure":  {"MINIO_SECURE": "maybe"},
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(src)
			require.Error(t, err)
		})
	}
}

func TestFromEnv_MissingFileTolerated(t *testing.T) {
	cfg, err := FromEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}
