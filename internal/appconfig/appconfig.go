// Package appconfig reads settings from env and .env files
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/client"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
	"github.com/UnendingLoop/ImageOrchestrator/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

const (
	DefaultLogLevel       = "info"
	DefaultMigrationsPath = "./migrations"
	DefaultKafkaTopic     = "image-results"
	DefaultKafkaGroupID   = "imgctl"
	DefaultAppPort        = "8080"
	DefaultGinMode        = "release"
)

// Source - всё, что нужно от конфига; *config.Config подходит
type Source interface {
	GetString(key string) string
}

type Config struct {
	APIURL         string
	AdvancedPath   string
	HTTPTimeout    time.Duration
	MaxUploadBytes int64
	LogLevel       string
	DownloadDir    string

	PostgresDSN    string
	MigrationsPath string

	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string

	Minio miniostorage.Options

	AppPort string
	GinMode string
}

// FromEnv enables env lookup and loads envFile when it exists.
func FromEnv(envFile string) (*config.Config, error) {
	appConfig := config.New()
	appConfig.EnableEnv("")

	if envFile == "" {
		return appConfig, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return appConfig, nil
		}
		return nil, err
	}
	if err := appConfig.LoadEnvFiles(envFile); err != nil {
		return nil, fmt.Errorf("load envs from %q: %w", envFile, err)
	}
	return appConfig, nil
}

// Load reads every known key, filling defaults for the empty ones.
func Load(src Source) (*Config, error) {
	cfg := &Config{
		APIURL:         withDefault(src, "API_URL", client.DefaultBaseURL),
		AdvancedPath:   withDefault(src, "ADVANCED_PATH", client.DefaultAdvancedPath),
		LogLevel:       withDefault(src, "LOG_LEVEL", DefaultLogLevel),
		DownloadDir:    withDefault(src, "DOWNLOAD_DIR", "."),
		PostgresDSN:    get(src, "POSTGRES_DSN"),
		MigrationsPath: withDefault(src, "MIGRATIONS_PATH", DefaultMigrationsPath),
		KafkaBroker:    get(src, "KAFKA_BROKER"),
		KafkaTopic:     withDefault(src, "KAFKA_TOPIC", DefaultKafkaTopic),
		KafkaGroupID:   withDefault(src, "KAFKA_GROUPID", DefaultKafkaGroupID),
		Minio: miniostorage.Options{
			Endpoint: get(src, "MINIO_ENDPOINT"),
			User:     get(src, "MINIO_USER"),
			Pass:     get(src, "MINIO_PASS"),
			Bucket:   withDefault(src, "BUCKET_NAME", miniostorage.DefaultBucket),
		},
		AppPort: withDefault(src, "APP_PORT", DefaultAppPort),
		GinMode: withDefault(src, "GIN_MODE", DefaultGinMode),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(src, "HTTP_TIMEOUT", client.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = integer(src, "MAX_UPLOAD_BYTES", operation.DefaultMaxAssetBytes); err != nil {
		return nil, err
	}
	if cfg.Minio.Secure, err = boolean(src, "MINIO_SECURE", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) ClientOptions() client.Options {
	return client.Options{BaseURL: c.APIURL, AdvancedPath: c.AdvancedPath, Timeout: c.HTTPTimeout}
}

func (c *Config) Limits() operation.Limits {
	return operation.Limits{MaxAssetBytes: c.MaxUploadBytes}
}

func (c *Config) HistoryEnabled() bool { return c.PostgresDSN != "" }

func (c *Config) EventsEnabled() bool { return c.KafkaBroker != "" }

func (c *Config) ArchiveEnabled() bool { return c.Minio.Endpoint != "" }

func get(src Source, key string) string {
	return strings.TrimSpace(src.GetString(key))
}

func withDefault(src Source, key, def string) string {
	if v := get(src, key); v != "" {
		return v
	}
	return def
}

func duration(src Source, key string, def time.Duration) (time.Duration, error) {
	raw := get(src, key)
	if raw == "" {
		return def, nil
	}
	// голое число считаем секундами
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func integer(src Source, key string, def int64) (int64, error) {
	raw := get(src, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func boolean(src Source, key string, def bool) (bool, error) {
	raw := get(src, key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
