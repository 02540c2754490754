package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"image-optimizer/internal/infrastructure/catalog"
	"image-optimizer/pkg/constants"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig
	Optimize OptimizeConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Worker   WorkerConfig
	LogLevel string
}

type ServerConfig struct {
	Port string
	Host string
}

// OptimizeConfig holds the host parameters handed to every run.
type OptimizeConfig struct {
	BinaryField    string
	Formats        []string
	ContinueOnFail bool
	ChannelCount   int
	RouteByFormat  bool
	MaxConcurrency int
	EncodeTimeout  time.Duration
	MaxFileSize    int64
	CatalogFile    string
}

type StorageConfig struct {
	Driver   string // memory, local or s3
	Dir      string
	S3Bucket string
	S3Region string
	S3Prefix string
	MaxAge   time.Duration
}

type RedisConfig struct {
	Enabled bool // async jobs through the worker host
	Host    string
	Port    string
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type DatabaseConfig struct {
	Enabled       bool
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	AutoMigration bool
}

type WorkerConfig struct {
	Count int
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Optimize: OptimizeConfig{
			BinaryField:    getEnv("BINARY_FIELD", constants.DefaultBinaryField),
			Formats:        catalog.ParseFormats(getEnv("OUTPUT_FORMATS", constants.DefaultFormats)),
			ContinueOnFail: getEnvAsBool("CONTINUE_ON_FAIL", false),
			ChannelCount:   getEnvAsInt("OUTPUT_CHANNELS", constants.DefaultChannelCount),
			RouteByFormat:  getEnvAsBool("ROUTE_BY_FORMAT", false),
			MaxConcurrency: getEnvAsInt("MAX_ENCODE_CONCURRENCY", 0),
			EncodeTimeout:  getEnvAsDuration("ENCODE_TIMEOUT", 0),
			MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 0),
			CatalogFile:    getEnv("FORMAT_CATALOG_FILE", ""),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
			Dir:      getEnv("STORAGE_DIR", "optimized"),
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Region: getEnv("S3_REGION", "eu-central-1"),
			S3Prefix: getEnv("S3_PREFIX", "optimized/"),
			MaxAge:   getEnvAsDuration("CLEANUP_MAX_AGE", 24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled: getEnvAsBool("ASYNC_ENABLED", false),
			Host:    getEnv("REDIS_HOST", "localhost"),
			Port:    getEnv("REDIS_PORT", "6379"),
		},
		Database: DatabaseConfig{
			Enabled:       getEnvAsBool("DB_ENABLED", false),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "image_optimizer"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			AutoMigration: getEnvAsBool("RUN_AUTO_MIGRATION", false),
		},
		Worker: WorkerConfig{
			Count: getEnvAsInt("WORKER_COUNT", 3),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Optimize.ChannelCount < 1 {
		return fmt.Errorf("OUTPUT_CHANNELS must be at least 1, got %d", c.Optimize.ChannelCount)
	}
	if len(c.Optimize.Formats) == 0 {
		return fmt.Errorf("OUTPUT_FORMATS must name at least one format")
	}
	switch c.Storage.Driver {
	case "memory", "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	// the worker process reads inputs back through the shared backend
	if c.Redis.Enabled && c.Storage.Driver == "memory" {
		return fmt.Errorf("ASYNC_ENABLED requires a local or s3 STORAGE_DRIVER, got memory")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Worker.Count)
	}
	return nil
}

// LoadCatalog builds the format catalog, applying the YAML overrides file when
// one is configured. Unknown formats or option names are rejected.
func (c *Config) LoadCatalog() (*catalog.Catalog, error) {
	if c.Optimize.CatalogFile == "" {
		return catalog.Default(), nil
	}
	raw, err := os.ReadFile(c.Optimize.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("read format catalog: %w", err)
	}
	overrides, err := ParseCatalogOverrides(raw)
	if err != nil {
		return nil, err
	}
	return catalog.New(overrides)
}

// ParseCatalogOverrides decodes a document of the form
//
//	webp:
//	  quality: 75
//	png:
//	  palette: false
func ParseCatalogOverrides(raw []byte) (map[string]catalog.Overrides, error) {
	overrides := map[string]catalog.Overrides{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse format catalog: %w", err)
	}
	return overrides, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
