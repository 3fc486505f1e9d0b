package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Redis         RedisConfig
	Worker        WorkerConfig
	Transcription TranscriptionConfig
	Log           LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port       string
	CORSOrigin string
	Env        string
}

// DatabaseConfig holds the metadata store configuration
type DatabaseConfig struct {
	URL string
}

// StorageBackend selects the chunk store implementation, fixed at startup
type StorageBackend string

const (
	BackendLocal StorageBackend = "local"
	BackendS3    StorageBackend = "s3"
)

// StorageConfig holds chunk store configuration
type StorageConfig struct {
	Backend   StorageBackend
	LocalPath string
	S3        S3Config
}

// S3Config holds S3-compatible object store configuration
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// RedisConfig holds the job-queue backend configuration. An empty host means
// queues are disabled and jobs are skipped silently.
type RedisConfig struct {
	Host string
	Port string
}

// Enabled reports whether a job-queue backend is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns the host:port address of the Redis backend
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// WorkerConfig holds post-production worker configuration
type WorkerConfig struct {
	Concurrency int
	TempDir     string
}

// TranscriptionConfig selects the transcription provider. With no API key
// configured the transcription worker does not start.
type TranscriptionConfig struct {
	DeepgramAPIKey string
	GeminiAPIKey   string
	GeminiModel    string
}

// Provider returns the configured provider name, or "" when transcription is
// not configured.
func (t TranscriptionConfig) Provider() string {
	if t.DeepgramAPIKey != "" {
		return "deepgram"
	}
	if t.GeminiAPIKey != "" {
		return "gemini"
	}
	return ""
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
			Env:        getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Storage: StorageConfig{
			Backend:   StorageBackend(getEnv("STORAGE_BACKEND", "local")),
			LocalPath: getEnv("STORAGE_PATH", "./data/recordings"),
			S3: S3Config{
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Bucket:          getEnv("S3_BUCKET", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				ForcePathStyle:  getEnvBool("S3_FORCE_PATH_STYLE", false),
			},
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", ""),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 2),
			TempDir:     getEnv("WORKER_TEMP_DIR", os.TempDir()),
		},
		Transcription: TranscriptionConfig{
			DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Storage.Backend != BackendLocal && cfg.Storage.Backend != BackendS3 {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == BackendS3 && cfg.Storage.S3.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
