package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the PitchLens server and worker.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	AI        AIConfig
	Uploads   UploadConfig
	Scrape    ScrapeConfig
	Worker    WorkerConfig
	RateLimit int
	CORS      []string
	// APIKeyHashes holds bcrypt hashes of accepted bearer tokens. Empty disables auth.
	APIKeyHashes []string
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel slog.Level
}

type RedisConfig struct {
	URL       string
	ResultTTL time.Duration
}

// DatabaseConfig configures the optional Postgres job history. An empty URL disables it.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	PromptFile       string
	Gemini           GeminiConfig
	OpenAI           OpenAIConfig
	Breaker          BreakerConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type BreakerConfig struct {
	Enabled      bool
	MinRequests  uint32
	FailureRatio float64
	Timeout      time.Duration
}

type UploadConfig struct {
	Backend  string
	Dir      string
	MaxBytes int64
	MinIO    MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type ScrapeConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	// CacheTTL keeps successful scrapes in Redis. Zero disables the cache.
	CacheTTL time.Duration
}

type WorkerConfig struct {
	ID           string
	Concurrency  int
	PollTimeout  time.Duration
	DrainTimeout time.Duration
	MetricsPort  int
}

const DefaultRedisURL = "redis://localhost:6379/0"

var validProviders = map[string]bool{
	"gemini": true,
	"openai": true,
	"mock":   true,
}

var validBackends = map[string]bool{
	"local": true,
	"minio": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     envInt("PITCHLENS_PORT", 8080),
			Env:      envString("PITCHLENS_ENV", "development"),
			LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
		},
		Redis: RedisConfig{
			URL:       envString("REDIS_URL", DefaultRedisURL),
			ResultTTL: envDuration("JOB_RESULT_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "gemini"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			PromptFile:       os.Getenv("PROMPT_TEMPLATE_FILE"),
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GOOGLE_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-1.5-flash"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Breaker: BreakerConfig{
				Enabled:      envBool("AI_BREAKER_ENABLED", false),
				MinRequests:  uint32(envInt("AI_BREAKER_MIN_REQUESTS", 5)),
				FailureRatio: envFloat("AI_BREAKER_FAILURE_RATIO", 0.6),
				Timeout:      envDuration("AI_BREAKER_TIMEOUT", 60*time.Second),
			},
		},
		Uploads: UploadConfig{
			Backend:  envString("UPLOAD_BACKEND", "local"),
			Dir:      envString("UPLOAD_DIR", filepath.Join(os.TempDir(), "pitchlens-uploads")),
			MaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 32<<20)),
			MinIO: MinIOConfig{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    envString("MINIO_BUCKET", "pitch-decks"),
				Region:    envString("MINIO_REGION", "us-east-1"),
				UseSSL:    envBool("MINIO_USE_SSL", false),
			},
		},
		Scrape: ScrapeConfig{
			Timeout:  envDuration("SCRAPE_TIMEOUT", 10*time.Second),
			MaxBytes: int64(envInt("SCRAPE_MAX_BYTES", 5<<20)),
			CacheTTL: envDuration("SCRAPE_CACHE_TTL", time.Hour),
		},
		Worker: WorkerConfig{
			ID:           envString("WORKER_ID", hostname()),
			Concurrency:  envInt("WORKER_CONCURRENCY", 4),
			PollTimeout:  envDuration("WORKER_POLL_TIMEOUT", 5*time.Second),
			DrainTimeout: envDuration("WORKER_DRAIN_TIMEOUT", 30*time.Second),
			MetricsPort:  envInt("WORKER_METRICS_PORT", 9091),
		},
		RateLimit:    envInt("RATE_LIMIT_PER_MINUTE", 60),
		CORS:         envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		APIKeyHashes: envList("API_KEY_HASHES", nil),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, openai, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required when AI_PROVIDER is gemini")
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Breaker.FailureRatio <= 0 || c.AI.Breaker.FailureRatio > 1 {
		return fmt.Errorf("AI_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.AI.Breaker.FailureRatio)
	}

	if !validBackends[c.Uploads.Backend] {
		return fmt.Errorf("UPLOAD_BACKEND must be one of local, minio; got %q", c.Uploads.Backend)
	}
	if c.Uploads.Backend == "minio" {
		if c.Uploads.MinIO.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when UPLOAD_BACKEND is minio")
		}
		if c.Uploads.MinIO.AccessKey == "" || c.Uploads.MinIO.SecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when UPLOAD_BACKEND is minio")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.Worker.Concurrency)
	}

	if c.Database.Enabled() &&
		!strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}

	return nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "worker"
	}
	return h
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
