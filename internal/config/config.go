package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the summarizer services.
type Config struct {
	// Server
	Port       int    `env:"PORT" envDefault:"8000"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8081"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Local model
	ModelName       string        `env:"MODEL_NAME" envDefault:"t5-small"`
	LocalRuntimeURL string        `env:"LOCAL_RUNTIME_URL" envDefault:"http://127.0.0.1:8090"`
	LocalRuntimeKey string        `env:"LOCAL_RUNTIME_KEY" envDefault:"local"`
	LocalDevice     string        `env:"LOCAL_DEVICE" envDefault:"cpu"`
	LocalSerialize  bool          `env:"LOCAL_SERIALIZE" envDefault:"true"` // one generation in flight
	ProbeTimeout    time.Duration `env:"PROBE_TIMEOUT" envDefault:"2m"`

	// Remote fallback
	FallbackModel  string        `env:"FALLBACK_MODEL" envDefault:"sshleifer/distilbart-cnn-12-6"`
	HuggingFaceKey string        `env:"HUGGINGFACE_API_KEY"`
	InferenceBase  string        `env:"HF_INFERENCE_BASE_URL" envDefault:"https://api-inference.huggingface.co"`
	RemoteTimeout  time.Duration `env:"REMOTE_TIMEOUT" envDefault:"0s"` // 0 means no timeout

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"none"` // "none" or "postgres"
	DBURL         string `env:"DB_URL"`

	// Rate limiting
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"` // 0 disables limiting
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`

	// Queue
	QueueURL     string `env:"QUEUE_URL"`
	QueueSubject string `env:"QUEUE_SUBJECT" envDefault:"summarize"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
