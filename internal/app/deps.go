package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"text-summarizer/internal/backend"
	"text-summarizer/internal/config"
	"text-summarizer/internal/logger"
	"text-summarizer/internal/queue"
	"text-summarizer/internal/ratelimit"
	"text-summarizer/internal/remote"
	"text-summarizer/internal/seq2seq"
	"text-summarizer/internal/store"
	"text-summarizer/internal/summarizer"
)

// Deps bundles the runtime dependencies shared by the API and the worker.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Backend    backend.Result
	Summarizer *summarizer.Summarizer
	Store      store.Store
	Limiter    ratelimit.Limiter
}

// Build loads env and config, probes the local model once and wires the
// summarizer with its supporting components.
func Build(ctx context.Context) (Deps, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return Deps{}, err
	}

	probe := probeLocal(ctx, cfg, log)
	rc := remote.NewConfig(cfg.InferenceBase, cfg.FallbackModel, cfg.HuggingFaceKey, cfg.RemoteTimeout)
	if cfg.HuggingFaceKey == "" {
		log.Warn("HUGGINGFACE_API_KEY is not set; remote inference will be rejected")
	}

	st, err := buildStore(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	lim, err := buildLimiter(cfg, log)
	if err != nil {
		st.Close()
		return Deps{}, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	return Deps{
		Config:     cfg,
		Log:        log,
		Backend:    probe,
		Summarizer: summarizer.FromProbe(probe, remote.NewClient(rc), log),
		Store:      st,
		Limiter:    lim,
	}, nil
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel), nil
}

// Close releases connections held by d.
func (d Deps) Close() error {
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if d.Limiter != nil {
		errs = append(errs, d.Limiter.Close())
	}
	return errors.Join(errs...)
}

func probeLocal(ctx context.Context, cfg config.Config, log *slog.Logger) backend.Result {
	ctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	device, err := seq2seq.ParseDevice(cfg.LocalDevice)
	if err != nil {
		// Left as given; the loader rejects it and the probe logs why.
		device = seq2seq.Device(cfg.LocalDevice)
	}
	loader := seq2seq.NewRuntimeLoader(cfg.LocalRuntimeURL, cfg.LocalRuntimeKey)
	return backend.Probe(ctx, loader, backend.Options{
		ModelID:   cfg.ModelName,
		Device:    device,
		Serialize: cfg.LocalSerialize,
	}, log)
}

func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "", "none":
		return store.NewNoOp(), nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres event log")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: none, postgres)", cfg.StoreProvider)
	}
}

func buildLimiter(cfg config.Config, log *slog.Logger) (ratelimit.Limiter, error) {
	if cfg.RateLimitPerMinute <= 0 {
		return ratelimit.NoOp{}, nil
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_PER_MINUTE > 0")
	}
	lim, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	log.Info("using Redis rate limiter", "per_minute", cfg.RateLimitPerMinute)
	return lim, nil
}

// BuildQueue connects to NATS for the summarize subject.
func BuildQueue(cfg config.Config, log *slog.Logger, name string) (queue.Queue, func(), error) {
	if cfg.QueueURL == "" {
		return nil, nil, fmt.Errorf("QUEUE_URL is required")
	}
	nc, err := queue.Connect(cfg.QueueURL, name, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue", "subject", cfg.QueueSubject)
	return queue.NewNATS(log, nc, cfg.QueueSubject), nc.Close, nil
}
