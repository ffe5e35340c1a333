package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"synexis/internal/ask"
	"synexis/internal/auth"
	"synexis/internal/config"
	"synexis/internal/events"
	"synexis/internal/llm"
	"synexis/internal/logger"
	"synexis/internal/session"
	"synexis/internal/store"
)

// Deps bundles the runtime dependencies of the gateway.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Users    store.Store
	Sessions auth.SessionStore
	Auth     *auth.Service
	Events   events.Publisher
	Pipeline *ask.Pipeline
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Deps{}, err
	}
	return BuildWith(cfg, logger.New(cfg.LogLevel))
}

// BuildWith wires every component from an already loaded config. On error
// anything opened so far is closed.
func BuildWith(cfg config.Config, log *slog.Logger) (deps Deps, err error) {
	deps = Deps{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	if deps.Pipeline, err = BuildPipeline(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	if deps.Users, err = buildStore(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize store: %w", err)
	}
	if deps.Sessions, err = buildSessions(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize sessions: %w", err)
	}
	if deps.Events, err = buildEvents(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize events: %w", err)
	}
	deps.Auth = auth.NewService(deps.Users, deps.Sessions, cfg.SessionTTL)
	return deps, nil
}

// Close releases every backend that was opened.
func (d Deps) Close() {
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			d.Log.Warn("failed to close event publisher", "err", err)
		}
	}
	if d.Sessions != nil {
		if err := d.Sessions.Close(); err != nil {
			d.Log.Warn("failed to close session store", "err", err)
		}
	}
	if d.Users != nil {
		if err := d.Users.Close(); err != nil {
			d.Log.Warn("failed to close user store", "err", err)
		}
	}
}

// BuildPipeline wires the two answering providers and the judge.
func BuildPipeline(cfg config.Config, log *slog.Logger) (*ask.Pipeline, error) {
	opts := llm.Options{
		Timeout:   cfg.LLMTimeout,
		Retries:   cfg.LLMRetries,
		RetryBase: cfg.LLMRetryBase,
		RateLimit: cfg.LLMRateLimit,
		RateBurst: cfg.LLMRateBurst,
	}

	together, err := llm.NewOpenAIClient("together", cfg.TogetherBaseURL, cfg.TogetherKey, opts)
	if err != nil {
		return nil, fmt.Errorf("TOGETHER_API_KEY is required: %w", err)
	}
	llama, err := llm.NewOpenAIClient("openrouter", cfg.OpenRouterBaseURL, cfg.OpenRouterKey, opts)
	if err != nil {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required: %w", err)
	}
	judge, err := llm.NewOpenAIClient("judge", cfg.JudgeBaseURL, cfg.JudgeKey, opts)
	if err != nil {
		return nil, fmt.Errorf("JUDGE_API_KEY or OPENROUTER_API_KEY is required: %w", err)
	}
	log.Info("using LLM providers",
		"together_model", cfg.TogetherModel,
		"llama_model", cfg.LlamaModel,
		"judge_model", cfg.JudgeModel,
	)

	a := ask.Provider{
		Name:      "together",
		Title:     "Together AI",
		Client:    together,
		Model:     cfg.TogetherModel,
		MaxTokens: cfg.AnswerMaxTokens,
		Sentinel:  cfg.SentinelA,
	}
	b := ask.Provider{
		Name:      "llama",
		Title:     "LLaMA 3",
		Client:    llama,
		Model:     cfg.LlamaModel,
		MaxTokens: cfg.AnswerMaxTokens,
		Sentinel:  cfg.SentinelB,
	}
	arb := &ask.Arbiter{Client: judge, Model: cfg.JudgeModel, MaxTokens: cfg.JudgeMaxTokens}
	return ask.NewPipeline(a, b, arb, log), nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "sqlite":
		path := cfg.DBURL
		if path == "" {
			path = "synexis.db"
		}
		db, err := store.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		log.Info("using SQLite store", "path", path)
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: postgres, sqlite)", cfg.StoreProvider)
	}
}

func buildSessions(cfg config.Config, log *slog.Logger) (auth.SessionStore, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set; sessions are kept in memory and lost on restart")
		return session.NewMemoryStore(), nil
	}
	rs, err := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("using Redis sessions", "addr", cfg.RedisAddr)
	return rs, nil
}

func buildEvents(cfg config.Config, log *slog.Logger) (events.Publisher, error) {
	if cfg.QueueURL == "" {
		log.Info("QUEUE_URL not set; events are not published")
		return events.Noop{}, nil
	}
	p, err := ConnectEvents(cfg, log, "synexis-gateway")
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConnectEvents opens a NATS connection named name on QUEUE_URL.
func ConnectEvents(cfg config.Config, log *slog.Logger, name string) (*events.NATSPublisher, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("QUEUE_URL is required")
	}
	nc, err := nats.Connect(cfg.QueueURL, nats.Name(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS events", "name", name)
	return events.NewNATS(log, nc), nil
}
