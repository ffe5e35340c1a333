package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the gateway and the ask CLI.
type Config struct {
	// Server
	Port           int      `env:"PORT" envDefault:"5000"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Provider A (Together)
	TogetherKey     string `env:"TOGETHER_API_KEY"`
	TogetherBaseURL string `env:"TOGETHER_BASE_URL" envDefault:"https://api.together.xyz/v1"`
	TogetherModel   string `env:"TOGETHER_MODEL" envDefault:"mistralai/Mixtral-8x7B-Instruct-v0.1"`

	// Provider B (OpenRouter)
	OpenRouterKey     string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	LlamaModel        string `env:"LLAMA_MODEL" envDefault:"meta-llama/llama-3-70b-instruct"`

	// Judge; key and base URL fall back to OpenRouter when unset.
	JudgeKey     string `env:"JUDGE_API_KEY"`
	JudgeBaseURL string `env:"JUDGE_BASE_URL"`
	JudgeModel   string `env:"JUDGE_MODEL" envDefault:"meta-llama/llama-3-70b-instruct"`

	AnswerMaxTokens int64  `env:"ANSWER_MAX_TOKENS" envDefault:"512"`
	JudgeMaxTokens  int64  `env:"JUDGE_MAX_TOKENS" envDefault:"256"`
	SentinelA       string `env:"PROVIDER_A_SENTINEL" envDefault:"Error from Together.ai"`
	SentinelB       string `env:"PROVIDER_B_SENTINEL" envDefault:"Error from LLaMA"`

	// Outbound call hardening. Zero values keep calls unbounded and single-shot.
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`
	LLMRetries   int           `env:"LLM_RETRIES" envDefault:"0"`
	LLMRetryBase time.Duration `env:"LLM_RETRY_BASE" envDefault:"200ms"`
	LLMRateLimit float64       `env:"LLM_RATE_LIMIT" envDefault:"0"` // requests per second per provider, 0 = unlimited
	LLMRateBurst int           `env:"LLM_RATE_BURST" envDefault:"1"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" or "sqlite"
	DBURL         string `env:"DB_URL"`

	// Sessions
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	AuthRequired  bool          `env:"AUTH_REQUIRED" envDefault:"true"`

	// Events
	QueueURL  string `env:"QUEUE_URL"`
	TallyPort int    `env:"TALLY_PORT" envDefault:"5001"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	if cfg.JudgeKey == "" {
		cfg.JudgeKey = cfg.OpenRouterKey
	}
	if cfg.JudgeBaseURL == "" {
		cfg.JudgeBaseURL = cfg.OpenRouterBaseURL
	}
	return cfg
}
