// Package app is the composition root: it reads configuration, builds
// every client/repo/service/worker, and wires them together exactly the
// way spec.md §2's data-flow diagram lays out. Nothing outside this
// package constructs a concrete type from more than one layer below it.
package app

import (
	"fmt"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/envutil"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

// Config is the layered configuration object spec.md §9 describes:
// "connection strings, per-provider credentials and models, concurrency
// and retry knobs, batch sizes, idle/active intervals, thresholds...,
// schedule times..., admin identity, timezone offset, mode & language
// defaults. Unknown keys are ignored; missing required keys abort
// startup with a clear diagnostic."
type Config struct {
	LogMode string

	// LLM / embedding / rerank provider credentials.
	OpenAIAPIKey        string
	OpenAIChatModel     string
	OpenAIEmbedModel    string
	OpenAIBaseURL       string
	UncensoredAPIKey    string
	UncensoredModel     string
	UncensoredBaseURL   string
	CohereRerankAPIKey  string
	CohereRerankModel   string
	RerankEnabled       bool

	// Optional secondary backends.
	RedisAddr         string
	DashboardChannel  string
	Neo4jEnabled      bool

	// Queue tuning shared across every queue (spec.md §4.1's contract is
	// identical for all five tables; per-queue overrides are not named in
	// spec.md, so one shared knob set is the faithful reading).
	QueueMaxAttempts    int
	QueueBaseRetryDelay time.Duration
	QueueMaxRetryDelay  time.Duration
	QueueLeaseTimeout   time.Duration

	// Retrieval thresholds.
	VectorTopK  int
	LexicalTopL int
	RerankTopM  int
	ScoreFloor  float64
	TokenBudget int

	// Ingestion / indexing / profile thresholds.
	MinMessageLength  int
	ProfileMinMessages int
	MaxPendingPerQueue int64

	// Schedule times, UTC hour/minute (spec.md §9).
	DailySummaryHour   int
	DailySummaryMinute int
	NightlyProfileHour int
	NightlyProfileMin  int

	// Admin identity (spec.md §9).
	AdminUserID   int64
	AdminUsername string

	// Mode & language defaults (spec.md §9).
	DefaultMode     string
	DefaultLanguage string
	DefaultLLMTag   string

	// HTTP surface (health + dashboard; chat transport itself is out of
	// scope per spec.md §1).
	HTTPAddr        string
	JWTSecretKey    string
	JWTTokenTTL     time.Duration
	// Bcrypt hash of the dashboard admin password. When set, the dashboard
	// token is obtained through POST /auth/login instead of being minted
	// and logged at startup.
	AdminPasswordHash string
}

// Load reads every configuration knob from the environment. It never
// panics on an optional key; required keys that are missing return an
// error describing exactly which one, per spec.md §9's "missing required
// keys abort startup with a clear diagnostic."
func Load() (Config, error) {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development"),

		OpenAIChatModel:  envutil.String("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAIBaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		UncensoredModel:  envutil.String("UNCENSORED_MODEL", ""),
		UncensoredBaseURL: envutil.String("UNCENSORED_BASE_URL", ""),
		CohereRerankModel: envutil.String("COHERE_RERANK_MODEL", ""),
		RerankEnabled:     envutil.Bool("RERANK_ENABLED", false),

		RedisAddr:        envutil.String("REDIS_ADDR", ""),
		DashboardChannel: envutil.String("DASHBOARD_CHANNEL", "chatcortex_dashboard"),
		Neo4jEnabled:     envutil.String("NEO4J_URI", "") != "",

		QueueMaxAttempts:    envutil.Int("QUEUE_MAX_ATTEMPTS", 5),
		QueueBaseRetryDelay: envutil.Duration("QUEUE_BASE_RETRY_DELAY", 2*time.Second),
		QueueMaxRetryDelay:  envutil.Duration("QUEUE_MAX_RETRY_DELAY", 5*time.Minute),
		QueueLeaseTimeout:   envutil.Duration("QUEUE_LEASE_TIMEOUT", 2*time.Minute),

		VectorTopK:  envutil.Int("RETRIEVAL_VECTOR_TOPK", 60),
		LexicalTopL: envutil.Int("RETRIEVAL_LEXICAL_TOPL", 60),
		RerankTopM:  envutil.Int("RETRIEVAL_RERANK_TOPM", 40),
		ScoreFloor:  envutil.Float("RETRIEVAL_SCORE_FLOOR", 0.2),
		TokenBudget: envutil.Int("RETRIEVAL_TOKEN_BUDGET", 4000),

		MinMessageLength:   envutil.Int("MIN_MESSAGE_LENGTH", 6),
		ProfileMinMessages: envutil.Int("PROFILE_MIN_MESSAGES", 20),
		MaxPendingPerQueue: int64(envutil.Int("MAX_PENDING_PER_QUEUE", 500)),

		DailySummaryHour:   envutil.Int("DAILY_SUMMARY_HOUR_UTC", 18),
		DailySummaryMinute: envutil.Int("DAILY_SUMMARY_MINUTE_UTC", 0),
		NightlyProfileHour: envutil.Int("NIGHTLY_PROFILE_HOUR_UTC", 3),
		NightlyProfileMin:  envutil.Int("NIGHTLY_PROFILE_MINUTE_UTC", 0),

		AdminUsername: envutil.String("ADMIN_USERNAME", ""),

		DefaultMode:     envutil.String("DEFAULT_MODE", "text"),
		DefaultLanguage: envutil.String("DEFAULT_LANGUAGE", "ru"),
		DefaultLLMTag:   envutil.String("DEFAULT_LLM_TAG", "openai"),

		HTTPAddr:          envutil.String("HTTP_ADDR", ":8080"),
		JWTTokenTTL:       envutil.Duration("JWT_TOKEN_TTL", time.Hour),
		AdminPasswordHash: envutil.String("ADMIN_PASSWORD_HASH", ""),
	}

	var missing []string

	if v, ok := envutil.Required("OPENAI_API_KEY"); ok {
		cfg.OpenAIAPIKey = v
	} else {
		missing = append(missing, "OPENAI_API_KEY")
	}

	cfg.UncensoredAPIKey = envutil.String("UNCENSORED_API_KEY", "")
	cfg.CohereRerankAPIKey = envutil.String("COHERE_RERANK_API_KEY", "")
	if cfg.RerankEnabled && cfg.CohereRerankAPIKey == "" {
		missing = append(missing, "COHERE_RERANK_API_KEY (required when RERANK_ENABLED=true)")
	}

	if v, ok := envutil.Required("ADMIN_USER_ID"); ok {
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			missing = append(missing, "ADMIN_USER_ID (not a valid integer)")
		} else {
			cfg.AdminUserID = id
		}
	} else {
		missing = append(missing, "ADMIN_USER_ID")
	}

	if v, ok := envutil.Required("JWT_SECRET_KEY"); ok {
		cfg.JWTSecretKey = v
	} else {
		missing = append(missing, "JWT_SECRET_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("app: missing required configuration: %v", missing)
	}

	return cfg, nil
}

// queueConfig builds the shared queue.Config for one table/channel pair.
func (c Config) queueConfig(table, queueName string) queue.Config {
	return queue.Config{
		Table:          table,
		QueueName:      queueName,
		MaxAttempts:    c.QueueMaxAttempts,
		BaseRetryDelay: c.QueueBaseRetryDelay,
		MaxRetryDelay:  c.QueueMaxRetryDelay,
		LeaseTimeout:   c.QueueLeaseTimeout,
	}
}

// LoggerFromConfig builds the process logger from an already-loaded Config,
// for callers (cmd/main.go) that need a logger before constructing the rest
// of the app.
func LoggerFromConfig(cfg Config) (*logger.Logger, error) {
	return logger.New(cfg.LogMode)
}
