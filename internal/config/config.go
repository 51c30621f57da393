package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	AIModeMock = "mock"
	AIModeLive = "live"
)

// S3Config holds object storage settings (S3-compatible endpoints supported).
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

// ProviderConfig describes one upstream chat-completions provider.
// The router only knows the two symbolic roles "fast" and "accurate";
// which vendor sits behind each role is decided here at startup.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

func (c ProviderConfig) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Config holds the full application configuration loaded from environment.
type Config struct {
	Env      string // local | staging | prod
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string
	DatabaseURLPooled string
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Per-IP rate limiting (outer guard; the per-user sliding window is
	// configured in the ratelimit package policies).
	RateLimitRPS   int
	RateLimitBurst int

	// Object storage
	S3 S3Config

	// Auth
	AuthRequired bool
	JWTSecret    string
	JWTIssuer    string

	// AI providers
	AIMode           string // mock | live
	FastProvider     ProviderConfig
	AccurateProvider ProviderConfig
	AITimeoutSeconds int

	// Embeddings
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string // text model family, stamped on every row

	// Background worker
	NATSURL          string // empty = run an embedded server
	WorkerQueueHighWater int

	// Request deadlines (seconds)
	RequestTimeoutSeconds   int
	ProgramGenTimeoutSeconds int

	// Migrations
	RunMigrationsOnStartup bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	if jwtSecret == "change_me" && env != "local" {
		log.Println("WARNING: JWT_SECRET is set to 'change_me' in non-local environment!")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "fitness-backend"
	}

	aiMode := strings.ToLower(strings.TrimSpace(os.Getenv("AI_MODE")))
	if aiMode == "" {
		aiMode = AIModeMock
	}
	if aiMode != AIModeMock && aiMode != AIModeLive {
		log.Printf("WARNING: unknown AI_MODE=%q, fallback to %s", aiMode, AIModeMock)
		aiMode = AIModeMock
	}

	fast := ProviderConfig{
		BaseURL: envOr("AI_FAST_BASE_URL", "https://api.groq.com/openai/v1"),
		APIKey:  os.Getenv("AI_FAST_API_KEY"),
	}
	accurate := ProviderConfig{
		BaseURL: envOr("AI_ACCURATE_BASE_URL", "https://openrouter.ai/api/v1"),
		APIKey:  os.Getenv("AI_ACCURATE_API_KEY"),
	}
	if aiMode == AIModeLive && !fast.IsConfigured() && !accurate.IsConfigured() {
		log.Println("WARNING: AI_MODE=live but no provider API keys are set; AI calls will fail")
	}

	embeddingModel := envOr("EMBEDDING_MODEL", "all-MiniLM-L6-v2")

	cfg := &Config{
		Env:      env,
		Port:     envInt("PORT", 8080),
		LogLevel: envOr("LOG_LEVEL", "debug"),

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		CORSAllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env),
		CORSAllowCredentials: parseBoolEnv("CORS_ALLOW_CREDENTIALS"),

		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 0),

		S3: S3Config{
			Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:   strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		},

		AuthRequired: parseBoolEnv("AUTH_REQUIRED"),
		JWTSecret:    jwtSecret,
		JWTIssuer:    jwtIssuer,

		AIMode:           aiMode,
		FastProvider:     fast,
		AccurateProvider: accurate,
		AITimeoutSeconds: envInt("AI_TIMEOUT_SECONDS", 60),

		EmbeddingBaseURL: envOr("EMBEDDING_BASE_URL", ""),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:   embeddingModel,

		NATSURL:              strings.TrimSpace(os.Getenv("NATS_URL")),
		WorkerQueueHighWater: envInt("WORKER_QUEUE_HIGH_WATER", 1000),

		RequestTimeoutSeconds:    envInt("REQUEST_TIMEOUT_SECONDS", 30),
		ProgramGenTimeoutSeconds: envInt("PROGRAM_GEN_TIMEOUT_SECONDS", 120),

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),
	}

	return cfg
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARNING: %s=%q is not an integer, using default %d", key, v, def)
		return def
	}
	return n
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

func parseCORSOrigins(raw string, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"*"}
		}
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
