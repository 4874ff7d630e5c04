package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Credit ledger knobs. The welcome amount may be zero to disable the
	// signup grant entirely; the threshold gates the daily top-up inside the
	// grant procedure.
	WelcomeCreditAmount   int
	DailyFreeCreditAmount int
	LowBalanceThreshold   int
	MaxCatchUpPerRead     int

	GenAPIKey     string
	GenAPIBaseURL string

	StripeWebhookSecret string

	ReconcilerSchedule  string
	ReconcilerBatchSize int

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		WelcomeCreditAmount:   getEnvInt("WELCOME_CREDIT_AMOUNT", 100),
		DailyFreeCreditAmount: getEnvInt("DAILY_FREE_CREDIT_AMOUNT", 5),
		LowBalanceThreshold:   getEnvInt("DAILY_GRANT_BALANCE_THRESHOLD", 10),
		MaxCatchUpPerRead:     getEnvInt("MAX_CATCHUP_MONTHS_PER_READ", 12),
		GenAPIKey:             os.Getenv("GENAPI_KEY"),
		GenAPIBaseURL:         os.Getenv("GENAPI_BASE_URL"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ReconcilerSchedule:    getEnv("RECONCILER_SCHEDULE", "17 * * * *"),
		ReconcilerBatchSize:   getEnvInt("RECONCILER_BATCH_SIZE", 200),
		CORSAllowedOrigins:    splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.WelcomeCreditAmount < 0 {
		return nil, fmt.Errorf("WELCOME_CREDIT_AMOUNT must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
