package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the API server.
type Config struct {
	ListenAddr  string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	TelegramToken    string
	ReminderInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:         parseHours(os.Getenv("TOKEN_TTL_HOURS")),
		OpenAIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:      envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ReminderInterval: parseHours(os.Getenv("REMINDER_INTERVAL_HOURS")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskhub.db"
	}

	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.OpenAIKey == "" {
		return cfg, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseHours(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
