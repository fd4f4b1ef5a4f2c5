package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthSecret string
	TokenTTL   time.Duration

	// Verification codes: "memory" or "redis".
	CodeStore string
	RedisAddr string
	CodeTTL   time.Duration

	// Email: "sendgrid" or "console".
	EmailDriver    string
	SendGridAPIKey string
	FromEmail      string
	FromName       string

	CORSOrigins []string
}

// FromEnv loads configuration from the environment. A .env file in the
// working directory is honoured when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		PublicURL:      strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          os.Getenv("DB_DSN"),
		AuthSecret:     os.Getenv("AUTH_HMAC_SECRET"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),
		CodeStore:      envOr("CODE_STORE", "memory"),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		CodeTTL:        envDuration("CODE_TTL", 10*time.Minute),
		EmailDriver:    envOr("EMAIL_DRIVER", "console"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      envOr("FROM_EMAIL", "noreply@modmark.local"),
		FromName:       envOr("FROM_NAME", "ModMark"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

// Validate rejects configurations that would otherwise degrade silently at
// request time. Missing credentials are a startup error, not a log line.
func (c Config) Validate() error {
	if c.AuthSecret == "" {
		return fmt.Errorf("AUTH_HMAC_SECRET is required")
	}
	if c.DBDriver == "postgres" && c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required when DB_DRIVER=postgres")
	}
	if c.EmailDriver == "sendgrid" && c.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_DRIVER=sendgrid")
	}
	switch c.CodeStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CODE_STORE: %s", c.CodeStore)
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
