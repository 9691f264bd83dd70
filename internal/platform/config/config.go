package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; defaults suit local development.
type Config struct {
	Addr    string
	BaseURL string

	DatabaseURL string
	RedisAddr   string

	AuthJWTSecret      string
	SigningTokenSecret string
	SigningTokenTTL    time.Duration
	RequestExpiry      time.Duration
	PresignTTL         time.Duration

	BlobDir           string
	BlobSigningSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	KafkaBrokers    string
	KafkaAuditTopic string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               envOr("SIGNET_ADDR", ":8080"),
		BaseURL:            envOr("SIGNET_BASE_URL", "http://localhost:8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		AuthJWTSecret:      envOr("AUTH_JWT_SECRET", "dev-secret-key-change-in-production"),
		SigningTokenSecret: envOr("SIGNING_TOKEN_SECRET", "dev-signing-secret-change-in-production"),
		SigningTokenTTL:    envDurationOr("SIGNING_TOKEN_TTL", 30*24*time.Hour),
		RequestExpiry:      envDurationOr("REQUEST_EXPIRY", 30*24*time.Hour),
		PresignTTL:         envDurationOr("PRESIGN_TTL", time.Hour),
		BlobDir:            envOr("BLOB_DIR", "./data/blobs"),
		BlobSigningSecret:  envOr("BLOB_SIGNING_SECRET", "dev-blob-secret-change-in-production"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           envIntOr("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		MailFrom:           envOr("MAIL_FROM", "no-reply@signet.local"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaAuditTopic:    envOr("KAFKA_AUDIT_TOPIC", "signet.audit"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
