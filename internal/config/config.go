package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ConfigurationError marks a missing or malformed deployment setting. It is
// kept distinct from request validation failures so operators can tell a
// misconfigured deployment from a bad request.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// CasdoorConfig holds the identity provider connection settings.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// Empty disables the Kafka publisher; events go to an in-process channel.
	KafkaBrokers []string

	Casdoor CasdoorConfig

	// Base URL the invitee is redirected to for setting a password.
	InviteRedirectURL string

	// Migration shim: grants manage-users to this address regardless of the
	// stored role. Empty disables the bypass.
	SuperAdminEmail string
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: getEnv("CASDOOR_ORGANIZATION", "curricula"),
			Application:  getEnv("CASDOOR_APPLICATION", "access-service"),
		},
		InviteRedirectURL: getEnv("INVITE_REDIRECT_URL", ""),
		SuperAdminEmail:   os.Getenv("SUPER_ADMIN_EMAIL"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, &ConfigurationError{Setting: "DATABASE_URL", Reason: "is not set"}
	}
	if cfg.Casdoor.Endpoint == "" {
		return nil, &ConfigurationError{Setting: "CASDOOR_ENDPOINT", Reason: "is not set"}
	}
	if cfg.Casdoor.ClientID == "" {
		return nil, &ConfigurationError{Setting: "CASDOOR_CLIENT_ID", Reason: "is not set"}
	}
	if cfg.Casdoor.ClientSecret == "" {
		return nil, &ConfigurationError{Setting: "CASDOOR_CLIENT_SECRET", Reason: "is not set"}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
