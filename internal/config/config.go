package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

// Config contains runtime configuration values. Loaded once at process
// start and treated as immutable afterwards.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	FacebookGraphURL   string
	FacebookAdminToken string

	HasuraURL         string
	HasuraAdminSecret string

	JWTSecret  string
	SessionTTL time.Duration

	UpstreamTimeout time.Duration

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ServiceName:          getEnv("SERVICE_NAME", "graphql-authoriser"),
		FacebookGraphURL:     getEnv("FB_GRAPH_URL", "https://graph.facebook.com"),
		FacebookAdminToken:   os.Getenv("FB_ACCESS_TOKEN"),
		HasuraURL:            os.Getenv("HASURA_API_URL"),
		HasuraAdminSecret:    os.Getenv("HASURA_ADMIN_SECRET"),
		JWTSecret:            os.Getenv("JWT_KEY"),
		SessionTTL:           getDuration("TOKEN_TTL", domain.DefaultSessionTTL),
		UpstreamTimeout:      getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.FacebookAdminToken == "" {
		return Config{}, fmt.Errorf("FB_ACCESS_TOKEN is required")
	}
	if cfg.HasuraURL == "" {
		return Config{}, fmt.Errorf("HASURA_API_URL is required")
	}
	if cfg.HasuraAdminSecret == "" {
		return Config{}, fmt.Errorf("HASURA_ADMIN_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_KEY is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = domain.DefaultSessionTTL
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
