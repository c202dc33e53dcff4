package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	SmartSearch SmartSearchConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type SmartSearchConfig struct {
	GatewayURL     string
	GatewayToken   string
	GatewayTimeout time.Duration
	DefaultSources []string
	WorkflowTTL    time.Duration
	EventsTopic    string // watermill topic for progress events
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		SmartSearch: SmartSearchConfig{
			GatewayURL:     getEnv("SMART_SEARCH_GATEWAY_URL", "http://localhost:8000"),
			GatewayToken:   getEnv("SMART_SEARCH_GATEWAY_TOKEN", ""),
			GatewayTimeout: time.Duration(getEnvAsInt("SMART_SEARCH_GATEWAY_TIMEOUT_SECONDS", 120)) * time.Second,
			DefaultSources: getEnvAsList("SMART_SEARCH_DEFAULT_SOURCES", []string{"pubmed"}),
			WorkflowTTL:    time.Duration(getEnvAsInt("SMART_SEARCH_WORKFLOW_TTL_MINUTES", 120)) * time.Minute,
			EventsTopic:    getEnv("SMART_SEARCH_EVENTS_TOPIC", "smart_search.progress"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
