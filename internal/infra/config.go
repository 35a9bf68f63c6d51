package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
// Exactly one transform backend must be configured: the agent platform
// (AGENT_BASE_URL + AGENT_ID) or direct Gemini (GEMINI_API_KEY).
type Config struct {
	AppEnv           string
	Port             string
	AgentBaseURL     string
	AgentAPIKey      string
	AgentID          string
	GeminiAPIKey     string
	GeminiModel      string
	DatabaseURL      string
	StoragePath      string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		AgentBaseURL:     os.Getenv("AGENT_BASE_URL"),
		AgentAPIKey:      os.Getenv("AGENT_API_KEY"),
		AgentID:          os.Getenv("AGENT_ID"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		AllowedOrigins:   splitEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.AgentBaseURL != "" && cfg.AgentID == "" {
		return nil, fmt.Errorf("AGENT_ID is required when AGENT_BASE_URL is set")
	}

	if !cfg.UseAgentPlatform() && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("either AGENT_BASE_URL and AGENT_ID or GEMINI_API_KEY is required")
	}

	return cfg, nil
}

// UseAgentPlatform reports whether the remote agent platform backend is
// configured. When false the service falls back to direct Gemini.
func (c *Config) UseAgentPlatform() bool {
	return c.AgentBaseURL != "" && c.AgentID != ""
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

func splitEnv(key, fallback string) []string {
	parts := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
