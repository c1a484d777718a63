package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	HealthPath  string
	MetricsPath string

	Gen     GenConfig
	Remote  RemoteConfig
	Local   LocalConfig
	Redis   RedisConfig
	Session SessionConfig
	Rate    RateConfig
	Log     LogConfig
}

type GenConfig struct {
	APIKey string
	Model  string
}

type RemoteConfig struct {
	URL         string
	Key         string
	AutoMigrate bool
}

// Enabled reports whether both remote store values are present. Computed
// once at startup; the process never re-detects availability.
func (r RemoteConfig) Enabled() bool {
	return r.URL != "" && r.Key != ""
}

type LocalConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL time.Duration
}

type RateConfig struct {
	PerHour int64
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// A .env file is a development convenience, not a requirement.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  mustEnv("LISTEN_ADDR", ":8080"),
		HealthPath:  mustEnv("HEALTH_PATH", "/healthz"),
		MetricsPath: mustEnv("METRICS_PATH", "/metrics"),
		Gen: GenConfig{
			APIKey: mustEnv("GEMINI_API_KEY", ""),
			Model:  mustEnv("GEMINI_MODEL", "gemini-3-pro-preview"),
		},
		Remote: RemoteConfig{
			URL:         mustEnv("REMOTE_STORE_URL", ""),
			Key:         mustEnv("REMOTE_STORE_KEY", ""),
			AutoMigrate: mustBool("AUTO_MIGRATE", true),
		},
		Local: LocalConfig{
			Path: mustEnv("LOCAL_DB_PATH", "soulcare.db"),
		},
		Redis: RedisConfig{
			Addr:     mustEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: mustEnv("REDIS_PASSWORD", ""),
			DB:       mustInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL: mustDuration("SESSION_TTL", 12*time.Hour),
		},
		Rate: RateConfig{
			PerHour: int64(mustInt("RATE_LIMIT_PER_HOUR", 60)),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
		},
	}

	return cfg, nil
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustBool(key string, def bool) bool {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
