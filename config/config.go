package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath      string
	DatabaseURL string // when set, Postgres is used instead of SQLite
	LogLevel    string

	Session   SessionConfig
	Fetch     FetchConfig
	Proxy     ProxyConfig
	Export    ExportConfig
	Providers map[string]*ProviderConfig

	WeightsPath string
	MaxResults  int
}

type SessionConfig struct {
	TTL         time.Duration
	JanitorCron string
	Interval    time.Duration
}

type FetchConfig struct {
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

type ProxyConfig struct {
	URL string
}

type ExportConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Uploads are optional; without a bucket exports stay local.
func (e ExportConfig) Enabled() bool { return e.Bucket != "" }

type ProviderConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // mock, feed, html
	Priority    int    `yaml:"priority"`
	Endpoint    string `yaml:"endpoint"`
	Country     string `yaml:"country"`
	RateLimitMS int    `yaml:"rate_limit_ms"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "sessions.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Session: SessionConfig{
			TTL:         getEnvDuration("SESSION_TTL", time.Hour),
			JanitorCron: os.Getenv("JANITOR_CRON"),
			Interval:    getEnvDuration("JANITOR_INTERVAL", 0),
		},
		Fetch: FetchConfig{
			MaxRetries: getEnvInt("FETCH_MAX_RETRIES", 2),
			Backoff:    getEnvDuration("FETCH_BACKOFF", 500*time.Millisecond),
			Timeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		Export: ExportConfig{
			Bucket:          os.Getenv("EXPORT_S3_BUCKET"),
			Region:          getEnv("EXPORT_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("EXPORT_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("EXPORT_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("EXPORT_S3_SECRET_ACCESS_KEY"),
		},
		WeightsPath: os.Getenv("WEIGHTS_PATH"),
		MaxResults:  getEnvInt("MAX_RESULTS", 10),
		Providers:   make(map[string]*ProviderConfig),
	}

	if err := cfg.loadProviderConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadProviderConfigs() error {
	configDir := getEnv("PROVIDERS_DIR", "config/providers")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var provider ProviderConfig
		if err := yaml.Unmarshal(data, &provider); err != nil {
			return err
		}

		c.Providers[provider.ID] = &provider
	}

	return nil
}

// ProvidersByPriority returns provider configs ordered by ascending
// priority, ties broken by id. Dedupe during fetch keeps the first
// occurrence in this order.
func (c *Config) ProvidersByPriority() []*ProviderConfig {
	out := make([]*ProviderConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
