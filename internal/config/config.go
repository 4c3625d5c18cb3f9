package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App     AppConfig
	Server  ServerConfig
	Auth    AuthConfig
	Store   StoreConfig
	Steam   SteamConfig
	Refresh RefreshConfig
	Cache   CacheConfig
	Log     LogConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"skinledger"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"0.1.0"`
}

// ServerConfig holds HTTP and gRPC listener settings.
type ServerConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr        string        `envconfig:"GRPC_ADDR" default:":9090"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10m"` // refresh-all is serial and slow
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DevAPIToken is the API_TOKEN default, only accepted in development.
const DevAPIToken = "dev-token"

// AuthConfig holds the shared API token.
type AuthConfig struct {
	APIToken string `envconfig:"API_TOKEN" default:"dev-token"`
}

// StoreConfig selects and configures the investment store.
type StoreConfig struct {
	Driver     string `envconfig:"STORE_DRIVER" default:"memory"` // memory, sqlite or postgres
	ConnStr    string `envconfig:"DB_CONN_STR"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"postgres"`
	Password   string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name       string `envconfig:"DB_NAME" default:"skinledger"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/skinledger.db"`
	Migrate    bool   `envconfig:"DB_MIGRATE" default:"true"`
}

// SteamConfig configures the Steam Community Market price source.
type SteamConfig struct {
	BaseURL      string        `envconfig:"STEAM_BASE_URL" default:"https://steamcommunity.com/market/priceoverview/"`
	AppID        int           `envconfig:"STEAM_APP_ID" default:"730"`
	Currency     int           `envconfig:"STEAM_CURRENCY" default:"2"`
	CurrencyCode string        `envconfig:"STEAM_CURRENCY_CODE" default:"GBP"`
	Timeout      time.Duration `envconfig:"STEAM_TIMEOUT" default:"15s"`
	UserAgent    string        `envconfig:"STEAM_USER_AGENT" default:"skinledger/0.1"`
}

// RefreshConfig configures the refresh orchestrator and scheduler.
type RefreshConfig struct {
	Cooldown         time.Duration `envconfig:"REFRESH_COOLDOWN" default:"5s"`
	CallInterval     time.Duration `envconfig:"REFRESH_CALL_INTERVAL" default:"3s"`
	SchedulerEnabled bool          `envconfig:"REFRESH_SCHEDULER_ENABLED" default:"true"`
	ScheduleInterval time.Duration `envconfig:"REFRESH_SCHEDULE_INTERVAL" default:"1h"`
	RunOnStart       bool          `envconfig:"REFRESH_RUN_ON_START" default:"false"`
	Retention        time.Duration `envconfig:"PRICE_HISTORY_RETENTION" default:"2160h"` // 90 days
}

// CacheConfig configures the optional quote cache.
type CacheConfig struct {
	Type          string        `envconfig:"CACHE_TYPE" default:"none"` // none, memory or redis
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	MaxEntries    int           `envconfig:"CACHE_MAX_ENTRIES" default:"1000"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string        `envconfig:"REDIS_KEY_PREFIX" default:"skinledger:quote"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"` // console or json
}

// PostgresDSN returns DB_CONN_STR, or a DSN built from the individual DB_* settings.
func (s *StoreConfig) PostgresDSN() string {
	if s.ConnStr != "" {
		return s.ConnStr
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.Host, s.Port, s.User, s.Password, s.Name, s.SSLMode)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_TYPE %q", c.Cache.Type)
	}
	if c.Refresh.Cooldown < 0 || c.Refresh.CallInterval < 0 {
		return fmt.Errorf("refresh cooldown and call interval must not be negative")
	}
	if c.Refresh.SchedulerEnabled && c.Refresh.ScheduleInterval <= 0 {
		return fmt.Errorf("REFRESH_SCHEDULE_INTERVAL must be positive when the scheduler is enabled")
	}
	if !c.App.IsDevelopment() && (c.Auth.APIToken == "" || c.Auth.APIToken == DevAPIToken) {
		return fmt.Errorf("API_TOKEN must be set when APP_ENV is %q", c.App.Environment)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
