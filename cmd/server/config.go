package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"coderelay/internal/common/cache"
	"coderelay/internal/common/db"
	"coderelay/internal/common/http/middleware"
	"coderelay/internal/common/mq"
	"coderelay/internal/execute/controller"
	"coderelay/internal/execute/remote"
	"coderelay/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:5000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultEventsTopic     = "code.executions"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// RemoteConfig holds remote executor settings.
type RemoteConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	ClientID     string        `yaml:"clientID"`
	ClientSecret string        `yaml:"clientSecret"`
}

// ExecuteConfig holds execute endpoint settings.
type ExecuteConfig struct {
	RequireAuth  bool  `yaml:"requireAuth"`
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

// AuthConfig holds credential service settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwtSecret"`
	JWTIssuer      string        `yaml:"jwtIssuer"`
	TokenTTL       time.Duration `yaml:"tokenTTL"`
	LoginFailTTL   time.Duration `yaml:"loginFailTTL"`
	LoginFailLimit int           `yaml:"loginFailLimit"`
}

// EventsConfig holds execution audit event settings.
type EventsConfig struct {
	Enabled        bool           `yaml:"enabled"`
	Topic          string         `yaml:"topic"`
	PublishTimeout time.Duration  `yaml:"publishTimeout"`
	QueueSize      int            `yaml:"queueSize"`
	Kafka          mq.KafkaConfig `yaml:"kafka"`
}

// AppConfig holds the server configuration.
type AppConfig struct {
	Server   ServerConfig          `yaml:"server"`
	Logger   logger.Config         `yaml:"logger"`
	Remote   RemoteConfig          `yaml:"remote"`
	Execute  ExecuteConfig         `yaml:"execute"`
	Auth     AuthConfig            `yaml:"auth"`
	Database db.MySQLConfig        `yaml:"database"`
	Redis    cache.RedisConfig     `yaml:"redis"`
	CORS     middleware.CORSConfig `yaml:"cors"`
	Events   EventsConfig          `yaml:"events"`
}

// Credentials returns the remote executor credential pair.
func (c *AppConfig) Credentials() remote.Credentials {
	return remote.Credentials{ClientID: c.Remote.ClientID, ClientSecret: c.Remote.ClientSecret}
}

// AuthEnabled reports whether signup and login are served.
func (c *AppConfig) AuthEnabled() bool {
	return c.Database.DSN != ""
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads the YAML file, applies environment overrides and defaults,
// and validates the result. A missing file is tolerated when optional is true.
func loadAppConfig(path string, optional bool, getenv func(string) string) (*AppConfig, error) {
	cfg := AppConfig{CORS: middleware.DefaultCORSConfig()}
	if err := loadYAML(path, &cfg); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg, getenv)
	applyDefaults(&cfg)

	if err := validateAppConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv("JDOODLE_CLIENT_ID")); v != "" {
		cfg.Remote.ClientID = v
	}
	if v := strings.TrimSpace(getenv("JDOODLE_CLIENT_SECRET")); v != "" {
		cfg.Remote.ClientSecret = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Server.Addr = ":" + v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}

	if cfg.Remote.Endpoint == "" {
		cfg.Remote.Endpoint = remote.DefaultEndpoint
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = remote.DefaultTimeout
	}
	if cfg.Execute.MaxBodyBytes <= 0 {
		cfg.Execute.MaxBodyBytes = controller.DefaultMaxBodyBytes
	}

	if cfg.Redis.Addr != "" {
		applyRedisDefaults(&cfg.Redis)
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaultEventsTopic
	}
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
}

func validateAppConfig(cfg *AppConfig) error {
	if !cfg.Credentials().Valid() {
		return fmt.Errorf("remote executor credentials are required (JDOODLE_CLIENT_ID and JDOODLE_CLIENT_SECRET)")
	}
	if (cfg.AuthEnabled() || cfg.Execute.RequireAuth) && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret (or JWT_SECRET) is required when auth is enabled")
	}
	if cfg.Execute.RequireAuth && !cfg.AuthEnabled() {
		return fmt.Errorf("execute.requireAuth needs database.dsn so that users can sign up")
	}
	if cfg.Events.Enabled && len(cfg.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers are required when events are enabled")
	}
	return nil
}
