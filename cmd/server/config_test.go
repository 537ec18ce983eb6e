package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coderelay/internal/execute/controller"
	"coderelay/internal/execute/remote"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := loadAppConfig(missing, true, envMap(map[string]string{
		"JDOODLE_CLIENT_ID":     "client",
		"JDOODLE_CLIENT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Remote.Endpoint != remote.DefaultEndpoint || cfg.Remote.Timeout != remote.DefaultTimeout {
		t.Fatalf("unexpected remote config: %+v", cfg.Remote)
	}
	if cfg.Execute.MaxBodyBytes != controller.DefaultMaxBodyBytes {
		t.Fatalf("unexpected body limit: %d", cfg.Execute.MaxBodyBytes)
	}
	if cfg.Execute.RequireAuth || cfg.AuthEnabled() || cfg.Events.Enabled {
		t.Fatalf("optional features must default to off: %+v", cfg)
	}
	if !cfg.CORS.Enabled || len(cfg.CORS.AllowedOrigins) == 0 {
		t.Fatalf("expected default cors origins")
	}
	if cfg.Events.Topic != defaultEventsTopic {
		t.Fatalf("unexpected topic: %s", cfg.Events.Topic)
	}
}

func TestLoadAppConfigRequiresCredentials(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := loadAppConfig(missing, true, envMap(map[string]string{"JDOODLE_CLIENT_ID": "client"}))
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestLoadAppConfigMissingRequiredFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := loadAppConfig(missing, false, envMap(map[string]string{
		"JDOODLE_CLIENT_ID":     "client",
		"JDOODLE_CLIENT_SECRET": "secret",
	}))
	if err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadAppConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:8080"
remote:
  endpoint: "http://executor.local/v1/execute"
  timeout: 3s
  clientID: file-id
  clientSecret: file-secret
execute:
  maxBodyBytes: 2048
auth:
  jwtSecret: file-jwt
  tokenTTL: 24h
database:
  dsn: "user:pass@tcp(localhost:3306)/coderelay?parseTime=true"
redis:
  addr: "localhost:6379"
cors:
  allowedOrigins: ["https://app.example.com"]
`)
	cfg, err := loadAppConfig(path, false, envMap(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Remote.Timeout != 3*time.Second || cfg.Remote.Endpoint != "http://executor.local/v1/execute" {
		t.Fatalf("unexpected remote config: %+v", cfg.Remote)
	}
	if cfg.Credentials().ClientID != "file-id" {
		t.Fatalf("unexpected client id: %s", cfg.Credentials().ClientID)
	}
	if cfg.Execute.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected body limit: %d", cfg.Execute.MaxBodyBytes)
	}
	if !cfg.AuthEnabled() || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Redis.PoolSize == 0 || cfg.Redis.DialTimeout == 0 {
		t.Fatalf("expected redis defaults applied: %+v", cfg.Redis)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadAppConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
remote:
  clientID: file-id
  clientSecret: file-secret
`)
	cfg, err := loadAppConfig(path, false, envMap(map[string]string{
		"JDOODLE_CLIENT_ID":     "env-id",
		"JDOODLE_CLIENT_SECRET": "env-secret",
		"JWT_SECRET":            "env-jwt",
		"PORT":                  "9000",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Remote.ClientID != "env-id" || cfg.Remote.ClientSecret != "env-secret" {
		t.Fatalf("env credentials not applied")
	}
	if cfg.Auth.JWTSecret != "env-jwt" {
		t.Fatalf("env jwt secret not applied")
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
}

func TestValidateAppConfig(t *testing.T) {
	base := func() *AppConfig {
		cfg := &AppConfig{}
		cfg.Remote.ClientID = "id"
		cfg.Remote.ClientSecret = "secret"
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(cfg *AppConfig)
		wantErr string
	}{
		{name: "ok", mutate: func(cfg *AppConfig) {}},
		{
			name:    "auth without secret",
			mutate:  func(cfg *AppConfig) { cfg.Database.DSN = "dsn" },
			wantErr: "jwtSecret",
		},
		{
			name: "require auth without database",
			mutate: func(cfg *AppConfig) {
				cfg.Execute.RequireAuth = true
				cfg.Auth.JWTSecret = "jwt"
			},
			wantErr: "database.dsn",
		},
		{
			name:    "events without brokers",
			mutate:  func(cfg *AppConfig) { cfg.Events.Enabled = true },
			wantErr: "brokers",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := validateAppConfig(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateAppConfigDoesNotLeakSecret(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Remote.ClientSecret = "very-secret-value"
	err := validateAppConfig(cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "very-secret-value") {
		t.Fatalf("secret leaked in error: %v", err)
	}
}

func TestLoadAppConfigEvents(t *testing.T) {
	path := writeConfig(t, `
remote:
  clientID: id
  clientSecret: secret
events:
  enabled: true
  publishTimeout: 500ms
  queueSize: 16
  kafka:
    brokers: ["localhost:9092"]
    async: true
`)
	cfg, err := loadAppConfig(path, false, envMap(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Events.Enabled || cfg.Events.Topic != defaultEventsTopic {
		t.Fatalf("unexpected events config: %+v", cfg.Events)
	}
	if cfg.Events.PublishTimeout != 500*time.Millisecond || cfg.Events.QueueSize != 16 {
		t.Fatalf("unexpected queue settings: %+v", cfg.Events)
	}
	if !cfg.Events.Kafka.Async || len(cfg.Events.Kafka.Brokers) != 1 {
		t.Fatalf("unexpected kafka settings: %+v", cfg.Events.Kafka)
	}
}
