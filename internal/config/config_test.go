package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:                   "8081",
		ShutdownTimeout:        10 * time.Second,
		MaxUploadBytes:         6 << 20,
		APIBaseURL:             "http://localhost:8000/api",
		SessionBackend:         "memory",
		SessionTTL:             24 * time.Hour,
		SessionCacheSize:       100,
		SessionCleanupInterval: time.Minute,
		RateLimitPerMinute:     60,
		LogLevel:               "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			mutate: func(c *Config) {
				c.SessionBackend = "sqlite"
				c.SessionDBPath = "./sessions.db"
				c.TrustedProxies = []string{"10.0.0.0/8", "127.0.0.1"}
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty API base URL",
			mutate:      func(c *Config) { c.APIBaseURL = "" },
			wantErr:     true,
			errorString: "API base URL cannot be empty",
		},
		{
			name:        "API base URL with wrong scheme",
			mutate:      func(c *Config) { c.APIBaseURL = "ftp://backend" },
			wantErr:     true,
			errorString: "invalid API base URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "invalid session backend",
			mutate:      func(c *Config) { c.SessionBackend = "redis" },
			wantErr:     true,
			errorString: "invalid session backend 'redis': must be one of [memory sqlite]",
		},
		{
			name: "sqlite backend missing database path",
			mutate: func(c *Config) {
				c.SessionBackend = "sqlite"
				c.SessionDBPath = ""
			},
			wantErr:     true,
			errorString: "session database path cannot be empty when using sqlite backend",
		},
		{
			name:        "memory backend without capacity",
			mutate:      func(c *Config) { c.SessionCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid session cache size 0: must be at least 1",
		},
		{
			name:        "session ttl too short",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session ttl 1s: must be at least 1 minute",
		},
		{
			name:        "rate limit zero",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0: must be at least 1 request per minute",
		},
		{
			name:        "bad trusted proxy",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"not-an-ip"} },
			wantErr:     true,
			errorString: "invalid trusted proxy 'not-an-ip': must be an IP or CIDR",
		},
		{
			name:        "upload cap below image limit",
			mutate:      func(c *Config) { c.MaxUploadBytes = 1024 },
			wantErr:     true,
			errorString: "invalid max upload bytes 1024: must be at least 1 MB",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.SessionBackend = "redis"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:\n- ") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if strings.Count(msg, "\n- ") != 2 {
		t.Errorf("expected two listed problems, got %q", msg)
	}
}

func TestConfig_ValidateCreatesSessionDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := validConfig()
	cfg.SessionBackend = "sqlite"
	cfg.SessionDBPath = filepath.Join(dir, "sessions.db")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected directory %s to be created: %v", dir, err)
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{
		"PORT", "API_BASE_URL", "SESSION_BACKEND", "SESSION_TTL", "SESSION_CACHE_SIZE",
		"COOKIE_SECURE", "RATE_LIMIT_PER_MINUTE", "TRUSTED_PROXIES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.SessionBackend != "memory" {
			t.Errorf("Load() SessionBackend = %v, want memory", cfg.SessionBackend)
		}
		if cfg.SessionTTL != 7*24*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 168h", cfg.SessionTTL)
		}
		if cfg.CookieSecure {
			t.Error("Load() CookieSecure = true, want false")
		}
		if len(cfg.TrustedProxies) != 0 {
			t.Errorf("Load() TrustedProxies = %v, want none", cfg.TrustedProxies)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("API_BASE_URL", "https://finance.example.com/api")
		t.Setenv("SESSION_TTL", "2h")
		t.Setenv("COOKIE_SECURE", "true")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 192.168.0.0/16")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.APIBaseURL != "https://finance.example.com/api" {
			t.Errorf("Load() APIBaseURL = %v", cfg.APIBaseURL)
		}
		if cfg.SessionTTL != 2*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 2h", cfg.SessionTTL)
		}
		if !cfg.CookieSecure {
			t.Error("Load() CookieSecure = false, want true")
		}
		if cfg.RateLimitPerMinute != 30 {
			t.Errorf("Load() RateLimitPerMinute = %v, want 30", cfg.RateLimitPerMinute)
		}
		if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.0.0/16" {
			t.Errorf("Load() TrustedProxies = %v", cfg.TrustedProxies)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "forever")
		t.Setenv("SESSION_CACHE_SIZE", "lots")
		t.Setenv("COOKIE_SECURE", "maybe")

		cfg := Load()

		if cfg.SessionTTL != 7*24*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want default", cfg.SessionTTL)
		}
		if cfg.SessionCacheSize != 10000 {
			t.Errorf("Load() SessionCacheSize = %v, want 10000", cfg.SessionCacheSize)
		}
		if cfg.CookieSecure {
			t.Error("Load() CookieSecure should fall back to false")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
