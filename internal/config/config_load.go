package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:            "0.0.0.0",
			Port:            8790,
			MaxMessageChars: 2000,
			RateLimitRPM:    60,
		},
		Maps: MapsConfig{
			GeocodeTTLDays:    30,
			PlacesTTLDays:     7,
			PageDelayMillis:   2000,
			RequestTimeoutSec: 30,
		},
		Providers: ProvidersConfig{
			Default: "anthropic",
		},
		Tools: ToolsConfig{
			Web: WebToolsConfig{
				DDGEnabled:      true,
				DDGMaxResults:   5,
				CacheTTLSeconds: 3600,
			},
		},
		Sessions: SessionsConfig{
			Backend:     "file",
			Storage:     "~/.xia/sessions",
			ExpiryHours: 24,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "~/.xia/inventory.db",
		},
		Cron: CronConfig{
			Expression: "*/5 * * * *",
			MaxRetries: 3,
		},
		Rules: RulesConfig{
			Path: "rules.json5",
		},
		Xia: XiaConfig{
			RankingBatchSize:   15,
			RateLimitMessages:  50,
			RateLimitWindowMin: 15,
			HoldExpiryMinutes:  10,
			QuestionAttemptCap: 2,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values and are the ONLY source for secrets.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("XIA_MAPS_API_KEY", &c.Maps.APIKey)
	envStr("XIA_MAPS_BASE_URL", &c.Maps.BaseURL)

	envStr("XIA_ANTHROPIC_API_KEY", &c.Providers.AnthropicKey)
	envStr("XIA_OPENAI_API_KEY", &c.Providers.OpenAIKey)
	envStr("XIA_DASHSCOPE_API_KEY", &c.Providers.DashscopeKey)
	envStr("XIA_PROVIDER", &c.Providers.Default)
	envStr("XIA_FALLBACK_MODEL", &c.Providers.FallbackModel)

	envStr("XIA_BRAVE_API_KEY", &c.Tools.Web.BraveAPIKey)
	if c.Tools.Web.BraveAPIKey != "" {
		c.Tools.Web.BraveEnabled = true
	}

	envStr("XIA_GATEWAY_TOKEN", &c.Gateway.Token)
	envStr("XIA_HOST", &c.Gateway.Host)
	if v := os.Getenv("XIA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Gateway.Port = port
		}
	}
	if v := os.Getenv("XIA_ALLOWED_ORIGINS"); v != "" {
		c.Gateway.AllowedOrigins = strings.Split(v, ",")
	}

	envStr("XIA_SESSIONS_STORAGE", &c.Sessions.Storage)
	envStr("XIA_SESSIONS_BACKEND", &c.Sessions.Backend)

	envStr("XIA_POSTGRES_DSN", &c.Database.PostgresDSN)
	if c.Database.PostgresDSN != "" {
		c.Database.Driver = "postgres"
	}
	envStr("XIA_DB_DRIVER", &c.Database.Driver)
	envStr("XIA_SQLITE_PATH", &c.Database.SQLitePath)

	envStr("XIA_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("XIA_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("XIA_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("XIA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("XIA_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}

	envStr("XIA_RULES_PATH", &c.Rules.Path)
}

// Save writes the config to a JSON file. Fields tagged json:"-" (secrets)
// are never written out.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Hash returns a SHA-256 hash of the config for optimistic concurrency / reload detection.
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}

// ApplyEnvOverrides re-applies environment variable overrides onto the config.
// Call this after a hot-reload of the file portion to restore runtime secrets.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
}

// ExpandHome replaces a leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
