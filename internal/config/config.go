// Package config loads and holds the XIA gateway's runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the XIA gateway.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Maps      MapsConfig      `json:"maps"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
	Sessions  SessionsConfig  `json:"sessions"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Cron      CronConfig      `json:"cron,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	Rules     RulesConfig     `json:"rules,omitempty"`
	Xia       XiaConfig       `json:"xia,omitempty"`
	mu        sync.RWMutex
}

// GatewayConfig configures the HTTP(+optional WS) listener.
type GatewayConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	Token           string   `json:"-"` // from env XIA_GATEWAY_TOKEN only
	RateLimitRPM    int      `json:"rate_limit_rpm,omitempty"`
	MaxMessageChars int      `json:"max_message_chars,omitempty"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty"`
	LiveWS          bool     `json:"live_ws,omitempty"` // enable /live/ws streaming endpoint
}

// MapsConfig configures the Maps Provider (C1) collaborator.
type MapsConfig struct {
	APIKey            string `json:"-"` // from env XIA_MAPS_API_KEY only
	BaseURL           string `json:"base_url,omitempty"`
	GeocodeTTLDays    int    `json:"geocode_ttl_days,omitempty"`    // default 30
	PlacesTTLDays     int    `json:"places_ttl_days,omitempty"`     // default 7
	PageDelayMillis   int    `json:"page_delay_millis,omitempty"`   // default 2000 (Google's next-page activation latency)
	RequestTimeoutSec int    `json:"request_timeout_sec,omitempty"` // default 30
}

// ProvidersConfig selects and configures the LLM Provider collaborator.
type ProvidersConfig struct {
	Default        string            `json:"default,omitempty"` // "anthropic", "openai", "dashscope"
	FallbackModel  string            `json:"fallback_model,omitempty"`
	AnthropicKey   string            `json:"-"` // env XIA_ANTHROPIC_API_KEY
	OpenAIKey      string            `json:"-"` // env XIA_OPENAI_API_KEY
	DashscopeKey   string            `json:"-"` // env XIA_DASHSCOPE_API_KEY
	Models         map[string]string `json:"models,omitempty"` // per-call-site model overrides, e.g. "call1" -> "claude-haiku-4-5"
}

// ToolsConfig configures auxiliary tools usable by the research_agent profiler mode.
type ToolsConfig struct {
	Web WebToolsConfig `json:"web"`
}

// WebToolsConfig configures the web_search/web_fetch tools used by C6's research_agent mode.
type WebToolsConfig struct {
	BraveAPIKey     string `json:"-"` // env XIA_BRAVE_API_KEY
	BraveEnabled    bool   `json:"brave_enabled,omitempty"`
	BraveMaxResults int    `json:"brave_max_results,omitempty"`
	DDGEnabled      bool   `json:"ddg_enabled,omitempty"`
	DDGMaxResults   int    `json:"ddg_max_results,omitempty"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds,omitempty"`
}

// SessionsConfig configures ChatSession persistence (C12's Session Store collaborator).
type SessionsConfig struct {
	Backend      string `json:"backend,omitempty"` // "file" (default) or "postgres"
	Storage      string `json:"storage,omitempty"` // directory for file backend
	ExpiryHours  int    `json:"expiry_hours,omitempty"` // default 24, per spec §3 lifecycle
}

// DatabaseConfig configures Postgres for the session/inventory stores.
// PostgresDSN is NEVER read from config.json (secret) — only from env XIA_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
	Driver      string `json:"driver,omitempty"` // "sqlite" (default, local dev) or "postgres"
	SQLitePath  string `json:"sqlite_path,omitempty"`
}

// TelemetryConfig holds OpenTelemetry export settings. They are loaded from
// the file and env but no code reads them: no spans are exported.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // "grpc" or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// CronConfig configures the periodic out-of-band HOLD-expiry sweep (P7).
type CronConfig struct {
	Expression     string `json:"expression,omitempty"` // gronx cron expression, default "*/5 * * * *"
	MaxRetries     int    `json:"max_retries,omitempty"`
	RetryBaseDelay string `json:"retry_base_delay,omitempty"`
}

// RulesConfig points at the declarative configuration file (spec §9) holding the
// noise-term list, generic POI types, and authority significance thresholds —
// kept out of compiled code so they can be tuned without a rebuild.
type RulesConfig struct {
	Path         string `json:"path,omitempty"` // default "rules.json5"
	HotReload    bool   `json:"hot_reload,omitempty"`
}

// XiaConfig holds tunables for the conversational engine that are not part of
// the core algorithm (batch size, throttles). They are loaded from the file,
// but the engine does not read them: the orchestrator, ranking call and
// hold-expiry sweep use their own built-in values.
type XiaConfig struct {
	RankingBatchSize      int `json:"ranking_batch_size,omitempty"`      // default 15
	RateLimitMessages     int `json:"rate_limit_messages,omitempty"`     // default 50
	RateLimitWindowMin    int `json:"rate_limit_window_min,omitempty"`   // default 15
	HoldExpiryMinutes     int `json:"hold_expiry_minutes,omitempty"`     // default 10
	QuestionAttemptCap    int `json:"question_attempt_cap,omitempty"`    // default 2
	DebugDefault          bool `json:"debug_default,omitempty"`
}

// IsManagedMode reports whether the gateway should use the Postgres-backed stores.
func (c *Config) IsManagedMode() bool {
	return c.Database.Driver == "postgres" && c.Database.PostgresDSN != ""
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gateway = src.Gateway
	c.Maps = src.Maps
	c.Providers = src.Providers
	c.Tools = src.Tools
	c.Sessions = src.Sessions
	c.Database = src.Database
	c.Cron = src.Cron
	c.Telemetry = src.Telemetry
	c.Rules = src.Rules
	c.Xia = src.Xia
}
