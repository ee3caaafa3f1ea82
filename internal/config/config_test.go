package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Gateway.Port != 8790 {
		t.Errorf("port = %d, want 8790", cfg.Gateway.Port)
	}
	if cfg.Sessions.Backend != "file" {
		t.Errorf("sessions backend = %q, want file", cfg.Sessions.Backend)
	}
	if cfg.IsManagedMode() {
		t.Error("expected IsManagedMode() = false for sqlite defaults")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 8790 {
		t.Errorf("port = %d, want default 8790", cfg.Gateway.Port)
	}
}

func TestLoad_ParsesJSON5File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	content := `{
		// trailing commas and comments are both fine in json5
		gateway: { port: 9100, host: "127.0.0.1" },
		sessions: { backend: "postgres" },
	}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 9100 || cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("gateway = %+v, want port=9100 host=127.0.0.1", cfg.Gateway)
	}
	if cfg.Sessions.Backend != "postgres" {
		t.Errorf("sessions backend = %q, want postgres", cfg.Sessions.Backend)
	}
	// fields absent from the file keep their Default() values
	if cfg.Maps.GeocodeTTLDays != 30 {
		t.Errorf("geocode ttl = %d, want default 30", cfg.Maps.GeocodeTTLDays)
	}
}

func TestLoad_EnvOverridesTakePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{gateway: {port: 9100}}`), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("XIA_ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("XIA_PORT", "7000")
	t.Setenv("XIA_POSTGRES_DSN", "postgres://example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.AnthropicKey != "sk-from-env" {
		t.Errorf("anthropic key = %q, want env value", cfg.Providers.AnthropicKey)
	}
	if cfg.Gateway.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", cfg.Gateway.Port)
	}
	if cfg.Database.PostgresDSN != "postgres://example" || cfg.Database.Driver != "postgres" {
		t.Errorf("database = %+v, want postgres DSN + driver flipped to postgres", cfg.Database)
	}
	if !cfg.IsManagedMode() {
		t.Error("expected IsManagedMode() = true once a postgres DSN is set via env")
	}
}

func TestApplyEnvOverrides_BraveKeyEnablesBrave(t *testing.T) {
	cfg := Default()
	if cfg.Tools.Web.BraveEnabled {
		t.Fatal("expected brave disabled by default")
	}
	t.Setenv("XIA_BRAVE_API_KEY", "brave-key")
	cfg.ApplyEnvOverrides()
	if !cfg.Tools.Web.BraveEnabled {
		t.Error("expected brave auto-enabled once a Brave API key is present")
	}
}

func TestSave_NeverWritesSecretFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	cfg := Default()
	cfg.Providers.AnthropicKey = "sk-should-not-be-persisted"
	cfg.Gateway.Token = "should-not-be-persisted"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	providers, _ := m["providers"].(map[string]any)
	if _, ok := providers["AnthropicKey"]; ok {
		t.Error("expected the secret anthropic key field omitted from the saved file")
	}
	if gw, ok := m["gateway"].(map[string]any); ok {
		if _, ok := gw["Token"]; ok {
			t.Error("expected the secret gateway token field omitted from the saved file")
		}
	}
}

func TestHash_ChangesWithContent(t *testing.T) {
	cfg := Default()
	h1 := cfg.Hash()
	cfg.Gateway.Port = 1234
	h2 := cfg.Hash()
	if h1 == h2 {
		t.Error("expected Hash() to change after mutating the config")
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/absolute/path", "/absolute/path"},
		{"~/.xia/sessions", home + "/.xia/sessions"},
		{"~", home},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlexibleStringSlice_AcceptsStringsAndNumbers(t *testing.T) {
	var f FlexibleStringSlice
	if err := json.Unmarshal([]byte(`["a", "b"]`), &f); err != nil {
		t.Fatalf("Unmarshal strings: %v", err)
	}
	if len(f) != 2 || f[0] != "a" || f[1] != "b" {
		t.Errorf("got %v, want [a b]", f)
	}

	if err := json.Unmarshal([]byte(`[1, 2, 3]`), &f); err != nil {
		t.Fatalf("Unmarshal numbers: %v", err)
	}
	if len(f) != 3 || f[0] != "1" || f[2] != "3" {
		t.Errorf("got %v, want [1 2 3]", f)
	}
}

func TestReplaceFrom_CopiesAllDataFields(t *testing.T) {
	dst := Default()
	src := Default()
	src.Gateway.Port = 9999
	src.Sessions.Backend = "postgres"

	dst.ReplaceFrom(src)
	if dst.Gateway.Port != 9999 || dst.Sessions.Backend != "postgres" {
		t.Errorf("dst = %+v, want fields copied from src", dst)
	}
}
