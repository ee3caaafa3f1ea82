package cmd

import (
	"context"
	"fmt"

	"github.com/fazal-lab/xia/internal/chatsession"
	"github.com/fazal-lab/xia/internal/config"
	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/inventory"
	"github.com/fazal-lab/xia/internal/providers"
	"github.com/fazal-lab/xia/internal/xia"
)

// screenStore is the superset the serve command needs from the inventory
// backend: the Discover Engine's bulk read path plus the point lookup the
// gateway's profile and creative-suggestion handlers use.
type screenStore interface {
	discover.InventoryStore
	GetByID(ctx context.Context, id string) (domain.Screen, error)
}

// buildProviderRegistry wires every configured LLM provider (Anthropic,
// OpenAI-compatible, DashScope) into a Registry, matching the teacher's
// registerProviders pattern: absence of a key simply omits that provider
// rather than erroring, so a gateway with no LLM key still serves
// rules-only profiles (spec §7).
func buildProviderRegistry(cfg *config.Config) *providers.Registry {
	reg := make(map[string]providers.Provider)

	if cfg.Providers.AnthropicKey != "" {
		reg["anthropic"] = providers.NewAnthropicProvider(cfg.Providers.AnthropicKey)
	}
	if cfg.Providers.OpenAIKey != "" {
		reg["openai"] = providers.NewOpenAIProvider("openai", cfg.Providers.OpenAIKey, "", cfg.Providers.FallbackModel)
	}
	if cfg.Providers.DashscopeKey != "" {
		reg["dashscope"] = providers.NewDashScopeProvider(cfg.Providers.DashscopeKey, "", "")
	}

	def := cfg.Providers.Default
	if _, ok := reg[def]; !ok {
		for name := range reg {
			def = name
			break
		}
	}
	return providers.NewRegistry(def, reg)
}

// buildInventoryStore opens the screen inventory backend: SQLite for
// local/dev deployments, Postgres for managed ones, selected by
// cfg.Database.Driver the same way chatsession's backend is selected.
func buildInventoryStore(cfg *config.Config) (screenStore, error) {
	if cfg.IsManagedMode() {
		db, err := inventory.OpenPG(cfg.Database.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("inventory: %w", err)
		}
		return inventory.NewPGStore(db), nil
	}
	path := config.ExpandHome(cfg.Database.SQLitePath)
	store, err := inventory.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return store, nil
}

// buildSessionStore opens the ChatSession persistence backend per
// cfg.Sessions.Backend.
func buildSessionStore(cfg *config.Config) (xia.SessionStore, error) {
	if cfg.Sessions.Backend == "postgres" {
		db, err := chatsession.OpenPG(cfg.Database.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("chatsession: %w", err)
		}
		return chatsession.NewPGStore(db), nil
	}
	store, err := chatsession.NewFileStore(config.ExpandHome(cfg.Sessions.Storage))
	if err != nil {
		return nil, fmt.Errorf("chatsession: %w", err)
	}
	return store, nil
}
