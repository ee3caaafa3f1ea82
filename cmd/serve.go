package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fazal-lab/xia/internal/config"
	"github.com/fazal-lab/xia/internal/cron"
	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/gateway"
	"github.com/fazal-lab/xia/internal/maps"
	"github.com/fazal-lab/xia/internal/profiler"
	"github.com/fazal-lab/xia/internal/providers"
	"github.com/fazal-lab/xia/internal/ringengine"
	"github.com/fazal-lab/xia/internal/rules"
	"github.com/fazal-lab/xia/internal/tools"
	"github.com/fazal-lab/xia/internal/xia"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the XIA HTTP gateway (Area Profiler + conversational discovery)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	rulesStore, err := rules.NewStore(config.ExpandHome(cfg.Rules.Path), cfg.Rules.HotReload)
	if err != nil {
		logger.Warn("rules store: falling back to built-in defaults", "error", err)
		rulesStore, _ = rules.NewStore("", false)
	}
	r := rulesStore.Get()

	mapsClient := maps.New(cfg.Maps.APIKey,
		daysToDuration(cfg.Maps.GeocodeTTLDays, 30),
		daysToDuration(cfg.Maps.PlacesTTLDays, 7),
	)
	ring := ringengine.New(mapsClient, r)

	providerRegistry := buildProviderRegistry(cfg)
	provider := providerRegistry.Default()
	if provider == nil {
		logger.Warn("no LLM provider configured; profiler and XIA will run in rules-only / fallback mode")
	}

	profilerRouter := profiler.New(ring, provider, r, logger)
	if cfg.Tools.Web.BraveEnabled || cfg.Tools.Web.DDGEnabled {
		search := tools.NewWebSearchTool(tools.WebSearchConfig{
			BraveAPIKey:     cfg.Tools.Web.BraveAPIKey,
			BraveEnabled:    cfg.Tools.Web.BraveEnabled,
			BraveMaxResults: cfg.Tools.Web.BraveMaxResults,
			DDGEnabled:      cfg.Tools.Web.DDGEnabled,
			DDGMaxResults:   cfg.Tools.Web.DDGMaxResults,
		})
		fetch := tools.NewWebFetchTool(tools.WebFetchConfig{})
		profilerRouter = profilerRouter.WithTools(search, fetch)
	}

	invStore, err := buildInventoryStore(cfg)
	if err != nil {
		return err
	}
	discoverEngine := discover.New(invStore, r)

	sessionStore, err := buildSessionStore(cfg)
	if err != nil {
		return err
	}

	menu := xia.NewFilterMenu(invStore)
	orchestrator := xia.NewOrchestrator(sessionStore, menu, provider, discoverEngine, r, logger)
	creative := xia.NewCreativeSuggestion(provider)

	srv := gateway.NewServer(cfg, profilerRouter, orchestrator, discoverEngine, menu, invStore, sessionStore, creative, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown initiated", "signal", sig)
		cancel()
	}()

	holdMaxAge := 10 * time.Minute
	sweeper := cron.NewScheduler(cfg.Cron.Expression, holdMaxAge, invStore, logger.With("component", "cron"))
	go sweeper.Run(ctx)

	logger.Info("xia gateway starting", "addr", cfg.Gateway.Host, "port", cfg.Gateway.Port, "managed", cfg.IsManagedMode())
	return srv.Start(ctx)
}

func daysToDuration(days, fallback int) time.Duration {
	if days <= 0 {
		days = fallback
	}
	return time.Duration(days) * 24 * time.Hour
}
