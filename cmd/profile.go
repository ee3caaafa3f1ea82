package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fazal-lab/xia/internal/config"
	"github.com/fazal-lab/xia/internal/maps"
	"github.com/fazal-lab/xia/internal/profiler"
	"github.com/fazal-lab/xia/internal/ringengine"
	"github.com/fazal-lab/xia/internal/rules"
)

func profileCmd() *cobra.Command {
	var lat, lng float64
	var mode string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run the Area Context Profiler for a single coordinate and print its AreaProfile as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(lat, lng, mode)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "rules | hybrid | full_llm | research_agent")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func runProfile(lat, lng float64, mode string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	rulesStore, err := rules.NewStore(config.ExpandHome(cfg.Rules.Path), false)
	if err != nil {
		rulesStore, _ = rules.NewStore("", false)
	}
	r := rulesStore.Get()

	mapsClient := maps.New(cfg.Maps.APIKey, daysToDuration(cfg.Maps.GeocodeTTLDays, 30), daysToDuration(cfg.Maps.PlacesTTLDays, 7))
	ring := ringengine.New(mapsClient, r)

	providerRegistry := buildProviderRegistry(cfg)
	router := profiler.New(ring, providerRegistry.Default(), r, logger)

	profile, err := router.Profile(context.Background(), lat, lng, profiler.Mode(mode))
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
