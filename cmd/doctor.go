package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"runtime"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/fazal-lab/xia/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("xia doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND — falling back to built-in defaults + env overrides)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Maps provider:")
	checkProvider("Key", cfg.Maps.APIKey)

	fmt.Println()
	fmt.Println("  LLM providers:")
	checkProvider("Anthropic", cfg.Providers.AnthropicKey)
	checkProvider("OpenAI", cfg.Providers.OpenAIKey)
	checkProvider("DashScope", cfg.Providers.DashscopeKey)
	if cfg.Providers.AnthropicKey == "" && cfg.Providers.OpenAIKey == "" && cfg.Providers.DashscopeKey == "" {
		fmt.Println("    no provider configured — profiler and XIA will run in rules-only / fallback mode")
	}

	fmt.Println()
	fmt.Println("  Web tools:")
	checkProvider("Brave", cfg.Tools.Web.BraveAPIKey)
	fmt.Printf("    %-12s %v\n", "DuckDuckGo:", cfg.Tools.Web.DDGEnabled)

	fmt.Println()
	fmt.Println("  Inventory store:")
	if cfg.IsManagedMode() {
		fmt.Printf("    %-12s postgres\n", "Mode:")
		checkPostgres(cfg.Database.PostgresDSN)
	} else {
		path := config.ExpandHome(cfg.Database.SQLitePath)
		fmt.Printf("    %-12s sqlite (%s)", "Mode:", path)
		if _, err := os.Stat(path); err != nil {
			fmt.Println(" (will be created on first run)")
		} else {
			fmt.Println(" (OK)")
		}
	}

	fmt.Println()
	fmt.Println("  Session store:")
	if cfg.Sessions.Backend == "postgres" {
		fmt.Printf("    %-12s postgres\n", "Backend:")
		checkPostgres(cfg.Database.PostgresDSN)
	} else {
		dir := config.ExpandHome(cfg.Sessions.Storage)
		fmt.Printf("    %-12s file (%s)", "Backend:", dir)
		if _, err := os.Stat(dir); err != nil {
			fmt.Println(" (will be created on first run)")
		} else {
			fmt.Println(" (OK)")
		}
	}

	fmt.Println()
	fmt.Println("  Classification rules:")
	rulesPath := config.ExpandHome(cfg.Rules.Path)
	fmt.Printf("    %-12s %s", "Path:", rulesPath)
	if _, err := os.Stat(rulesPath); err != nil {
		fmt.Println(" (NOT FOUND — built-in defaults apply)")
	} else {
		fmt.Println(" (OK)")
	}
}

func checkProvider(name, apiKey string) {
	if apiKey == "" {
		fmt.Printf("    %-12s (not configured)\n", name+":")
		return
	}
	masked := apiKey
	if len(apiKey) > 8 {
		masked = apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
	}
	fmt.Printf("    %-12s %s\n", name+":", masked)
}

func checkPostgres(dsn string) {
	if dsn == "" {
		fmt.Printf("    %-12s XIA_POSTGRES_DSN not set\n", "Status:")
		return
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	fmt.Printf("    %-12s reachable\n", "Status:")
}
