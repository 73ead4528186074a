// Command stock-valuator scores US listed stocks from fundamental ratios.
//
// It serves a JSON API (serve), scores a single symbol from the terminal
// (analyze) and runs the engine offline on a saved bundle (score).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stock-valuator/config"
	"stock-valuator/internal/app"
	"stock-valuator/observability"
	"stock-valuator/services"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config, loaded before every command
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stock-valuator",
	Short: "Quick fundamental valuation scores for US stocks",
	Long: `stock-valuator pulls quote, profile and ratio data from Financial Modeling
Prep and turns it into a 0-100 score with a verdict, a confidence rating and a
short narrative, using sector templates (DEFAULT, TECH, BANKS, ENERGY).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Log.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		observability.InitLoggerWithLevel(cfg.Log.Production, observability.ParseLevel(level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(templatesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// version needs no config
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "stock-valuator %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// newApp builds the application with an FMP client when a key is configured
func newApp(cfg *config.Config) *app.App {
	if !cfg.HasFMP() {
		observability.Warn("FMP_API_KEY not set, market data endpoints disabled")
		return app.New(cfg, nil)
	}

	fmp := services.NewFMPService(services.FMPConfig{
		APIKey:  cfg.FMP.APIKey,
		BaseURL: cfg.FMP.BaseURL,
		Timeout: cfg.FMP.Timeout(),
	})
	return app.New(cfg, fmp)
}
