// Package handlers holds the CLI command constructors.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dailybrief/internal/aggregate"
	"dailybrief/internal/archive"
	"dailybrief/internal/backend"
	"dailybrief/internal/cache"
	"dailybrief/internal/config"
	"dailybrief/internal/gen"
	"dailybrief/internal/logger"
	"dailybrief/internal/pipeline"
	"dailybrief/internal/sources"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dailybrief",
		Short: "dailybrief generates and publishes multilingual posts from aggregated sources.",
		Long: `dailybrief automates the content workflow of the DailyBrief site:
it aggregates material about a topic from several sources, asks Gemini for
multilingual post content (PT, EN, ES) and submits the result to the backend
for moderation.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dailybrief.yaml)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.LogLevel, cfg.App.LogFile)
}

// buildOrchestrator wires the full pipeline from configuration.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, error) {
	if err := cfg.ValidateForRun(); err != nil {
		return nil, err
	}

	genClient, err := gen.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	strategy := gen.NewStrategy(*cfg, genClient)

	providers := sources.NewProviders(cfg.Sources)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no source clients configured")
	}
	agg := aggregate.New(providers, cfg.Sources.MaxConcurrency, cfg.Content.MaxTextLen)

	client := backend.NewClient(cfg.Backend)
	auth := backend.NewAuthenticator(cfg.Backend, &backend.FileStore{Path: cfg.Backend.TokenFile})
	archiver := archive.New(cfg.App.OutputDir)
	topics := cache.New(cfg.Cache.TTLDuration(), nil)

	return pipeline.New(cfg, agg, strategy, client, auth, archiver, topics), nil
}
