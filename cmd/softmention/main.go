// Package main provides the softmention binary: batch extraction of
// software mentions, training markup, corpus statistics and the HTTP
// service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/softmention/internal/prettylog"
	"github.com/cognicore/softmention/pkg/softmention"
	"github.com/cognicore/softmention/pkg/softmention/config"
	"github.com/cognicore/softmention/pkg/softmention/metrics"
)

const (
	Version = "0.1.0"
	appName = "softmention"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Software mention extraction",
		Long: `softmention finds mentions of software in scientific text: names,
versions, creators, URLs and the bibliographic references citing them.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the config")

	cmd.AddCommand(
		processCmd(&flags),
		trainingCmd(&flags),
		serveCmd(&flags),
		rarityCmd(&flags),
		statsCmd(&flags),
		mentionsCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// app is everything a subcommand needs, built from the configuration.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	comp    *config.Components
	metrics *metrics.Metrics
	engine  *softmention.Engine
}

func (a *app) Close() error { return a.comp.Close() }

func setup(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger := prettylog.New(os.Stderr, prettylog.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	eng := softmention.New(softmention.Options{
		Tokenizer:     comp.Tokenizer,
		Labeler:       comp.Labeler,
		Disambiguator: comp.Disambiguator,
		Rarity:        comp.Rarity,
		Store:         comp.Store,
		Metrics:       m,
		Logger:        logger,
	})
	return &app{cfg: cfg, logger: logger, comp: comp, metrics: m, engine: eng}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
