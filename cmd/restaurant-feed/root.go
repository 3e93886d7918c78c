package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/restaurant-feed/internal/config"
	"github.com/Sternrassler/restaurant-feed/pkg/client"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/Sternrassler/restaurant-feed/pkg/ratelimit"
	"github.com/Sternrassler/restaurant-feed/pkg/restaurant"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logPretty  bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "restaurant-feed",
		Short: "Browse and serve the restaurant feed",
		Long: `restaurant-feed loads restaurant lists page by page and restaurant
details from the consumer API, using the same controllers an app UI would.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level = logLevel
			}
			if cmd.Flags().Changed("pretty") {
				loaded.Log.Pretty = logPretty
			}
			cfg = loaded

			logging.Setup(cfg.Log.Logging(os.Stderr))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human-readable logs instead of JSON")

	root.AddCommand(newListCmd(), newShowCmd(), newServeCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// newRepository builds the API client and repository from cfg.
func newRepository(cfg config.Config) (*restaurant.Repository, io.Closer, error) {
	clientCfg := client.DefaultConfig(cfg.API.BaseURL, cfg.API.UserAgent)
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.RateLimit = ratelimit.Config{
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}
	clientCfg.Retry.MaxAttempts = cfg.API.MaxAttempts
	clientCfg.CacheEnabled = cfg.API.CacheEnabled()

	c, err := client.New(clientCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create api client: %w", err)
	}
	return restaurant.NewRepository(c), c, nil
}

func cliLogger() zerolog.Logger {
	return logging.NewLogger("cli")
}
