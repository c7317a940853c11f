// Command recoverctl drives the password recovery workflow from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/accountclient"
	"github.com/pronet/recovery-portal/internal/config"
	"github.com/pronet/recovery-portal/internal/observability"
)

var (
	apiURL   string
	timeout  time.Duration
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "recoverctl",
	Short:         "Request and complete password resets against the account service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Account service base URL (default: ACCOUNT_API_URL or "+config.DefaultAccountServiceURL+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default: ACCOUNT_SERVICE_TIMEOUT_SECONDS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: LOG_LEVEL)")

	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides and builds the logger and client.
func setup() (*config.Config, *zap.Logger, *accountclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.AccountService.BaseURL = apiURL
	}
	if timeout > 0 {
		cfg.AccountService.CallTimeout = timeout
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	} else if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, accountclient.New(cfg.AccountService, logger), nil
}
