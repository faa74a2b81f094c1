package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/troyrocket/universe-bank/config"
	"github.com/troyrocket/universe-bank/internal/adapters/identity"
	"github.com/troyrocket/universe-bank/internal/adapters/notify"
	"github.com/troyrocket/universe-bank/internal/adapters/storage"
	"github.com/troyrocket/universe-bank/internal/application/lending"
)

var (
	configPath string
	verbose    bool
	logFormat  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "bank",
	Short:         "Universe Bank — self-improving on-chain credit",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		setupLogger(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")

	rootCmd.AddCommand(loanCmd)
	rootCmd.AddCommand(creditCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// openBank monta la cadena storage → identity → servicio de préstamos.
// El caller debe cerrar el storage devuelto.
func openBank() (*storage.SQLiteStorage, *lending.Service, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	ident := identity.NewConfigIdentity(cfg.Identity.AgentID)
	svc := lending.New(store, ident, cfg.LoanTerm())
	return store, svc, nil
}

// borrowerAddress resuelve la dirección del borrower: flag > config.
func borrowerAddress(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.Bank.BorrowerAddress != "" {
		return cfg.Bank.BorrowerAddress, nil
	}
	return "", fmt.Errorf("no borrower address: set --borrower or bank.borrower_address in config")
}

func console() *notify.Console {
	return notify.NewConsole()
}

func setupLogger(logCfg config.LogConfig) {
	var level slog.Level
	switch logCfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logCfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
