package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/config"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/lock"
	"github.com/Ning0612/Treemirror/internal/logger"
	"github.com/Ning0612/Treemirror/internal/service"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded before every command; cfgErr is kept for commands that need a file
	cfg    *config.Config
	cfgErr error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Shutdown()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage renders a command error for the terminal
func errorMessage(err error) string {
	if lock.IsLockError(err) {
		return fmt.Sprintf("Error: %v\nAnother treemirror run is in progress; see 'treemirror lock status'.", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

var rootCmd = &cobra.Command{
	Use:   "treemirror",
	Short: "Mirror configuration trees into place with backups",
	Long: `treemirror copies dotfiles and config trees from a fetched repository
cache into the home directory. Every file it replaces is kept as
<file>.bak.YYYYMMDD_HHMMSS and files owned by other installers are
never overwritten.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr = config.Load(configPath)
		if cfgErr != nil {
			if !errors.Is(cfgErr, domain.ErrConfigNotFound) {
				return cfgErr
			}
			cfg = config.Default()
		}
		return setupLogging(cmd)
	},
}

func setupLogging(cmd *cobra.Command) error {
	level, format := cfg.Log.Level, cfg.Log.Format
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}

	home, _ := cfg.HomeDir()
	return logger.Init(logger.Config{
		Level:  logger.ParseLevel(level),
		Format: logger.ParseFormat(format),
		Home:   home,
		File: logger.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       config.ExpandPath(cfg.Log.File.Path),
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			MaxBackups: cfg.Log.File.MaxBackups,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

// requireConfig fails when no config file was found
func requireConfig() error {
	if cfgErr != nil {
		return fmt.Errorf("%w (searched %v; use --config)", cfgErr, config.DefaultConfigPaths())
	}
	return nil
}

// newService builds the mirror service; the caller must Close it
func newService() (*service.MirrorService, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	svc, err := service.NewMirrorService(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return svc, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search ./config.yaml, ~/.config/treemirror/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(lockCmd)
}
