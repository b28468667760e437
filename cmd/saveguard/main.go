package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"saveguard/internal/backup"
	"saveguard/internal/config"
	"saveguard/internal/logging"
	"saveguard/internal/notify"
	"saveguard/internal/state"
)

// notifyTitle heads the alerts raised for configuration failures.
const notifyTitle = "Save Backup"

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	stateFile string
	logDir    string
	logLevel  string
	dryRun    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "saveguard",
	Short: "Back up game save files into a timestamped backup tree",
	Long: `saveguard scans the configured game-save directories for new or modified
save container files and copies each one into a timestamped subdirectory of
the backup tree, remembering what it has already backed up.

Every invocation performs exactly one backup pass and exits, which makes it
suitable for running from a scheduler (cron, systemd timer, Task Scheduler).`,
	SilenceUsage: true,
	RunE:         runBackup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("saveguard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "config.json", "config file (JSON, or YAML by extension)")
	rootCmd.Flags().StringVar(&stateFile, "state", "backup_state.json", "state file tracking previously backed up saves")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "logs", "directory for monthly log files")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be backed up without making changes")

	rootCmd.AddCommand(versionCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger, closer, err := logging.Open(logDir, parseLevel(logLevel), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logging: %v\n", err)
		return err
	}
	defer func() {
		_ = closer.Close()
	}()

	logger.Info("starting backup process", "version", version, "dry_run", dryRun)

	notifier := buildNotifier(logger)

	cfg, err := loadConfig(logger, notifier)
	if err != nil {
		// Backup is disabled for this run; the failure has been logged and,
		// where user-impacting, notified.
		return err
	}

	store := loadState(logger)

	engine := backup.NewEngine(cfg, store, notifier, logger, dryRun)
	if err := engine.Run(ctx); err != nil {
		logger.Error("backup failed", "error", err)
		return err
	}

	return nil
}

func buildNotifier(logger *slog.Logger) notify.Notifier {
	if dryRun {
		return notify.Noop{}
	}
	return notify.NewDesktop(logger)
}

func loadConfig(logger *slog.Logger, notifier notify.Notifier) (*config.Config, error) {
	logger.Info("loading configuration", "path", cfgFile)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		switch {
		case errors.Is(err, config.ErrNotFound):
			notifier.Notify(notifyTitle, fmt.Sprintf("Could not find config file: %s", cfgFile))
		case errors.Is(err, config.ErrParse):
			notifier.Notify(notifyTitle, fmt.Sprintf("Could not parse config file: %s", cfgFile))
		}
		return nil, err
	}

	logger.Info("configuration loaded successfully",
		"backup_directory", cfg.BackupDirectory,
		"source_directories", len(cfg.SourceDirectories))

	return cfg, nil
}

// loadState never fails the run: a corrupt or unreadable state file is logged
// and the pass continues with a fresh empty store.
func loadState(logger *slog.Logger) *state.Store {
	store, err := state.Load(stateFile)
	if err != nil {
		if errors.Is(err, state.ErrCorrupt) {
			logger.Warn("state file is corrupt, starting fresh", "path", stateFile, "error", err)
		} else {
			logger.Warn("failed to load state file, starting fresh", "path", stateFile, "error", err)
		}
	}
	return store
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
