package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xbot/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded once in PersistentPreRunE, shared by the commands.
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xbot",
	Short: "xbot - AI-powered X posting agent",
	Long: `xbot drafts posts with the Gemini API and publishes them to X,
with a monthly quota, duplicate prevention, and an approval gate
before anything leaves your machine.

Run without arguments to see the available commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err = buildLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.Named(cfg.Name).With(zap.String("version", cfg.Version))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		showBanner()
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "xbot.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(copilotCmd)
	rootCmd.AddCommand(replyCmd)
	rootCmd.AddCommand(retweetCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLogger constructs the logger from the logging config.
// --verbose forces debug regardless of the configured level, and a
// configured file receives a copy of everything sent to stderr.
func buildLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format == "text" {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if lc.File != "" {
		zc.OutputPaths = []string{"stderr", lc.File}
	}

	return zc.Build()
}

// commandContext returns a context bounded by --timeout and cancelled
// on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func showBanner() {
	fmt.Println(`
╔═══════════════════════════════════════════════════════════╗
║        🤖 xbot - AI-Powered X Posting Agent               ║
╠═══════════════════════════════════════════════════════════╣
║  Commands:                                                ║
║    copilot <topic>  - Generate post with approval         ║
║    post <topic>     - Post AI-generated content (auto)    ║
║    reply            - Reply to unprocessed mentions       ║
║    retweet <id>     - Retweet (or quote) a post           ║
║    stats            - Show statistics                     ║
╚═══════════════════════════════════════════════════════════╝`)
}
