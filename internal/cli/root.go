// Package cli provides the command-line interface for the helpdesk client.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/raphaelgruber/helpdesk-go/internal/client"
	"github.com/raphaelgruber/helpdesk-go/internal/config"
	"github.com/raphaelgruber/helpdesk-go/internal/connectivity"
	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/metrics"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose     bool
	apiURLFlag  string
	timeoutFlag time.Duration

	// Global config and backend wiring
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	collector  *metrics.Collector
	apiClient  *client.Client
	monitor    *connectivity.Monitor
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "IT helpdesk chat assistant",
	Long: `Helpdesk is a terminal client for the IT helpdesk assistant.

Chat with the assistant, run quick actions for common problems, and open a
support ticket when the assistant suggests escalating to a human.

Running without a subcommand starts an interactive chat.`,
	Version:      Version,
	SilenceUsage: true,
}

func setup(cmd *cobra.Command, args []string) error {
	// Skip backend wiring for help commands
	if cmd.Name() == "help" {
		return nil
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cmd.Flags(), &cfg)

	var console io.Writer
	if verbose && !usesTUI(cmd) {
		console = os.Stderr
	}
	logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, console)

	collector = metrics.NewCollector()
	apiClient = client.New(cfg.APIURL, cfg.Timeout,
		client.WithLogger(logger),
		client.WithRecorder(collector),
	)
	monitor = connectivity.New(apiClient, cfg.APIURL, cfg.ProbeMinGap, logger)

	logger.Debug("configuration loaded",
		"api_url", cfg.APIURL,
		"timeout", cfg.Timeout,
		"probe_interval", cfg.ProbeInterval,
		"analytics", cfg.Analytics,
	)
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if verbose && collector != nil {
		printStats(cmd.ErrOrStderr(), collector.Snapshot())
	}
	if logCleanup != nil {
		if err := logCleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}
}

// applyFlagOverrides lets explicitly set flags win over config values.
func applyFlagOverrides(fs *pflag.FlagSet, c *config.Config) {
	if fs.Changed("api-url") {
		c.APIURL = apiURLFlag
	}
	if fs.Changed("timeout") && timeoutFlag > 0 {
		c.Timeout = timeoutFlag
	}
	if fs.Changed("verbose") && verbose && c.LogLevel > slog.LevelDebug {
		c.LogLevel = slog.LevelDebug
	}
}

// usesTUI reports whether cmd takes over the terminal.
func usesTUI(cmd *cobra.Command) bool {
	return (!cmd.HasParent() || cmd.Name() == "chat") && isTerminal()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// newController builds a session controller over the configured backend.
func newController() *session.Controller {
	return session.New(apiClient, monitor, session.Options{
		Logger:    logger,
		Analytics: cfg.Analytics,
		TicketDefaults: escalation.Form{
			Name:     cfg.UserName,
			Email:    cfg.UserEmail,
			Category: cfg.TicketCategory,
		},
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentPostRun = teardown
	rootCmd.RunE = runChat

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and call statistics on exit")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", client.DefaultBaseURL, "helpdesk backend URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", client.DefaultTimeout, "per-request timeout")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
}
