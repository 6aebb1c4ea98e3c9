// Package cli wires configuration, the studio client and the booking views into
// the harmonix command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"harmonix/internal/availability"
	"harmonix/internal/metrics"
	"harmonix/internal/tui"
)

// Set at build time with -ldflags "-X harmonix/internal/cli.version=...".
var (
	version = "dev"
	commit  = "none"
)

var errStudioRequired = errors.New("--studio is required")

type options struct {
	configPath string
	studioID   string
}

// NewRootCommand builds the command tree. Without a subcommand it opens the
// interactive booking calendar for --studio.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "harmonix",
		Short:         "HarmoniX studio booking",
		Long:          `Browse a studio's free hours and pick a booking range from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWidget(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML config (default $HARMONIX_CONFIG_PATH or configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.studioID, "studio", "", "studio id")

	root.AddCommand(
		newSlotsCommand(opts),
		newExportCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree with ctx and reports errors on stderr.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func runWidget(cmd *cobra.Command, opts *options) error {
	if opts.studioID == "" {
		return errStudioRequired
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// The widget owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg, false)

	client, closeClient := newClient(cfg, &logger)
	defer closeClient()

	ctx := cmd.Context()
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
	}

	logger.Info().Str("studio_id", opts.studioID).Msg("booking widget started")
	checkBackend(ctx, client, &logger)
	return tui.Run(ctx, opts.studioID, availability.NewStore(client, &logger), &logger)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the harmonix version",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "harmonix %s", version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}
