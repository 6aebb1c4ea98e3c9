package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"harmonix/internal/availability"
	"harmonix/internal/export"
)

func newExportCommand(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a studio's availability to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.studioID == "" {
				return errStudioRequired
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg, true)
			client, closeClient := newClient(cfg, &logger)
			defer closeClient()

			checkBackend(cmd.Context(), client, &logger)
			snap := availability.NewStore(client, &logger).Load(cmd.Context(), opts.studioID)
			if snap.AvailabilityErr != nil {
				logger.Warn().Err(snap.AvailabilityErr).Msg("exporting without availability records")
			}

			wb := export.NewWorkbook()
			defer wb.Close()
			if err := export.WriteAvailability(wb, snap); err != nil {
				return fmt.Errorf("build workbook: %w", err)
			}
			if err := wb.SaveToFile(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			logger.Info().Str("file", out).Int("days", len(snap.Days)).Msg("availability exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output .xlsx path")
	return cmd
}
