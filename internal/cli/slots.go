package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"harmonix/internal/availability"
	"harmonix/internal/booking"
	"harmonix/internal/slots"
)

type slotsOptions struct {
	date  string
	start string
	end   string
}

func newSlotsCommand(opts *options) *cobra.Command {
	so := &slotsOptions{}
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the day's slot grid for a studio",
		Long:  `Print every bookable hour of one day with its state, optionally for a chosen start and end time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSlots(cmd, opts, so)
		},
	}
	cmd.Flags().StringVar(&so.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&so.start, "start", "", "start time, e.g. 13:00")
	cmd.Flags().StringVar(&so.end, "end", "", "end time, e.g. 16:00 (requires --start)")
	return cmd
}

// selectionFromFlags replays the flag values through the reducer.
func selectionFromFlags(so *slotsOptions, minDuration int, now time.Time) (booking.Selection, error) {
	sel := booking.NewSelection(now, minDuration)

	if so.date != "" {
		d, err := time.ParseInLocation(slots.DateLayout, so.date, time.Local)
		if err != nil {
			return sel, fmt.Errorf("invalid --date %q: %w", so.date, err)
		}
		sel = booking.Reduce(sel, booking.DateChanged{Date: d})
	}
	if so.end != "" && so.start == "" {
		return sel, fmt.Errorf("--end requires --start")
	}
	if so.start != "" {
		start, err := slotFlag("start", so.start)
		if err != nil {
			return sel, err
		}
		sel = booking.Reduce(sel, booking.StartTimeChosen{Slot: start})
	}
	if so.end != "" {
		end, err := slotFlag("end", so.end)
		if err != nil {
			return sel, err
		}
		sel = booking.Reduce(sel, booking.EndTimeChosen{Slot: end})
	}
	return sel, nil
}

func slotFlag(name, raw string) (string, error) {
	v, ok := slots.NormalizeTime(raw)
	if !ok {
		return "", fmt.Errorf("invalid --%s %q", name, raw)
	}
	if _, ok := slots.Lookup(v); !ok {
		return "", fmt.Errorf("--%s %s is outside bookable hours", name, v)
	}
	return v, nil
}

func runSlots(cmd *cobra.Command, opts *options, so *slotsOptions) error {
	if opts.studioID == "" {
		return errStudioRequired
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

	sel, err := selectionFromFlags(so, snap.Settings.MinimumDuration, time.Now())
	if err != nil {
		return err
	}
	v := snap.Validator(sel)
	if sel.EndTime != "" && !isCandidate(v.CandidateEndTimes(), sel.EndTime) {
		return fmt.Errorf("--end must be at least %dh after --start", sel.MinimumDurationHours)
	}

	out := cmd.OutOrStdout()
	name := snap.Name
	if name == "" {
		name = snap.StudioID
	}
	fmt.Fprintf(out, "%s on %s: %.0f/h, minimum %dh\n", name, sel.DateKey(), snap.Settings.HourlyRate, snap.Settings.MinimumDuration)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Time", "Label", "State", "End"})
	for _, sv := range v.Render() {
		end := ""
		if sv.EndCandidate {
			end = "yes"
		}
		state := string(sv.State)
		if sv.Conflict {
			state += " (booked)"
		}
		t.AppendRow(table.Row{sv.Slot.Value, sv.Slot.Label, state, end})
	}
	t.Render()

	if conflicts := v.RangeConflicts(); len(conflicts) > 0 {
		values := make([]string, len(conflicts))
		for i, c := range conflicts {
			values[i] = c.Value
		}
		fmt.Fprintf(out, "Warning: range includes booked slots %s\n", strings.Join(values, ", "))
	}
	if sel.ReadyToBook() {
		req, err := booking.BuildRequest(opts.studioID, sel, snap.Settings.HourlyRate)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, req.Summary())
	}
	return nil
}

func isCandidate(candidates []slots.TimeSlot, value string) bool {
	for _, c := range candidates {
		if c.Value == value {
			return true
		}
	}
	return false
}
