// Package tui is the interactive booking calendar for a single studio.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"harmonix/internal/availability"
	"harmonix/internal/booking"
	"harmonix/internal/metrics"
	"harmonix/internal/slots"
)

// Loader fetches the studio snapshot backing the view.
type Loader interface {
	Load(ctx context.Context, studioID string) availability.Snapshot
}

type appState int

const (
	stateLoading appState = iota
	stateSelecting
)

type appModel struct {
	ctx    context.Context
	cancel context.CancelFunc

	loader   Loader
	logger   *zerolog.Logger
	studioID string
	now      func() time.Time

	state  appState
	loadID string
	snap   availability.Snapshot

	selection booking.Selection
	cursor    int
	status    string
	request   *booking.Request

	width   int
	spinner spinner.Model
}

type snapshotMsg struct {
	loadID string
	snap   availability.Snapshot
}

// New builds the widget model. Quitting cancels the context derived from ctx,
// which aborts any load still in flight.
func New(ctx context.Context, studioID string, loader Loader, logger *zerolog.Logger) tea.Model {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ctx, cancel := context.WithCancel(ctx)

	m := appModel{
		ctx:      ctx,
		cancel:   cancel,
		loader:   loader,
		logger:   logger,
		studioID: studioID,
		now:      time.Now,
		state:    stateLoading,
		loadID:   uuid.NewString(),
	}
	m.selection = booking.NewSelection(m.now(), slots.DefaultMinimumDurationHours)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

// Run starts the widget on the alternate screen and blocks until it exits.
func Run(ctx context.Context, studioID string, loader Loader, logger *zerolog.Logger) error {
	_, err := tea.NewProgram(New(ctx, studioID, loader, logger), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m appModel) loadCmd() tea.Cmd {
	ctx, loader, studioID, loadID := m.ctx, m.loader, m.studioID, m.loadID
	return func() tea.Msg {
		return snapshotMsg{loadID: loadID, snap: loader.Load(ctx, studioID)}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		if msg.loadID != m.loadID {
			m.logger.Debug().Str("load_id", msg.loadID).Msg("dropping stale availability load")
			return m, nil
		}
		m.snap = msg.snap
		m.state = stateSelecting
		m.selection.MinimumDurationHours = msg.snap.Settings.MinimumDuration
		if m.selection.MinimumDurationHours <= 0 {
			m.selection.MinimumDurationHours = slots.DefaultMinimumDurationHours
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit
	}
	if m.state == stateLoading {
		return m, nil
	}

	day := slots.Day()
	switch msg.String() {
	case "left", "h":
		m = m.apply(booking.DateChanged{Date: m.selection.Date.AddDate(0, 0, -1)})
	case "right", "l":
		m = m.apply(booking.DateChanged{Date: m.selection.Date.AddDate(0, 0, 1)})
	case "t":
		m = m.apply(booking.DateChanged{Date: m.now()})
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(day)-1 {
			m.cursor++
		}
	case "enter", " ":
		m = m.choose(day[m.cursor])
	case "esc":
		m = m.apply(booking.DateChanged{Date: m.selection.Date})
		m.status = "Selection cleared."
	case "b":
		m = m.requestToBook()
	case "r":
		m.loadID = uuid.NewString()
		m.state = stateLoading
		m.request = nil
		return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
	}
	return m, nil
}

// apply runs e through the reducer when the current phase offers it.
func (m appModel) apply(e booking.Event) appModel {
	if !m.selection.CanApply(e) {
		return m
	}
	m.selection = booking.Reduce(m.selection, e)
	m.request = nil
	m.status = ""
	metrics.IncSelectionEvent(string(e.Kind()))
	return m
}

// choose picks slot as end when it is a valid end candidate, otherwise as a new start.
func (m appModel) choose(slot slots.TimeSlot) appModel {
	v := m.snap.Validator(m.selection)
	if !v.IsAvailable(slot.Value) {
		m.status = fmt.Sprintf("%s is already booked.", slot.Label)
		return m
	}

	if m.selection.StartTime != "" {
		for _, c := range v.CandidateEndTimes() {
			if c.Value == slot.Value {
				return m.apply(booking.EndTimeChosen{Slot: slot.Value})
			}
		}
	}
	return m.apply(booking.StartTimeChosen{Slot: slot.Value})
}

func (m appModel) requestToBook() appModel {
	req, err := booking.BuildRequest(m.studioID, m.selection, m.snap.Settings.HourlyRate)
	if err != nil {
		m.status = "Choose a start and end time first."
		return m
	}
	metrics.IncBookingRequest()
	m.logger.Info().
		Str("studio_id", req.StudioID).
		Str("date", req.Date).
		Str("start", req.StartTime).
		Str("end", req.EndTime).
		Float64("total", req.Total).
		Msg("booking request prepared")
	m.request = &req
	m.status = ""
	return m
}

var (
	availableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	bookedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Faint(true)
	startStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
	rangeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

func (m appModel) View() string {
	header := m.headerView()
	if m.state == stateLoading {
		return header + "\n\n" + fmt.Sprintf("%s Loading availability...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	v := m.snap.Validator(m.selection)
	for i, sv := range v.Render() {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor)
		b.WriteString(fmt.Sprintf("%-9s", sv.Slot.Label))
		b.WriteString(" ")
		b.WriteString(slotText(sv))
		b.WriteString("\n")
	}

	if m.snap.AvailabilityErr != nil {
		b.WriteString("\n" + hint("Availability could not be loaded; all slots are shown as open."))
	}
	if conflicts := v.RangeConflicts(); len(conflicts) > 0 {
		labels := make([]string, len(conflicts))
		for i, c := range conflicts {
			labels[i] = c.Value
		}
		b.WriteString("\n" + warnStyle.Render("Range includes booked slots: "+strings.Join(labels, ", ")))
	}
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	if m.request != nil {
		panel := lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(m.request.Summary())
		b.WriteString("\n" + panel)
	}
	return b.String()
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("HarmoniX booking")
	studio := m.studioID
	if m.snap.Name != "" {
		studio = fmt.Sprintf("%s (%s)", m.snap.Name, m.studioID)
	}
	sub := []string{
		fmt.Sprintf("Studio: %s", studio),
		fmt.Sprintf("Date: %s", m.selection.Date.Format("Mon, 02 Jan 2006")),
	}
	if m.state == stateSelecting {
		sub = append(sub, fmt.Sprintf("Rate: %.0f/h, min %dh", m.snap.Settings.HourlyRate, m.snap.Settings.MinimumDuration))
	}
	phase := map[booking.Phase]string{
		booking.PhaseChoosingStart: "pick a start time",
		booking.PhaseChoosingEnd:   "pick an end time",
		booking.PhaseReady:         "press b to request",
	}[m.selection.Phase()]

	hints := "q quit • ←/→ day • t today • ↑/↓ move • enter choose • esc clear • b book • r reload"
	return title + "\n" + strings.Join(sub, " | ") + "\n" + hint(phase+" • "+hints)
}

func slotText(sv slots.SlotView) string {
	switch sv.State {
	case slots.StateSelectedStart:
		return startStyle.Render(" start ")
	case slots.StateInRange:
		if sv.Conflict {
			return warnStyle.Render("booked (in range)")
		}
		return rangeStyle.Render("in range")
	case slots.StateBooked:
		return bookedStyle.Render("booked")
	}
	if sv.EndCandidate {
		return availableStyle.Render("available • end")
	}
	return availableStyle.Render("available")
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}
