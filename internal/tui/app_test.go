package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonix/internal/availability"
	"harmonix/internal/booking"
	"harmonix/internal/slots"
)

type fakeLoader struct {
	snap  availability.Snapshot
	calls int
	ctx   context.Context
}

func (f *fakeLoader) Load(ctx context.Context, studioID string) availability.Snapshot {
	f.calls++
	f.ctx = ctx
	snap := f.snap
	snap.StudioID = studioID
	return snap
}

var testDay = time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)

func newTestModel(t *testing.T, snap availability.Snapshot) (appModel, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{snap: snap}
	m := New(context.Background(), "studio-x", loader, nil).(appModel)
	m.now = func() time.Time { return testDay }
	m.selection = booking.NewSelection(testDay, slots.DefaultMinimumDurationHours)
	return m, loader
}

func load(t *testing.T, m appModel) appModel {
	t.Helper()
	msg := m.loadCmd()()
	next, _ := m.Update(msg)
	return next.(appModel)
}

func press(m appModel, keys ...string) appModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(appModel)
	}
	return m
}

// moveTo puts the cursor on the slot with value.
func moveTo(m appModel, value string) appModel {
	m.cursor = 0
	for i, s := range slots.Day() {
		if s.Value == value {
			for range i {
				m = press(m, "j")
			}
			break
		}
	}
	return m
}

func bookedSnapshot() availability.Snapshot {
	return availability.Snapshot{
		Name:     "Room A",
		Days:     []slots.DayAvailability{{Date: "2025-06-01", Unavailable: []string{"14:00"}}},
		Settings: availability.DefaultSettings(),
	}
}

func TestModel_LoadingView(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	assert.Equal(t, stateLoading, m.state)
	assert.Contains(t, m.View(), "Loading availability")

	// Keys other than quit are ignored while loading.
	m = press(m, "enter")
	assert.Empty(t, m.selection.StartTime)
}

func TestModel_SnapshotLoaded(t *testing.T) {
	snap := bookedSnapshot()
	snap.Settings.MinimumDuration = 3
	m, loader := newTestModel(t, snap)
	m = load(t, m)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, stateSelecting, m.state)
	assert.Equal(t, 3, m.selection.MinimumDurationHours)

	view := m.View()
	assert.Contains(t, view, "Room A (studio-x)")
	assert.Contains(t, view, "9:00 AM")
	assert.Contains(t, view, "10:00 PM")
	assert.Contains(t, view, "booked")
}

func TestModel_StaleLoadDropped(t *testing.T) {
	m, loader := newTestModel(t, bookedSnapshot())
	m = load(t, m)
	stale := m.loadCmd()()
	firstID := m.loadID

	// Reload issues a new id; the earlier response must not be applied.
	m = press(m, "r")
	require.NotEqual(t, firstID, m.loadID)
	require.Equal(t, stateLoading, m.state)

	next, _ := m.Update(stale)
	m = next.(appModel)
	assert.Equal(t, stateLoading, m.state)

	loader.snap.Name = "Room B"
	m = load(t, m)
	assert.Equal(t, stateSelecting, m.state)
	assert.Equal(t, "Room B", m.snap.Name)
}

func TestModel_ReloadIgnoredWhileLoading(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	firstID := m.loadID

	m = press(m, "r")
	assert.Equal(t, firstID, m.loadID)
	assert.Equal(t, stateLoading, m.state)
}

func TestModel_ChooseStartAndEnd(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	m = load(t, m)

	m = press(moveTo(m, "13:00"), "enter")
	assert.Equal(t, "13:00", m.selection.StartTime)
	assert.Equal(t, booking.PhaseChoosingEnd, m.selection.Phase())

	// 14:00 is booked, so it cannot be picked.
	m = press(moveTo(m, "14:00"), "enter")
	assert.Empty(t, m.selection.EndTime)
	assert.Contains(t, m.status, "already booked")

	m = press(moveTo(m, "16:00"), " ")
	assert.Equal(t, "16:00", m.selection.EndTime)
	assert.True(t, m.selection.ReadyToBook())
	assert.Contains(t, m.View(), "Range includes booked slots: 14:00")
}

func TestModel_EarlySlotBecomesNewStart(t *testing.T) {
	m, _ := newTestModel(t, availability.Snapshot{Settings: availability.DefaultSettings()})
	m = load(t, m)

	m = press(moveTo(m, "12:00"), "enter")
	// 13:00 is too short for the two hour minimum, so it restarts the selection.
	m = press(moveTo(m, "13:00"), "enter")
	assert.Equal(t, "13:00", m.selection.StartTime)
	assert.Empty(t, m.selection.EndTime)
}

func TestModel_DateNavigationClearsSelection(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	m = load(t, m)
	m = press(moveTo(m, "10:00"), "enter")
	require.Equal(t, "10:00", m.selection.StartTime)

	m = press(m, "l")
	assert.Equal(t, testDay.AddDate(0, 0, 1), m.selection.Date)
	assert.Empty(t, m.selection.StartTime)

	m = press(m, "left", "left")
	assert.Equal(t, testDay.AddDate(0, 0, -1), m.selection.Date)

	m = press(m, "t")
	assert.Equal(t, testDay, m.selection.Date)
}

func TestModel_EscClears(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	m = load(t, m)
	m = press(moveTo(m, "10:00"), "enter")
	m = press(moveTo(m, "12:00"), "enter")
	require.True(t, m.selection.ReadyToBook())

	m = press(m, "esc")
	assert.Equal(t, booking.PhaseChoosingStart, m.selection.Phase())
	assert.Equal(t, testDay, m.selection.Date)
}

func TestModel_RequestToBook(t *testing.T) {
	m, _ := newTestModel(t, bookedSnapshot())
	m = load(t, m)

	m = press(m, "b")
	assert.Nil(t, m.request)
	assert.Contains(t, m.status, "Choose a start and end time")

	m = press(moveTo(m, "18:00"), "enter")
	m = press(moveTo(m, "21:00"), "enter")
	m = press(m, "b")
	require.NotNil(t, m.request)
	assert.Equal(t, 3, m.request.Hours)
	assert.InDelta(t, 15000.0, m.request.Total, 0.001)
	assert.Contains(t, m.View(), "18:00 - 21:00")
}

func TestModel_FailOpenHint(t *testing.T) {
	m, _ := newTestModel(t, availability.Snapshot{
		Days:            []slots.DayAvailability{},
		Settings:        availability.DefaultSettings(),
		AvailabilityErr: errors.New("connection refused"),
	})
	m = load(t, m)

	view := m.View()
	assert.Contains(t, view, "all slots are shown as open")
	assert.NotContains(t, view, "booked")
}

func TestModel_QuitCancelsContext(t *testing.T) {
	m, loader := newTestModel(t, bookedSnapshot())
	m = load(t, m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, loader.ctx.Err(), context.Canceled)
}

func TestSlotText(t *testing.T) {
	tests := []struct {
		name string
		view slots.SlotView
		want string
	}{
		{"available", slots.SlotView{State: slots.StateAvailable, Available: true}, "available"},
		{"end candidate", slots.SlotView{State: slots.StateAvailable, Available: true, EndCandidate: true}, "end"},
		{"booked", slots.SlotView{State: slots.StateBooked}, "booked"},
		{"start", slots.SlotView{State: slots.StateSelectedStart, Available: true}, "start"},
		{"range", slots.SlotView{State: slots.StateInRange, Available: true}, "in range"},
		{"conflict", slots.SlotView{State: slots.StateInRange, Conflict: true}, "booked (in range)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slotText(tt.view)
			if !strings.Contains(got, tt.want) {
				t.Fatalf("expected %q to contain %q", got, tt.want)
			}
		})
	}
}
