// Package booking holds the date/start/end selection of a studio booking and the
// transitions that change it.
package booking

import (
	"time"

	"harmonix/internal/slots"
)

// Phase is derived from which parts of the selection are filled in.
type Phase string

const (
	PhaseChoosingStart Phase = "choosing_start"
	PhaseChoosingEnd   Phase = "choosing_end"
	PhaseReady         Phase = "ready"
)

// EventKind names a selection transition.
type EventKind string

const (
	KindDateChanged     EventKind = "date_changed"
	KindStartTimeChosen EventKind = "start_time_chosen"
	KindEndTimeChosen   EventKind = "end_time_chosen"
)

// Event is one user action applied through Reduce.
type Event interface {
	Kind() EventKind
}

// DateChanged selects a calendar date and clears start and end.
type DateChanged struct {
	Date time.Time
}

// StartTimeChosen selects a start slot and clears end.
type StartTimeChosen struct {
	Slot string
}

// EndTimeChosen selects an end slot.
type EndTimeChosen struct {
	Slot string
}

func (DateChanged) Kind() EventKind     { return KindDateChanged }
func (StartTimeChosen) Kind() EventKind { return KindStartTimeChosen }
func (EndTimeChosen) Kind() EventKind   { return KindEndTimeChosen }

// Selection is the UI-local booking state of one studio view.
type Selection struct {
	Date                 time.Time
	StartTime            string
	EndTime              string
	MinimumDurationHours int
}

// NewSelection starts on today's date with nothing chosen.
func NewSelection(today time.Time, minDuration int) Selection {
	if minDuration <= 0 {
		minDuration = slots.DefaultMinimumDurationHours
	}
	return Selection{
		Date:                 truncateDate(today),
		MinimumDurationHours: minDuration,
	}
}

// Reduce applies e to s and returns the new selection. It does not check the
// minimum duration or availability; callers only offer valid choices (see CanApply
// and slots.Validator.CandidateEndTimes).
func Reduce(s Selection, e Event) Selection {
	switch e := e.(type) {
	case DateChanged:
		s.Date = truncateDate(e.Date)
		s.StartTime = ""
		s.EndTime = ""
	case StartTimeChosen:
		s.StartTime = e.Slot
		s.EndTime = ""
	case EndTimeChosen:
		s.EndTime = e.Slot
	}
	return s
}

// transitions lists the events the UI offers in each phase.
var transitions = map[Phase][]EventKind{
	PhaseChoosingStart: {KindDateChanged, KindStartTimeChosen},
	PhaseChoosingEnd:   {KindDateChanged, KindStartTimeChosen, KindEndTimeChosen},
	PhaseReady:         {KindDateChanged, KindStartTimeChosen, KindEndTimeChosen},
}

// Phase returns the current step of the selection.
func (s Selection) Phase() Phase {
	switch {
	case s.StartTime == "":
		return PhaseChoosingStart
	case s.EndTime == "":
		return PhaseChoosingEnd
	default:
		return PhaseReady
	}
}

// CanApply reports whether e is offered in the current phase.
func (s Selection) CanApply(e Event) bool {
	for _, k := range transitions[s.Phase()] {
		if k == e.Kind() {
			return true
		}
	}
	return false
}

// ReadyToBook is true once both start and end are chosen.
func (s Selection) ReadyToBook() bool {
	return s.StartTime != "" && s.EndTime != ""
}

// DateKey is the selected date in DayAvailability format.
func (s Selection) DateKey() string {
	return s.Date.Format(slots.DateLayout)
}

// Validator builds the slot validator for this selection over days.
func (s Selection) Validator(days []slots.DayAvailability) *slots.Validator {
	return slots.NewValidator(slots.Input{
		Days:                 days,
		Date:                 s.DateKey(),
		StartTime:            s.StartTime,
		EndTime:              s.EndTime,
		MinimumDurationHours: s.MinimumDurationHours,
	})
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
