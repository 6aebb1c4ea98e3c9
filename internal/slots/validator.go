package slots

// DefaultMinimumDurationHours applies when a studio does not configure one.
const DefaultMinimumDurationHours = 2

// State is the display state of a slot.
type State string

const (
	StateAvailable     State = "available"
	StateBooked        State = "booked"
	StateSelectedStart State = "selected_start"
	StateInRange       State = "in_range"
)

// Input is everything the validator looks at.
type Input struct {
	Days                 []DayAvailability
	Date                 string // YYYY-MM-DD
	StartTime            string
	EndTime              string
	MinimumDurationHours int
}

// SlotView is the computed render state of one slot.
type SlotView struct {
	Slot         TimeSlot
	State        State
	Available    bool
	EndCandidate bool // may be chosen as end time for the current start
	Conflict     bool // inside the chosen range but already booked
}

// Validator answers per-slot questions for one date and selection.
// It never mutates its input.
type Validator struct {
	unavailable map[string]bool
	hasRecord   bool
	start       string
	end         string
	minDuration int
}

// NewValidator indexes the record for in.Date. Entries of the unavailable set that
// cannot be normalized are ignored, so they never block a slot.
func NewValidator(in Input) *Validator {
	v := &Validator{
		unavailable: make(map[string]bool),
		start:       in.StartTime,
		end:         in.EndTime,
		minDuration: in.MinimumDurationHours,
	}
	if v.minDuration <= 0 {
		v.minDuration = DefaultMinimumDurationHours
	}

	for _, d := range in.Days {
		if d.Date != in.Date {
			continue
		}
		v.hasRecord = true
		for _, raw := range d.Unavailable {
			if norm, ok := NormalizeTime(raw); ok {
				v.unavailable[norm] = true
			}
		}
	}
	return v
}

// HasRecord reports whether availability data exists for the date.
func (v *Validator) HasRecord() bool {
	return v.hasRecord
}

// IsAvailable is true unless the slot is in the date's unavailable set.
func (v *Validator) IsAvailable(slotValue string) bool {
	if !v.hasRecord {
		return true
	}
	norm, ok := NormalizeTime(slotValue)
	if !ok {
		return true
	}
	return !v.unavailable[norm]
}

// IsSelectedStart reports whether the slot is the chosen start time.
func (v *Validator) IsSelectedStart(slotValue string) bool {
	return v.start != "" && slotValue == v.start
}

// IsInRange is true for slots after the start hour up to and including the end hour.
// The start slot itself is reported by IsSelectedStart only.
func (v *Validator) IsInRange(slotValue string) bool {
	if v.start == "" || v.end == "" {
		return false
	}
	h, ok := Hour(slotValue)
	if !ok {
		return false
	}
	startHour, ok := Hour(v.start)
	if !ok {
		return false
	}
	endHour, ok := Hour(v.end)
	if !ok {
		return false
	}
	return h > startHour && h <= endHour
}

// CandidateEndTimes lists the slots that satisfy the minimum duration for the
// current start time. It returns nil when no start time is chosen.
func (v *Validator) CandidateEndTimes() []TimeSlot {
	if v.start == "" {
		return nil
	}
	startHour, ok := Hour(v.start)
	if !ok {
		return nil
	}
	earliest := startHour + v.minDuration

	var out []TimeSlot
	for _, s := range day {
		h, _ := Hour(s.Value)
		if h >= earliest {
			out = append(out, s)
		}
	}
	return out
}

// RangeConflicts returns booked slots inside the chosen range. The backend is the
// authority on overlaps; this is only used to warn before requesting a booking.
func (v *Validator) RangeConflicts() []TimeSlot {
	var out []TimeSlot
	for _, s := range day {
		if v.IsInRange(s.Value) && !v.IsAvailable(s.Value) {
			out = append(out, s)
		}
	}
	return out
}

// Render computes the display state of every fixed slot.
func (v *Validator) Render() []SlotView {
	candidates := make(map[string]bool)
	for _, s := range v.CandidateEndTimes() {
		candidates[s.Value] = true
	}

	views := make([]SlotView, len(day))
	for i, s := range day {
		available := v.IsAvailable(s.Value)
		inRange := v.IsInRange(s.Value)

		state := StateAvailable
		switch {
		case v.IsSelectedStart(s.Value):
			state = StateSelectedStart
		case inRange:
			state = StateInRange
		case !available:
			state = StateBooked
		}

		views[i] = SlotView{
			Slot:         s,
			State:        state,
			Available:    available,
			EndCandidate: available && candidates[s.Value],
			Conflict:     inRange && !available,
		}
	}
	return views
}
