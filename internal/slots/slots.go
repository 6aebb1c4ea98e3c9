// Package slots holds the fixed hourly booking slots of a studio day and the
// validator that turns availability plus a selection into per-slot render state.
package slots

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// FirstHour is the hour of the first bookable slot.
	FirstHour = 9
	// LastHour is the hour of the last bookable slot.
	LastHour = 22

	// DateLayout is the wire format of DayAvailability.Date.
	DateLayout = "2006-01-02"
)

// TimeSlot is one fixed hourly booking unit.
type TimeSlot struct {
	Value string `json:"value"` // "09:00"
	Label string `json:"label"` // "9:00 AM"
}

// DayAvailability lists the slots already booked for a studio on one date.
// Unavailable entries are kept as received; see NormalizeTime.
type DayAvailability struct {
	Date        string   `json:"date"`
	Unavailable []string `json:"unavailable"`
}

var day = buildDay()

func buildDay() []TimeSlot {
	out := make([]TimeSlot, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		out = append(out, TimeSlot{
			Value: fmt.Sprintf("%02d:00", h),
			Label: label(h),
		})
	}
	return out
}

func label(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:00 %s", h, suffix)
}

// Day returns the bookable slots of a day, 09:00 through 22:00.
// The slice is a copy and may be modified by the caller.
func Day() []TimeSlot {
	out := make([]TimeSlot, len(day))
	copy(out, day)
	return out
}

// Lookup returns the fixed slot with the given value.
func Lookup(value string) (TimeSlot, bool) {
	norm, ok := NormalizeTime(value)
	if !ok {
		return TimeSlot{}, false
	}
	for _, s := range day {
		if s.Value == norm {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// NormalizeTime converts a loosely formatted time of day into canonical "HH:MM".
// Accepted forms: "9:00", "09:00", "900", "0900". Anything else is rejected.
func NormalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	var hourPart, minutePart string
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return "", false
		}
		hourPart, minutePart = parts[0], parts[1]
		if len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
			return "", false
		}
	} else {
		if len(s) < 3 || len(s) > 4 {
			return "", false
		}
		hourPart, minutePart = s[:len(s)-2], s[len(s)-2:]
	}

	if !allDigits(hourPart) || !allDigits(minutePart) {
		return "", false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// Hour returns the hour of a time-of-day string in any accepted form.
func Hour(value string) (int, bool) {
	norm, ok := NormalizeTime(value)
	if !ok {
		return 0, false
	}
	h, _ := strconv.Atoi(norm[:2])
	return h, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
