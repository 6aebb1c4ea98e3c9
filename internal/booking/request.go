package booking

import (
	"errors"
	"fmt"

	"harmonix/internal/slots"
)

// ErrNotReady is returned when a request is built before start and end are chosen.
var ErrNotReady = errors.New("start and end time must be selected")

// Request is the summary shown for "Request to Book". Submitting it is the
// backend's job.
type Request struct {
	StudioID   string  `json:"studio_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Hours      int     `json:"hours"`
	HourlyRate float64 `json:"hourly_rate"`
	Total      float64 `json:"total"`
}

// BuildRequest prices the selection at hourlyRate.
func BuildRequest(studioID string, s Selection, hourlyRate float64) (Request, error) {
	if !s.ReadyToBook() {
		return Request{}, ErrNotReady
	}
	startHour, ok := slots.Hour(s.StartTime)
	if !ok {
		return Request{}, fmt.Errorf("invalid start time %q", s.StartTime)
	}
	endHour, ok := slots.Hour(s.EndTime)
	if !ok {
		return Request{}, fmt.Errorf("invalid end time %q", s.EndTime)
	}
	if endHour <= startHour {
		return Request{}, fmt.Errorf("end time %s is not after start time %s", s.EndTime, s.StartTime)
	}

	hours := endHour - startHour
	return Request{
		StudioID:   studioID,
		Date:       s.DateKey(),
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Hours:      hours,
		HourlyRate: hourlyRate,
		Total:      float64(hours) * hourlyRate,
	}, nil
}

// Summary formats the request for confirmation.
func (r Request) Summary() string {
	return fmt.Sprintf(`Booking request

Studio:   %s
Date:     %s
Time:     %s - %s
Duration: %d h
Rate:     %.2f / h
Total:    %.2f`,
		r.StudioID,
		r.Date,
		r.StartTime,
		r.EndTime,
		r.Hours,
		r.HourlyRate,
		r.Total,
	)
}
