package studioapi

import (
	"encoding/json"
	"fmt"
)

// Studio is the part of the studio document booking cares about.
type Studio struct {
	ID              string               `json:"_id,omitempty"`
	Name            string               `json:"name,omitempty"`
	BookingSettings *StudioBookingConfig `json:"bookingSettings,omitempty"`

	// Legacy top-level fields, used when bookingSettings lacks them.
	HourlyRate      *float64 `json:"hourlyRate,omitempty"`
	MinimumDuration *int     `json:"minimumDuration,omitempty"`
}

// StudioBookingConfig is the bookingSettings object of a studio.
type StudioBookingConfig struct {
	HourlyRate      *float64 `json:"hourlyRate,omitempty"`
	MinimumDuration *int     `json:"minimumDuration,omitempty"`
}

// RawHourlyRate returns the configured rate, preferring bookingSettings.
// ok is false when neither location provides one.
func (s *Studio) RawHourlyRate() (rate float64, ok bool) {
	if s == nil {
		return 0, false
	}
	if s.BookingSettings != nil && s.BookingSettings.HourlyRate != nil {
		return *s.BookingSettings.HourlyRate, true
	}
	if s.HourlyRate != nil {
		return *s.HourlyRate, true
	}
	return 0, false
}

// RawMinimumDuration returns the configured minimum duration in hours,
// preferring bookingSettings.
func (s *Studio) RawMinimumDuration() (hours int, ok bool) {
	if s == nil {
		return 0, false
	}
	if s.BookingSettings != nil && s.BookingSettings.MinimumDuration != nil {
		return *s.BookingSettings.MinimumDuration, true
	}
	if s.MinimumDuration != nil {
		return *s.MinimumDuration, true
	}
	return 0, false
}

func decodeStudio(raw json.RawMessage) (*Studio, error) {
	var envelope struct {
		Studio *Studio `json:"studio"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode studio: %w", err)
	}
	if envelope.Studio != nil {
		return envelope.Studio, nil
	}

	var studio Studio
	if err := json.Unmarshal(raw, &studio); err != nil {
		return nil, fmt.Errorf("decode studio: %w", err)
	}
	return &studio, nil
}
