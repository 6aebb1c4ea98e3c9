// Package availability loads a studio's booking constraints once per view and
// falls back to permissive defaults when the backend cannot be read.
package availability

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"harmonix/internal/booking"
	"harmonix/internal/metrics"
	"harmonix/internal/slots"
	"harmonix/internal/studioapi"
)

const (
	DefaultHourlyRate      = 5000.0
	DefaultMinimumDuration = slots.DefaultMinimumDurationHours
)

// BookingSettings are the per-studio pricing and duration rules.
type BookingSettings struct {
	HourlyRate      float64 `json:"hourlyRate"`
	MinimumDuration int     `json:"minimumDuration"`
}

// DefaultSettings returns the settings used when the studio provides none.
func DefaultSettings() BookingSettings {
	return BookingSettings{
		HourlyRate:      DefaultHourlyRate,
		MinimumDuration: DefaultMinimumDuration,
	}
}

// SettingsFromStudio applies defaults for every missing or non-positive field.
func SettingsFromStudio(s *studioapi.Studio) BookingSettings {
	out := DefaultSettings()
	if rate, ok := s.RawHourlyRate(); ok && rate > 0 {
		out.HourlyRate = rate
	}
	if hours, ok := s.RawMinimumDuration(); ok && hours > 0 {
		out.MinimumDuration = hours
	}
	return out
}

// Fetcher reads the two studio documents booking needs.
type Fetcher interface {
	GetAvailability(ctx context.Context, studioID string) ([]slots.DayAvailability, error)
	GetStudio(ctx context.Context, studioID string) (*studioapi.Studio, error)
}

// Snapshot is the read-only result of one Load.
type Snapshot struct {
	StudioID string
	Name     string
	Days     []slots.DayAvailability
	Settings BookingSettings
	LoadedAt time.Time

	// Set when the corresponding read failed and its fallback is in use.
	AvailabilityErr error
	SettingsErr     error
}

// Day returns the record for date (YYYY-MM-DD).
func (s Snapshot) Day(date string) (slots.DayAvailability, bool) {
	for _, d := range s.Days {
		if d.Date == date {
			return d, true
		}
	}
	return slots.DayAvailability{}, false
}

// Validator builds the slot validator for sel over this snapshot.
func (s Snapshot) Validator(sel booking.Selection) *slots.Validator {
	return sel.Validator(s.Days)
}

// Store loads snapshots through a Fetcher.
type Store struct {
	fetcher Fetcher
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewStore creates a store. A nil logger discards output.
func NewStore(fetcher Fetcher, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{fetcher: fetcher, logger: logger, now: time.Now}
}

// Load issues the availability and studio reads concurrently, one attempt each.
// A failed read is logged and replaced by its fallback: no availability records
// (every slot open) and default booking settings. Canceling ctx aborts both reads.
func (s *Store) Load(ctx context.Context, studioID string) Snapshot {
	snap := Snapshot{
		StudioID: studioID,
		Days:     []slots.DayAvailability{},
		Settings: DefaultSettings(),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		started := time.Now()
		days, err := s.fetcher.GetAvailability(ctx, studioID)
		if err != nil {
			metrics.ObserveFetch("availability", "fallback", time.Since(started))
			s.logger.Error().Err(err).Str("studio_id", studioID).Msg("failed to load availability, treating all slots as open")
			snap.AvailabilityErr = err
			return
		}
		metrics.ObserveFetch("availability", "ok", time.Since(started))
		if days != nil {
			snap.Days = days
		}
	}()

	go func() {
		defer wg.Done()
		started := time.Now()
		studio, err := s.fetcher.GetStudio(ctx, studioID)
		if err != nil {
			metrics.ObserveFetch("studio", "fallback", time.Since(started))
			s.logger.Error().Err(err).Str("studio_id", studioID).Msg("failed to load booking settings, using defaults")
			snap.SettingsErr = err
			return
		}
		metrics.ObserveFetch("studio", "ok", time.Since(started))
		snap.Name = studio.Name
		snap.Settings = SettingsFromStudio(studio)
	}()

	wg.Wait()
	snap.LoadedAt = s.now()

	s.logger.Debug().
		Str("studio_id", studioID).
		Int("days", len(snap.Days)).
		Float64("hourly_rate", snap.Settings.HourlyRate).
		Int("minimum_duration", snap.Settings.MinimumDuration).
		Msg("studio availability loaded")
	return snap
}
