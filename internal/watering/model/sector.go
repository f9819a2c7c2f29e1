// Package model holds the core data types of the irrigation
// controller: sectors, plans, cycles, windows, schedules, and signals.
// None of these types touch I/O; persistence and transport adapters
// convert to and from them at the boundary.
package model

import "fmt"

// Sector is a catalog entry for one independently actuated watering
// zone, keyed by a small positive integer id (spec.md section 3).
type Sector struct {
	ID int

	// SprinklerDebit is the rate, in cm/hour, at which the sector
	// gains Progress while energized.
	SprinklerDebit float64
	// PercolationRate is the soil intake ceiling, in mm/hour.
	PercolationRate float64
	// MaxDuration is the hard per-session cap, in seconds.
	MaxDuration int64
	// WeeklyTarget is the water, in cm, to deliver between week
	// starts (Monday 00:00 UTC).
	WeeklyTarget float64
	// Progress is the water credited this week, in cm.
	Progress float64
	// LastWater is the unix-seconds timestamp of the most recent
	// deactivation, or zero if the sector has never run.
	LastWater int64
}

// Validate enforces the sector invariants from spec.md section 3.
func (s Sector) Validate(windowDuration int64) error {
	if s.Progress < 0 {
		return fmt.Errorf("sector %d: progress must be >= 0, got %f", s.ID, s.Progress)
	}
	if s.MaxDuration <= 0 || s.MaxDuration > windowDuration {
		return fmt.Errorf("sector %d: max_duration must be in (0, %d], got %d", s.ID, windowDuration, s.MaxDuration)
	}
	if s.SprinklerDebit <= 0 {
		return fmt.Errorf("sector %d: sprinkler_debit must be > 0, got %f", s.ID, s.SprinklerDebit)
	}
	if s.PercolationRate < 0 {
		return fmt.Errorf("sector %d: percolation_rate must be >= 0, got %f", s.ID, s.PercolationRate)
	}
	return nil
}

// DailyCapacityCM is the most water a sector can receive in a single
// session, in cm (spec.md section 4.4 step 3).
func (s Sector) DailyCapacityCM() float64 {
	return (float64(s.MaxDuration) / 3600.0) * s.SprinklerDebit
}

// NeedCM is the remaining water need this week, clamped at zero
// (spec.md section 4.4 step 2).
func (s Sector) NeedCM() float64 {
	need := s.WeeklyTarget - s.Progress
	if need < 0 {
		return 0
	}
	return need
}
