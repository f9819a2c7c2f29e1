// Package repository defines the persistence adapter the core depends
// on (spec.md section 6) and a GORM-backed implementation against
// MySQL (production) or SQLite (tests).
package repository

import (
	"context"
	"time"

	"github.com/waterwise/irrigo/internal/watering/model"
)

// WateringEvent is one logged completed (or aborted) sector run,
// matching the watering_events schema in spec.md section 6.
type WateringEvent struct {
	CycleID         int64
	SectorID        int
	StartTimeUTC    time.Time
	DurationMinutes float64
	WaterAppliedCM  float64
	Mode            string
}

// Repository is the persistence boundary the controller depends on.
// Every method is synchronous from the core's perspective; the
// implementation may be thread-hopped (spec.md section 6).
type Repository interface {
	LoadSectors(ctx context.Context) ([]model.Sector, error)
	LoadAutoSchedule(ctx context.Context) (model.Schedule, error)
	LogWateringEvent(ctx context.Context, event WateringEvent) error
	GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error)
	GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error)
	ListWateringEvents(ctx context.Context, limit int) ([]WateringEvent, error)
}
