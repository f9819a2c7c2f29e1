// Package handler wires the control surface's Echo routes to the
// dispatcher, grounded on registerAlarmWeatherHandler.go's
// handler-struct-plus-route-registration shape.
package handler

// ReqChgMode switches the active control regime.
type ReqChgMode struct {
	Mode string `json:"mode" validate:"required,oneof=auto manual wizard"`
}

// ReqWeather reports a weather event from the ingest adapter.
type ReqWeather struct {
	Signal string `json:"signal" validate:"required,oneof=rain_start rain_stop wind_high wind_low"`
}

// ReqManualActivate starts a manual watering run on one sector.
type ReqManualActivate struct {
	SectorID int   `json:"sector_id" validate:"required,min=1"`
	Duration int64 `json:"duration_seconds" validate:"required,min=1"`
}

// ReqManualDeactivate stops a manual watering run on one sector.
type ReqManualDeactivate struct {
	SectorID int `json:"sector_id" validate:"required,min=1"`
}

// ResState is the JSON projection of statemachine.StateSnapshot.
type ResState struct {
	Mode        string `json:"mode"`
	State       string `json:"state"`
	Description string `json:"description"`
	CycleID     *int64 `json:"cycle_id,omitempty"`
}

// ResCycle is the JSON projection of statemachine.CycleSnapshot.
type ResCycle struct {
	ID           int64                 `json:"id"`
	Instructions []ResCycleInstruction `json:"instructions"`
}

// ResCycleInstruction is one sector leg of a cycle.
type ResCycleInstruction struct {
	SectorID int    `json:"sector_id"`
	Minutes  string `json:"minutes"`
}

// ResWateringEvent is the JSON projection of repository.WateringEvent.
type ResWateringEvent struct {
	CycleID         int64   `json:"cycle_id"`
	SectorID        int     `json:"sector_id"`
	StartTimeUTC    string  `json:"start_time_utc"`
	DurationMinutes float64 `json:"duration_minutes"`
	WaterAppliedCM  float64 `json:"water_applied_cm"`
	Mode            string  `json:"mode"`
}
