package handler

import (
	"strconv"
	"time"

	"github.com/waterwise/irrigo/internal/apperr"
	"github.com/waterwise/irrigo/internal/watering/model"
	"github.com/waterwise/irrigo/internal/watering/repository"
	"github.com/waterwise/irrigo/internal/watering/statemachine"
)

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, apperr.ValidationError("limit must be a positive integer")
	}
	return n, nil
}

// ResState's Description field carries DescribeCycle's human summary
// when a cycle is active, empty otherwise.

func parseMode(s string) (model.Mode, error) {
	switch s {
	case "auto":
		return model.ModeAuto, nil
	case "manual":
		return model.ModeManual, nil
	case "wizard":
		return model.ModeWizard, nil
	default:
		return 0, apperr.ValidationError("unknown mode: " + s)
	}
}

func parseWeatherSignal(s string) (model.WeatherSignal, error) {
	switch s {
	case "rain_start":
		return model.RainStart, nil
	case "rain_stop":
		return model.RainStop, nil
	case "wind_high":
		return model.WindHigh, nil
	case "wind_low":
		return model.WindLow, nil
	default:
		return 0, apperr.ValidationError("unknown weather signal: " + s)
	}
}

func toResState(snap statemachine.StateSnapshot) ResState {
	return ResState{
		Mode:        snap.Mode,
		State:       snap.State,
		Description: snap.Cycle,
		CycleID:     snap.CycleID,
	}
}

func toResCycle(snap *statemachine.CycleSnapshot) *ResCycle {
	if snap == nil {
		return nil
	}
	out := &ResCycle{ID: snap.ID, Instructions: make([]ResCycleInstruction, 0, len(snap.Instructions))}
	for _, ins := range snap.Instructions {
		out.Instructions = append(out.Instructions, ResCycleInstruction{SectorID: ins.SectorID, Minutes: ins.Minutes})
	}
	return out
}

func toResWateringEvent(e repository.WateringEvent) ResWateringEvent {
	return ResWateringEvent{
		CycleID:         e.CycleID,
		SectorID:        e.SectorID,
		StartTimeUTC:    e.StartTimeUTC.Format(time.RFC3339),
		DurationMinutes: e.DurationMinutes,
		WaterAppliedCM:  e.WaterAppliedCM,
		Mode:            e.Mode,
	}
}
