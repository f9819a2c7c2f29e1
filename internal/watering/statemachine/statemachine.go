// Package statemachine implements the controller's tick-driven finite
// state machine (spec.md section 4.7): Idle, Watering and Paused,
// driven by the dispatcher's 1 Hz tick and by inbound control/weather
// signals.
package statemachine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/metrics"
	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/model"
	"github.com/waterwise/irrigo/internal/watering/repository"
)

// Sensors is the outbound valve actuation boundary (spec.md section
// 6). Both operations may fail; failures are logged, not retried.
type Sensors interface {
	Activate(ctx context.Context, sectorID int) error
	Deactivate(ctx context.Context, sectorID int) error
}

// EventLogger is the narrow slice of the persistence adapter the
// state machine needs to record completed sessions.
type EventLogger interface {
	LogWateringEvent(ctx context.Context, event repository.WateringEvent) error
}

// Machine owns state, mode and the active mode's plan lists. It is
// not safe for concurrent use — the dispatcher is its single caller
// (spec.md section 5).
type Machine struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	window  *model.WaterWin
	sensors Sensors
	events  EventLogger

	mode  model.Mode
	state model.State
	cycle *model.Cycle

	autoPlans   []model.DailyPlan
	wizardPlans []model.DailyPlan

	// cyclePlans points at whichever of autoPlans/wizardPlans produced
	// the in-progress cycle, captured at the moment the cycle was built
	// (tickIdle). A mode change mid-cycle (spec.md section 4.7, "mode
	// change") must not change which plan list gets its head dropped
	// once the cycle exhausts: re-deriving that list from the
	// *current* mode instead would drop the wrong mode's plan. Nil for
	// manually-activated cycles, which have no backing plan list.
	cyclePlans *[]model.DailyPlan

	pauseStartedAt int64
}

// New builds a Machine in its initial Idle/Auto state.
func New(logger *zap.Logger, cat *catalog.Catalog, window *model.WaterWin, sensors Sensors, events EventLogger) *Machine {
	return &Machine{
		logger:  logger,
		catalog: cat,
		window:  window,
		sensors: sensors,
		events:  events,
		mode:    model.ModeAuto,
		state:   model.Idle(),
	}
}

// Mode returns the currently active control regime.
func (m *Machine) Mode() model.Mode { return m.mode }

// State returns the current state machine state.
func (m *Machine) State() model.State { return m.state }

// SetMode switches the active regime. It takes effect only for future
// Idle→Watering decisions; an in-progress Watering completes under
// its original regime (spec.md section 4.7, "mode change").
func (m *Machine) SetMode(mode model.Mode) {
	m.mode = mode
}

// StopMachine is equivalent to switching to Manual: it does not
// forcibly deactivate a running valve (spec.md section 4.7).
func (m *Machine) StopMachine() {
	m.SetMode(model.ModeManual)
}

// SetAutoPlans replaces the Auto mode's pending plan list, e.g. after
// the Auto schedule reader regenerates today's plan.
func (m *Machine) SetAutoPlans(plans []model.DailyPlan) {
	m.autoPlans = plans
}

// SetWizardPlans replaces the Wizard mode's pending plan list, e.g.
// after daily adjustment regenerates it.
func (m *Machine) SetWizardPlans(plans []model.DailyPlan) {
	m.wizardPlans = plans
}

func (m *Machine) activePlans() *[]model.DailyPlan {
	switch m.mode {
	case model.ModeAuto:
		return &m.autoPlans
	case model.ModeWizard:
		return &m.wizardPlans
	default:
		return nil
	}
}

// Update advances the state machine by one tick (spec.md section
// 4.7). now is logical unix seconds supplied by the dispatcher's time
// provider.
func (m *Machine) Update(ctx context.Context, now int64) {
	m.window.Roll(now)

	switch m.state.Kind {
	case model.StateWatering:
		m.tickWatering(ctx, now)
	case model.StateIdle:
		m.tickIdle(ctx, now)
	case model.StatePaused:
		// No automatic transition; resumed only by a matching stop
		// signal (spec.md section 4.7).
	}
}

func (m *Machine) tickWatering(ctx context.Context, now int64) {
	ws := m.state.Watering

	if now >= ws.End() {
		m.completeSector(ctx, now, ws)
		return
	}

	m.catalog.AccrueProgress(ws.SectorID, 1)
}

// completeSector deactivates the running valve, logs the completed
// session, and either advances to the cycle's next sector or drops
// the cycle and returns to Idle.
func (m *Machine) completeSector(ctx context.Context, now int64, ws model.WaterSector) {
	if err := m.sensors.Deactivate(ctx, ws.SectorID); err != nil {
		m.logger.Error("valve deactivation failed", zap.Int("sector_id", ws.SectorID), zap.Error(err))
		metrics.RecordValveDeactivationError(fmt.Sprint(ws.SectorID))
	}

	sector, ok := m.catalog.Get(ws.SectorID)
	if ok {
		waterApplied := float64(ws.Duration) * sector.SprinklerDebit / 3600.0
		var cycleID int64
		if m.cycle != nil {
			cycleID = m.cycle.ID
		}
		event := repository.WateringEvent{
			CycleID:         cycleID,
			SectorID:        ws.SectorID,
			StartTimeUTC:    time.Unix(ws.Start, 0).UTC(),
			DurationMinutes: float64(ws.Duration) / 60.0,
			WaterAppliedCM:  waterApplied,
			Mode:            m.mode.String(),
		}
		if err := m.events.LogWateringEvent(ctx, event); err != nil {
			m.logger.Error("failed to log watering event", zap.Int("sector_id", ws.SectorID), zap.Error(err))
			metrics.RecordWateringEventLogError()
		}
	}

	m.catalog.SetLastWater(ws.SectorID, now)

	if m.cycle != nil {
		if next, ok := m.cycle.Advance(); ok {
			err := m.sensors.Activate(ctx, next.SectorID)
			if err != nil {
				m.logger.Error("valve activation failed", zap.Int("sector_id", next.SectorID), zap.Error(err))
			}
			metrics.RecordValveActivation(fmt.Sprint(next.SectorID), err)
			m.state = model.WateringState(next)
			return
		}
	}

	m.dropFirstPlan()
	m.cycle = nil
	m.state = model.Idle()
}

// dropFirstPlan removes the exhausted cycle's DailyPlan from the plan
// list that actually produced it (spec.md section 4.7: "the first
// plan is removed; at most two plans per day"), not from whichever
// plan list the current mode happens to point at — those can differ
// when ChgMode arrives mid-cycle.
func (m *Machine) dropFirstPlan() {
	plans := m.cyclePlans
	if plans == nil || len(*plans) == 0 {
		return
	}
	*plans = (*plans)[1:]
}

func (m *Machine) tickIdle(ctx context.Context, now int64) {
	if m.mode != model.ModeAuto && m.mode != model.ModeWizard {
		return
	}

	plans := m.activePlans()
	if plans == nil || len(*plans) == 0 {
		return
	}
	plan := (*plans)[0]
	if len(plan) == 0 || plan[0].Start > now {
		return
	}

	cycle := model.BuildCycle(plan)
	ws, ok := cycle.Advance()
	if !ok {
		return
	}

	err := m.sensors.Activate(ctx, ws.SectorID)
	if err != nil {
		m.logger.Error("valve activation failed", zap.Int("sector_id", ws.SectorID), zap.Error(err))
	}
	metrics.RecordValveActivation(fmt.Sprint(ws.SectorID), err)
	m.cycle = cycle
	m.cyclePlans = plans
	m.state = model.WateringState(ws)
}

// HandleWeather applies a weather signal (spec.md section 4.7's pause
// / resume transitions).
func (m *Machine) HandleWeather(ctx context.Context, now int64, signal model.WeatherSignal) {
	if signal.IsStart() {
		m.handlePauseSignal(ctx, now, signal)
		return
	}
	if signal.IsStop() {
		m.handleResumeSignal(ctx, now, signal)
	}
}

func (m *Machine) handlePauseSignal(ctx context.Context, now int64, signal model.WeatherSignal) {
	// Pause applies only in Wizard mode; Auto/Manual record nothing
	// because the machine has no active-signal set outside Paused
	// (spec.md section 4.7).
	if m.mode != model.ModeWizard {
		return
	}

	switch m.state.Kind {
	case model.StateWatering:
		ws := m.state.Watering
		if err := m.sensors.Deactivate(ctx, ws.SectorID); err != nil {
			m.logger.Error("valve deactivation failed", zap.Int("sector_id", ws.SectorID), zap.Error(err))
			metrics.RecordValveDeactivationError(fmt.Sprint(ws.SectorID))
		}
		prior := m.state
		m.pauseStartedAt = now
		m.state = model.PausedState(prior, signal)
		metrics.SetPausedActive(true)
	case model.StatePaused:
		m.state.Signals[signal] = struct{}{}
	case model.StateIdle:
		// no state change
	}
}

func (m *Machine) handleResumeSignal(ctx context.Context, now int64, signal model.WeatherSignal) {
	if m.state.Kind != model.StatePaused {
		return
	}

	delete(m.state.Signals, signal.Matching())
	if len(m.state.Signals) > 0 {
		return
	}

	prior := m.state.PriorState
	ws := prior.Watering

	metrics.SetPausedActive(false)
	metrics.ObservePauseDuration(time.Duration(now-m.pauseStartedAt) * time.Second)

	if m.window.IsWithin(now) {
		err := m.sensors.Activate(ctx, ws.SectorID)
		if err != nil {
			m.logger.Error("valve activation failed", zap.Int("sector_id", ws.SectorID), zap.Error(err))
		}
		metrics.RecordValveActivation(fmt.Sprint(ws.SectorID), err)
		m.state = model.WateringState(ws)
		return
	}

	m.dropFirstPlan()
	m.cycle = nil
	m.state = model.Idle()
}

// HandleManualActivate energizes a sector directly under Manual mode
// (supplemented from the original's mode_manual.rs; spec.md names
// Manual as a mode but never gives it an operation of its own).
func (m *Machine) HandleManualActivate(ctx context.Context, now int64, sectorID int, duration int64) {
	if m.mode != model.ModeManual || m.state.Kind != model.StateIdle {
		return
	}

	if err := m.sensors.Activate(ctx, sectorID); err != nil {
		m.logger.Error("valve activation failed", zap.Int("sector_id", sectorID), zap.Error(err))
	}
	ws := model.WaterSector{SectorID: sectorID, Start: now, Duration: duration}
	m.cycle = model.BuildCycle(model.DailyPlan{ws})
	m.cycle.Advance()
	m.cyclePlans = nil
	m.state = model.WateringState(ws)
}

// HandleManualDeactivate ends a manually activated sector early,
// logging the elapsed water actually applied.
func (m *Machine) HandleManualDeactivate(ctx context.Context, now int64, sectorID int) {
	if m.mode != model.ModeManual || m.state.Kind != model.StateWatering || m.state.Watering.SectorID != sectorID {
		return
	}

	ws := m.state.Watering
	if err := m.sensors.Deactivate(ctx, sectorID); err != nil {
		m.logger.Error("valve deactivation failed", zap.Int("sector_id", sectorID), zap.Error(err))
	}

	elapsed := now - ws.Start
	if sector, ok := m.catalog.Get(sectorID); ok {
		waterApplied := float64(elapsed) * sector.SprinklerDebit / 3600.0
		event := repository.WateringEvent{
			SectorID:        sectorID,
			StartTimeUTC:    time.Unix(ws.Start, 0).UTC(),
			DurationMinutes: float64(elapsed) / 60.0,
			WaterAppliedCM:  waterApplied,
			Mode:            m.mode.String(),
		}
		if err := m.events.LogWateringEvent(ctx, event); err != nil {
			m.logger.Error("failed to log watering event", zap.Int("sector_id", sectorID), zap.Error(err))
		}
	}

	m.catalog.SetLastWater(sectorID, now)
	m.cycle = nil
	m.state = model.Idle()
}

// StateSnapshot is the human-readable status spec.md section 6
// describes for the GetState response.
type StateSnapshot struct {
	Mode    string
	State   string
	CycleID *int64
	Cycle   string
}

// GetState builds a status snapshot for the response bus.
func (m *Machine) GetState() StateSnapshot {
	snap := StateSnapshot{Mode: m.mode.String(), State: DescribeState(m.state)}
	if m.cycle != nil {
		id := m.cycle.ID
		snap.CycleID = &id
		snap.Cycle = DescribeCycle(m.cycle)
	}
	return snap
}

// CycleInstruction is one sector entry in a GetCycle response.
type CycleInstruction struct {
	SectorID int
	Minutes  string
}

// CycleSnapshot is the GetCycle response shape from spec.md section 6.
type CycleSnapshot struct {
	ID           int64
	Instructions []CycleInstruction
}

// GetCycle builds a cycle snapshot for the response bus, or nil if no
// cycle is active.
func (m *Machine) GetCycle() *CycleSnapshot {
	if m.cycle == nil {
		return nil
	}
	snap := &CycleSnapshot{ID: m.cycle.ID}
	for _, ws := range m.cycle.Plan {
		snap.Instructions = append(snap.Instructions, CycleInstruction{
			SectorID: ws.SectorID,
			Minutes:  fmt.Sprintf("%d minutes", ws.Duration/60),
		})
	}
	return snap
}

// DescribeState renders the human string spec.md section 6 requires
// for the GetState response: "Idle", "Paused", or
// "Watering sector N for M minutes".
func DescribeState(s model.State) string {
	switch s.Kind {
	case model.StateWatering:
		return DescribeWatering(s.Watering)
	case model.StatePaused:
		return "Paused"
	default:
		return "Idle"
	}
}

// DescribeWatering renders the "Watering sector N for M minutes"
// string spec.md section 6 names literally.
func DescribeWatering(ws model.WaterSector) string {
	return fmt.Sprintf("Watering sector %d for %d minutes", ws.SectorID, ws.Duration/60)
}

// DescribeCycle renders a human summary of a cycle's id and plan.
func DescribeCycle(c *model.Cycle) string {
	return fmt.Sprintf("cycle %d: %d sector(s)", c.ID, len(c.Plan))
}
