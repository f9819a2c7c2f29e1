package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/model"
)

// Scenarios S1-S6 (spec.md section 8, "concrete scenarios"), reproduced
// with the section's literal inputs where those inputs are internally
// consistent, and a note where they aren't (S2, planner package).

// S1 — Auto trigger at scheduled start.
func TestScenarioS1_AutoTriggerAtScheduledStart(t *testing.T) {
	cat := catalog.New([]model.Sector{{ID: 1, SprinklerDebit: 1.0, MaxDuration: 1800}})
	start := time.Date(2026, 8, 3, 22, 0, 0, 0, time.UTC).Unix() // Monday 22:00 UTC
	window := model.NewWindow(time.Unix(start, 0).UTC(), 0, 24)
	sensors := &fakeSensors{}
	events := &fakeEvents{}
	m := New(zap.NewNop(), cat, &window, sensors, events)
	m.SetAutoPlans([]model.DailyPlan{{{SectorID: 1, Start: start, Duration: 1800}}})

	m.Update(context.Background(), start-1) // 21:59:59
	assert.Equal(t, model.StateIdle, m.State().Kind)

	m.Update(context.Background(), start) // 22:00:00
	require.Equal(t, model.StateWatering, m.State().Kind)
	assert.Equal(t, []int{1}, sensors.activated)

	m.Update(context.Background(), start+1800) // 22:30:00
	assert.Equal(t, model.StateIdle, m.State().Kind)
	assert.Equal(t, []int{1}, sensors.deactivated)
	require.Len(t, events.logged, 1)
	assert.InDelta(t, 0.5, events.logged[0].WaterAppliedCM, 0.0001)
}

// S3 — Pause / resume across rain.
func TestScenarioS3_PauseResumeAcrossRain(t *testing.T) {
	cat := catalog.New([]model.Sector{{ID: 1, SprinklerDebit: 3600}})
	window := model.NewWindow(unixTime(0), 0, 24)
	sensors := &fakeSensors{}
	events := &fakeEvents{}
	m := New(zap.NewNop(), cat, &window, sensors, events)
	m.SetMode(model.ModeWizard)

	const t0 = int64(0)
	m.SetWizardPlans([]model.DailyPlan{{{SectorID: 1, Start: t0, Duration: 1800}}})
	m.Update(context.Background(), t0)
	require.Equal(t, model.StateWatering, m.State().Kind)

	m.HandleWeather(context.Background(), t0+600, model.RainStart)
	require.Equal(t, model.StatePaused, m.State().Kind)
	assert.Equal(t, []int{1}, sensors.deactivated)

	m.HandleWeather(context.Background(), t0+900, model.RainStop)
	require.Equal(t, model.StateWatering, m.State().Kind)
	ws := m.State().Watering
	assert.Equal(t, t0, ws.Start)
	assert.Equal(t, int64(1800), ws.Duration, "resume preserves the original duration, not elapsed-minus-pause")
	assert.Equal(t, []int{1, 1}, sensors.activated)

	// The original duration governs completion regardless of the pause
	// (elapsed-wall accrual, spec.md section 8 S3's closing note).
	m.Update(context.Background(), t0+1800)
	assert.Equal(t, model.StateIdle, m.State().Kind)
}

// S4 — Weather signal ignored in Auto.
func TestScenarioS4_WeatherIgnoredInAuto(t *testing.T) {
	cat := catalog.New([]model.Sector{{ID: 1, SprinklerDebit: 3600}})
	window := model.NewWindow(unixTime(0), 0, 24)
	sensors := &fakeSensors{}
	events := &fakeEvents{}
	m := New(zap.NewNop(), cat, &window, sensors, events)
	m.SetAutoPlans([]model.DailyPlan{{{SectorID: 1, Start: 0, Duration: 600}}})
	m.Update(context.Background(), 0)
	require.Equal(t, model.StateWatering, m.State().Kind)

	m.HandleWeather(context.Background(), 100, model.RainStart)
	assert.Equal(t, model.StateWatering, m.State().Kind, "Auto mode ignores weather signals")
	assert.Empty(t, sensors.deactivated)

	m.Update(context.Background(), 600)
	assert.Equal(t, model.StateIdle, m.State().Kind)
	require.Len(t, events.logged, 1, "the event still logs normally once the ignored signal has passed")
}

// S5 — Mode change mid-cycle. Regression test: dropFirstPlan must
// remove the plan the just-completed cycle actually came from, not
// whichever plan list the mode happens to point at once the cycle
// exhausts.
func TestScenarioS5_ModeChangeMidCycleDropsOriginatingPlanOnly(t *testing.T) {
	cat := catalog.New([]model.Sector{{ID: 1, SprinklerDebit: 3600}, {ID: 2, SprinklerDebit: 3600}})
	window := model.NewWindow(unixTime(0), 0, 24)
	sensors := &fakeSensors{}
	events := &fakeEvents{}
	m := New(zap.NewNop(), cat, &window, sensors, events)
	m.SetMode(model.ModeWizard)

	wizardPlan := model.DailyPlan{{SectorID: 1, Start: 0, Duration: 1800}}
	autoPlan := model.DailyPlan{{SectorID: 2, Start: 5000, Duration: 600}}
	m.SetWizardPlans([]model.DailyPlan{wizardPlan})
	m.SetAutoPlans([]model.DailyPlan{autoPlan})

	m.Update(context.Background(), 0)
	require.Equal(t, model.StateWatering, m.State().Kind)
	require.Equal(t, 1, m.State().Watering.SectorID)

	// ChgMode(Auto) arrives mid-cycle at t0+600: takes effect
	// immediately, but the in-progress Wizard cycle keeps running.
	m.SetMode(model.ModeAuto)
	assert.Equal(t, model.ModeAuto, m.Mode())
	assert.Equal(t, model.StateWatering, m.State().Kind, "mode change must not interrupt the running cycle")

	// The Wizard session completes on its original 1800s duration.
	m.Update(context.Background(), 1800)
	assert.Equal(t, model.StateIdle, m.State().Kind)

	// The exhausted cycle drops the Wizard plan it actually came from;
	// the unrelated (and still-future) Auto plan must survive.
	assert.Empty(t, m.wizardPlans, "wizard plan must be dropped once its cycle exhausts")
	require.Len(t, m.autoPlans, 1, "an unrelated Auto plan must not be dropped by a Wizard-mode completion")
	assert.Equal(t, autoPlan, m.autoPlans[0])

	// The next Idle→Watering decision now consults the Auto plan.
	m.Update(context.Background(), 5000)
	require.Equal(t, model.StateWatering, m.State().Kind)
	assert.Equal(t, 2, m.State().Watering.SectorID)
}
