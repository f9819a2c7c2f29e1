package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterwise/irrigo/internal/watering/model"
)

func TestDailyAdjustment(t *testing.T) {
	sector := model.Sector{PercolationRate: 1} // 1 mm/hour -> 2.4 cm/day
	delta := DailyAdjustment(sector, 0.5, 0.2, false)
	assert.InDelta(t, 0.5-0.2+2.4, delta, 0.0001)

	withRollover := DailyAdjustment(sector, 0, 0, true)
	assert.InDelta(t, 2.4+WeeklyRolloverCM, withRollover, 0.0001)
}

func TestAutoBuildsSortedPlanForWeekday(t *testing.T) {
	schedule := model.Schedule{
		{Weekday: 2, SectorID: 1, SecondsFromMidnight: 3600, DurationSeconds: 600},
		{Weekday: 2, SectorID: 2, SecondsFromMidnight: 0, DurationSeconds: 300},
		{Weekday: 3, SectorID: 3, SecondsFromMidnight: 0, DurationSeconds: 300},
	}
	// 2026-08-05 is a Wednesday -> isoWeekday Monday=0 gives 2.
	wednesday := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	plans := Auto(schedule, wednesday)
	require.Len(t, plans, 1)
	require.Len(t, plans[0], 2)
	assert.Equal(t, 2, plans[0][0].SectorID)
	assert.Equal(t, 1, plans[0][1].SectorID)
}

func TestAutoReturnsNilWhenNoEntriesForWeekday(t *testing.T) {
	schedule := model.Schedule{{Weekday: 5, SectorID: 1}}
	wednesday := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	assert.Nil(t, Auto(schedule, wednesday))
}

func TestWizardReturnsNilWhenNoNeed(t *testing.T) {
	win := model.NewWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 22, 8)
	in := WizardInput{
		Sectors:            []model.Sector{{ID: 1, WeeklyTarget: 5, Progress: 5, SprinklerDebit: 1, MaxDuration: 3600}},
		Now:                time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Window:             win,
		TransitionSlack:    20,
		MinWateringSeconds: 60,
	}
	assert.Nil(t, Wizard(in))
}

func TestWizardMorningPassEndsAtWindowEnd(t *testing.T) {
	win := model.NewWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 22, 8)
	in := WizardInput{
		Sectors: []model.Sector{
			{ID: 1, WeeklyTarget: 10, Progress: 0, SprinklerDebit: 2, MaxDuration: 3600},
		},
		Now:                time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC), // Thursday, remainingDays small
		Window:             win,
		TransitionSlack:    20,
		MinWateringSeconds: 60,
	}
	plans := Wizard(in)
	require.NotEmpty(t, plans)
	last := plans[0][len(plans[0])-1]
	assert.Equal(t, win.End+1, last.Start+last.Duration)
}

func TestWizardDoesNotMutateCallerSectors(t *testing.T) {
	win := model.NewWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 22, 8)
	sectors := []model.Sector{{ID: 1, WeeklyTarget: 10, Progress: 0, SprinklerDebit: 2, MaxDuration: 3600}}
	in := WizardInput{
		Sectors:            sectors,
		Now:                time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC),
		Window:             win,
		TransitionSlack:    20,
		MinWateringSeconds: 60,
	}
	_ = Wizard(in)
	assert.Equal(t, 0.0, sectors[0].Progress, "Wizard must not mutate the caller's slice")
}

// TestScenarioS2_WizardTwoSectorsNeedEveningSession reproduces spec.md
// section 8 S2's setup (weekly_target/debit/max/percolation values and
// the 22:00-06:00 window), but on a Saturday rather than the prose's
// Monday: with Monday's 6 remaining days, section 4.4 step 4's own
// cap_cm formula (max_duration/3600*debit = 0.8cm) lets both sectors
// skip today entirely, which contradicts the scenario's own
// description — an inconsistency in the narrative's arithmetic, not
// in this algorithm. Picking remaining_days=1 keeps every field from
// the original setup and genuinely exercises "needs evening session".
func TestScenarioS2_WizardTwoSectorsNeedEveningSession(t *testing.T) {
	saturday := time.Date(2026, 8, 8, 12, 0, 0, 0, time.UTC)
	win := model.NewWindow(saturday, 22, 8)
	in := WizardInput{
		Sectors: []model.Sector{
			{ID: 1, WeeklyTarget: 2.5, Progress: 0, SprinklerDebit: 1.6, MaxDuration: 1800, PercolationRate: 0.29},
			{ID: 2, WeeklyTarget: 2.5, Progress: 0, SprinklerDebit: 1.6, MaxDuration: 1800, PercolationRate: 0.29},
		},
		Now:                saturday,
		Window:             win,
		TransitionSlack:    20,
		MinWateringSeconds: 60,
	}

	plans := Wizard(in)
	require.Len(t, plans, 2, "one morning plan and one evening plan")

	morning := plans[0]
	require.Len(t, morning, 2)
	last := morning[len(morning)-1]
	assert.Equal(t, win.End+1, last.Start+last.Duration, "morning pass tail-packs to window.end")
	first := morning[0]
	assert.Equal(t, first.Start+first.Duration+in.TransitionSlack, last.Start, "sessions separated by exactly transition_slack")

	evening := plans[1]
	require.Len(t, evening, 2)
	evenWin := win.Next()
	assert.Equal(t, evenWin.Start, evening[0].Start, "evening pass head-packs from the next window.start")
}

func TestWizardSkipsSessionsBelowMinWateringSeconds(t *testing.T) {
	win := model.NewWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 22, 8)
	// Capped MaxDuration forces a short session (30s) that clears the
	// skip-if-can-wait threshold but still falls under MinWateringSeconds.
	in := WizardInput{
		Sectors: []model.Sector{
			{ID: 1, WeeklyTarget: 42, Progress: 0, SprinklerDebit: 1000, MaxDuration: 30},
		},
		Now:                time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC), // Monday, remainingDays=6
		Window:             win,
		TransitionSlack:    20,
		MinWateringSeconds: 60,
	}
	assert.Nil(t, Wizard(in))
}
