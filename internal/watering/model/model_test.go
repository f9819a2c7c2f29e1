package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorValidate(t *testing.T) {
	base := Sector{ID: 1, SprinklerDebit: 1.5, PercolationRate: 2, MaxDuration: 1800, WeeklyTarget: 5}
	require.NoError(t, base.Validate(28800))

	negProgress := base
	negProgress.Progress = -1
	assert.Error(t, negProgress.Validate(28800))

	badDuration := base
	badDuration.MaxDuration = 0
	assert.Error(t, badDuration.Validate(28800))

	tooLong := base
	tooLong.MaxDuration = 99999
	assert.Error(t, tooLong.Validate(28800))

	zeroDebit := base
	zeroDebit.SprinklerDebit = 0
	assert.Error(t, zeroDebit.Validate(28800))
}

func TestSectorNeedAndCapacity(t *testing.T) {
	s := Sector{SprinklerDebit: 2, MaxDuration: 3600, WeeklyTarget: 5, Progress: 3}
	assert.InDelta(t, 2.0, s.NeedCM(), 0.0001)
	assert.InDelta(t, 2.0, s.DailyCapacityCM(), 0.0001)

	exhausted := Sector{WeeklyTarget: 5, Progress: 10}
	assert.Equal(t, 0.0, exhausted.NeedCM())
}

func TestCycleAdvanceAndExhausted(t *testing.T) {
	plan := DailyPlan{
		{SectorID: 1, Start: 100, Duration: 60},
		{SectorID: 2, Start: 200, Duration: 60},
	}
	c := BuildCycle(plan)
	assert.Equal(t, int64(100), c.ID)

	_, ok := c.Current()
	assert.False(t, ok, "cycle starts before its first element")

	ws, ok := c.Advance()
	require.True(t, ok)
	assert.Equal(t, 1, ws.SectorID)

	ws, ok = c.Advance()
	require.True(t, ok)
	assert.Equal(t, 2, ws.SectorID)

	_, ok = c.Advance()
	assert.False(t, ok)
	assert.True(t, c.Exhausted())
}

func TestBuildCyclePanicsOnEmptyPlan(t *testing.T) {
	assert.Panics(t, func() { BuildCycle(nil) })
}

func TestDailyPlanSortByStart(t *testing.T) {
	p := DailyPlan{{Start: 300}, {Start: 100}, {Start: 200}}
	p.SortByStart()
	assert.Equal(t, []int64{100, 200, 300}, []int64{p[0].Start, p[1].Start, p[2].Start})
}

func TestWeatherSignalStartStopMatching(t *testing.T) {
	assert.True(t, RainStart.IsStart())
	assert.True(t, WindHigh.IsStart())
	assert.False(t, RainStop.IsStart())

	assert.True(t, RainStop.IsStop())
	assert.True(t, WindLow.IsStop())
	assert.False(t, RainStart.IsStop())

	assert.Equal(t, RainStop, RainStart.Matching())
	assert.Equal(t, RainStart, RainStop.Matching())
	assert.Equal(t, WindLow, WindHigh.Matching())
}

func TestScheduleForWeekday(t *testing.T) {
	s := Schedule{
		{Weekday: 0, SectorID: 1},
		{Weekday: 1, SectorID: 2},
		{Weekday: 0, SectorID: 3},
	}
	monday := s.ForWeekday(0)
	assert.Len(t, monday, 2)
}

func TestWindowRollAndIsWithin(t *testing.T) {
	w := NewWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 22, 8)
	assert.True(t, w.IsWithin(w.Start))
	assert.True(t, w.IsWithin(w.End))
	assert.False(t, w.IsWithin(w.Start-1))

	next := w.Next()
	assert.Equal(t, w.Start+daySeconds, next.Start)

	w.Roll(next.End)
	assert.Equal(t, next, w)
}

func TestStartOfDay(t *testing.T) {
	a := StartOfDay(time.Date(2026, 8, 1, 13, 45, 0, 0, time.UTC))
	b := StartOfDay(time.Date(2026, 8, 1, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, a, b)

	c := StartOfDay(time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, a+daySeconds, c)
}
