package planner

import (
	"time"

	"github.com/waterwise/irrigo/internal/watering/model"
)

// Auto materializes today's plan(s) from the persisted weekday
// schedule (spec.md section 4.5). It is strictly open-loop: it never
// reads sector progress.
func Auto(schedule model.Schedule, now time.Time) []model.DailyPlan {
	weekday := isoWeekday(now)
	entries := schedule.ForWeekday(weekday)
	if len(entries) == 0 {
		return nil
	}

	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC).Unix()

	plan := make(model.DailyPlan, len(entries))
	for i, e := range entries {
		plan[i] = model.WaterSector{
			SectorID: e.SectorID,
			Start:    dayStart + e.SecondsFromMidnight,
			Duration: e.DurationSeconds,
		}
	}
	plan.SortByStart()

	return []model.DailyPlan{plan}
}

// isoWeekday maps time.Weekday (Sunday=0) to the schedule's
// Monday=0..Sunday=6 convention (spec.md section 6's persistence
// schema: "0=Mon..6=Sun").
func isoWeekday(t time.Time) int {
	wd := int(t.UTC().Weekday())
	return (wd + 6) % 7
}
