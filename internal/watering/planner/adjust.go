package planner

import "github.com/waterwise/irrigo/internal/watering/model"

// WeeklyRolloverCM is the constant the source encodes into the daily
// adjustment to approximate a weekly progress reset (spec.md section
// 4.6 step 3). It is not a principled reset — see SPEC_FULL.md's Open
// Question decisions — but is preserved verbatim.
const WeeklyRolloverCM = 2.5

// PercolationFactor converts a percolation rate in mm/hour to cm/day
// (spec.md section 4.6 step 2): 0.1 converts mm to cm, 24 converts
// hours to a day.
const PercolationFactor = 0.1 * 24

// DailyAdjustment is the net progress delta (spec.md section 4.6 step
// 3), applied by catalog.ApplyDailyAdjustment, for one sector on one
// day boundary.
func DailyAdjustment(sector model.Sector, dailyETCm, dailyRainCm float64, newWeek bool) float64 {
	percolationCm := sector.PercolationRate * PercolationFactor
	delta := dailyETCm - dailyRainCm + percolationCm
	if newWeek {
		delta += WeeklyRolloverCM
	}
	return delta
}
