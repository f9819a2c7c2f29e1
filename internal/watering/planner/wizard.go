// Package planner implements the two plan generators the core
// supports — the Wizard water-budget planner (C4) and the Auto
// schedule reader (C5) — plus the daily ET/rain/percolation
// adjustment that ties them together (spec.md sections 4.4-4.6).
package planner

import (
	"math"
	"time"

	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/model"
)

// WizardInput is everything one call to Wizard needs: the live sector
// list (with current progress), the current time, the current window,
// and the two planner constants from spec.md section 6.
type WizardInput struct {
	Sectors           []model.Sector
	Now               time.Time
	Window            model.WaterWin
	TransitionSlack   int64
	MinWateringSeconds int64
}

// session is one scheduled sector during plan construction, tracked
// alongside the water it will deliver so we can optimistically credit
// progress before evaluating whether an evening pass is needed.
type session struct {
	sectorID int
	start    int64
	seconds  int64
	waterCM  float64
}

// Wizard computes the next daily plan(s) for the Wizard mode, exactly
// following the algorithm in spec.md section 4.4. It returns 0, 1, or
// 2 DailyPlans; it never mutates the caller's sector slice (the
// optimistic progress credit happens on an internal copy).
func Wizard(in WizardInput) []model.DailyPlan {
	sectors := cloneSectors(in.Sectors)
	remainingDays := 7 - int(in.Now.Weekday())
	if remainingDays < 1 {
		remainingDays = 1
	}

	if allNeedsZero(sectors) {
		return nil
	}

	morning := morningPass(sectors, in.Window, remainingDays, in.TransitionSlack, in.MinWateringSeconds)

	needEvening := false
	for _, s := range sectors {
		if s.NeedCM() > s.DailyCapacityCM()*float64(remainingDays) {
			needEvening = true
			break
		}
	}

	plans := make([]model.DailyPlan, 0, 2)
	if len(morning) > 0 {
		plan := toPlan(morning)
		plan.SortByStart()
		plans = append(plans, plan)
	}

	if needEvening {
		evenWindow := in.Window.Next()
		evening := eveningPass(sectors, evenWindow, remainingDays, in.TransitionSlack, in.MinWateringSeconds)
		if len(evening) > 0 {
			plan := toPlan(evening)
			plan.SortByStart()
			plans = append(plans, plan)
		}
	}

	if len(plans) == 0 {
		return nil
	}
	return plans
}

// morningPass packs the tail of the window: water ends at window.End,
// sessions grow backwards (spec.md section 4.4 step 4).
func morningPass(sectors []model.Sector, win model.WaterWin, remainingDays int, slack, minSeconds int64) []session {
	var out []session

	for i := range sectors {
		s := &sectors[i]
		if s.NeedCM() <= s.DailyCapacityCM()*float64(remainingDays-1) {
			continue // can still finish later this week if skipped today
		}

		seconds := irrigationSeconds(s.NeedCM(), s.SprinklerDebit, s.MaxDuration)
		if seconds < minSeconds {
			continue
		}

		waterCM := float64(seconds) / 3600.0 * s.SprinklerDebit
		out = append(out, session{sectorID: s.ID, seconds: seconds, waterCM: waterCM})
		catalog.CreditOptimistic(sectors, s.ID, waterCM)
	}

	return assignTailTimes(out, win.End, slack)
}

// eveningPass grows forward from window.Start (spec.md section 4.4
// step 5): evening is conceptually tomorrow morning because the
// window straddles midnight.
func eveningPass(sectors []model.Sector, win model.WaterWin, remainingDays int, slack, minSeconds int64) []session {
	var out []session

	for i := range sectors {
		s := &sectors[i]
		if s.NeedCM() <= s.DailyCapacityCM()*float64(remainingDays-1) {
			continue
		}

		seconds := irrigationSeconds(s.NeedCM(), s.SprinklerDebit, s.MaxDuration)
		if seconds < minSeconds {
			continue
		}

		waterCM := float64(seconds) / 3600.0 * s.SprinklerDebit
		out = append(out, session{sectorID: s.ID, seconds: seconds, waterCM: waterCM})
		catalog.CreditOptimistic(sectors, s.ID, waterCM)
	}

	return assignHeadTimes(out, win.Start, slack)
}

// assignTailTimes lays sessions out so the last one ends exactly at
// windowEnd and each prior one ends transitionSlack seconds before the
// next one starts.
func assignTailTimes(sessions []session, windowEnd, slack int64) []session {
	cursor := windowEnd + 1 // End is inclusive; sessions end exclusive
	out := make([]session, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		end := cursor
		start := end - s.seconds
		out[i] = s
		out[i].start = start
		cursor = start - slack
	}
	return out
}

func assignHeadTimes(sessions []session, windowStart, slack int64) []session {
	cursor := windowStart
	out := make([]session, len(sessions))
	for i, s := range sessions {
		s.start = cursor
		out[i] = s
		cursor += s.seconds + slack
	}
	return out
}

func irrigationSeconds(needCM, debit float64, maxDuration int64) int64 {
	seconds := int64(math.Ceil(needCM / debit * 3600.0))
	if seconds > maxDuration {
		seconds = maxDuration
	}
	return seconds
}

func toPlan(sessions []session) model.DailyPlan {
	plan := make(model.DailyPlan, len(sessions))
	for i, s := range sessions {
		plan[i] = model.WaterSector{SectorID: s.sectorID, Start: s.start, Duration: s.seconds}
	}
	return plan
}

func allNeedsZero(sectors []model.Sector) bool {
	for _, s := range sectors {
		if s.NeedCM() > 0 {
			return false
		}
	}
	return true
}

func cloneSectors(in []model.Sector) []model.Sector {
	out := make([]model.Sector, len(in))
	copy(out, in)
	return out
}
