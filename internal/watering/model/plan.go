package model

import "sort"

// WaterSector is a single plan element: one sector, one start time,
// one duration. Two WaterSectors in the same DailyPlan must not
// overlap (spec.md section 3).
type WaterSector struct {
	SectorID int
	Start    int64
	Duration int64
}

// End returns the inclusive-exclusive end of the session.
func (ws WaterSector) End() int64 {
	return ws.Start + ws.Duration
}

// DailyPlan is an ordered, non-overlapping sequence of WaterSectors
// scheduled within one day's window.
type DailyPlan []WaterSector

// SortByStart orders a plan's elements ascending by start time, the
// invariant DailyPlan must hold (spec.md section 3).
func (p DailyPlan) SortByStart() {
	sort.Slice(p, func(i, j int) bool { return p[i].Start < p[j].Start })
}

// Cycle is an in-flight execution of a DailyPlan. Its id is the start
// time of its first sector (spec.md section 3).
type Cycle struct {
	ID           int64
	Plan         DailyPlan
	CurrentIndex int
}

// sentinelBeforeFirst is the index value meaning "not yet started".
const sentinelBeforeFirst = -1

// BuildCycle asserts a non-empty plan and returns a fresh Cycle
// positioned before its first element.
func BuildCycle(plan DailyPlan) *Cycle {
	if len(plan) == 0 {
		panic("model: BuildCycle called with empty plan")
	}
	return &Cycle{
		ID:           plan[0].Start,
		Plan:         plan,
		CurrentIndex: sentinelBeforeFirst,
	}
}

// Advance moves the cycle to its next WaterSector, returning it and
// true, or (zero value, false) once the cycle is exhausted.
func (c *Cycle) Advance() (WaterSector, bool) {
	c.CurrentIndex++
	if c.CurrentIndex >= len(c.Plan) {
		return WaterSector{}, false
	}
	return c.Plan[c.CurrentIndex], true
}

// Current returns the WaterSector the cycle is currently positioned
// on, if any.
func (c *Cycle) Current() (WaterSector, bool) {
	if c.CurrentIndex < 0 || c.CurrentIndex >= len(c.Plan) {
		return WaterSector{}, false
	}
	return c.Plan[c.CurrentIndex], true
}

// Exhausted reports whether the cycle has advanced past its last
// element.
func (c *Cycle) Exhausted() bool {
	return c.CurrentIndex >= len(c.Plan)
}
