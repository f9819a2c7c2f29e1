// Package catalog holds the in-memory sector map the dispatcher owns
// exclusively on the control thread (spec.md section 4.2).
package catalog

import (
	"fmt"
	"sort"

	"github.com/waterwise/irrigo/internal/watering/model"
)

// Catalog is a mapping from sector id to Sector. It is mutated only by
// the state machine during active watering and by daily adjustment;
// there is no internal locking because the dispatcher is its single
// writer (spec.md section 5).
type Catalog struct {
	sectors map[int]*model.Sector
}

// New builds a Catalog from a freshly loaded sector list. Progress is
// reset to zero on boot, per the weekly-budget-on-boot assumption
// recorded as an open question in spec.md section 4.2.
func New(sectors []model.Sector) *Catalog {
	c := &Catalog{sectors: make(map[int]*model.Sector, len(sectors))}
	for i := range sectors {
		s := sectors[i]
		s.Progress = 0
		c.sectors[s.ID] = &s
	}
	return c
}

// Get returns the sector with the given id.
func (c *Catalog) Get(id int) (*model.Sector, bool) {
	s, ok := c.sectors[id]
	return s, ok
}

// MustGet returns the sector with the given id, panicking if absent.
// Used internally where the caller has already validated the id comes
// from a generated plan.
func (c *Catalog) MustGet(id int) *model.Sector {
	s, ok := c.sectors[id]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown sector id %d", id))
	}
	return s
}

// All returns every sector, sorted by id, for planner input and status
// snapshots.
func (c *Catalog) All() []model.Sector {
	out := make([]model.Sector, 0, len(c.sectors))
	for _, s := range c.sectors {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AccrueProgress credits sector id with seconds worth of water at its
// sprinkler debit (spec.md section 4.7's per-second accrual).
func (c *Catalog) AccrueProgress(id int, seconds float64) {
	s := c.MustGet(id)
	s.Progress += s.SprinklerDebit / 3600.0 * seconds
}

// SetLastWater stamps the sector's most recent deactivation time.
func (c *Catalog) SetLastWater(id int, unixSeconds int64) {
	c.MustGet(id).LastWater = unixSeconds
}

// ApplyDailyAdjustment subtracts delta cm from a sector's progress,
// floored at zero (spec.md section 4.6 step 4).
func (c *Catalog) ApplyDailyAdjustment(id int, delta float64) {
	s := c.MustGet(id)
	s.Progress -= delta
	if s.Progress < 0 {
		s.Progress = 0
	}
}

// CreditOptimistic adds water credit during planning, used by the
// Wizard planner's optimistic-credit pass (spec.md section 4.4 step 4)
// so later sectors in the same pass see updated state. Unlike
// AccrueProgress this operates on a caller-owned copy of the sector
// list, not the live catalog — see planner.Wizard.
func CreditOptimistic(sectors []model.Sector, id int, waterCM float64) {
	for i := range sectors {
		if sectors[i].ID == id {
			sectors[i].Progress += waterCM
			return
		}
	}
}
