package model

import "time"

// WaterWin is today's legal actuation interval, expressed as absolute
// UTC seconds so downstream logic never has to special-case
// midnight crossings (spec.md section 4.1).
type WaterWin struct {
	Start int64
	End   int64
}

const daySeconds = 86400

// NewWindow builds the window containing t, given the configured
// start hour (0-23) and duration in hours.
func NewWindow(t time.Time, hourStart, durationHours int) WaterWin {
	dayStart := startOfDay(t)
	start := dayStart + int64(hourStart)*3600
	end := start + int64(durationHours)*3600 - 1
	return WaterWin{Start: start, End: end}
}

func startOfDay(t time.Time) int64 {
	return StartOfDay(t)
}

// StartOfDay returns the unix timestamp of t's midnight UTC boundary,
// the marker the dispatcher compares across ticks to detect day
// rollovers (spec.md section 4.6).
func StartOfDay(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// IsWithin reports whether t falls inside the window, inclusive of
// both endpoints.
func (w WaterWin) IsWithin(t int64) bool {
	return t >= w.Start && t <= w.End
}

// Roll advances the window by whole days until its end is not behind
// t. One step is sufficient under the 1 Hz tick, but the loop handles
// a caller-supplied t far in the future too.
func (w *WaterWin) Roll(t int64) {
	for t > w.End {
		w.Start += daySeconds
		w.End += daySeconds
	}
}

// Next returns the window shifted forward by one day, without
// mutating w.
func (w WaterWin) Next() WaterWin {
	return WaterWin{Start: w.Start + daySeconds, End: w.End + daySeconds}
}

// Duration returns the window length in seconds.
func (w WaterWin) Duration() int64 {
	return w.End - w.Start + 1
}
