package benchmark

import "time"

// Window is the inclusive reporting period.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window of the given length ending on today.
func NewWindow(today time.Time, days int) Window {
	if days <= 0 {
		days = DefaultConfig().WindowDays
	}
	end := truncateDay(today)
	return Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return daysBetween(w.Start, w.End) + 1
}
