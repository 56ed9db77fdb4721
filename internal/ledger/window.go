package ledger

import (
	"fmt"
	"time"
)

// WindowMode selects the dashboard aggregation window.
type WindowMode string

const (
	Daily   WindowMode = "daily"
	Weekly  WindowMode = "weekly"
	Monthly WindowMode = "monthly"
)

// ParseWindowMode parses a query-string mode value.
func ParseWindowMode(s string) (WindowMode, error) {
	switch WindowMode(s) {
	case Daily, Weekly, Monthly:
		return WindowMode(s), nil
	}
	return "", fmt.Errorf("unknown window mode %q", s)
}

// WindowQuery selects a day, week-of-month or month to aggregate over.
// Weeks are consecutive 7-day blocks counted from day 1 of the month; they
// do not align to calendar weeks and the final block may be shorter. A zero
// Year selects the current year.
type WindowQuery struct {
	Mode  WindowMode
	Date  time.Time  // daily: the calendar date
	Week  int        // weekly: 1-based block index within the month
	Month time.Month // weekly/monthly
	Year  int        // weekly/monthly, 0 = current year
}

// WindowReport is the dashboard view for one window: the matching events in
// chronological order plus total and per-category sums.
type WindowReport struct {
	Events      []FootprintEvent     `json:"events"`
	TotalKg     float64              `json:"total_kg"`
	PerCategory map[Category]float64 `json:"per_category"`
}

// Week is one 7-day block of a month partition.
type Week struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeeksInMonth partitions a month into consecutive 7-day blocks starting at
// day 1. The end of each block is the last instant of its last day, clamped
// to the end of the month.
func WeeksInMonth(month time.Month, year int) []Week {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var weeks []Week
	for start := first; start.Before(last) || start.Equal(last); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
		if end.After(last) {
			end = last
		}
		weeks = append(weeks, Week{Index: len(weeks) + 1, Start: start, End: end})
	}
	return weeks
}

// QueryWindow filters the event log by the selected window and aggregates
// the matching events. A selector inconsistent with the mode (for example a
// week index outside the month's partition) yields an empty report rather
// than an error. The read is pure and repeatable for a fixed event log.
func (l *Ledger) QueryWindow(q WindowQuery) WindowReport {
	if q.Year == 0 {
		q.Year = time.Now().Year()
	}

	report := WindowReport{
		Events:      []FootprintEvent{},
		PerCategory: map[Category]float64{Transport: 0, Food: 0, Energy: 0},
	}

	match := l.windowFilter(q)
	if match == nil {
		return report
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ev := range l.events {
		if !match(ev.Timestamp) {
			continue
		}
		report.Events = append(report.Events, ev)
		report.TotalKg += ev.AmountKg
		report.PerCategory[ev.Category] += ev.AmountKg
	}
	return report
}

// windowFilter builds the timestamp predicate for a query, or nil when the
// selector cannot match anything.
func (l *Ledger) windowFilter(q WindowQuery) func(time.Time) bool {
	switch q.Mode {
	case Daily:
		y, m, d := q.Date.Date()
		return func(ts time.Time) bool {
			ey, em, ed := ts.Date()
			return ey == y && em == m && ed == d
		}
	case Weekly:
		weeks := WeeksInMonth(q.Month, q.Year)
		if q.Week < 1 || q.Week > len(weeks) {
			return nil
		}
		w := weeks[q.Week-1]
		return func(ts time.Time) bool {
			return !ts.Before(w.Start) && !ts.After(w.End)
		}
	case Monthly:
		return func(ts time.Time) bool {
			return ts.Month() == q.Month && ts.Year() == q.Year
		}
	}
	return nil
}
