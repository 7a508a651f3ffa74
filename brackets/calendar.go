// knockout-scheduler/brackets/calendar.go
package brackets

import "time"

// Calendar knows which weekdays a tournament may play on. Ordinary rounds run
// only on the two ordinary weekdays; the finals weekday is allowed only when
// the caller asks for it explicitly.
type Calendar struct {
	OrdinaryDays [2]time.Weekday
	FinalsDay    time.Weekday
}

// DefaultCalendar plays Thursdays and Fridays, with Saturdays reserved for
// the finals bracket.
func DefaultCalendar() Calendar {
	return Calendar{
		OrdinaryDays: [2]time.Weekday{time.Thursday, time.Friday},
		FinalsDay:    time.Saturday,
	}
}

func (c Calendar) IsValidDay(t time.Time, allowFinalsDay bool) bool {
	day := t.Weekday()
	if day == c.OrdinaryDays[0] || day == c.OrdinaryDays[1] {
		return true
	}
	return allowFinalsDay && day == c.FinalsDay
}

// NextValidDay returns the first valid day strictly after t. It always
// advances at least one calendar day, even if t itself is valid: callers that
// may stay on the current day must check IsValidDay first.
func (c Calendar) NextValidDay(t time.Time, allowFinalsDay bool) time.Time {
	next := t.AddDate(0, 0, 1)
	for !c.IsValidDay(next, allowFinalsDay) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
