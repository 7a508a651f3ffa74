package brackets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-01-01 is a Thursday.
func date(day int) time.Time {
	return time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC)
}

func TestIsValidDay(t *testing.T) {
	cal := DefaultCalendar()

	thursday := date(1)
	friday := date(2)
	saturday := date(3)
	sunday := date(4)
	monday := date(5)

	assert.True(t, cal.IsValidDay(thursday, false))
	assert.True(t, cal.IsValidDay(friday, false))
	assert.False(t, cal.IsValidDay(saturday, false))
	assert.True(t, cal.IsValidDay(saturday, true))
	assert.False(t, cal.IsValidDay(sunday, true))
	assert.False(t, cal.IsValidDay(monday, false))
}

func TestNextValidDayAlwaysAdvances(t *testing.T) {
	cal := DefaultCalendar()

	thursday := date(1)
	next := cal.NextValidDay(thursday, false)
	assert.Equal(t, time.Friday, next.Weekday())
	assert.Equal(t, date(2), next)
}

func TestNextValidDaySkipsWeekend(t *testing.T) {
	cal := DefaultCalendar()

	friday := date(2)
	next := cal.NextValidDay(friday, false)
	assert.Equal(t, time.Thursday, next.Weekday())
	assert.Equal(t, date(8), next)
}

func TestNextValidDayFinals(t *testing.T) {
	cal := DefaultCalendar()

	// With the finals day allowed, Friday rolls into Saturday.
	friday := date(2)
	next := cal.NextValidDay(friday, true)
	assert.Equal(t, time.Saturday, next.Weekday())
	assert.Equal(t, date(3), next)

	// From Saturday the next chance is Thursday either way.
	saturday := date(3)
	assert.Equal(t, date(8), cal.NextValidDay(saturday, false))
}
