package brackets

import (
	"testing"
	"time"

	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGroup(t *testing.T, teamCount int, groupCode string) []*models.Match {
	t.Helper()
	bracket, err := BuildBracket(teamCount)
	require.NoError(t, err)
	return Flatten(bracket, 1, groupCode)
}

func slotTime(day time.Time, slot string) time.Time {
	parsed, _ := time.Parse("15:04", slot)
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}

func defaultOpts() ScheduleOptions {
	return ScheduleOptions{
		TimeSlots:  DefaultTimeSlots,
		TableCount: DefaultTableCount,
		Calendar:   DefaultCalendar(),
	}
}

func TestScheduleMatchesSmallGroupSingleDay(t *testing.T) {
	matches := buildGroup(t, 8, "Day1-A")
	start := date(1) // Thursday

	opts := defaultOpts()
	opts.TableCount = 4
	require.NoError(t, ScheduleMatches(matches, start, opts))

	// Three rounds, each one slot later on the same day.
	wantBySlot := map[int]string{3: "18:00", 2: "19:30", 1: "21:00"}
	for _, m := range matches {
		require.NotNil(t, m.StartTime, "round %d match %d", m.Round, m.MatchNumber)
		require.NotNil(t, m.MatchDate)
		require.NotNil(t, m.TableNumber)

		assert.Equal(t, *m.StartTime, *m.MatchDate, "start time and match date must agree")
		assert.Equal(t, slotTime(start, wantBySlot[m.Round]), *m.StartTime,
			"round %d match %d", m.Round, m.MatchNumber)
		assert.Equal(t, m.MatchNumber, *m.TableNumber)
	}

	assert.Empty(t, VerifySchedule(matches))
}

func TestScheduleMatchesRespectsTableCapacity(t *testing.T) {
	// 40 matches in one round against 16 tables: 16 + 16 + 8 across slots.
	matches := make([]*models.Match, 0, 40)
	code := "Day1-A"
	for i := 1; i <= 40; i++ {
		matches = append(matches, &models.Match{
			TournamentID: 1,
			GroupCode:    &code,
			Round:        6,
			MatchNumber:  i,
		})
	}

	start := date(1)
	require.NoError(t, ScheduleMatches(matches, start, defaultOpts()))

	perSlot := make(map[time.Time]int)
	tablesPerSlot := make(map[time.Time]map[int]bool)
	for _, m := range matches {
		require.NotNil(t, m.StartTime)
		require.NotNil(t, m.TableNumber)
		perSlot[*m.StartTime]++

		if tablesPerSlot[*m.StartTime] == nil {
			tablesPerSlot[*m.StartTime] = make(map[int]bool)
		}
		assert.False(t, tablesPerSlot[*m.StartTime][*m.TableNumber],
			"table %d double-booked at %s", *m.TableNumber, m.StartTime)
		tablesPerSlot[*m.StartTime][*m.TableNumber] = true
	}

	assert.Equal(t, 16, perSlot[slotTime(start, "18:00")])
	assert.Equal(t, 16, perSlot[slotTime(start, "19:30")])
	assert.Equal(t, 8, perSlot[slotTime(start, "21:00")])
}

func TestScheduleMatchesDualGroupDay(t *testing.T) {
	matches := append(buildGroup(t, 32, "Day1-A"), buildGroup(t, 32, "Day1-B")...)
	start := date(1)

	require.NoError(t, ScheduleMatches(matches, start, defaultOpts()))

	openA := slotTime(start, "18:00")
	openB := slotTime(start, "19:30")
	for _, m := range matches {
		require.NotNil(t, m.StartTime)
		if m.Round != 5 {
			continue
		}
		switch *m.GroupCode {
		case "Day1-A":
			assert.Equal(t, openA, *m.StartTime, "match %d", m.MatchNumber)
		case "Day1-B":
			assert.Equal(t, openB, *m.StartTime, "match %d", m.MatchNumber)
		}
	}

	// Later rounds start at the third slot, leaving the opening slots to the
	// two groups. The last two slots of the session wrap past midnight onto
	// the next calendar date but stay chronologically after the earlier ones.
	third := slotTime(start, "21:00")
	for _, m := range matches {
		if m.Round == 5 {
			continue
		}
		assert.False(t, m.StartTime.Before(third), "round %d match %d", m.Round, m.MatchNumber)
	}
	for _, m := range matches {
		switch m.Round {
		case 4:
			assert.Equal(t, slotTime(start, "21:00"), *m.StartTime)
		case 3:
			assert.Equal(t, slotTime(start, "22:30"), *m.StartTime)
		case 2:
			assert.Equal(t, slotTime(start.AddDate(0, 0, 1), "00:00"), *m.StartTime)
		case 1:
			assert.Equal(t, slotTime(start.AddDate(0, 0, 1), "01:30"), *m.StartTime)
		}
	}

	assert.Empty(t, VerifySchedule(matches))
}

func TestScheduleMatchesAfterMidnightSlotRollsDate(t *testing.T) {
	code := "Day1-A"
	matches := []*models.Match{
		{TournamentID: 1, GroupCode: &code, Round: 2, MatchNumber: 1},
		{TournamentID: 1, GroupCode: &code, Round: 1, MatchNumber: 1},
	}

	start := date(1)
	opts := ScheduleOptions{
		TimeSlots:  []string{"22:30", "00:00"},
		TableCount: 1,
		Calendar:   DefaultCalendar(),
	}
	require.NoError(t, ScheduleMatches(matches, start, opts))

	require.NotNil(t, matches[0].StartTime)
	require.NotNil(t, matches[1].StartTime)
	assert.Equal(t, slotTime(start, "22:30"), *matches[0].StartTime)
	assert.Equal(t, slotTime(start.AddDate(0, 0, 1), "00:00"), *matches[1].StartTime)
	assert.True(t, matches[0].StartTime.Before(*matches[1].StartTime))
	assert.Empty(t, VerifySchedule(matches))
}

func TestScheduleMatchesDualDayShortSlotListOverflows(t *testing.T) {
	// Both opening slots are taken by the two groups, so later rounds have
	// no slot left on any day and the cursor must give up cleanly.
	matches := append(buildGroup(t, 32, "Day1-A"), buildGroup(t, 32, "Day1-B")...)

	opts := ScheduleOptions{
		TimeSlots:  []string{"18:00", "19:30"},
		TableCount: 16,
		Calendar:   DefaultCalendar(),
	}
	err := ScheduleMatches(matches, date(1), opts)
	assert.ErrorIs(t, err, ErrSchedulingOverflow)
}

func TestScheduleMatchesSmallTablePoolKeepsTablesDisjoint(t *testing.T) {
	// 8 tables cannot host a 16-match opening round in one slot, so the
	// dedicated-opening-slot layout must yield to capacity-capped filling.
	matches := append(buildGroup(t, 32, "Day1-A"), buildGroup(t, 32, "Day1-B")...)

	opts := defaultOpts()
	opts.TableCount = 8
	require.NoError(t, ScheduleMatches(matches, date(1), opts))

	tablesPerSlot := make(map[time.Time]map[int]bool)
	for _, m := range matches {
		require.NotNil(t, m.StartTime)
		require.NotNil(t, m.TableNumber)
		assert.LessOrEqual(t, *m.TableNumber, 8)

		if tablesPerSlot[*m.StartTime] == nil {
			tablesPerSlot[*m.StartTime] = make(map[int]bool)
		}
		assert.False(t, tablesPerSlot[*m.StartTime][*m.TableNumber],
			"table %d double-booked at %s", *m.TableNumber, m.StartTime)
		tablesPerSlot[*m.StartTime][*m.TableNumber] = true
	}

	assert.Empty(t, VerifySchedule(matches))
}

func TestScheduleMatchesManyTablesNoDualSplit(t *testing.T) {
	// A table pool above the threshold lets both groups open in one slot.
	matches := append(buildGroup(t, 32, "Day1-A"), buildGroup(t, 32, "Day1-B")...)
	start := date(1)

	opts := defaultOpts()
	opts.TableCount = 32
	require.NoError(t, ScheduleMatches(matches, start, opts))

	opening := slotTime(start, "18:00")
	for _, m := range matches {
		if m.Round != 5 {
			continue
		}
		assert.Equal(t, opening, *m.StartTime, "group %s match %d", *m.GroupCode, m.MatchNumber)
	}
}

func TestScheduleMatchesOverflowsToNextDay(t *testing.T) {
	code := "Day1-A"
	matches := make([]*models.Match, 0, 3)
	for i := 1; i <= 3; i++ {
		matches = append(matches, &models.Match{
			TournamentID: 1,
			GroupCode:    &code,
			Round:        2,
			MatchNumber:  i,
		})
	}

	start := date(1) // Thursday
	opts := ScheduleOptions{
		TimeSlots:  []string{"18:00"},
		TableCount: 1,
		Calendar:   DefaultCalendar(),
	}
	require.NoError(t, ScheduleMatches(matches, start, opts))

	assert.Equal(t, date(1).Day(), matches[0].StartTime.Day())
	assert.Equal(t, time.Friday, matches[1].StartTime.Weekday())
	assert.Equal(t, date(2).Day(), matches[1].StartTime.Day())
	// Saturday is finals-only, so the third match jumps to the next Thursday.
	assert.Equal(t, time.Thursday, matches[2].StartTime.Weekday())
	assert.Equal(t, date(8).Day(), matches[2].StartTime.Day())
}

func TestScheduleMatchesRejectsBadInput(t *testing.T) {
	matches := buildGroup(t, 4, "Day1-A")

	err := ScheduleMatches(matches, time.Time{}, defaultOpts())
	assert.ErrorIs(t, err, ErrInvalidStartDate)

	opts := defaultOpts()
	opts.TimeSlots = []string{"18:00", "late evening"}
	err = ScheduleMatches(matches, date(1), opts)
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)

	opts.TimeSlots = []string{"25:00"}
	err = ScheduleMatches(matches, date(1), opts)
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestVerifyScheduleFlagsProblems(t *testing.T) {
	code := "Day1-A"
	at := slotTime(date(1), "18:00")
	table := 1

	m1 := &models.Match{GroupCode: &code, Round: 2, MatchNumber: 1, StartTime: &at, MatchDate: &at, TableNumber: &table}
	m2 := &models.Match{GroupCode: &code, Round: 2, MatchNumber: 2, StartTime: &at, MatchDate: &at, TableNumber: &table}

	problems := VerifySchedule([]*models.Match{m1, m2})
	assert.NotEmpty(t, problems)
}
