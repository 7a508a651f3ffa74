// knockout-scheduler/brackets/scheduler.go
package brackets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/knockout-scheduler/models"
)

// DualGroupTableThreshold caps the table pool size at which two sibling
// groups ("-A"/"-B") sharing a day get separate opening slots instead of one.
// Policy constant, not a derived invariant: with 16 tables two 32-team groups
// cannot open in the same slot, so each takes its own.
const DualGroupTableThreshold = 16

// dualGroupLaterSlot is the first slot index available to later rounds on a
// dual-group day (slots 0 and 1 belong to the two opening rounds).
const dualGroupLaterSlot = 2

// maxOverflowDays bounds the day search before scheduling gives up. The
// default calendar yields two valid days every week, so hitting the bound
// means the calendar is misconfigured.
const maxOverflowDays = 366

const DefaultTableCount = 16

// DefaultTimeSlots is the ordered list of time-of-day slots a tournament day
// is divided into.
var DefaultTimeSlots = []string{"18:00", "19:30", "21:00", "22:30", "00:00", "01:30"}

var ErrInvalidTimeSlot = errors.New("time slot must be in HH:MM format")

type ScheduleOptions struct {
	TimeSlots  []string
	TableCount int
	Calendar   Calendar
}

// timeOfDay is one slot of a playing session. Slots that wrap past midnight
// still belong to the session that opened the day, so dayOffset carries them
// onto the following calendar date and keeps the slot sequence chronological.
type timeOfDay struct {
	hour      int
	minute    int
	dayOffset int
}

func (t timeOfDay) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+t.dayOffset, t.hour, t.minute, 0, 0, day.Location())
}

// slotCursor is the (currentDay, currentSlotIndex) state threaded through
// scheduling. Exhausting a day's slots moves it to the next valid calendar
// day and resets the slot index.
type slotCursor struct {
	cal       Calendar
	day       time.Time
	slotIndex int
	slotCount int
	resetTo   int
	daysUsed  int
}

func (c *slotCursor) nextDay() error {
	c.day = c.cal.NextValidDay(c.day, false)
	c.slotIndex = c.resetTo
	c.daysUsed++
	if c.daysUsed > maxOverflowDays {
		return ErrSchedulingOverflow
	}
	return nil
}

// ScheduleMatches assigns every match a start time, match date and table
// number, mutating the matches in place. Rounds are processed from the
// highest round number (earliest bracket round) down to the final.
//
// When the match set holds two sibling groups, the table pool is at most
// DualGroupTableThreshold and each opening round fits its table pool, the two
// groups' opening rounds each take their own slot on the start day so they
// can run simultaneously on disjoint tables. Otherwise every round, opening
// included, fills at most TableCount matches per slot, then advances the
// slot cursor, overflowing to the next valid calendar day when the day's
// slots run out.
func ScheduleMatches(matches []*models.Match, startDate time.Time, opts ScheduleOptions) error {
	if startDate.IsZero() {
		return ErrInvalidStartDate
	}
	if len(opts.TimeSlots) == 0 {
		opts.TimeSlots = DefaultTimeSlots
	}
	if opts.TableCount <= 0 {
		opts.TableCount = DefaultTableCount
	}

	slots, err := parseTimeSlots(opts.TimeSlots)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	byRound := make(map[int][]*models.Match)
	for _, m := range matches {
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rounds)))
	for _, r := range rounds {
		sortRound(byRound[r])
	}

	opening := byRound[rounds[0]]
	dual := dualGroupDay(matches, opts.TableCount) &&
		len(slots) >= GroupsPerDay &&
		openingFitsOwnSlot(opening, opts.TableCount)

	cur := slotCursor{cal: opts.Calendar, day: startDate, slotCount: len(slots)}
	if dual {
		cur.resetTo = dualGroupLaterSlot
	}

	if dual {
		codes := distinctGroupCodes(opening)
		for g, code := range codes {
			slotIdx := g
			if slotIdx >= len(slots) {
				slotIdx = 0
			}
			at := slots[slotIdx].on(cur.day)
			i := 0
			for _, m := range opening {
				if m.GroupCode == nil || *m.GroupCode != code {
					continue
				}
				setSchedule(m, at, i%opts.TableCount+1)
				i++
			}
		}
		cur.slotIndex = dualGroupLaterSlot
	} else {
		if err := assignRound(&cur, slots, opening, opts.TableCount); err != nil {
			return err
		}
	}

	for _, r := range rounds[1:] {
		if err := assignRound(&cur, slots, byRound[r], opts.TableCount); err != nil {
			return err
		}
	}

	return nil
}

// assignRound fills one round through the cursor: at most tableCount matches
// per slot, tables numbered 1..tableCount within a slot.
func assignRound(cur *slotCursor, slots []timeOfDay, round []*models.Match, tableCount int) error {
	i := 0
	for i < len(round) {
		// Re-check after every advance: a dual-group day resets the cursor
		// past the opening slots, which a short slot list may not have.
		for cur.slotIndex >= cur.slotCount {
			if err := cur.nextDay(); err != nil {
				return err
			}
		}
		at := slots[cur.slotIndex].on(cur.day)
		for t := 0; t < tableCount && i < len(round); t++ {
			setSchedule(round[i], at, t+1)
			i++
		}
		cur.slotIndex++
	}
	return nil
}

// openingFitsOwnSlot reports whether every group's opening round fits the
// table pool in a single slot, the precondition for giving each group one
// dedicated opening slot.
func openingFitsOwnSlot(opening []*models.Match, tableCount int) bool {
	perGroup := make(map[string]int)
	for _, m := range opening {
		if m.GroupCode == nil {
			continue
		}
		perGroup[*m.GroupCode]++
		if perGroup[*m.GroupCode] > tableCount {
			return false
		}
	}
	return true
}

// dualGroupDay reports whether the match set spans the two sibling groups of
// one day and the table pool is small enough to force separate opening slots.
func dualGroupDay(matches []*models.Match, tableCount int) bool {
	if tableCount > DualGroupTableThreshold {
		return false
	}
	hasA, hasB := false, false
	for _, m := range matches {
		if m.GroupCode == nil {
			continue
		}
		switch {
		case strings.HasSuffix(*m.GroupCode, "-A"):
			hasA = true
		case strings.HasSuffix(*m.GroupCode, "-B"):
			hasB = true
		}
	}
	return hasA && hasB
}

func distinctGroupCodes(matches []*models.Match) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0, 2)
	for _, m := range matches {
		if m.GroupCode == nil {
			continue
		}
		if _, ok := seen[*m.GroupCode]; ok {
			continue
		}
		seen[*m.GroupCode] = struct{}{}
		codes = append(codes, *m.GroupCode)
	}
	sort.Strings(codes)
	return codes
}

func sortRound(round []*models.Match) {
	sort.Slice(round, func(i, j int) bool {
		gi, gj := "", ""
		if round[i].GroupCode != nil {
			gi = *round[i].GroupCode
		}
		if round[j].GroupCode != nil {
			gj = *round[j].GroupCode
		}
		if gi != gj {
			return gi < gj
		}
		return round[i].MatchNumber < round[j].MatchNumber
	})
}

// setSchedule writes the same instant into both time fields. They exist as a
// pair for downstream display reasons and must never diverge.
func setSchedule(m *models.Match, at time.Time, table int) {
	start := at
	date := at
	m.StartTime = &start
	m.MatchDate = &date
	m.TableNumber = &table
}

func parseTimeSlots(raw []string) ([]timeOfDay, error) {
	slots := make([]timeOfDay, 0, len(raw))
	offset := 0
	prev := -1
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
		}
		hour, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
		}
		minute, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
		}
		// A slot earlier than its predecessor has wrapped past midnight.
		minutes := hour*60 + minute
		if minutes < prev {
			offset++
		}
		prev = minutes
		slots = append(slots, timeOfDay{hour: hour, minute: minute, dayOffset: offset})
	}
	return slots, nil
}

// VerifySchedule reports human-readable problems with an assigned schedule:
// a later round starting before an earlier one, or two matches sharing a
// table in the same slot. An empty result means the schedule is consistent.
func VerifySchedule(matches []*models.Match) []string {
	var problems []string

	byRound := make(map[int][]*models.Match)
	for _, m := range matches {
		byRound[m.Round] = append(byRound[m.Round], m)
	}
	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rounds)))

	var lastTime time.Time
	for _, r := range rounds {
		for _, m := range byRound[r] {
			if m.StartTime == nil {
				problems = append(problems, fmt.Sprintf("round %d match %d has no start time", m.Round, m.MatchNumber))
				continue
			}
			if m.StartTime.Before(lastTime) {
				problems = append(problems, fmt.Sprintf("round %d match %d at %s starts before previous round at %s",
					m.Round, m.MatchNumber, m.StartTime.Format(time.RFC3339), lastTime.Format(time.RFC3339)))
			}
			if m.StartTime.After(lastTime) {
				lastTime = *m.StartTime
			}
		}
	}

	type slotKey struct {
		at    time.Time
		table int
	}
	occupied := make(map[slotKey]*models.Match)
	for _, m := range matches {
		if m.StartTime == nil || m.TableNumber == nil {
			continue
		}
		key := slotKey{at: *m.StartTime, table: *m.TableNumber}
		if other, ok := occupied[key]; ok {
			problems = append(problems, fmt.Sprintf("table %d double-booked at %s (round %d match %d vs round %d match %d)",
				*m.TableNumber, m.StartTime.Format(time.RFC3339), m.Round, m.MatchNumber, other.Round, other.MatchNumber))
			continue
		}
		occupied[key] = m
	}

	return problems
}
