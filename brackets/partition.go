// knockout-scheduler/brackets/partition.go
package brackets

import "fmt"

const (
	// GroupSize is the largest bracket one physical day/table pool can host.
	GroupSize = 32

	// GroupsPerDay pairs groups onto shared calendar days.
	GroupsPerDay = 2

	// FinalsGroupCode marks the synthetic bracket played by group champions.
	FinalsGroupCode = "Finals"
)

// GroupPlan describes one sub-bracket of a tournament: which group code it
// carries, how many teams it holds and which tournament day ordinal it plays
// on. Groups sharing a Day value open on the same calendar day.
type GroupPlan struct {
	Code      string
	TeamCount int
	Day       int
}

// PlanGroups splits a tournament into same-size sub-brackets. Up to GroupSize
// teams fit into a single group; larger tournaments must be an exact multiple
// of GroupSize and are cut into GroupSize-team groups, two per day, with
// codes of the form "Day{d}-{A|B}".
func PlanGroups(teamCount int) ([]GroupPlan, error) {
	if teamCount <= GroupSize {
		if teamCount < 2 || teamCount&(teamCount-1) != 0 {
			return nil, ErrInvalidTeamCount
		}
		return []GroupPlan{{Code: "Day1-A", TeamCount: teamCount, Day: 1}}, nil
	}

	if teamCount%GroupSize != 0 {
		return nil, ErrInvalidTeamCount
	}

	totalGroups := teamCount / GroupSize
	plans := make([]GroupPlan, 0, totalGroups)
	for g := 0; g < totalGroups; g++ {
		day := g/GroupsPerDay + 1
		letter := rune('A' + g%GroupsPerDay)
		plans = append(plans, GroupPlan{
			Code:      fmt.Sprintf("Day%d-%c", day, letter),
			TeamCount: GroupSize,
			Day:       day,
		})
	}
	return plans, nil
}

// FinalsPlan returns the plan for the finals bracket seeded by the champions
// of groupCount groups, or nil when a single group needs no finals.
func FinalsPlan(groupCount int) *GroupPlan {
	if groupCount <= 1 {
		return nil
	}
	return &GroupPlan{Code: FinalsGroupCode, TeamCount: groupCount}
}

// DayCount reports how many distinct ordinary days a set of plans spans.
func DayCount(plans []GroupPlan) int {
	max := 0
	for _, p := range plans {
		if p.Day > max {
			max = p.Day
		}
	}
	return max
}
