// knockout-scheduler/brackets/builder.go
package brackets

import (
	"errors"
	"math/bits"

	"github.com/Dosada05/knockout-scheduler/models"
)

var (
	ErrInvalidTeamCount   = errors.New("team count must be a power of two (2-32) or a multiple of 32")
	ErrInvalidStartDate   = errors.New("invalid start date provided")
	ErrSchedulingOverflow = errors.New("matches do not fit into the available days and tables")
)

// BuildBracket produces an empty single-elimination bracket for teamCount
// teams. Rounds are numbered from the final outwards: round 1 is the final,
// round log2(teamCount) is the earliest round with teamCount/2 matches. The
// first element of the returned slice holds the earliest round, the last one
// the final.
//
// Every produced match has empty team slots, no winner and no schedule.
// Tournament and group association is left to the caller. Pure function.
func BuildBracket(teamCount int) ([][]*models.Match, error) {
	if teamCount < 2 || teamCount&(teamCount-1) != 0 {
		return nil, ErrInvalidTeamCount
	}

	totalRounds := bits.Len(uint(teamCount)) - 1
	bracket := make([][]*models.Match, 0, totalRounds)

	matchCount := teamCount / 2
	for r := totalRounds; r >= 1; r-- {
		round := make([]*models.Match, matchCount)
		for m := range round {
			round[m] = &models.Match{
				Round:       r,
				MatchNumber: m + 1,
			}
		}
		bracket = append(bracket, round)
		matchCount /= 2
	}

	return bracket, nil
}

// Flatten collapses a bracket into a single slice, earliest round first,
// stamping tournament and group on every match.
func Flatten(bracket [][]*models.Match, tournamentID int, groupCode string) []*models.Match {
	total := 0
	for _, round := range bracket {
		total += len(round)
	}

	flat := make([]*models.Match, 0, total)
	for _, round := range bracket {
		for _, m := range round {
			code := groupCode
			m.TournamentID = tournamentID
			m.GroupCode = &code
			flat = append(flat, m)
		}
	}
	return flat
}

// NextMatchNumber returns the position in round-1 that the winner of the
// match at matchNumber advances to.
func NextMatchNumber(matchNumber int) int {
	return (matchNumber-1)/2 + 1
}
