package models

import "time"

// Match is one node of a single-elimination bracket. The tree keeps no
// parent/child links: the match in round r at position n feeds its winner
// into round r-1 at position (n-1)/2+1 within the same group.
type Match struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	GroupCode    *string    `json:"group_code,omitempty" db:"group_code"`
	Round        int        `json:"round" db:"round"`
	MatchNumber  int        `json:"match_number" db:"match_number"`
	Team1ID      *int       `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *int       `json:"team2_id,omitempty" db:"team2_id"`
	WinnerID     *int       `json:"winner_id,omitempty" db:"winner_id"`
	StartTime    *time.Time `json:"start_time,omitempty" db:"start_time"`
	MatchDate    *time.Time `json:"match_date,omitempty" db:"match_date"`
	TableNumber  *int       `json:"table_number,omitempty" db:"table_number"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Scheduled reports whether the scheduler has assigned this match a slot.
func (m *Match) Scheduled() bool {
	return m.StartTime != nil && m.MatchDate != nil && m.TableNumber != nil
}
