package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusScheduled TournamentStatus = "scheduled"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Location    *string          `json:"location,omitempty" db:"location"`
	TeamCount   int              `json:"team_count" db:"team_count"`
	TableCount  int              `json:"table_count" db:"table_count"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     *time.Time       `json:"end_date,omitempty" db:"end_date"`
	LastRegDate *time.Time       `json:"last_reg_date,omitempty" db:"last_reg_date"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
