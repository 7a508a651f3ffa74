package services

import "errors"

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")

	// Ошибки валидации и бизнес-правил
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrWinnerNotInMatch       = errors.New("winner must be one of the match teams")
	ErrMatchTeamsIncomplete   = errors.New("match does not have both team slots filled")
	ErrTeamTournamentMismatch = errors.New("team does not belong to this tournament")
	ErrBracketFull            = errors.New("no open bracket slot available")
)
