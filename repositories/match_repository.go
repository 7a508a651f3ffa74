package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
	ErrMatchWinnerInvalid     = errors.New("match winner conflict or invalid")
)

const matchColumns = `id, tournament_id, group_code, round, match_number,
		team1_id, team2_id, winner_id, start_time, match_date, table_number, created_at`

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByCoordinates(ctx context.Context, tournamentID int, groupCode string, round, matchNumber int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListByGroupCodes(ctx context.Context, tournamentID int, groupCodes []string) ([]*models.Match, error)
	ListOpenSlotMatches(ctx context.Context, tournamentID int, round int) ([]*models.Match, error)
	HighestRound(ctx context.Context, tournamentID int) (int, error)
	UpdateSchedule(ctx context.Context, exec SQLExecutor, match *models.Match) error
	SetWinner(ctx context.Context, id int, winnerID int) error
	FillTeamSlot(ctx context.Context, id int, slot int, teamID int) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, group_code, round, match_number, team1_id, team2_id, winner_id, start_time, match_date, table_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	for _, match := range matches {
		err := exec.QueryRowContext(ctx, query,
			match.TournamentID,
			match.GroupCode,
			match.Round,
			match.MatchNumber,
			match.Team1ID,
			match.Team2ID,
			match.WinnerID,
			match.StartTime,
			match.MatchDate,
			match.TableNumber,
		).Scan(&match.ID, &match.CreatedAt)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByCoordinates(ctx context.Context, tournamentID int, groupCode string, round, matchNumber int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND group_code = $2 AND round = $3 AND match_number = $4`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID, groupCode, round, matchNumber))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY group_code ASC, round DESC, match_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *postgresMatchRepository) ListByGroupCodes(ctx context.Context, tournamentID int, groupCodes []string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND group_code = ANY($2)
		ORDER BY round DESC, group_code ASC, match_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, pq.Array(groupCodes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *postgresMatchRepository) ListOpenSlotMatches(ctx context.Context, tournamentID int, round int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND round = $2
		  AND (team1_id IS NULL OR team2_id IS NULL)
		ORDER BY group_code ASC, match_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *postgresMatchRepository) HighestRound(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(round), 0) FROM matches WHERE tournament_id = $1`

	var round int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&round); err != nil {
		return 0, err
	}
	return round, nil
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET start_time = $1, match_date = $2, table_number = $3
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, match.StartTime, match.MatchDate, match.TableNumber, match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetWinner(ctx context.Context, id int, winnerID int) error {
	query := `UPDATE matches SET winner_id = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, winnerID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FillTeamSlot writes teamID into the given slot (1 or 2) only while that
// slot is still empty and the other slot does not already hold the same
// team. The false result means the guarded update lost: the slot was taken
// by a concurrent writer or the team is already placed.
func (r *postgresMatchRepository) FillTeamSlot(ctx context.Context, id int, slot int, teamID int) (bool, error) {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET team1_id = $1
			WHERE id = $2 AND team1_id IS NULL AND (team2_id IS NULL OR team2_id <> $1)`
	case 2:
		query = `UPDATE matches SET team2_id = $1
			WHERE id = $2 AND team2_id IS NULL AND (team1_id IS NULL OR team1_id <> $1)`
	default:
		return false, errors.New("team slot must be 1 or 2")
	}

	result, err := r.db.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return false, r.handleMatchError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) scanOne(row *sql.Row) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.GroupCode,
		&match.Round,
		&match.MatchNumber,
		&match.Team1ID,
		&match.Team2ID,
		&match.WinnerID,
		&match.StartTime,
		&match.MatchDate,
		&match.TableNumber,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) scanAll(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		match := &models.Match{}
		if err := rows.Scan(
			&match.ID,
			&match.TournamentID,
			&match.GroupCode,
			&match.Round,
			&match.MatchNumber,
			&match.Team1ID,
			&match.Team2ID,
			&match.WinnerID,
			&match.StartTime,
			&match.MatchDate,
			&match.TableNumber,
			&match.CreatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_team1_id_fkey", "matches_team2_id_fkey":
				return ErrMatchTeamInvalid
			case "matches_winner_id_fkey":
				return ErrMatchWinnerInvalid
			}
		}
	}
	return err
}
