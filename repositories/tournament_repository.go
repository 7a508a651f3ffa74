package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

const tournamentColumns = `id, name, location, team_count, table_count,
		start_date, end_date, last_reg_date, status, created_at`

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	MarkActiveByDate(ctx context.Context, now time.Time) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, location, team_count, table_count, start_date, end_date, last_reg_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Location,
		tournament.TeamCount,
		tournament.TableCount,
		tournament.StartDate,
		tournament.EndDate,
		tournament.LastRegDate,
		tournament.Status,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrTournamentNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Location,
		&tournament.TeamCount,
		&tournament.TableCount,
		&tournament.StartDate,
		&tournament.EndDate,
		&tournament.LastRegDate,
		&tournament.Status,
		&tournament.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		ORDER BY start_date ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		tournament := &models.Tournament{}
		if err := rows.Scan(
			&tournament.ID,
			&tournament.Name,
			&tournament.Location,
			&tournament.TeamCount,
			&tournament.TableCount,
			&tournament.StartDate,
			&tournament.EndDate,
			&tournament.LastRegDate,
			&tournament.Status,
			&tournament.CreatedAt,
		); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, tournament)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// MarkActiveByDate flips scheduled tournaments whose start date has passed to
// active and returns how many rows changed.
func (r *postgresTournamentRepository) MarkActiveByDate(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE tournaments SET status = $1 WHERE status = $2 AND start_date <= $3`

	result, err := r.db.ExecContext(ctx, query, models.StatusActive, models.StatusScheduled, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
